package db

import (
	"context"

	"keepsake-backend-go/internal/models"
)

// firestoreAuditRepository appends audit events with auto-generated IDs.
// Audit writes are fire-and-forget from the services' point of view, so they
// intentionally bypass any ambient transaction.
type firestoreAuditRepository struct {
	s *firestoreStore
}

func (r *firestoreAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	docRef := r.s.client.Collection(auditLogsCollection).NewDoc()
	logEntry.ID = docRef.ID
	_, err := docRef.Create(ctx, logEntry)
	return mapFirestoreError(err)
}
