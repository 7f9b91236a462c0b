package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/models"
)

// auditService implements the AuditService interface.
type auditService struct {
	auditRepo db.AuditRepository
	logger    *zap.Logger
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(auditRepo db.AuditRepository, logger *zap.Logger) AuditService {
	return &auditService{auditRepo: auditRepo, logger: logger}
}

// Record appends an audit event. A failed write is logged and swallowed so
// that auditing never fails the operation being audited.
func (s *auditService) Record(ctx context.Context, entry models.AuditLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("targetType", entry.TargetType),
			zap.String("targetId", entry.TargetID),
			zap.Error(err))
	}
}
