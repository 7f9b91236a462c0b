package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"keepsake-backend-go/internal/models"
)

// firestoreGrantRepository implements GrantRepository on Firestore. The
// document ID is the concatenation of the (vaultId, scopeType, scopeId,
// userId) unique key.
type firestoreGrantRepository struct {
	s *firestoreStore
}

func (r *firestoreGrantRepository) Set(ctx context.Context, grant *models.PermissionGrant) error {
	if grant.VaultID == "" || grant.ScopeID == "" || grant.UserID == "" {
		return errors.New("grant vaultID, scopeID and userID cannot be empty for Set operation")
	}
	grant.ID = models.GrantID(grant.VaultID, grant.ScopeType, grant.ScopeID, grant.UserID)
	ref := r.s.client.Collection(grantsCollection).Doc(grant.ID)
	if err := r.s.setDoc(ctx, ref, grant); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreGrantRepository) Get(ctx context.Context, vaultID string, scopeType models.ScopeType, scopeID, userID string) (*models.PermissionGrant, error) {
	if vaultID == "" || scopeID == "" || userID == "" {
		return nil, errors.New("vaultID, scopeID and userID cannot be empty for Get operation")
	}
	id := models.GrantID(vaultID, scopeType, scopeID, userID)
	snap, err := r.s.getDoc(ctx, r.s.client.Collection(grantsCollection).Doc(id))
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	var grant models.PermissionGrant
	if err := snap.DataTo(&grant); err != nil {
		return nil, fmt.Errorf("failed to decode grant '%s': %w", id, err)
	}
	grant.ID = snap.Ref.ID
	return &grant, nil
}

func (r *firestoreGrantRepository) GetByVaultID(ctx context.Context, vaultID string) ([]*models.PermissionGrant, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for GetByVaultID operation")
	}
	query := r.s.client.Collection(grantsCollection).Where("vaultId", "==", vaultID)
	return r.collect(ctx, query)
}

func (r *firestoreGrantRepository) GetByScope(ctx context.Context, scopeType models.ScopeType, scopeID string) ([]*models.PermissionGrant, error) {
	if scopeID == "" {
		return nil, errors.New("scopeID cannot be empty for GetByScope operation")
	}
	query := r.s.client.Collection(grantsCollection).
		Where("scopeType", "==", string(scopeType)).
		Where("scopeId", "==", scopeID)
	return r.collect(ctx, query)
}

func (r *firestoreGrantRepository) Delete(ctx context.Context, grantID string) error {
	if grantID == "" {
		return errors.New("grantID cannot be empty for Delete operation")
	}
	if err := r.s.deleteDoc(ctx, r.s.client.Collection(grantsCollection).Doc(grantID)); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreGrantRepository) collect(ctx context.Context, query firestore.Query) ([]*models.PermissionGrant, error) {
	iter := r.s.docs(ctx, query)
	defer iter.Stop()

	var grants []*models.PermissionGrant
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate grants: %w", mapFirestoreError(err))
		}
		var grant models.PermissionGrant
		if err := doc.DataTo(&grant); err != nil {
			return nil, fmt.Errorf("failed to decode grant '%s': %w", doc.Ref.ID, err)
		}
		grant.ID = doc.Ref.ID
		grants = append(grants, &grant)
	}
	return grants, nil
}
