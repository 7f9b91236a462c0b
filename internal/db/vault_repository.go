package db

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/iterator"

	"keepsake-backend-go/internal/models"
)

// firestoreVaultRepository implements VaultRepository on Firestore.
type firestoreVaultRepository struct {
	s *firestoreStore
}

func (r *firestoreVaultRepository) Create(ctx context.Context, vault *models.Vault) error {
	if vault.ID == "" {
		return errors.New("vault ID cannot be empty for Create operation")
	}
	ref := r.s.client.Collection(vaultsCollection).Doc(vault.ID)
	if err := r.s.createDoc(ctx, ref, vault); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreVaultRepository) GetByID(ctx context.Context, vaultID string) (*models.Vault, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for GetByID operation")
	}
	snap, err := r.s.getDoc(ctx, r.s.client.Collection(vaultsCollection).Doc(vaultID))
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	var vault models.Vault
	if err := snap.DataTo(&vault); err != nil {
		return nil, fmt.Errorf("failed to decode vault '%s': %w", vaultID, err)
	}
	vault.ID = snap.Ref.ID
	return &vault, nil
}

func (r *firestoreVaultRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*models.Vault, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID cannot be empty for GetByOwnerID operation")
	}
	query := r.s.client.Collection(vaultsCollection).Where("ownerId", "==", ownerID)
	iter := r.s.docs(ctx, query)
	defer iter.Stop()

	var vaults []*models.Vault
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate vaults for owner '%s': %w", ownerID, mapFirestoreError(err))
		}
		var vault models.Vault
		if err := doc.DataTo(&vault); err != nil {
			return nil, fmt.Errorf("failed to decode vault '%s': %w", doc.Ref.ID, err)
		}
		vault.ID = doc.Ref.ID
		vaults = append(vaults, &vault)
	}
	return vaults, nil
}

func (r *firestoreVaultRepository) Delete(ctx context.Context, vaultID string) error {
	if vaultID == "" {
		return errors.New("vaultID cannot be empty for Delete operation")
	}
	if err := r.s.deleteDoc(ctx, r.s.client.Collection(vaultsCollection).Doc(vaultID)); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}
