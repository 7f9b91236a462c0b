package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/models"
)

// readService implements the ReadService interface.
type readService struct {
	store    db.Store
	resolver *Resolver
}

// NewReadService creates a new ReadService instance.
func NewReadService(store db.Store, resolver *Resolver) ReadService {
	return &readService{store: store, resolver: resolver}
}

// VisibleVaults returns the vaults the user owns plus the vaults where they
// hold an ACTIVE membership.
func (s *readService) VisibleVaults(ctx context.Context, userID string) ([]*models.Vault, error) {
	owned, err := s.store.Vaults().GetByOwnerID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned vaults for user '%s': %w", userID, err)
	}
	seen := make(map[string]bool, len(owned))
	for _, vault := range owned {
		seen[vault.ID] = true
	}

	memberships, err := s.store.Memberships().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships for user '%s': %w", userID, err)
	}

	vaults := owned
	for _, membership := range memberships {
		if membership.Status != models.StatusActive || seen[membership.VaultID] {
			continue
		}
		vault, err := s.store.Vaults().GetByID(ctx, membership.VaultID)
		if errors.Is(err, db.ErrNotFound) {
			// Membership can briefly outlive its vault in a reader's view of
			// an in-flight cascade; skip rather than fail the listing.
			continue
		}
		if err != nil {
			return nil, err
		}
		seen[vault.ID] = true
		vaults = append(vaults, vault)
	}

	sort.Slice(vaults, func(i, j int) bool {
		if !vaults[i].CreatedAt.Equal(vaults[j].CreatedAt) {
			return vaults[i].CreatedAt.Before(vaults[j].CreatedAt)
		}
		return vaults[i].ID < vaults[j].ID
	})
	return vaults, nil
}

// VisibleCollections returns the vault's collections if the user may View
// the vault.
func (s *readService) VisibleCollections(ctx context.Context, userID, vaultID string) ([]*models.Collection, error) {
	allowed, err := s.resolver.Resolve(ctx, userID, models.VaultRef(vaultID), models.ActionView)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: user '%s' may not view vault '%s'", ErrPermissionDenied, userID, vaultID)
	}
	collections, err := s.store.Collections().GetByVaultID(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	sort.Slice(collections, func(i, j int) bool { return collections[i].ID < collections[j].ID })
	return collections, nil
}

// VisibleAssets returns the collection's assets if the user may View the
// collection.
func (s *readService) VisibleAssets(ctx context.Context, userID, collectionID string) ([]*models.Asset, error) {
	allowed, err := s.resolver.Resolve(ctx, userID, models.CollectionRef(collectionID), models.ActionView)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: user '%s' may not view collection '%s'", ErrPermissionDenied, userID, collectionID)
	}
	assets, err := s.store.Assets().GetByCollectionID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	return assets, nil
}
