package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/models"
	"keepsake-backend-go/pkg/eventbus"
)

// collectionService implements the CollectionService interface.
type collectionService struct {
	store    db.Store
	resolver *Resolver
	audit    AuditService
	events   eventbus.Publisher
	logger   *zap.Logger
}

// NewCollectionService creates a new CollectionService instance.
func NewCollectionService(store db.Store, resolver *Resolver, audit AuditService, events eventbus.Publisher, logger *zap.Logger) CollectionService {
	return &collectionService{store: store, resolver: resolver, audit: audit, events: events, logger: logger}
}

// CreateCollection creates a collection in the vault. Requires the Create
// permission, which lives at the vault-membership level.
func (s *collectionService) CreateCollection(ctx context.Context, userID, vaultID string, req models.CreateCollectionRequest) (*models.Collection, error) {
	collection := &models.Collection{
		ID:      uuid.NewString(),
		VaultID: vaultID,
		Name:    req.Name,
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		allowed, err := s.resolver.resolve(ctx, tx, userID, models.VaultRef(vaultID), models.ActionCreate)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: user '%s' may not create collections in vault '%s'", ErrPermissionDenied, userID, vaultID)
		}
		return tx.Collections().Create(ctx, collection)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "COLLECTION_CREATE",
		TargetType: "COLLECTION",
		TargetID:   collection.ID,
		Details:    map[string]interface{}{"vaultId": vaultID, "name": collection.Name},
	})
	publishEvent(ctx, s.logger, s.events, "collection.created", "COLLECTION", collection.ID, vaultID, userID)

	return collection, nil
}

// MoveCollection re-parents the collection and all its assets to the target
// vault, then prunes grants on the collection and its assets whose holders
// have no ACTIVE membership on the destination. Surviving grants are re-keyed
// under the destination vault. Moving to the current vault is a no-op.
func (s *collectionService) MoveCollection(ctx context.Context, userID, collectionID, targetVaultID string) (*models.Collection, []*models.Asset, error) {
	var (
		moved  *models.Collection
		assets []*models.Asset
		noop   bool
	)

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		collection, err := tx.Collections().GetByID(ctx, collectionID)
		if err != nil {
			return mapStoreError(err, "collection", collectionID)
		}
		allowed, err := s.resolver.resolve(ctx, tx, userID, models.CollectionRef(collectionID), models.ActionMove)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: user '%s' may not move collection '%s'", ErrPermissionDenied, userID, collectionID)
		}

		assets, err = tx.Assets().GetByCollectionID(ctx, collectionID)
		if err != nil {
			return err
		}
		if collection.VaultID == targetVaultID {
			moved = collection
			noop = true
			return nil
		}
		if _, err := tx.Vaults().GetByID(ctx, targetVaultID); err != nil {
			return mapStoreError(err, "vault", targetVaultID)
		}

		grants, err := collectionScopedGrants(ctx, tx, collection, assets)
		if err != nil {
			return err
		}
		if err := pruneGrants(ctx, tx, grants, targetVaultID); err != nil {
			return err
		}

		collection.VaultID = targetVaultID
		if err := tx.Collections().Update(ctx, collection); err != nil {
			return err
		}
		for _, asset := range assets {
			asset.VaultID = targetVaultID
			if err := tx.Assets().Update(ctx, asset); err != nil {
				return err
			}
		}
		moved = collection
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if assets == nil {
		// Keep the response shape stable: an empty collection moves with an
		// empty asset list, not a null.
		assets = []*models.Asset{}
	}
	if noop {
		return moved, assets, nil
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "COLLECTION_MOVE",
		TargetType: "COLLECTION",
		TargetID:   collectionID,
		Details:    map[string]interface{}{"targetVaultId": targetVaultID},
	})
	publishEvent(ctx, s.logger, s.events, "collection.moved", "COLLECTION", collectionID, targetVaultID, userID)

	return moved, assets, nil
}

// DeleteCollection deletes a collection, its assets, and every grant scoped
// to the collection or those assets.
func (s *collectionService) DeleteCollection(ctx context.Context, userID, collectionID string) error {
	var vaultID string
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		collection, err := tx.Collections().GetByID(ctx, collectionID)
		if err != nil {
			return mapStoreError(err, "collection", collectionID)
		}
		vaultID = collection.VaultID

		allowed, err := s.resolver.resolve(ctx, tx, userID, models.CollectionRef(collectionID), models.ActionDelete)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: user '%s' may not delete collection '%s'", ErrPermissionDenied, userID, collectionID)
		}

		assets, err := tx.Assets().GetByCollectionID(ctx, collectionID)
		if err != nil {
			return err
		}
		grants, err := collectionScopedGrants(ctx, tx, collection, assets)
		if err != nil {
			return err
		}

		for _, asset := range assets {
			if err := tx.Assets().Delete(ctx, asset.ID); err != nil {
				return err
			}
		}
		for _, grant := range grants {
			if err := tx.Grants().Delete(ctx, grant.ID); err != nil {
				return err
			}
		}
		return tx.Collections().Delete(ctx, collectionID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "COLLECTION_DELETE",
		TargetType: "COLLECTION",
		TargetID:   collectionID,
	})
	publishEvent(ctx, s.logger, s.events, "collection.deleted", "COLLECTION", collectionID, vaultID, userID)

	return nil
}

// collectionScopedGrants gathers the grants scoped to the collection itself
// and to each of its assets.
func collectionScopedGrants(ctx context.Context, tx db.Store, collection *models.Collection, assets []*models.Asset) ([]*models.PermissionGrant, error) {
	grants, err := tx.Grants().GetByScope(ctx, models.ScopeCollection, collection.ID)
	if err != nil {
		return nil, err
	}
	for _, asset := range assets {
		assetGrants, err := tx.Grants().GetByScope(ctx, models.ScopeAsset, asset.ID)
		if err != nil {
			return nil, err
		}
		grants = append(grants, assetGrants...)
	}
	return grants, nil
}

// pruneGrants applies the cross-vault invalidation rule: grants whose holder
// has an ACTIVE membership on the destination vault are re-keyed under it;
// all others are deleted. Membership reads happen before the first write so
// the whole pass fits one Firestore transaction.
func pruneGrants(ctx context.Context, tx db.Store, grants []*models.PermissionGrant, targetVaultID string) error {
	surviving := make(map[string]bool, len(grants))
	for _, grant := range grants {
		if _, seen := surviving[grant.UserID]; seen {
			continue
		}
		membership, err := tx.Memberships().Get(ctx, targetVaultID, grant.UserID)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return err
		}
		surviving[grant.UserID] = err == nil && membership.Status == models.StatusActive
	}

	for _, grant := range grants {
		if err := tx.Grants().Delete(ctx, grant.ID); err != nil {
			return err
		}
		if !surviving[grant.UserID] {
			continue
		}
		rekeyed := &models.PermissionGrant{
			VaultID:     targetVaultID,
			ScopeType:   grant.ScopeType,
			ScopeID:     grant.ScopeID,
			UserID:      grant.UserID,
			Permissions: grant.Permissions,
			CreatedAt:   grant.CreatedAt,
		}
		if err := tx.Grants().Set(ctx, rekeyed); err != nil {
			return err
		}
	}
	return nil
}
