package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/models"
	"keepsake-backend-go/pkg/eventbus"
)

// assetService implements the AssetService interface.
type assetService struct {
	store    db.Store
	resolver *Resolver
	audit    AuditService
	events   eventbus.Publisher
	logger   *zap.Logger
}

// NewAssetService creates a new AssetService instance.
func NewAssetService(store db.Store, resolver *Resolver, audit AuditService, events eventbus.Publisher, logger *zap.Logger) AssetService {
	return &assetService{store: store, resolver: resolver, audit: audit, events: events, logger: logger}
}

// CreateAsset creates an asset in the collection. The Create check runs
// against the collection's vault membership; the asset's vaultId is derived
// from the collection, never supplied by the caller.
func (s *assetService) CreateAsset(ctx context.Context, userID, collectionID string, req models.CreateAssetRequest) (*models.Asset, error) {
	var value float64
	if req.Value != nil {
		value = *req.Value
	}
	if value < 0 {
		return nil, fmt.Errorf("%w: asset value must be non-negative", ErrPreconditionFailed)
	}

	asset := &models.Asset{
		ID:           uuid.NewString(),
		CollectionID: collectionID,
		Title:        req.Title,
		Value:        value,
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		collection, err := tx.Collections().GetByID(ctx, collectionID)
		if err != nil {
			return mapStoreError(err, "collection", collectionID)
		}
		allowed, err := s.resolver.resolve(ctx, tx, userID, models.CollectionRef(collectionID), models.ActionCreate)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: user '%s' may not create assets in collection '%s'", ErrPermissionDenied, userID, collectionID)
		}
		asset.VaultID = collection.VaultID
		return tx.Assets().Create(ctx, asset)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "ASSET_CREATE",
		TargetType: "ASSET",
		TargetID:   asset.ID,
		Details:    map[string]interface{}{"collectionId": collectionID, "title": asset.Title},
	})
	publishEvent(ctx, s.logger, s.events, "asset.created", "ASSET", asset.ID, asset.VaultID, userID)

	return asset, nil
}

// MoveAsset re-parents the asset under the target collection and re-derives
// its vaultId. A cross-vault move prunes the asset's grants against the
// destination's memberships. Moving to the current collection is a no-op.
func (s *assetService) MoveAsset(ctx context.Context, userID, assetID, targetCollectionID string) (*models.Asset, error) {
	var (
		moved *models.Asset
		noop  bool
	)

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		asset, err := tx.Assets().GetByID(ctx, assetID)
		if err != nil {
			return mapStoreError(err, "asset", assetID)
		}
		allowed, err := s.resolver.resolve(ctx, tx, userID, models.AssetRef(assetID), models.ActionMove)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: user '%s' may not move asset '%s'", ErrPermissionDenied, userID, assetID)
		}

		if asset.CollectionID == targetCollectionID {
			moved = asset
			noop = true
			return nil
		}
		target, err := tx.Collections().GetByID(ctx, targetCollectionID)
		if err != nil {
			return mapStoreError(err, "collection", targetCollectionID)
		}

		if target.VaultID != asset.VaultID {
			grants, err := tx.Grants().GetByScope(ctx, models.ScopeAsset, assetID)
			if err != nil {
				return err
			}
			if err := pruneGrants(ctx, tx, grants, target.VaultID); err != nil {
				return err
			}
		}

		asset.CollectionID = target.ID
		asset.VaultID = target.VaultID
		if err := tx.Assets().Update(ctx, asset); err != nil {
			return err
		}
		moved = asset
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noop {
		return moved, nil
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "ASSET_MOVE",
		TargetType: "ASSET",
		TargetID:   assetID,
		Details:    map[string]interface{}{"targetCollectionId": targetCollectionID},
	})
	publishEvent(ctx, s.logger, s.events, "asset.moved", "ASSET", assetID, moved.VaultID, userID)

	return moved, nil
}

// DeleteAsset deletes the asset and every grant scoped to it.
func (s *assetService) DeleteAsset(ctx context.Context, userID, assetID string) error {
	var vaultID string
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		asset, err := tx.Assets().GetByID(ctx, assetID)
		if err != nil {
			return mapStoreError(err, "asset", assetID)
		}
		vaultID = asset.VaultID

		allowed, err := s.resolver.resolve(ctx, tx, userID, models.AssetRef(assetID), models.ActionDelete)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: user '%s' may not delete asset '%s'", ErrPermissionDenied, userID, assetID)
		}

		grants, err := tx.Grants().GetByScope(ctx, models.ScopeAsset, assetID)
		if err != nil {
			return err
		}
		for _, grant := range grants {
			if err := tx.Grants().Delete(ctx, grant.ID); err != nil {
				return err
			}
		}
		return tx.Assets().Delete(ctx, assetID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "ASSET_DELETE",
		TargetType: "ASSET",
		TargetID:   assetID,
	})
	publishEvent(ctx, s.logger, s.events, "asset.deleted", "ASSET", assetID, vaultID, userID)

	return nil
}
