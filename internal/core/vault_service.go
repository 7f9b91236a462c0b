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

// vaultService implements the VaultService interface.
type vaultService struct {
	store    db.Store
	resolver *Resolver
	audit    AuditService
	events   eventbus.Publisher
	logger   *zap.Logger
}

// NewVaultService creates a new VaultService instance.
func NewVaultService(store db.Store, resolver *Resolver, audit AuditService, events eventbus.Publisher, logger *zap.Logger) VaultService {
	return &vaultService{store: store, resolver: resolver, audit: audit, events: events, logger: logger}
}

// CreateVault creates a vault and its OWNER membership in one transaction:
// either both records exist afterwards or neither does.
func (s *vaultService) CreateVault(ctx context.Context, ownerID string, req models.CreateVaultRequest) (*models.Vault, error) {
	if _, err := s.store.Users().GetByID(ctx, ownerID); err != nil {
		return nil, mapStoreError(err, "user", ownerID)
	}

	vault := &models.Vault{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      req.Name,
		IsDefault: req.IsDefault,
	}
	ownerMembership := &models.Membership{
		VaultID: vault.ID,
		UserID:  ownerID,
		Role:    models.RoleOwner,
		Status:  models.StatusActive,
		Permissions: models.PermissionSet{
			View: true, Create: true, Edit: true, Move: true, Delete: true,
		},
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		if err := tx.Vaults().Create(ctx, vault); err != nil {
			return mapStoreError(err, "vault", vault.ID)
		}
		return tx.Memberships().Set(ctx, ownerMembership)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vault: %w", err)
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     ownerID,
		Action:     "VAULT_CREATE",
		TargetType: "VAULT",
		TargetID:   vault.ID,
		Details:    map[string]interface{}{"name": vault.Name},
	})
	publishEvent(ctx, s.logger, s.events, "vault.created", "VAULT", vault.ID, vault.ID, ownerID)

	return vault, nil
}

// GetVault returns the vault if the user may View it.
func (s *vaultService) GetVault(ctx context.Context, userID, vaultID string) (*models.Vault, error) {
	allowed, err := s.resolver.Resolve(ctx, userID, models.VaultRef(vaultID), models.ActionView)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: user '%s' may not view vault '%s'", ErrPermissionDenied, userID, vaultID)
	}
	vault, err := s.store.Vaults().GetByID(ctx, vaultID)
	if err != nil {
		return nil, mapStoreError(err, "vault", vaultID)
	}
	return vault, nil
}

// DeleteVault deletes a vault and everything scoped to it. Owner-only: no
// membership or grant can authorize it. Deletion order inside the
// transaction: assets, collections, memberships, grants, then the vault.
func (s *vaultService) DeleteVault(ctx context.Context, userID, vaultID string) error {
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		vault, err := tx.Vaults().GetByID(ctx, vaultID)
		if err != nil {
			return mapStoreError(err, "vault", vaultID)
		}
		if vault.OwnerID != userID {
			return fmt.Errorf("%w: only the owner may delete vault '%s'", ErrPermissionDenied, vaultID)
		}

		// Gather every dependent record before the first write; Firestore
		// transactions require reads to precede writes.
		assets, err := tx.Assets().GetByVaultID(ctx, vaultID)
		if err != nil {
			return err
		}
		collections, err := tx.Collections().GetByVaultID(ctx, vaultID)
		if err != nil {
			return err
		}
		memberships, err := tx.Memberships().GetByVaultID(ctx, vaultID)
		if err != nil {
			return err
		}
		if len(memberships) == 0 {
			// Every vault carries at least its OWNER membership; its absence
			// is a defect in the hierarchy operations, not a user error.
			s.logger.Error("invariant violation: vault has no memberships",
				zap.String("vaultId", vaultID))
			return fmt.Errorf("%w: vault '%s' has no owner membership on record", ErrPreconditionFailed, vaultID)
		}
		grants, err := tx.Grants().GetByVaultID(ctx, vaultID)
		if err != nil {
			return err
		}

		for _, asset := range assets {
			if err := tx.Assets().Delete(ctx, asset.ID); err != nil {
				return err
			}
		}
		for _, collection := range collections {
			if err := tx.Collections().Delete(ctx, collection.ID); err != nil {
				return err
			}
		}
		for _, membership := range memberships {
			if err := tx.Memberships().Delete(ctx, membership.ID); err != nil {
				return err
			}
		}
		for _, grant := range grants {
			if err := tx.Grants().Delete(ctx, grant.ID); err != nil {
				return err
			}
		}
		return tx.Vaults().Delete(ctx, vaultID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     userID,
		Action:     "VAULT_DELETE",
		TargetType: "VAULT",
		TargetID:   vaultID,
	})
	publishEvent(ctx, s.logger, s.events, "vault.deleted", "VAULT", vaultID, vaultID, userID)

	return nil
}
