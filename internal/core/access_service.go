package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/models"
	"keepsake-backend-go/pkg/eventbus"
)

// accessService implements the AccessService interface. Every mutation
// re-checks vault ownership inside its own transaction instead of trusting
// that the caller already asked the resolver.
type accessService struct {
	store    db.Store
	resolver *Resolver
	audit    AuditService
	events   eventbus.Publisher
	logger   *zap.Logger
}

// NewAccessService creates a new AccessService instance.
func NewAccessService(store db.Store, resolver *Resolver, audit AuditService, events eventbus.Publisher, logger *zap.Logger) AccessService {
	return &accessService{store: store, resolver: resolver, audit: audit, events: events, logger: logger}
}

func (s *accessService) Resolve(ctx context.Context, userID string, ref models.ResourceRef, action models.Action) (bool, error) {
	return s.resolver.Resolve(ctx, userID, ref, action)
}

// UpsertMembership creates or updates a DELEGATE membership. Re-inviting a
// revoked user is the same upsert: status flips back to ACTIVE. View is
// forced true regardless of input.
func (s *accessService) UpsertMembership(ctx context.Context, actorID, vaultID, targetUserID string, permissions models.PermissionSet) (*models.Membership, error) {
	membership := &models.Membership{
		VaultID:     vaultID,
		UserID:      targetUserID,
		Role:        models.RoleDelegate,
		Status:      models.StatusActive,
		Permissions: permissions.Normalized(),
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		vault, err := tx.Vaults().GetByID(ctx, vaultID)
		if err != nil {
			return mapStoreError(err, "vault", vaultID)
		}
		if vault.OwnerID != actorID {
			return fmt.Errorf("%w: only the owner of vault '%s' may manage memberships", ErrPermissionDenied, vaultID)
		}
		if targetUserID == vault.OwnerID {
			return fmt.Errorf("%w: the owner membership cannot be reassigned through sharing", ErrPreconditionFailed)
		}
		if _, err := tx.Users().GetByID(ctx, targetUserID); err != nil {
			return mapStoreError(err, "user", targetUserID)
		}
		return tx.Memberships().Set(ctx, membership)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     actorID,
		Action:     "MEMBERSHIP_UPSERT",
		TargetType: "MEMBERSHIP",
		TargetID:   membership.ID,
		Details:    map[string]interface{}{"vaultId": vaultID, "userId": targetUserID},
	})
	publishEvent(ctx, s.logger, s.events, "membership.upserted", "MEMBERSHIP", membership.ID, vaultID, actorID)

	return membership, nil
}

// RevokeMembership marks the membership REVOKED rather than deleting it, so
// revocation stays distinguishable from "never granted". The user's grants in
// the vault are deleted in the same transaction: a grant must never outlive
// an active membership.
func (s *accessService) RevokeMembership(ctx context.Context, actorID, vaultID, targetUserID string) error {
	var membershipID string
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		vault, err := tx.Vaults().GetByID(ctx, vaultID)
		if err != nil {
			return mapStoreError(err, "vault", vaultID)
		}
		if vault.OwnerID != actorID {
			return fmt.Errorf("%w: only the owner of vault '%s' may manage memberships", ErrPermissionDenied, vaultID)
		}
		membership, err := tx.Memberships().Get(ctx, vaultID, targetUserID)
		if err != nil {
			return mapStoreError(err, "membership", models.MembershipID(vaultID, targetUserID))
		}
		if membership.Role == models.RoleOwner {
			return fmt.Errorf("%w: the owner membership cannot be revoked", ErrPreconditionFailed)
		}
		membershipID = membership.ID

		grants, err := tx.Grants().GetByVaultID(ctx, vaultID)
		if err != nil {
			return err
		}

		membership.Status = models.StatusRevoked
		if err := tx.Memberships().Set(ctx, membership); err != nil {
			return err
		}
		for _, grant := range grants {
			if grant.UserID != targetUserID {
				continue
			}
			if err := tx.Grants().Delete(ctx, grant.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     actorID,
		Action:     "MEMBERSHIP_REVOKE",
		TargetType: "MEMBERSHIP",
		TargetID:   membershipID,
		Details:    map[string]interface{}{"vaultId": vaultID, "userId": targetUserID},
	})
	publishEvent(ctx, s.logger, s.events, "membership.revoked", "MEMBERSHIP", membershipID, vaultID, actorID)

	return nil
}

// UpsertGrant creates or updates a scoped grant. The target user must already
// hold an ACTIVE membership on the vault, and the scope must be a collection
// or asset inside that vault.
func (s *accessService) UpsertGrant(ctx context.Context, actorID, vaultID string, scopeType models.ScopeType, scopeID, targetUserID string, permissions models.PermissionSet) (*models.PermissionGrant, error) {
	grant := &models.PermissionGrant{
		VaultID:     vaultID,
		ScopeType:   scopeType,
		ScopeID:     scopeID,
		UserID:      targetUserID,
		Permissions: permissions.Normalized(),
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		vault, err := tx.Vaults().GetByID(ctx, vaultID)
		if err != nil {
			return mapStoreError(err, "vault", vaultID)
		}
		if vault.OwnerID != actorID {
			return fmt.Errorf("%w: only the owner of vault '%s' may manage grants", ErrPermissionDenied, vaultID)
		}
		if _, err := tx.Users().GetByID(ctx, targetUserID); err != nil {
			return mapStoreError(err, "user", targetUserID)
		}

		membership, err := tx.Memberships().Get(ctx, vaultID, targetUserID)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return err
		}
		if err != nil || membership.Status != models.StatusActive {
			return fmt.Errorf("%w: user '%s' must already be a vault member", ErrPreconditionFailed, targetUserID)
		}

		if err := s.checkScope(ctx, tx, vaultID, scopeType, scopeID); err != nil {
			return err
		}
		return tx.Grants().Set(ctx, grant)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     actorID,
		Action:     "GRANT_UPSERT",
		TargetType: "GRANT",
		TargetID:   grant.ID,
		Details: map[string]interface{}{
			"vaultId": vaultID, "scopeType": string(scopeType), "scopeId": scopeID, "userId": targetUserID,
		},
	})
	publishEvent(ctx, s.logger, s.events, "grant.upserted", "GRANT", grant.ID, vaultID, actorID)

	return grant, nil
}

// RevokeGrant deletes the grant record.
func (s *accessService) RevokeGrant(ctx context.Context, actorID, vaultID string, scopeType models.ScopeType, scopeID, targetUserID string) error {
	grantID := models.GrantID(vaultID, scopeType, scopeID, targetUserID)

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Store) error {
		vault, err := tx.Vaults().GetByID(ctx, vaultID)
		if err != nil {
			return mapStoreError(err, "vault", vaultID)
		}
		if vault.OwnerID != actorID {
			return fmt.Errorf("%w: only the owner of vault '%s' may manage grants", ErrPermissionDenied, vaultID)
		}
		if _, err := tx.Grants().Get(ctx, vaultID, scopeType, scopeID, targetUserID); err != nil {
			return mapStoreError(err, "grant", grantID)
		}
		return tx.Grants().Delete(ctx, grantID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     actorID,
		Action:     "GRANT_REVOKE",
		TargetType: "GRANT",
		TargetID:   grantID,
	})
	publishEvent(ctx, s.logger, s.events, "grant.revoked", "GRANT", grantID, vaultID, actorID)

	return nil
}

// checkScope verifies the grant's scope exists and belongs to the vault.
func (s *accessService) checkScope(ctx context.Context, tx db.Store, vaultID string, scopeType models.ScopeType, scopeID string) error {
	switch scopeType {
	case models.ScopeCollection:
		collection, err := tx.Collections().GetByID(ctx, scopeID)
		if err != nil {
			return mapStoreError(err, "collection", scopeID)
		}
		if collection.VaultID != vaultID {
			return fmt.Errorf("%w: collection '%s' is not in vault '%s'", ErrPreconditionFailed, scopeID, vaultID)
		}
	case models.ScopeAsset:
		asset, err := tx.Assets().GetByID(ctx, scopeID)
		if err != nil {
			return mapStoreError(err, "asset", scopeID)
		}
		if asset.VaultID != vaultID {
			return fmt.Errorf("%w: asset '%s' is not in vault '%s'", ErrPreconditionFailed, scopeID, vaultID)
		}
	default:
		return fmt.Errorf("%w: unknown scope type '%s'", ErrPreconditionFailed, scopeType)
	}
	return nil
}
