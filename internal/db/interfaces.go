package db

import (
	"context"

	"keepsake-backend-go/internal/models"
)

// Store bundles the repositories over one backing database. RunTransaction
// yields a Store whose reads and writes execute atomically: either every
// write in the callback commits or none do. Reads inside the callback observe
// committed state only.
type Store interface {
	Users() UserRepository
	Vaults() VaultRepository
	Collections() CollectionRepository
	Assets() AssetRepository
	Memberships() MembershipRepository
	Grants() GrantRepository
	AuditLogs() AuditRepository

	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// UserRepository stores identity records mirrored from the identity provider.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// VaultRepository stores vault documents. The caller allocates IDs so that
// retried creates stay idempotent.
type VaultRepository interface {
	Create(ctx context.Context, vault *models.Vault) error
	GetByID(ctx context.Context, vaultID string) (*models.Vault, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]*models.Vault, error)
	Delete(ctx context.Context, vaultID string) error
}

// CollectionRepository stores collection documents.
type CollectionRepository interface {
	Create(ctx context.Context, collection *models.Collection) error
	GetByID(ctx context.Context, collectionID string) (*models.Collection, error)
	GetByVaultID(ctx context.Context, vaultID string) ([]*models.Collection, error)
	Update(ctx context.Context, collection *models.Collection) error
	Delete(ctx context.Context, collectionID string) error
}

// AssetRepository stores asset documents.
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, assetID string) (*models.Asset, error)
	GetByCollectionID(ctx context.Context, collectionID string) ([]*models.Asset, error)
	GetByVaultID(ctx context.Context, vaultID string) ([]*models.Asset, error)
	Update(ctx context.Context, asset *models.Asset) error
	Delete(ctx context.Context, assetID string) error
}

// MembershipRepository stores vault memberships keyed by (vaultId, userId).
// Set is an upsert against the deterministic membership ID.
type MembershipRepository interface {
	Set(ctx context.Context, membership *models.Membership) error
	Get(ctx context.Context, vaultID, userID string) (*models.Membership, error)
	GetByVaultID(ctx context.Context, vaultID string) ([]*models.Membership, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Membership, error)
	Delete(ctx context.Context, membershipID string) error
}

// GrantRepository stores scoped permission grants keyed by
// (vaultId, scopeType, scopeId, userId). Set is an upsert.
type GrantRepository interface {
	Set(ctx context.Context, grant *models.PermissionGrant) error
	Get(ctx context.Context, vaultID string, scopeType models.ScopeType, scopeID, userID string) (*models.PermissionGrant, error)
	GetByVaultID(ctx context.Context, vaultID string) ([]*models.PermissionGrant, error)
	GetByScope(ctx context.Context, scopeType models.ScopeType, scopeID string) ([]*models.PermissionGrant, error)
	Delete(ctx context.Context, grantID string) error
}

// AuditRepository appends audit trail events.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}
