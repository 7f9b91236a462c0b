package core

import (
	"context"

	"keepsake-backend-go/internal/models"
)

// UserService mirrors externally-issued identities into the entity store.
type UserService interface {
	// GetOrCreate retrieves a user by provider UID, creating the local record
	// on first sight. The second return value is true when a record was created.
	GetOrCreate(ctx context.Context, userID, email, username, photoURL string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// VaultService owns the vault lifecycle.
type VaultService interface {
	CreateVault(ctx context.Context, ownerID string, req models.CreateVaultRequest) (*models.Vault, error)
	GetVault(ctx context.Context, userID, vaultID string) (*models.Vault, error)
	DeleteVault(ctx context.Context, userID, vaultID string) error
}

// CollectionService owns the collection lifecycle inside vaults.
type CollectionService interface {
	CreateCollection(ctx context.Context, userID, vaultID string, req models.CreateCollectionRequest) (*models.Collection, error)
	// MoveCollection re-parents the collection and all its assets; the
	// returned assets carry the new vaultId.
	MoveCollection(ctx context.Context, userID, collectionID, targetVaultID string) (*models.Collection, []*models.Asset, error)
	DeleteCollection(ctx context.Context, userID, collectionID string) error
}

// AssetService owns the asset lifecycle inside collections.
type AssetService interface {
	CreateAsset(ctx context.Context, userID, collectionID string, req models.CreateAssetRequest) (*models.Asset, error)
	MoveAsset(ctx context.Context, userID, assetID, targetCollectionID string) (*models.Asset, error)
	DeleteAsset(ctx context.Context, userID, assetID string) error
}

// AccessService manages memberships and scoped grants, and answers
// permission queries. All mutations are owner-only and re-check ownership
// themselves rather than trusting the caller.
type AccessService interface {
	Resolve(ctx context.Context, userID string, ref models.ResourceRef, action models.Action) (bool, error)
	UpsertMembership(ctx context.Context, actorID, vaultID, targetUserID string, permissions models.PermissionSet) (*models.Membership, error)
	RevokeMembership(ctx context.Context, actorID, vaultID, targetUserID string) error
	UpsertGrant(ctx context.Context, actorID, vaultID string, scopeType models.ScopeType, scopeID, targetUserID string, permissions models.PermissionSet) (*models.PermissionGrant, error)
	RevokeGrant(ctx context.Context, actorID, vaultID string, scopeType models.ScopeType, scopeID, targetUserID string) error
}

// ReadService is the derived projection the UI lists from: everything the
// user may View, computed from the entity store through the resolver's View
// rule rather than hand-maintained state.
type ReadService interface {
	VisibleVaults(ctx context.Context, userID string) ([]*models.Vault, error)
	VisibleCollections(ctx context.Context, userID, vaultID string) ([]*models.Collection, error)
	VisibleAssets(ctx context.Context, userID, collectionID string) ([]*models.Asset, error)
}

// AuditService records audit trail events. Recording never fails the
// operation being audited.
type AuditService interface {
	Record(ctx context.Context, entry models.AuditLog)
}
