package models

// CreateVaultRequest represents the request body for creating a new vault.
type CreateVaultRequest struct {
	Name      string `json:"name" binding:"required"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// CreateCollectionRequest represents the request body for creating a collection.
type CreateCollectionRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateAssetRequest represents the request body for creating an asset.
// Value uses a pointer so that an explicit 0 is distinguishable from absent.
type CreateAssetRequest struct {
	Title string   `json:"title" binding:"required"`
	Value *float64 `json:"value,omitempty"`
}

// MoveCollectionRequest carries the destination vault for a collection move.
type MoveCollectionRequest struct {
	TargetVaultID string `json:"targetVaultId" binding:"required"`
}

// MoveAssetRequest carries the destination collection for an asset move.
type MoveAssetRequest struct {
	TargetCollectionID string `json:"targetCollectionId" binding:"required"`
}

// UpsertMembershipRequest sets a delegate's vault-wide permissions.
type UpsertMembershipRequest struct {
	Permissions PermissionSet `json:"permissions"`
}

// UpsertGrantRequest sets a scoped permission grant inside a vault.
type UpsertGrantRequest struct {
	ScopeType   ScopeType     `json:"scopeType" binding:"required"`
	ScopeID     string        `json:"scopeId" binding:"required"`
	UserID      string        `json:"userId" binding:"required"`
	Permissions PermissionSet `json:"permissions"`
}

// RevokeGrantRequest identifies the grant to delete.
type RevokeGrantRequest struct {
	ScopeType ScopeType `json:"scopeType" binding:"required"`
	ScopeID   string    `json:"scopeId" binding:"required"`
	UserID    string    `json:"userId" binding:"required"`
}
