package models

import (
	"strings"
	"time"
)

// Action is one of the five operations a permission set can allow.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionMove   Action = "move"
	ActionDelete Action = "delete"
)

// PermissionSet is the five-key permission record shared by memberships and
// grants. View is implicitly true for every active record and is forced on
// write; it is never separately toggleable.
type PermissionSet struct {
	View   bool `json:"view" firestore:"view"`
	Create bool `json:"create" firestore:"create"`
	Edit   bool `json:"edit" firestore:"edit"`
	Move   bool `json:"move" firestore:"move"`
	Delete bool `json:"delete" firestore:"delete"`
}

// Allows reports whether the set grants the given action.
func (p PermissionSet) Allows(action Action) bool {
	switch action {
	case ActionView:
		return p.View
	case ActionCreate:
		return p.Create
	case ActionEdit:
		return p.Edit
	case ActionMove:
		return p.Move
	case ActionDelete:
		return p.Delete
	}
	return false
}

// Normalized returns a copy with View forced true.
func (p PermissionSet) Normalized() PermissionSet {
	p.View = true
	return p
}

// Role distinguishes the single owner membership of a vault from delegates.
type Role string

const (
	RoleOwner    Role = "OWNER"
	RoleDelegate Role = "DELEGATE"
)

// MembershipStatus tracks revocation. A revoked membership is kept on record
// so that "revoked" stays distinguishable from "never granted".
type MembershipStatus string

const (
	StatusActive  MembershipStatus = "ACTIVE"
	StatusRevoked MembershipStatus = "REVOKED"
)

// Membership is a vault-wide permission record for one user. There is exactly
// one OWNER membership per vault, created atomically with the vault itself.
type Membership struct {
	ID          string           `json:"id" firestore:"-"`
	VaultID     string           `json:"vaultId" firestore:"vaultId"`
	UserID      string           `json:"userId" firestore:"userId"`
	Role        Role             `json:"role" firestore:"role"`
	Status      MembershipStatus `json:"status" firestore:"status"`
	Permissions PermissionSet    `json:"permissions" firestore:"permissions"`
	CreatedAt   time.Time        `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time        `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// MembershipID builds the deterministic document ID for a (vault, user) pair.
// Deterministic IDs make retried writes idempotent and enforce the unique key
// structurally.
func MembershipID(vaultID, userID string) string {
	return vaultID + "_" + userID
}

// ScopeType names the kind of resource a grant refines access to.
type ScopeType string

const (
	ScopeCollection ScopeType = "COLLECTION"
	ScopeAsset      ScopeType = "ASSET"
)

// PermissionGrant refines a member's access to one collection or asset beyond
// what their vault membership allows. A grant never exists for a user without
// an ACTIVE membership on the owning vault.
type PermissionGrant struct {
	ID          string        `json:"id" firestore:"-"`
	VaultID     string        `json:"vaultId" firestore:"vaultId"`
	ScopeType   ScopeType     `json:"scopeType" firestore:"scopeType"`
	ScopeID     string        `json:"scopeId" firestore:"scopeId"`
	UserID      string        `json:"userId" firestore:"userId"`
	Permissions PermissionSet `json:"permissions" firestore:"permissions"`
	CreatedAt   time.Time     `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time     `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// GrantID builds the deterministic document ID for the grant's unique key.
func GrantID(vaultID string, scopeType ScopeType, scopeID, userID string) string {
	return strings.Join([]string{vaultID, string(scopeType), scopeID, userID}, "_")
}

// ResourceType identifies which level of the hierarchy a reference points at.
type ResourceType string

const (
	ResourceVault      ResourceType = "VAULT"
	ResourceCollection ResourceType = "COLLECTION"
	ResourceAsset      ResourceType = "ASSET"
)

// ResourceRef is the (type, id) pair the resolver receives.
type ResourceRef struct {
	Type ResourceType `json:"type"`
	ID   string       `json:"id"`
}

func VaultRef(id string) ResourceRef      { return ResourceRef{Type: ResourceVault, ID: id} }
func CollectionRef(id string) ResourceRef { return ResourceRef{Type: ResourceCollection, ID: id} }
func AssetRef(id string) ResourceRef      { return ResourceRef{Type: ResourceAsset, ID: id} }
