package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/models"
)

func TestUpsertMembershipRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	env.mustUser(t, "other")
	vault := env.mustVault(t, "owner", "home")
	env.mustMembership(t, "owner", vault.ID, "delegate",
		models.PermissionSet{Create: true, Edit: true, Move: true, Delete: true})

	// Full delegate permissions still do not include sharing.
	_, err := env.access.UpsertMembership(ctx, "delegate", vault.ID, "other", models.PermissionSet{})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUpsertMembershipRejectsOwnerTarget(t *testing.T) {
	env := newTestEnv(t)
	env.mustUser(t, "owner")
	vault := env.mustVault(t, "owner", "home")

	_, err := env.access.UpsertMembership(context.Background(), "owner", vault.ID, "owner", models.PermissionSet{})
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestUpsertMembershipUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	env.mustUser(t, "owner")
	vault := env.mustVault(t, "owner", "home")

	_, err := env.access.UpsertMembership(context.Background(), "owner", vault.ID, "ghost", models.PermissionSet{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertMembershipForcesView(t *testing.T) {
	env := newTestEnv(t)
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	vault := env.mustVault(t, "owner", "home")

	membership := env.mustMembership(t, "owner", vault.ID, "delegate", models.PermissionSet{Edit: true})
	assert.True(t, membership.Permissions.View)
	assert.Equal(t, models.RoleDelegate, membership.Role)
	assert.Equal(t, models.StatusActive, membership.Status)
}

func TestUpsertMembershipIsIdempotentUpsert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	vault := env.mustVault(t, "owner", "home")

	first := env.mustMembership(t, "owner", vault.ID, "delegate", models.PermissionSet{Edit: true})
	second := env.mustMembership(t, "owner", vault.ID, "delegate", models.PermissionSet{Move: true})

	assert.Equal(t, first.ID, second.ID, "the (vault, user) pair keys a single record")
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	stored, err := env.store.Memberships().Get(ctx, vault.ID, "delegate")
	require.NoError(t, err)
	assert.False(t, stored.Permissions.Edit, "second upsert replaces the permission set")
	assert.True(t, stored.Permissions.Move)
}

func TestRevokeMembershipKeepsRecordAndDeletesGrants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	vault := env.mustVault(t, "owner", "home")
	collection := env.mustCollection(t, "owner", vault.ID, "jewelry")
	asset := env.mustAsset(t, "owner", collection.ID, "ring")

	env.mustMembership(t, "owner", vault.ID, "delegate", models.PermissionSet{Edit: true})
	env.mustGrant(t, "owner", vault.ID, models.ScopeCollection, collection.ID, "delegate", models.PermissionSet{Delete: true})
	env.mustGrant(t, "owner", vault.ID, models.ScopeAsset, asset.ID, "delegate", models.PermissionSet{Move: true})

	require.NoError(t, env.access.RevokeMembership(ctx, "owner", vault.ID, "delegate"))

	// Revocation keeps the record so it stays distinguishable from a user
	// who was never invited.
	membership, err := env.store.Memberships().Get(ctx, vault.ID, "delegate")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevoked, membership.Status)

	_, err = env.store.Grants().Get(ctx, vault.ID, models.ScopeCollection, collection.ID, "delegate")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = env.store.Grants().Get(ctx, vault.ID, models.ScopeAsset, asset.ID, "delegate")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestRevokeMembershipRejectsOwner(t *testing.T) {
	env := newTestEnv(t)
	env.mustUser(t, "owner")
	vault := env.mustVault(t, "owner", "home")

	err := env.access.RevokeMembership(context.Background(), "owner", vault.ID, "owner")
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestRevokeMembershipMissing(t *testing.T) {
	env := newTestEnv(t)
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	vault := env.mustVault(t, "owner", "home")

	err := env.access.RevokeMembership(context.Background(), "owner", vault.ID, "delegate")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReinviteAfterRevoke(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	vault := env.mustVault(t, "owner", "home")

	env.mustMembership(t, "owner", vault.ID, "delegate", models.PermissionSet{Edit: true})
	require.NoError(t, env.access.RevokeMembership(ctx, "owner", vault.ID, "delegate"))
	env.mustMembership(t, "owner", vault.ID, "delegate", models.PermissionSet{})

	allowed, err := env.resolver.Resolve(ctx, "delegate", models.VaultRef(vault.ID), models.ActionView)
	require.NoError(t, err)
	assert.True(t, allowed, "re-invited member views again")

	allowed, err = env.resolver.Resolve(ctx, "delegate", models.VaultRef(vault.ID), models.ActionCreate)
	require.NoError(t, err)
	assert.False(t, allowed, "re-invite does not restore prior permissions")
}

func TestUpsertGrantRequiresActiveMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	vault := env.mustVault(t, "owner", "home")
	collection := env.mustCollection(t, "owner", vault.ID, "jewelry")

	_, err := env.access.UpsertGrant(ctx, "owner", vault.ID, models.ScopeCollection, collection.ID, "delegate",
		models.PermissionSet{Edit: true})
	assert.ErrorIs(t, err, ErrPreconditionFailed, "grant before membership must fail")

	env.mustMembership(t, "owner", vault.ID, "delegate", models.PermissionSet{})
	grant, err := env.access.UpsertGrant(ctx, "owner", vault.ID, models.ScopeCollection, collection.ID, "delegate",
		models.PermissionSet{Edit: true})
	require.NoError(t, err)
	assert.True(t, grant.Permissions.View, "view is forced true on grants too")

	// A revoked membership is no better than a missing one.
	require.NoError(t, env.access.RevokeMembership(ctx, "owner", vault.ID, "delegate"))
	_, err = env.access.UpsertGrant(ctx, "owner", vault.ID, models.ScopeCollection, collection.ID, "delegate",
		models.PermissionSet{Edit: true})
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestUpsertGrantScopeMustBelongToVault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	vault := env.mustVault(t, "owner", "home")
	other := env.mustVault(t, "owner", "office")
	foreign := env.mustCollection(t, "owner", other.ID, "desks")
	env.mustMembership(t, "owner", vault.ID, "delegate", models.PermissionSet{})

	_, err := env.access.UpsertGrant(ctx, "owner", vault.ID, models.ScopeCollection, foreign.ID, "delegate",
		models.PermissionSet{Edit: true})
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	_, err = env.access.UpsertGrant(ctx, "owner", vault.ID, models.ScopeCollection, "no-such-collection", "delegate",
		models.PermissionSet{Edit: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertGrantRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	vault := env.mustVault(t, "owner", "home")
	collection := env.mustCollection(t, "owner", vault.ID, "jewelry")
	env.mustMembership(t, "owner", vault.ID, "delegate",
		models.PermissionSet{Create: true, Edit: true, Move: true, Delete: true})

	_, err := env.access.UpsertGrant(ctx, "delegate", vault.ID, models.ScopeCollection, collection.ID, "delegate",
		models.PermissionSet{Edit: true})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestRevokeGrant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	vault := env.mustVault(t, "owner", "home")
	collection := env.mustCollection(t, "owner", vault.ID, "jewelry")
	env.mustMembership(t, "owner", vault.ID, "delegate", models.PermissionSet{})
	env.mustGrant(t, "owner", vault.ID, models.ScopeCollection, collection.ID, "delegate", models.PermissionSet{Edit: true})

	require.NoError(t, env.access.RevokeGrant(ctx, "owner", vault.ID, models.ScopeCollection, collection.ID, "delegate"))

	allowed, err := env.resolver.Resolve(ctx, "delegate", models.CollectionRef(collection.ID), models.ActionEdit)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Membership is untouched by grant revocation.
	allowed, err = env.resolver.Resolve(ctx, "delegate", models.CollectionRef(collection.ID), models.ActionView)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRevokeGrantMissing(t *testing.T) {
	env := newTestEnv(t)
	env.mustUser(t, "owner")
	vault := env.mustVault(t, "owner", "home")

	err := env.access.RevokeGrant(context.Background(), "owner", vault.ID, models.ScopeCollection, "c1", "delegate")
	assert.ErrorIs(t, err, ErrNotFound)
}
