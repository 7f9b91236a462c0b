package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/models"
)

func TestCreateCollectionRequiresCreatePermission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "maker")
	env.mustUser(t, "viewer")
	vault := env.mustVault(t, "owner", "home")
	env.mustMembership(t, "owner", vault.ID, "maker", models.PermissionSet{Create: true})
	env.mustMembership(t, "owner", vault.ID, "viewer", models.PermissionSet{})

	collection, err := env.collections.CreateCollection(ctx, "maker", vault.ID, models.CreateCollectionRequest{Name: "jewelry"})
	require.NoError(t, err)
	assert.Equal(t, vault.ID, collection.VaultID)

	_, err = env.collections.CreateCollection(ctx, "viewer", vault.ID, models.CreateCollectionRequest{Name: "books"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateCollectionUnknownVault(t *testing.T) {
	env := newTestEnv(t)
	env.mustUser(t, "owner")

	_, err := env.collections.CreateCollection(context.Background(), "owner", "no-such-vault",
		models.CreateCollectionRequest{Name: "jewelry"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveCollectionCarriesAssets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	source := env.mustVault(t, "owner", "home")
	target := env.mustVault(t, "owner", "office")
	collection := env.mustCollection(t, "owner", source.ID, "jewelry")
	ring := env.mustAsset(t, "owner", collection.ID, "ring")
	watch := env.mustAsset(t, "owner", collection.ID, "watch")

	moved, assets, err := env.collections.MoveCollection(ctx, "owner", collection.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, moved.VaultID)
	require.Len(t, assets, 2)
	for _, asset := range assets {
		assert.Equal(t, target.ID, asset.VaultID)
		assert.Equal(t, collection.ID, asset.CollectionID, "assets keep their collection on a move")
	}

	// The stored records moved too, not just the returned copies.
	for _, id := range []string{ring.ID, watch.ID} {
		stored, err := env.store.Assets().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, target.ID, stored.VaultID)
	}
}

func TestMoveCollectionToCurrentVaultIsNoop(t *testing.T) {
	env := newTestEnv(t)
	env.mustUser(t, "owner")
	vault := env.mustVault(t, "owner", "home")
	collection := env.mustCollection(t, "owner", vault.ID, "jewelry")
	asset := env.mustAsset(t, "owner", collection.ID, "ring")

	moved, assets, err := env.collections.MoveCollection(context.Background(), "owner", collection.ID, vault.ID)
	require.NoError(t, err)
	assert.Equal(t, vault.ID, moved.VaultID)
	// The no-op still reports the collection's assets, same as a real move.
	require.Len(t, assets, 1)
	assert.Equal(t, asset.ID, assets[0].ID)
}

func TestMoveCollectionEmptyReturnsEmptyAssetList(t *testing.T) {
	env := newTestEnv(t)
	env.mustUser(t, "owner")
	source := env.mustVault(t, "owner", "home")
	target := env.mustVault(t, "owner", "office")
	collection := env.mustCollection(t, "owner", source.ID, "jewelry")

	_, assets, err := env.collections.MoveCollection(context.Background(), "owner", collection.ID, target.ID)
	require.NoError(t, err)
	assert.NotNil(t, assets, "an empty collection moves with an empty list, not a null")
	assert.Empty(t, assets)
}

func TestMoveCollectionUnknownTarget(t *testing.T) {
	env := newTestEnv(t)
	env.mustUser(t, "owner")
	vault := env.mustVault(t, "owner", "home")
	collection := env.mustCollection(t, "owner", vault.ID, "jewelry")

	_, _, err := env.collections.MoveCollection(context.Background(), "owner", collection.ID, "no-such-vault")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveCollectionPrunesGrants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "insider")
	env.mustUser(t, "outsider")
	source := env.mustVault(t, "owner", "home")
	target := env.mustVault(t, "owner", "office")
	collection := env.mustCollection(t, "owner", source.ID, "jewelry")
	asset := env.mustAsset(t, "owner", collection.ID, "ring")

	// insider is a member of both vaults; outsider only of the source.
	env.mustMembership(t, "owner", source.ID, "insider", models.PermissionSet{})
	env.mustMembership(t, "owner", target.ID, "insider", models.PermissionSet{})
	env.mustMembership(t, "owner", source.ID, "outsider", models.PermissionSet{})

	env.mustGrant(t, "owner", source.ID, models.ScopeCollection, collection.ID, "insider", models.PermissionSet{Edit: true})
	env.mustGrant(t, "owner", source.ID, models.ScopeAsset, asset.ID, "outsider", models.PermissionSet{Edit: true})

	_, _, err := env.collections.MoveCollection(ctx, "owner", collection.ID, target.ID)
	require.NoError(t, err)

	// insider's grant followed the collection, re-keyed under the target vault.
	rekeyed, err := env.store.Grants().Get(ctx, target.ID, models.ScopeCollection, collection.ID, "insider")
	require.NoError(t, err)
	assert.True(t, rekeyed.Permissions.Edit)
	_, err = env.store.Grants().Get(ctx, source.ID, models.ScopeCollection, collection.ID, "insider")
	assert.ErrorIs(t, err, db.ErrNotFound, "the old key must not linger")

	// outsider has no membership on the target, so the grant is gone entirely.
	_, err = env.store.Grants().Get(ctx, target.ID, models.ScopeAsset, asset.ID, "outsider")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = env.store.Grants().Get(ctx, source.ID, models.ScopeAsset, asset.ID, "outsider")
	assert.ErrorIs(t, err, db.ErrNotFound)

	allowed, err := env.resolver.Resolve(ctx, "insider", models.CollectionRef(collection.ID), models.ActionEdit)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = env.resolver.Resolve(ctx, "outsider", models.AssetRef(asset.ID), models.ActionEdit)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestMoveCollectionRequiresMovePermission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "viewer")
	source := env.mustVault(t, "owner", "home")
	target := env.mustVault(t, "owner", "office")
	collection := env.mustCollection(t, "owner", source.ID, "jewelry")
	env.mustMembership(t, "owner", source.ID, "viewer", models.PermissionSet{})

	_, _, err := env.collections.MoveCollection(ctx, "viewer", collection.ID, target.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDeleteCollectionCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	vault := env.mustVault(t, "owner", "home")
	collection := env.mustCollection(t, "owner", vault.ID, "jewelry")
	sibling := env.mustCollection(t, "owner", vault.ID, "books")
	asset := env.mustAsset(t, "owner", collection.ID, "ring")
	keeper := env.mustAsset(t, "owner", sibling.ID, "novel")
	env.mustMembership(t, "owner", vault.ID, "delegate", models.PermissionSet{})
	env.mustGrant(t, "owner", vault.ID, models.ScopeCollection, collection.ID, "delegate", models.PermissionSet{Edit: true})
	env.mustGrant(t, "owner", vault.ID, models.ScopeAsset, asset.ID, "delegate", models.PermissionSet{Edit: true})
	env.mustGrant(t, "owner", vault.ID, models.ScopeAsset, keeper.ID, "delegate", models.PermissionSet{Edit: true})

	require.NoError(t, env.collections.DeleteCollection(ctx, "owner", collection.ID))

	_, err := env.store.Collections().GetByID(ctx, collection.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = env.store.Assets().GetByID(ctx, asset.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = env.store.Grants().Get(ctx, vault.ID, models.ScopeCollection, collection.ID, "delegate")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = env.store.Grants().Get(ctx, vault.ID, models.ScopeAsset, asset.ID, "delegate")
	assert.ErrorIs(t, err, db.ErrNotFound)

	// The sibling collection and its grant are untouched.
	_, err = env.store.Assets().GetByID(ctx, keeper.ID)
	assert.NoError(t, err)
	_, err = env.store.Grants().Get(ctx, vault.ID, models.ScopeAsset, keeper.ID, "delegate")
	assert.NoError(t, err)
}

func TestDeleteCollectionViaGrant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "owner")
	env.mustUser(t, "delegate")
	vault := env.mustVault(t, "owner", "home")
	collection := env.mustCollection(t, "owner", vault.ID, "jewelry")
	env.mustMembership(t, "owner", vault.ID, "delegate", models.PermissionSet{})
	env.mustGrant(t, "owner", vault.ID, models.ScopeCollection, collection.ID, "delegate", models.PermissionSet{Delete: true})

	require.NoError(t, env.collections.DeleteCollection(ctx, "delegate", collection.ID))
}
