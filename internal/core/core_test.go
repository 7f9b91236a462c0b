package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/models"
	"keepsake-backend-go/pkg/eventbus"
)

// testEnv wires every service over a shared in-memory store.
type testEnv struct {
	store       *db.MemoryStore
	resolver    *Resolver
	users       UserService
	vaults      VaultService
	collections CollectionService
	assets      AssetService
	access      AccessService
	reads       ReadService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := db.NewMemoryStore()
	logger := zap.NewNop()
	resolver := NewResolver(store)
	audit := NewAuditService(store.AuditLogs(), logger)
	events := eventbus.NopPublisher{}

	return &testEnv{
		store:       store,
		resolver:    resolver,
		users:       NewUserService(store),
		vaults:      NewVaultService(store, resolver, audit, events, logger),
		collections: NewCollectionService(store, resolver, audit, events, logger),
		assets:      NewAssetService(store, resolver, audit, events, logger),
		access:      NewAccessService(store, resolver, audit, events, logger),
		reads:       NewReadService(store, resolver),
	}
}

func (e *testEnv) mustUser(t *testing.T, id string) *models.User {
	t.Helper()
	user, _, err := e.users.GetOrCreate(context.Background(), id, id+"@example.com", id, "")
	require.NoError(t, err)
	return user
}

func (e *testEnv) mustVault(t *testing.T, ownerID, name string) *models.Vault {
	t.Helper()
	vault, err := e.vaults.CreateVault(context.Background(), ownerID, models.CreateVaultRequest{Name: name})
	require.NoError(t, err)
	return vault
}

func (e *testEnv) mustCollection(t *testing.T, userID, vaultID, name string) *models.Collection {
	t.Helper()
	collection, err := e.collections.CreateCollection(context.Background(), userID, vaultID, models.CreateCollectionRequest{Name: name})
	require.NoError(t, err)
	return collection
}

func (e *testEnv) mustAsset(t *testing.T, userID, collectionID, title string) *models.Asset {
	t.Helper()
	asset, err := e.assets.CreateAsset(context.Background(), userID, collectionID, models.CreateAssetRequest{Title: title})
	require.NoError(t, err)
	return asset
}

func (e *testEnv) mustMembership(t *testing.T, ownerID, vaultID, userID string, perms models.PermissionSet) *models.Membership {
	t.Helper()
	membership, err := e.access.UpsertMembership(context.Background(), ownerID, vaultID, userID, perms)
	require.NoError(t, err)
	return membership
}

func (e *testEnv) mustGrant(t *testing.T, ownerID, vaultID string, scopeType models.ScopeType, scopeID, userID string, perms models.PermissionSet) *models.PermissionGrant {
	t.Helper()
	grant, err := e.access.UpsertGrant(context.Background(), ownerID, vaultID, scopeType, scopeID, userID, perms)
	require.NoError(t, err)
	return grant
}
