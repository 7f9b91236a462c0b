package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"keepsake-backend-go/internal/core"
	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/models"
	"keepsake-backend-go/pkg/eventbus"
)

type testAPI struct {
	router *gin.Engine
	store  *db.MemoryStore
	users  core.UserService
	vaults core.VaultService
}

// newTestAPI mounts the real handlers behind a header-based identity shim so
// the HTTP layer is exercised without a live token verifier.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := db.NewMemoryStore()
	logger := zap.NewNop()
	resolver := core.NewResolver(store)
	audit := core.NewAuditService(store.AuditLogs(), logger)
	events := eventbus.NopPublisher{}

	users := core.NewUserService(store)
	vaults := core.NewVaultService(store, resolver, audit, events, logger)
	collections := core.NewCollectionService(store, resolver, audit, events, logger)
	assets := core.NewAssetService(store, resolver, audit, events, logger)
	access := core.NewAccessService(store, resolver, audit, events, logger)
	reads := core.NewReadService(store, resolver)

	userHandler := NewUserHandler(users, logger)
	vaultHandler := NewVaultHandler(vaults, reads, logger)
	collectionHandler := NewCollectionHandler(collections, reads, logger)
	assetHandler := NewAssetHandler(assets, reads, logger)
	accessHandler := NewAccessHandler(access, logger)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(func(c *gin.Context) {
		if user := c.GetHeader("X-Test-User"); user != "" {
			c.Set("userID", user)
		}
		c.Next()
	})
	{
		v1.POST("/users/initialize", userHandler.InitializeUser)
		v1.GET("/users/me", userHandler.GetMe)

		v1.POST("/vaults", vaultHandler.CreateVault)
		v1.GET("/vaults", vaultHandler.ListVaults)
		v1.GET("/vaults/:vaultId", vaultHandler.GetVault)
		v1.DELETE("/vaults/:vaultId", vaultHandler.DeleteVault)
		v1.PUT("/vaults/:vaultId/members/:userId", accessHandler.UpsertMembership)
		v1.DELETE("/vaults/:vaultId/members/:userId", accessHandler.RevokeMembership)
		v1.PUT("/vaults/:vaultId/grants", accessHandler.UpsertGrant)
		v1.DELETE("/vaults/:vaultId/grants", accessHandler.RevokeGrant)
		v1.POST("/vaults/:vaultId/collections", collectionHandler.CreateCollection)
		v1.GET("/vaults/:vaultId/collections", collectionHandler.ListCollections)
		v1.POST("/collections/:collectionId/move", collectionHandler.MoveCollection)
		v1.DELETE("/collections/:collectionId", collectionHandler.DeleteCollection)
		v1.POST("/collections/:collectionId/assets", assetHandler.CreateAsset)
		v1.GET("/collections/:collectionId/assets", assetHandler.ListAssets)
		v1.POST("/assets/:assetId/move", assetHandler.MoveAsset)
		v1.DELETE("/assets/:assetId", assetHandler.DeleteAsset)
	}

	return &testAPI{router: router, store: store, users: users, vaults: vaults}
}

func (a *testAPI) do(t *testing.T, user, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	recorder := httptest.NewRecorder()
	a.router.ServeHTTP(recorder, req)
	return recorder
}

func (a *testAPI) mustUser(t *testing.T, id string) {
	t.Helper()
	_, _, err := a.users.GetOrCreate(context.Background(), id, id+"@example.com", id, "")
	require.NoError(t, err)
}

func TestCreateVaultEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.mustUser(t, "owner")

	resp := api.do(t, "owner", http.MethodPost, "/api/v1/vaults", models.CreateVaultRequest{Name: "home"})
	require.Equal(t, http.StatusCreated, resp.Code)

	var vault models.Vault
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &vault))
	assert.Equal(t, "owner", vault.OwnerID)
	assert.Equal(t, "home", vault.Name)
}

func TestCreateVaultRejectsMissingName(t *testing.T) {
	api := newTestAPI(t)
	api.mustUser(t, "owner")

	resp := api.do(t, "owner", http.MethodPost, "/api/v1/vaults", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUnauthenticatedRequest(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, "", http.MethodGet, "/api/v1/vaults", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	api.mustUser(t, "owner")
	api.mustUser(t, "stranger")

	vault, err := api.vaults.CreateVault(ctx, "owner", models.CreateVaultRequest{Name: "home"})
	require.NoError(t, err)

	cases := []struct {
		description string
		user        string
		method      string
		path        string
		body        interface{}
		wantStatus  int
	}{
		{
			description: "missing vault maps to 404",
			user:        "owner",
			method:      http.MethodGet,
			path:        "/api/v1/vaults/no-such-vault",
			wantStatus:  http.StatusNotFound,
		},
		{
			description: "denied view maps to 403",
			user:        "stranger",
			method:      http.MethodGet,
			path:        "/api/v1/vaults/" + vault.ID,
			wantStatus:  http.StatusForbidden,
		},
		{
			description: "grant without membership maps to 412",
			user:        "owner",
			method:      http.MethodPut,
			path:        "/api/v1/vaults/" + vault.ID + "/grants",
			body: models.UpsertGrantRequest{
				ScopeType: models.ScopeCollection, ScopeID: "c1", UserID: "stranger",
				Permissions: models.PermissionSet{Edit: true},
			},
			wantStatus: http.StatusPreconditionFailed,
		},
		{
			description: "invalid scope type maps to 400",
			user:        "owner",
			method:      http.MethodPut,
			path:        "/api/v1/vaults/" + vault.ID + "/grants",
			body: models.UpsertGrantRequest{
				ScopeType: "VAULT", ScopeID: "v1", UserID: "stranger",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			description: "non-owner membership change maps to 403",
			user:        "stranger",
			method:      http.MethodPut,
			path:        "/api/v1/vaults/" + vault.ID + "/members/owner",
			body:        models.UpsertMembershipRequest{},
			wantStatus:  http.StatusForbidden,
		},
	}
	for _, tc := range cases {
		resp := api.do(t, tc.user, tc.method, tc.path, tc.body)
		assert.Equal(t, tc.wantStatus, resp.Code, tc.description)
	}
}

func TestMembershipLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	api.mustUser(t, "owner")
	api.mustUser(t, "delegate")

	vault, err := api.vaults.CreateVault(ctx, "owner", models.CreateVaultRequest{Name: "home"})
	require.NoError(t, err)

	resp := api.do(t, "owner", http.MethodPut, "/api/v1/vaults/"+vault.ID+"/members/delegate",
		models.UpsertMembershipRequest{Permissions: models.PermissionSet{Create: true}})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = api.do(t, "delegate", http.MethodGet, "/api/v1/vaults/"+vault.ID, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = api.do(t, "delegate", http.MethodPost, "/api/v1/vaults/"+vault.ID+"/collections",
		models.CreateCollectionRequest{Name: "jewelry"})
	assert.Equal(t, http.StatusCreated, resp.Code)

	resp = api.do(t, "owner", http.MethodDelete, "/api/v1/vaults/"+vault.ID+"/members/delegate", nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = api.do(t, "delegate", http.MethodGet, "/api/v1/vaults/"+vault.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestUserInitializeEndpoint(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, "newcomer", http.MethodPost, "/api/v1/users/initialize", nil)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = api.do(t, "newcomer", http.MethodPost, "/api/v1/users/initialize", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = api.do(t, "newcomer", http.MethodGet, "/api/v1/users/me", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}
