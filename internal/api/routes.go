package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"keepsake-backend-go/internal/middleware"
)

// Handlers bundles everything RegisterRoutes needs.
type Handlers struct {
	User       *UserHandler
	Vault      *VaultHandler
	Collection *CollectionHandler
	Asset      *AssetHandler
	Access     *AccessHandler
	Auth       *middleware.AuthMiddleware
}

// RegisterRoutes mounts the public health check and the authenticated v1 API.
func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(h.Auth.VerifyToken())
	{
		users := v1.Group("/users")
		{
			users.POST("/initialize", h.User.InitializeUser)
			users.GET("/me", h.User.GetMe)
		}

		vaults := v1.Group("/vaults")
		{
			vaults.POST("", h.Vault.CreateVault)
			vaults.GET("", h.Vault.ListVaults)
			vaults.GET("/:vaultId", h.Vault.GetVault)
			vaults.DELETE("/:vaultId", h.Vault.DeleteVault)

			vaults.PUT("/:vaultId/members/:userId", h.Access.UpsertMembership)
			vaults.DELETE("/:vaultId/members/:userId", h.Access.RevokeMembership)

			vaults.PUT("/:vaultId/grants", h.Access.UpsertGrant)
			vaults.DELETE("/:vaultId/grants", h.Access.RevokeGrant)

			vaults.POST("/:vaultId/collections", h.Collection.CreateCollection)
			vaults.GET("/:vaultId/collections", h.Collection.ListCollections)
		}

		collections := v1.Group("/collections")
		{
			collections.POST("/:collectionId/move", h.Collection.MoveCollection)
			collections.DELETE("/:collectionId", h.Collection.DeleteCollection)

			collections.POST("/:collectionId/assets", h.Asset.CreateAsset)
			collections.GET("/:collectionId/assets", h.Asset.ListAssets)
		}

		assets := v1.Group("/assets")
		{
			assets.POST("/:assetId/move", h.Asset.MoveAsset)
			assets.DELETE("/:assetId", h.Asset.DeleteAsset)
		}
	}
}
