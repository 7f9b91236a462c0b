package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keepsake-backend-go/internal/core"
	"keepsake-backend-go/internal/models"
)

// AssetHandler serves the asset endpoints.
type AssetHandler struct {
	assetService core.AssetService
	readService  core.ReadService
	logger       *zap.Logger
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService core.AssetService, readService core.ReadService, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{assetService: assetService, readService: readService, logger: logger}
}

// CreateAsset creates an asset inside a collection.
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	asset, err := h.assetService.CreateAsset(c.Request.Context(), userID, c.Param("collectionId"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

// ListAssets returns the assets in a collection visible to the caller.
func (h *AssetHandler) ListAssets(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	assets, err := h.readService.VisibleAssets(c.Request.Context(), userID, c.Param("collectionId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

// MoveAsset re-parents an asset into another collection.
func (h *AssetHandler) MoveAsset(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.MoveAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	asset, err := h.assetService.MoveAsset(c.Request.Context(), userID, c.Param("assetId"), req.TargetCollectionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// DeleteAsset deletes a single asset.
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	if err := h.assetService.DeleteAsset(c.Request.Context(), userID, c.Param("assetId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
