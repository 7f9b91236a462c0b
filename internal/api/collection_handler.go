package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keepsake-backend-go/internal/core"
	"keepsake-backend-go/internal/models"
)

// CollectionHandler serves the collection endpoints.
type CollectionHandler struct {
	collectionService core.CollectionService
	readService       core.ReadService
	logger            *zap.Logger
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(collectionService core.CollectionService, readService core.ReadService, logger *zap.Logger) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService, readService: readService, logger: logger}
}

// CreateCollection creates a collection inside a vault.
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	collection, err := h.collectionService.CreateCollection(c.Request.Context(), userID, c.Param("vaultId"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, collection)
}

// ListCollections returns the collections in a vault visible to the caller.
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	collections, err := h.readService.VisibleCollections(c.Request.Context(), userID, c.Param("vaultId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, collections)
}

// MoveCollection re-parents a collection into another vault, carrying its
// assets with it.
func (h *CollectionHandler) MoveCollection(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.MoveCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	collection, assets, err := h.collectionService.MoveCollection(c.Request.Context(), userID, c.Param("collectionId"), req.TargetVaultID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MoveCollectionResponse{Collection: collection, Assets: assets})
}

// DeleteCollection deletes a collection and all assets inside it.
func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	if err := h.collectionService.DeleteCollection(c.Request.Context(), userID, c.Param("collectionId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
