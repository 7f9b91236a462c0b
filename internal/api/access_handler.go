package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keepsake-backend-go/internal/core"
	"keepsake-backend-go/internal/models"
)

// AccessHandler serves the membership and grant endpoints.
type AccessHandler struct {
	accessService core.AccessService
	logger        *zap.Logger
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(accessService core.AccessService, logger *zap.Logger) *AccessHandler {
	return &AccessHandler{accessService: accessService, logger: logger}
}

// UpsertMembership creates or replaces a delegate membership. Owner only.
func (h *AccessHandler) UpsertMembership(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.UpsertMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	membership, err := h.accessService.UpsertMembership(
		c.Request.Context(), actorID, c.Param("vaultId"), c.Param("userId"), req.Permissions)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

// RevokeMembership revokes a delegate membership and the user's grants in
// that vault. Owner only.
func (h *AccessHandler) RevokeMembership(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}

	err := h.accessService.RevokeMembership(c.Request.Context(), actorID, c.Param("vaultId"), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpsertGrant creates or replaces a scoped grant. Owner only.
func (h *AccessHandler) UpsertGrant(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.UpsertGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if req.ScopeType != models.ScopeCollection && req.ScopeType != models.ScopeAsset {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "scopeType must be COLLECTION or ASSET"})
		return
	}

	grant, err := h.accessService.UpsertGrant(
		c.Request.Context(), actorID, c.Param("vaultId"), req.ScopeType, req.ScopeID, req.UserID, req.Permissions)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}

// RevokeGrant deletes a scoped grant. Owner only.
func (h *AccessHandler) RevokeGrant(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.RevokeGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if req.ScopeType != models.ScopeCollection && req.ScopeType != models.ScopeAsset {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "scopeType must be COLLECTION or ASSET"})
		return
	}

	err := h.accessService.RevokeGrant(
		c.Request.Context(), actorID, c.Param("vaultId"), req.ScopeType, req.ScopeID, req.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
