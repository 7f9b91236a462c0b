package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keepsake-backend-go/internal/core"
	"keepsake-backend-go/internal/models"
)

// VaultHandler serves the vault endpoints.
type VaultHandler struct {
	vaultService core.VaultService
	readService  core.ReadService
	logger       *zap.Logger
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(vaultService core.VaultService, readService core.ReadService, logger *zap.Logger) *VaultHandler {
	return &VaultHandler{vaultService: vaultService, readService: readService, logger: logger}
}

// CreateVault creates a vault owned by the caller.
func (h *VaultHandler) CreateVault(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.CreateVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	vault, err := h.vaultService.CreateVault(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, vault)
}

// ListVaults returns every vault the caller may view.
func (h *VaultHandler) ListVaults(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	vaults, err := h.readService.VisibleVaults(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, vaults)
}

// GetVault returns a single vault if the caller may view it.
func (h *VaultHandler) GetVault(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	vault, err := h.vaultService.GetVault(c.Request.Context(), userID, c.Param("vaultId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, vault)
}

// DeleteVault deletes a vault and everything it contains. Owner only.
func (h *VaultHandler) DeleteVault(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	if err := h.vaultService.DeleteVault(c.Request.Context(), userID, c.Param("vaultId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
