package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keepsake-backend-go/internal/core"
)

// UserHandler serves the identity endpoints.
type UserHandler struct {
	userService core.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService core.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// InitializeUser mirrors the authenticated identity into the local store.
// Safe to call on every sign-in; it creates the record only on first sight.
func (h *UserHandler) InitializeUser(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	user, created, err := h.userService.GetOrCreate(
		c.Request.Context(),
		userID,
		c.GetString("userEmail"),
		c.GetString("userDisplayName"),
		c.GetString("userPhotoURL"),
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, InitializeUserResponse{User: user, Created: created})
}

// GetMe returns the caller's own user record.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
