package api

import "keepsake-backend-go/internal/models"

// ErrorResponse is the uniform error body returned by all handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// InitializeUserResponse is returned by POST /users/initialize.
type InitializeUserResponse struct {
	User    *models.User `json:"user"`
	Created bool         `json:"created"`
}

// MoveCollectionResponse carries the re-parented collection along with its
// assets, whose vaultId changed with it.
type MoveCollectionResponse struct {
	Collection *models.Collection `json:"collection"`
	Assets     []*models.Asset    `json:"assets"`
}

// ResolveResponse is the answer to a permission query.
type ResolveResponse struct {
	Allowed bool `json:"allowed"`
}
