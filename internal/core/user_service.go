package core

import (
	"context"
	"errors"
	"fmt"

	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/models"
)

// userService implements the UserService interface. Identities are created
// and destroyed by the external identity provider; this service only mirrors
// them into the entity store on first contact.
type userService struct {
	store db.Store
}

// NewUserService creates a new UserService instance.
func NewUserService(store db.Store) UserService {
	return &userService{store: store}
}

func (s *userService) GetOrCreate(ctx context.Context, userID, email, username, photoURL string) (*models.User, bool, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}

	if username == "" {
		username = email
	}
	newUser := &models.User{
		ID:       userID,
		Email:    email,
		Username: username,
		PhotoURL: photoURL,
	}
	if err := s.store.Users().Create(ctx, newUser); err != nil {
		if errors.Is(err, db.ErrConflict) {
			// Concurrent initialize for the same identity; the record exists now.
			existing, getErr := s.store.Users().GetByID(ctx, userID)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to create user '%s': %w", userID, err)
	}
	return newUser, true, nil
}

func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err, "user", userID)
	}
	return user, nil
}
