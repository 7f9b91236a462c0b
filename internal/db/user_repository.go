package db

import (
	"context"
	"errors"
	"fmt"

	"keepsake-backend-go/internal/models"
)

// firestoreUserRepository implements UserRepository on Firestore. The
// document ID is the identity provider UID.
type firestoreUserRepository struct {
	s *firestoreStore
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty")
	}
	snap, err := r.s.getDoc(ctx, r.s.client.Collection(usersCollection).Doc(userID))
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user '%s': %w", userID, err)
	}
	user.ID = snap.Ref.ID
	return &user, nil
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty")
	}
	ref := r.s.client.Collection(usersCollection).Doc(user.ID)
	if err := r.s.createDoc(ctx, ref, user); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty")
	}
	ref := r.s.client.Collection(usersCollection).Doc(user.ID)
	if err := r.s.setDoc(ctx, ref, user); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}
