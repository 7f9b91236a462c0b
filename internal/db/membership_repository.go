package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"keepsake-backend-go/internal/models"
)

// firestoreMembershipRepository implements MembershipRepository on Firestore.
// The document ID is models.MembershipID(vaultID, userID), which enforces the
// (vaultId, userId) unique key structurally and keeps retried upserts
// idempotent.
type firestoreMembershipRepository struct {
	s *firestoreStore
}

func (r *firestoreMembershipRepository) Set(ctx context.Context, membership *models.Membership) error {
	if membership.VaultID == "" || membership.UserID == "" {
		return errors.New("membership vaultID and userID cannot be empty for Set operation")
	}
	membership.ID = models.MembershipID(membership.VaultID, membership.UserID)
	ref := r.s.client.Collection(membershipsCollection).Doc(membership.ID)
	if err := r.s.setDoc(ctx, ref, membership); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreMembershipRepository) Get(ctx context.Context, vaultID, userID string) (*models.Membership, error) {
	if vaultID == "" || userID == "" {
		return nil, errors.New("vaultID and userID cannot be empty for Get operation")
	}
	id := models.MembershipID(vaultID, userID)
	snap, err := r.s.getDoc(ctx, r.s.client.Collection(membershipsCollection).Doc(id))
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	var membership models.Membership
	if err := snap.DataTo(&membership); err != nil {
		return nil, fmt.Errorf("failed to decode membership '%s': %w", id, err)
	}
	membership.ID = snap.Ref.ID
	return &membership, nil
}

func (r *firestoreMembershipRepository) GetByVaultID(ctx context.Context, vaultID string) ([]*models.Membership, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for GetByVaultID operation")
	}
	query := r.s.client.Collection(membershipsCollection).Where("vaultId", "==", vaultID)
	return r.collect(ctx, query)
}

func (r *firestoreMembershipRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Membership, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByUserID operation")
	}
	query := r.s.client.Collection(membershipsCollection).Where("userId", "==", userID)
	return r.collect(ctx, query)
}

func (r *firestoreMembershipRepository) Delete(ctx context.Context, membershipID string) error {
	if membershipID == "" {
		return errors.New("membershipID cannot be empty for Delete operation")
	}
	if err := r.s.deleteDoc(ctx, r.s.client.Collection(membershipsCollection).Doc(membershipID)); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreMembershipRepository) collect(ctx context.Context, query firestore.Query) ([]*models.Membership, error) {
	iter := r.s.docs(ctx, query)
	defer iter.Stop()

	var memberships []*models.Membership
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate memberships: %w", mapFirestoreError(err))
		}
		var membership models.Membership
		if err := doc.DataTo(&membership); err != nil {
			return nil, fmt.Errorf("failed to decode membership '%s': %w", doc.Ref.ID, err)
		}
		membership.ID = doc.Ref.ID
		memberships = append(memberships, &membership)
	}
	return memberships, nil
}
