package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"keepsake-backend-go/internal/models"
)

// firestoreCollectionRepository implements CollectionRepository on Firestore.
// Collections live in a top-level Firestore collection with a vaultId field
// (not a subcollection) so that a cross-vault move is a field update instead
// of a delete-and-recreate.
type firestoreCollectionRepository struct {
	s *firestoreStore
}

func (r *firestoreCollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	if collection.ID == "" {
		return errors.New("collection ID cannot be empty for Create operation")
	}
	ref := r.s.client.Collection(collectionsCollection).Doc(collection.ID)
	if err := r.s.createDoc(ctx, ref, collection); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreCollectionRepository) GetByID(ctx context.Context, collectionID string) (*models.Collection, error) {
	if collectionID == "" {
		return nil, errors.New("collectionID cannot be empty for GetByID operation")
	}
	snap, err := r.s.getDoc(ctx, r.s.client.Collection(collectionsCollection).Doc(collectionID))
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	var collection models.Collection
	if err := snap.DataTo(&collection); err != nil {
		return nil, fmt.Errorf("failed to decode collection '%s': %w", collectionID, err)
	}
	collection.ID = snap.Ref.ID
	return &collection, nil
}

func (r *firestoreCollectionRepository) GetByVaultID(ctx context.Context, vaultID string) ([]*models.Collection, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for GetByVaultID operation")
	}
	query := r.s.client.Collection(collectionsCollection).Where("vaultId", "==", vaultID)
	return r.collect(ctx, query)
}

func (r *firestoreCollectionRepository) Update(ctx context.Context, collection *models.Collection) error {
	if collection.ID == "" {
		return errors.New("collection ID cannot be empty for Update operation")
	}
	ref := r.s.client.Collection(collectionsCollection).Doc(collection.ID)
	if err := r.s.setDoc(ctx, ref, collection); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreCollectionRepository) Delete(ctx context.Context, collectionID string) error {
	if collectionID == "" {
		return errors.New("collectionID cannot be empty for Delete operation")
	}
	if err := r.s.deleteDoc(ctx, r.s.client.Collection(collectionsCollection).Doc(collectionID)); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreCollectionRepository) collect(ctx context.Context, query firestore.Query) ([]*models.Collection, error) {
	iter := r.s.docs(ctx, query)
	defer iter.Stop()

	var collections []*models.Collection
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate collections: %w", mapFirestoreError(err))
		}
		var collection models.Collection
		if err := doc.DataTo(&collection); err != nil {
			return nil, fmt.Errorf("failed to decode collection '%s': %w", doc.Ref.ID, err)
		}
		collection.ID = doc.Ref.ID
		collections = append(collections, &collection)
	}
	return collections, nil
}
