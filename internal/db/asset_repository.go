package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"keepsake-backend-go/internal/models"
)

// firestoreAssetRepository implements AssetRepository on Firestore. Assets
// carry both collectionId and the derived vaultId so cascades and grant
// pruning can query by either parent.
type firestoreAssetRepository struct {
	s *firestoreStore
}

func (r *firestoreAssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if asset.ID == "" {
		return errors.New("asset ID cannot be empty for Create operation")
	}
	ref := r.s.client.Collection(assetsCollection).Doc(asset.ID)
	if err := r.s.createDoc(ctx, ref, asset); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreAssetRepository) GetByID(ctx context.Context, assetID string) (*models.Asset, error) {
	if assetID == "" {
		return nil, errors.New("assetID cannot be empty for GetByID operation")
	}
	snap, err := r.s.getDoc(ctx, r.s.client.Collection(assetsCollection).Doc(assetID))
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	var asset models.Asset
	if err := snap.DataTo(&asset); err != nil {
		return nil, fmt.Errorf("failed to decode asset '%s': %w", assetID, err)
	}
	asset.ID = snap.Ref.ID
	return &asset, nil
}

func (r *firestoreAssetRepository) GetByCollectionID(ctx context.Context, collectionID string) ([]*models.Asset, error) {
	if collectionID == "" {
		return nil, errors.New("collectionID cannot be empty for GetByCollectionID operation")
	}
	query := r.s.client.Collection(assetsCollection).Where("collectionId", "==", collectionID)
	return r.collect(ctx, query)
}

func (r *firestoreAssetRepository) GetByVaultID(ctx context.Context, vaultID string) ([]*models.Asset, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for GetByVaultID operation")
	}
	query := r.s.client.Collection(assetsCollection).Where("vaultId", "==", vaultID)
	return r.collect(ctx, query)
}

func (r *firestoreAssetRepository) Update(ctx context.Context, asset *models.Asset) error {
	if asset.ID == "" {
		return errors.New("asset ID cannot be empty for Update operation")
	}
	ref := r.s.client.Collection(assetsCollection).Doc(asset.ID)
	if err := r.s.setDoc(ctx, ref, asset); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreAssetRepository) Delete(ctx context.Context, assetID string) error {
	if assetID == "" {
		return errors.New("assetID cannot be empty for Delete operation")
	}
	if err := r.s.deleteDoc(ctx, r.s.client.Collection(assetsCollection).Doc(assetID)); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (r *firestoreAssetRepository) collect(ctx context.Context, query firestore.Query) ([]*models.Asset, error) {
	iter := r.s.docs(ctx, query)
	defer iter.Stop()

	var assets []*models.Asset
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate assets: %w", mapFirestoreError(err))
		}
		var asset models.Asset
		if err := doc.DataTo(&asset); err != nil {
			return nil, fmt.Errorf("failed to decode asset '%s': %w", doc.Ref.ID, err)
		}
		asset.ID = doc.Ref.ID
		assets = append(assets, &asset)
	}
	return assets, nil
}
