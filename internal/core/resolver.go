package core

import (
	"context"
	"errors"
	"fmt"

	"keepsake-backend-go/internal/db"
	"keepsake-backend-go/internal/models"
)

// Resolver computes the effective permission of a user on a resource. It is
// a pure query: it reads committed membership and grant state and never
// mutates anything. Decisions may lag a concurrent revocation by the length
// of one transaction; that staleness is bounded and accepted.
//
// Resolution order, first match wins:
//
//  1. The vault owner may do everything.
//  2. Create is checked against the vault membership only; scoped grants
//     cannot carry an effective Create bit.
//  3. View is true for any ACTIVE membership on the resource's vault.
//  4. Edit/Move/Delete on a collection or asset consult a grant scoped
//     exactly to that resource first, then (for an asset) a grant scoped to
//     its parent collection, then fall back to the membership.
//  5. Delete on a vault itself is owner-only; Edit/Move on a vault follow
//     the membership bits.
//  6. Everything else is denied.
type Resolver struct {
	store db.Store
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store db.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve reports whether userID may perform action on the referenced
// resource. Unknown resources return ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, userID string, ref models.ResourceRef, action models.Action) (bool, error) {
	return r.resolve(ctx, r.store, userID, ref, action)
}

// resolve is the transaction-aware variant used by the services so that the
// check and the mutation it gates read the same snapshot.
func (r *Resolver) resolve(ctx context.Context, store db.Store, userID string, ref models.ResourceRef, action models.Action) (bool, error) {
	vault, parentCollectionID, err := r.locate(ctx, store, ref)
	if err != nil {
		return false, err
	}

	// Rule 1: owners bypass all checks.
	if vault.OwnerID == userID {
		return true, nil
	}

	membership, err := store.Memberships().Get(ctx, vault.ID, userID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return false, err
	}
	active := membership != nil && err == nil && membership.Status == models.StatusActive

	switch action {
	case models.ActionCreate:
		// Rule 2: Create lives at the vault-membership level only. It is
		// meaningful on a vault (create a collection) or a collection
		// (create an asset); nothing is creatable under an asset.
		if ref.Type == models.ResourceAsset {
			return false, nil
		}
		return active && membership.Permissions.Create, nil

	case models.ActionView:
		// Rule 3: any active member may view anything in the vault.
		return active, nil

	case models.ActionEdit, models.ActionMove, models.ActionDelete:
		if ref.Type == models.ResourceVault {
			// Rule 5: vault deletion is owner-only; no membership or grant
			// can authorize removing the container itself. Edit and Move on
			// the vault follow the membership like any other resource, and
			// grants never target vaults.
			if action == models.ActionDelete {
				return false, nil
			}
			return active && membership.Permissions.Allows(action), nil
		}
		if !active {
			return false, nil
		}
		// Rule 4: the narrowest scope wins first. A grant must not outlive
		// its membership, but the status check above keeps a stray grant
		// from authorizing a revoked user regardless.
		allowed, err := r.grantAllows(ctx, store, vault.ID, scopeTypeOf(ref.Type), ref.ID, userID, action)
		if err != nil {
			return false, err
		}
		if allowed {
			return true, nil
		}
		// An asset inherits grants scoped to its parent collection.
		if ref.Type == models.ResourceAsset && parentCollectionID != "" {
			allowed, err = r.grantAllows(ctx, store, vault.ID, models.ScopeCollection, parentCollectionID, userID, action)
			if err != nil {
				return false, err
			}
			if allowed {
				return true, nil
			}
		}
		return membership.Permissions.Allows(action), nil
	}

	// Rule 6: default deny.
	return false, nil
}

// grantAllows reports whether a grant exists for the scope and has the
// action set. A missing grant is not an error here.
func (r *Resolver) grantAllows(ctx context.Context, store db.Store, vaultID string, scopeType models.ScopeType, scopeID, userID string, action models.Action) (bool, error) {
	grant, err := store.Grants().Get(ctx, vaultID, scopeType, scopeID, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return grant.Permissions.Allows(action), nil
}

// locate loads the vault that owns the referenced resource. For asset
// references it also reports the asset's parent collection so grant lookups
// can walk one level up.
func (r *Resolver) locate(ctx context.Context, store db.Store, ref models.ResourceRef) (*models.Vault, string, error) {
	var (
		vaultID            string
		parentCollectionID string
	)
	switch ref.Type {
	case models.ResourceVault:
		vaultID = ref.ID
	case models.ResourceCollection:
		collection, err := store.Collections().GetByID(ctx, ref.ID)
		if err != nil {
			return nil, "", mapStoreError(err, "collection", ref.ID)
		}
		vaultID = collection.VaultID
	case models.ResourceAsset:
		asset, err := store.Assets().GetByID(ctx, ref.ID)
		if err != nil {
			return nil, "", mapStoreError(err, "asset", ref.ID)
		}
		vaultID = asset.VaultID
		parentCollectionID = asset.CollectionID
	default:
		return nil, "", fmt.Errorf("%w: unknown resource type '%s'", ErrNotFound, ref.Type)
	}

	vault, err := store.Vaults().GetByID(ctx, vaultID)
	if err != nil {
		return nil, "", mapStoreError(err, "vault", vaultID)
	}
	return vault, parentCollectionID, nil
}

func scopeTypeOf(resourceType models.ResourceType) models.ScopeType {
	if resourceType == models.ResourceAsset {
		return models.ScopeAsset
	}
	return models.ScopeCollection
}

// mapStoreError lifts storage sentinels into the core taxonomy.
func mapStoreError(err error, kind, id string) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("%w: %s '%s'", ErrNotFound, kind, id)
	case errors.Is(err, db.ErrConflict):
		return fmt.Errorf("%w: %s '%s'", ErrConflict, kind, id)
	}
	return err
}
