package models

import "time"

// Vault is the root of a containment tree. Exactly one user owns a vault at
// a time; ownership changes only through an explicit administrative transfer,
// never through sharing.
type Vault struct {
	ID        string    `json:"id" firestore:"-"`
	OwnerID   string    `json:"ownerId" firestore:"ownerId"`
	Name      string    `json:"name" firestore:"name"`
	IsDefault bool      `json:"isDefault" firestore:"isDefault"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// Collection groups assets inside exactly one vault.
type Collection struct {
	ID        string    `json:"id" firestore:"-"`
	VaultID   string    `json:"vaultId" firestore:"vaultId"`
	Name      string    `json:"name" firestore:"name"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// Asset is a single belonging inside a collection. VaultID is derived state:
// it must always equal the owning collection's VaultID.
type Asset struct {
	ID           string    `json:"id" firestore:"-"`
	CollectionID string    `json:"collectionId" firestore:"collectionId"`
	VaultID      string    `json:"vaultId" firestore:"vaultId"`
	Title        string    `json:"title" firestore:"title"`
	Value        float64   `json:"value" firestore:"value"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
