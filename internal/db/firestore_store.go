package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection       = "users"
	vaultsCollection      = "vaults"
	collectionsCollection = "collections"
	assetsCollection      = "assets"
	membershipsCollection = "memberships"
	grantsCollection      = "grants"
	auditLogsCollection   = "auditLogs"
)

// firestoreStore implements Store on Firestore. Outside a transaction it
// issues plain reads and writes; inside RunTransaction every operation routes
// through the *firestore.Transaction so multi-record mutations commit
// all-or-nothing. Firestore requires all transactional reads to happen before
// the first write; the core services are structured to respect that.
type firestoreStore struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

// NewFirestoreStore creates a Store backed by the given Firestore client.
func NewFirestoreStore(client *firestore.Client) Store {
	return &firestoreStore{client: client}
}

func (s *firestoreStore) Users() UserRepository               { return &firestoreUserRepository{s} }
func (s *firestoreStore) Vaults() VaultRepository             { return &firestoreVaultRepository{s} }
func (s *firestoreStore) Collections() CollectionRepository   { return &firestoreCollectionRepository{s} }
func (s *firestoreStore) Assets() AssetRepository             { return &firestoreAssetRepository{s} }
func (s *firestoreStore) Memberships() MembershipRepository   { return &firestoreMembershipRepository{s} }
func (s *firestoreStore) Grants() GrantRepository             { return &firestoreGrantRepository{s} }
func (s *firestoreStore) AuditLogs() AuditRepository          { return &firestoreAuditRepository{s} }

func (s *firestoreStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.tx != nil {
		// Already transactional; nested calls join the outer transaction.
		return fn(ctx, s)
	}
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreStore{client: s.client, tx: tx})
	})
	return mapFirestoreError(err)
}

// getDoc reads a single document, inside or outside a transaction.
func (s *firestoreStore) getDoc(ctx context.Context, ref *firestore.DocumentRef) (*firestore.DocumentSnapshot, error) {
	if s.tx != nil {
		return s.tx.Get(ref)
	}
	return ref.Get(ctx)
}

// docs runs a query, inside or outside a transaction.
func (s *firestoreStore) docs(ctx context.Context, query firestore.Query) *firestore.DocumentIterator {
	if s.tx != nil {
		return s.tx.Documents(query)
	}
	return query.Documents(ctx)
}

func (s *firestoreStore) createDoc(ctx context.Context, ref *firestore.DocumentRef, data interface{}) error {
	if s.tx != nil {
		return s.tx.Create(ref, data)
	}
	_, err := ref.Create(ctx, data)
	return err
}

func (s *firestoreStore) setDoc(ctx context.Context, ref *firestore.DocumentRef, data interface{}) error {
	if s.tx != nil {
		return s.tx.Set(ref, data)
	}
	_, err := ref.Set(ctx, data)
	return err
}

func (s *firestoreStore) deleteDoc(ctx context.Context, ref *firestore.DocumentRef) error {
	if s.tx != nil {
		return s.tx.Delete(ref)
	}
	_, err := ref.Delete(ctx)
	return err
}

// mapFirestoreError translates gRPC status codes into the store's sentinel
// errors so callers can use errors.Is without importing grpc.
func mapFirestoreError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case codes.Aborted, codes.AlreadyExists, codes.FailedPrecondition:
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
