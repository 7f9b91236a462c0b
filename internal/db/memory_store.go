package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"keepsake-backend-go/internal/models"
)

// memoryData is the full dataset of a MemoryStore. Transactions clone it,
// mutate the clone, and swap it in on commit, so a failed transaction leaves
// the committed state untouched.
type memoryData struct {
	users       map[string]*models.User
	vaults      map[string]*models.Vault
	collections map[string]*models.Collection
	assets      map[string]*models.Asset
	memberships map[string]*models.Membership
	grants      map[string]*models.PermissionGrant
	auditLogs   []models.AuditLog
}

func newMemoryData() *memoryData {
	return &memoryData{
		users:       make(map[string]*models.User),
		vaults:      make(map[string]*models.Vault),
		collections: make(map[string]*models.Collection),
		assets:      make(map[string]*models.Asset),
		memberships: make(map[string]*models.Membership),
		grants:      make(map[string]*models.PermissionGrant),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range d.vaults {
		vault := *v
		c.vaults[k] = &vault
	}
	for k, v := range d.collections {
		col := *v
		c.collections[k] = &col
	}
	for k, v := range d.assets {
		a := *v
		c.assets[k] = &a
	}
	for k, v := range d.memberships {
		m := *v
		c.memberships[k] = &m
	}
	for k, v := range d.grants {
		g := *v
		c.grants[k] = &g
	}
	c.auditLogs = append(c.auditLogs, d.auditLogs...)
	return c
}

// MemoryStore is a map-backed Store used by tests and local development. All
// operations serialize on one mutex; RunTransaction applies its writes to a
// snapshot that only becomes visible on commit.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
	inTx bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemoryData()}
}

func (s *MemoryStore) Users() UserRepository             { return &memoryUserRepository{s} }
func (s *MemoryStore) Vaults() VaultRepository           { return &memoryVaultRepository{s} }
func (s *MemoryStore) Collections() CollectionRepository { return &memoryCollectionRepository{s} }
func (s *MemoryStore) Assets() AssetRepository           { return &memoryAssetRepository{s} }
func (s *MemoryStore) Memberships() MembershipRepository { return &memoryMembershipRepository{s} }
func (s *MemoryStore) Grants() GrantRepository           { return &memoryGrantRepository{s} }
func (s *MemoryStore) AuditLogs() AuditRepository        { return &memoryAuditRepository{s} }

func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	txStore := &MemoryStore{data: s.data.clone(), inTx: true}
	if err := fn(ctx, txStore); err != nil {
		return err
	}
	s.data = txStore.data
	return nil
}

func (s *MemoryStore) lock() {
	if !s.inTx {
		s.mu.Lock()
	}
}

func (s *MemoryStore) unlock() {
	if !s.inTx {
		s.mu.Unlock()
	}
}

func stamp(createdAt *time.Time, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

type memoryUserRepository struct{ s *MemoryStore }

func (r *memoryUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	r.s.lock()
	defer r.s.unlock()
	user, ok := r.s.data.users[userID]
	if !ok {
		return nil, fmt.Errorf("user '%s': %w", userID, ErrNotFound)
	}
	u := *user
	return &u, nil
}

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.s.lock()
	defer r.s.unlock()
	if _, exists := r.s.data.users[user.ID]; exists {
		return fmt.Errorf("user '%s': %w", user.ID, ErrConflict)
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	u := *user
	r.s.data.users[user.ID] = &u
	return nil
}

func (r *memoryUserRepository) Update(ctx context.Context, user *models.User) error {
	r.s.lock()
	defer r.s.unlock()
	stamp(&user.CreatedAt, &user.UpdatedAt)
	u := *user
	r.s.data.users[user.ID] = &u
	return nil
}

type memoryVaultRepository struct{ s *MemoryStore }

func (r *memoryVaultRepository) Create(ctx context.Context, vault *models.Vault) error {
	r.s.lock()
	defer r.s.unlock()
	if _, exists := r.s.data.vaults[vault.ID]; exists {
		return fmt.Errorf("vault '%s': %w", vault.ID, ErrConflict)
	}
	stamp(&vault.CreatedAt, &vault.UpdatedAt)
	v := *vault
	r.s.data.vaults[vault.ID] = &v
	return nil
}

func (r *memoryVaultRepository) GetByID(ctx context.Context, vaultID string) (*models.Vault, error) {
	r.s.lock()
	defer r.s.unlock()
	vault, ok := r.s.data.vaults[vaultID]
	if !ok {
		return nil, fmt.Errorf("vault '%s': %w", vaultID, ErrNotFound)
	}
	v := *vault
	return &v, nil
}

func (r *memoryVaultRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*models.Vault, error) {
	r.s.lock()
	defer r.s.unlock()
	var vaults []*models.Vault
	for _, vault := range r.s.data.vaults {
		if vault.OwnerID == ownerID {
			v := *vault
			vaults = append(vaults, &v)
		}
	}
	return vaults, nil
}

func (r *memoryVaultRepository) Delete(ctx context.Context, vaultID string) error {
	r.s.lock()
	defer r.s.unlock()
	delete(r.s.data.vaults, vaultID)
	return nil
}

type memoryCollectionRepository struct{ s *MemoryStore }

func (r *memoryCollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	r.s.lock()
	defer r.s.unlock()
	if _, exists := r.s.data.collections[collection.ID]; exists {
		return fmt.Errorf("collection '%s': %w", collection.ID, ErrConflict)
	}
	stamp(&collection.CreatedAt, &collection.UpdatedAt)
	c := *collection
	r.s.data.collections[collection.ID] = &c
	return nil
}

func (r *memoryCollectionRepository) GetByID(ctx context.Context, collectionID string) (*models.Collection, error) {
	r.s.lock()
	defer r.s.unlock()
	collection, ok := r.s.data.collections[collectionID]
	if !ok {
		return nil, fmt.Errorf("collection '%s': %w", collectionID, ErrNotFound)
	}
	c := *collection
	return &c, nil
}

func (r *memoryCollectionRepository) GetByVaultID(ctx context.Context, vaultID string) ([]*models.Collection, error) {
	r.s.lock()
	defer r.s.unlock()
	var collections []*models.Collection
	for _, collection := range r.s.data.collections {
		if collection.VaultID == vaultID {
			c := *collection
			collections = append(collections, &c)
		}
	}
	return collections, nil
}

func (r *memoryCollectionRepository) Update(ctx context.Context, collection *models.Collection) error {
	r.s.lock()
	defer r.s.unlock()
	stamp(&collection.CreatedAt, &collection.UpdatedAt)
	c := *collection
	r.s.data.collections[collection.ID] = &c
	return nil
}

func (r *memoryCollectionRepository) Delete(ctx context.Context, collectionID string) error {
	r.s.lock()
	defer r.s.unlock()
	delete(r.s.data.collections, collectionID)
	return nil
}

type memoryAssetRepository struct{ s *MemoryStore }

func (r *memoryAssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	r.s.lock()
	defer r.s.unlock()
	if _, exists := r.s.data.assets[asset.ID]; exists {
		return fmt.Errorf("asset '%s': %w", asset.ID, ErrConflict)
	}
	stamp(&asset.CreatedAt, &asset.UpdatedAt)
	a := *asset
	r.s.data.assets[asset.ID] = &a
	return nil
}

func (r *memoryAssetRepository) GetByID(ctx context.Context, assetID string) (*models.Asset, error) {
	r.s.lock()
	defer r.s.unlock()
	asset, ok := r.s.data.assets[assetID]
	if !ok {
		return nil, fmt.Errorf("asset '%s': %w", assetID, ErrNotFound)
	}
	a := *asset
	return &a, nil
}

func (r *memoryAssetRepository) GetByCollectionID(ctx context.Context, collectionID string) ([]*models.Asset, error) {
	r.s.lock()
	defer r.s.unlock()
	var assets []*models.Asset
	for _, asset := range r.s.data.assets {
		if asset.CollectionID == collectionID {
			a := *asset
			assets = append(assets, &a)
		}
	}
	return assets, nil
}

func (r *memoryAssetRepository) GetByVaultID(ctx context.Context, vaultID string) ([]*models.Asset, error) {
	r.s.lock()
	defer r.s.unlock()
	var assets []*models.Asset
	for _, asset := range r.s.data.assets {
		if asset.VaultID == vaultID {
			a := *asset
			assets = append(assets, &a)
		}
	}
	return assets, nil
}

func (r *memoryAssetRepository) Update(ctx context.Context, asset *models.Asset) error {
	r.s.lock()
	defer r.s.unlock()
	stamp(&asset.CreatedAt, &asset.UpdatedAt)
	a := *asset
	r.s.data.assets[asset.ID] = &a
	return nil
}

func (r *memoryAssetRepository) Delete(ctx context.Context, assetID string) error {
	r.s.lock()
	defer r.s.unlock()
	delete(r.s.data.assets, assetID)
	return nil
}

type memoryMembershipRepository struct{ s *MemoryStore }

func (r *memoryMembershipRepository) Set(ctx context.Context, membership *models.Membership) error {
	r.s.lock()
	defer r.s.unlock()
	membership.ID = models.MembershipID(membership.VaultID, membership.UserID)
	if existing, ok := r.s.data.memberships[membership.ID]; ok {
		membership.CreatedAt = existing.CreatedAt
	}
	stamp(&membership.CreatedAt, &membership.UpdatedAt)
	m := *membership
	r.s.data.memberships[membership.ID] = &m
	return nil
}

func (r *memoryMembershipRepository) Get(ctx context.Context, vaultID, userID string) (*models.Membership, error) {
	r.s.lock()
	defer r.s.unlock()
	id := models.MembershipID(vaultID, userID)
	membership, ok := r.s.data.memberships[id]
	if !ok {
		return nil, fmt.Errorf("membership '%s': %w", id, ErrNotFound)
	}
	m := *membership
	return &m, nil
}

func (r *memoryMembershipRepository) GetByVaultID(ctx context.Context, vaultID string) ([]*models.Membership, error) {
	r.s.lock()
	defer r.s.unlock()
	var memberships []*models.Membership
	for _, membership := range r.s.data.memberships {
		if membership.VaultID == vaultID {
			m := *membership
			memberships = append(memberships, &m)
		}
	}
	return memberships, nil
}

func (r *memoryMembershipRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Membership, error) {
	r.s.lock()
	defer r.s.unlock()
	var memberships []*models.Membership
	for _, membership := range r.s.data.memberships {
		if membership.UserID == userID {
			m := *membership
			memberships = append(memberships, &m)
		}
	}
	return memberships, nil
}

func (r *memoryMembershipRepository) Delete(ctx context.Context, membershipID string) error {
	r.s.lock()
	defer r.s.unlock()
	delete(r.s.data.memberships, membershipID)
	return nil
}

type memoryGrantRepository struct{ s *MemoryStore }

func (r *memoryGrantRepository) Set(ctx context.Context, grant *models.PermissionGrant) error {
	r.s.lock()
	defer r.s.unlock()
	grant.ID = models.GrantID(grant.VaultID, grant.ScopeType, grant.ScopeID, grant.UserID)
	if existing, ok := r.s.data.grants[grant.ID]; ok {
		grant.CreatedAt = existing.CreatedAt
	}
	stamp(&grant.CreatedAt, &grant.UpdatedAt)
	g := *grant
	r.s.data.grants[grant.ID] = &g
	return nil
}

func (r *memoryGrantRepository) Get(ctx context.Context, vaultID string, scopeType models.ScopeType, scopeID, userID string) (*models.PermissionGrant, error) {
	r.s.lock()
	defer r.s.unlock()
	id := models.GrantID(vaultID, scopeType, scopeID, userID)
	grant, ok := r.s.data.grants[id]
	if !ok {
		return nil, fmt.Errorf("grant '%s': %w", id, ErrNotFound)
	}
	g := *grant
	return &g, nil
}

func (r *memoryGrantRepository) GetByVaultID(ctx context.Context, vaultID string) ([]*models.PermissionGrant, error) {
	r.s.lock()
	defer r.s.unlock()
	var grants []*models.PermissionGrant
	for _, grant := range r.s.data.grants {
		if grant.VaultID == vaultID {
			g := *grant
			grants = append(grants, &g)
		}
	}
	return grants, nil
}

func (r *memoryGrantRepository) GetByScope(ctx context.Context, scopeType models.ScopeType, scopeID string) ([]*models.PermissionGrant, error) {
	r.s.lock()
	defer r.s.unlock()
	var grants []*models.PermissionGrant
	for _, grant := range r.s.data.grants {
		if grant.ScopeType == scopeType && grant.ScopeID == scopeID {
			g := *grant
			grants = append(grants, &g)
		}
	}
	return grants, nil
}

func (r *memoryGrantRepository) Delete(ctx context.Context, grantID string) error {
	r.s.lock()
	defer r.s.unlock()
	delete(r.s.data.grants, grantID)
	return nil
}

type memoryAuditRepository struct{ s *MemoryStore }

func (r *memoryAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	r.s.lock()
	defer r.s.unlock()
	if logEntry.Timestamp.IsZero() {
		logEntry.Timestamp = time.Now().UTC()
	}
	logEntry.ID = fmt.Sprintf("audit-%d", len(r.s.data.auditLogs)+1)
	r.s.data.auditLogs = append(r.s.data.auditLogs, logEntry)
	return nil
}
