package service

import (
	"context"
	"sync"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
)

// memStore is an in-memory implementation of the store ports used across
// the service tests. All methods are safe for concurrent use so the
// closure tests can hammer it from multiple goroutines.
type memStore struct {
	mu           sync.Mutex
	transactions map[string]domain.Transaction
	categories   map[string]domain.Category
	closures     map[string]domain.ClosureRecord // keyed by userID+"/"+period
	users        map[string]domain.User          // keyed by ID
	tokens       map[string]domain.AuthRefreshToken

	listCategoriesCalls int

	// When set, runs at the start of SaveClosureRecord, outside the store
	// mutex, so a test can interleave work into the closure commit window.
	onSaveClosure func()
}

func newMemStore() *memStore {
	return &memStore{
		transactions: make(map[string]domain.Transaction),
		categories:   make(map[string]domain.Category),
		closures:     make(map[string]domain.ClosureRecord),
		users:        make(map[string]domain.User),
		tokens:       make(map[string]domain.AuthRefreshToken),
	}
}

func closureKey(userID string, period domain.Period) string {
	return userID + "/" + period.String()
}

// ------------------------------------------------------------
// RecordStore
// ------------------------------------------------------------

func (m *memStore) ListTransactions(_ context.Context, userID string, period domain.Period) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range m.transactions {
		if tx.UserID == userID && period.Contains(tx.OccurredOn) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memStore) GetTransaction(_ context.Context, userID, transactionID string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[transactionID]
	if !ok || tx.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
	}
	return &tx, nil
}

func (m *memStore) CreateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = *tx
	return tx, nil
}

func (m *memStore) UpdateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[tx.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: tx.ID}
	}
	m.transactions[tx.ID] = *tx
	return tx, nil
}

func (m *memStore) DeleteTransaction(_ context.Context, userID, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[transactionID]
	if !ok || tx.UserID != userID {
		return &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
	}
	delete(m.transactions, transactionID)
	return nil
}

func (m *memStore) ListCategories(_ context.Context, userID string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCategoriesCalls++
	var out []domain.Category
	for _, c := range m.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) GetCategory(_ context.Context, userID, categoryID string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[categoryID]
	if !ok || c.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "category", ID: categoryID}
	}
	return &c, nil
}

func (m *memStore) CreateCategory(_ context.Context, cat *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[cat.ID] = *cat
	return cat, nil
}

func (m *memStore) UpdateCategory(_ context.Context, cat *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[cat.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "category", ID: cat.ID}
	}
	m.categories[cat.ID] = *cat
	return cat, nil
}

func (m *memStore) DeleteCategory(_ context.Context, userID, categoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[categoryID]
	if !ok || c.UserID != userID {
		return &domain.ErrNotFound{Resource: "category", ID: categoryID}
	}
	delete(m.categories, categoryID)
	return nil
}

// ------------------------------------------------------------
// ClosureStore
// ------------------------------------------------------------

func (m *memStore) SaveClosureRecord(_ context.Context, rec *domain.ClosureRecord) error {
	if m.onSaveClosure != nil {
		m.onSaveClosure()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := closureKey(rec.UserID, rec.Period)
	if _, exists := m.closures[key]; exists {
		return &domain.ErrAlreadyClosed{Period: rec.Period}
	}
	m.closures[key] = *rec
	return nil
}

func (m *memStore) LoadClosureRecord(_ context.Context, userID string, period domain.Period) (*domain.ClosureRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.closures[closureKey(userID, period)]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (m *memStore) DeleteClosureRecord(_ context.Context, userID string, period domain.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.closures, closureKey(userID, period))
	return nil
}

func (m *memStore) ListClosureRecords(_ context.Context, userID string) ([]domain.ClosureRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ClosureRecord
	for _, rec := range m.closures {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ------------------------------------------------------------
// AuthStore
// ------------------------------------------------------------

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memStore) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return user, nil
}

func (m *memStore) StoreRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenHash] = domain.AuthRefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (m *memStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[tokenHash]
	if !ok {
		return nil, nil
	}
	return &tok, nil
}

func (m *memStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, tokenHash)
	return nil
}

func (m *memStore) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, tok := range m.tokens {
		if tok.UserID == userID {
			delete(m.tokens, hash)
		}
	}
	return nil
}

// expireToken backdates a stored refresh token so Refresh sees it expired.
func (m *memStore) expireToken(tokenHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok := m.tokens[tokenHash]
	tok.ExpiresAt = time.Now().Add(-time.Hour)
	m.tokens[tokenHash] = tok
}

// ------------------------------------------------------------
// Cache fake
// ------------------------------------------------------------

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]domain.Category
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]domain.Category)}
}

func (c *fakeCache) Get(key string) ([]domain.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *fakeCache) Set(key string, value []domain.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func (c *fakeCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deletes++
}
