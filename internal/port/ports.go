// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the budget engine
// and service layer from concrete implementations — the remote PostgREST
// store in production, in-memory fakes in tests.
package port

import (
	"context"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
)

// RecordStore supplies transaction and category snapshots and carries the
// mutations the closure guard admits. Reads return complete, consistent
// snapshots; the engine does not paginate or stream.
type RecordStore interface {
	// Transactions
	ListTransactions(ctx context.Context, userID string, period domain.Period) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error

	// Categories
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error)
	CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// ClosureStore persists the immutable monthly closure records.
// SaveClosureRecord must fail for a (user, period) pair that already has a
// record — that unique constraint is part of the single-writer guarantee
// behind the Close operation.
type ClosureStore interface {
	SaveClosureRecord(ctx context.Context, rec *domain.ClosureRecord) error
	LoadClosureRecord(ctx context.Context, userID string, period domain.Period) (*domain.ClosureRecord, bool, error)
	DeleteClosureRecord(ctx context.Context, userID string, period domain.Period) error
	ListClosureRecords(ctx context.Context, userID string) ([]domain.ClosureRecord, error)
}

// AuthStore defines the data operations for the authentication system.
type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)

	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
