package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Reader holds the lookups shared by a Store and a unit of work.
// Absent rows are reported with an error wrapping ErrRecordNotFound.
type Reader interface {
	FindAccountByNumber(ctx context.Context, number string) (*Account, error)
	FindAccountByID(ctx context.Context, id uuid.UUID) (*Account, error)
	// FindAccountsByUserID returns an empty slice, never nil, when the user
	// has no accounts. Rows come in creation order.
	FindAccountsByUserID(ctx context.Context, userID UserID) ([]Account, error)
	// FindHistoryByAccountID returns rows most-recent-first.
	FindHistoryByAccountID(ctx context.Context, accountID uuid.UUID, filter MovementFilter) ([]History, error)
}

// Tx is one atomic unit of work.
type Tx interface {
	Reader

	// LockAccount takes an exclusive lock on the account row for the rest
	// of the unit and returns its current state.
	LockAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	InsertAccount(ctx context.Context, a *Account) (int64, error)
	UpdateAccountByID(ctx context.Context, a *Account) (int64, error)
	// InsertHistory assigns h.ID and h.CreatedAt.
	InsertHistory(ctx context.Context, h *History) (int64, error)
}

// Store is the persistence collaborator consumed by Service.
type Store interface {
	Reader

	// WithinTx runs fn in one unit of work. The unit commits iff fn returns
	// nil; otherwise none of its writes become visible.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
