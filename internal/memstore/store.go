// Package memstore keeps the ledger in process memory. Units of work buffer
// their writes and apply them on commit; account rows are locked with one
// context-aware lock per account, held until the unit ends.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]ledger.Account
	byNumber map[string]uuid.UUID
	history  []ledger.History
	nextID   int64
	locks    map[uuid.UUID]chan struct{}
	now      func() time.Time
}

func New() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]ledger.Account),
		byNumber: make(map[string]uuid.UUID),
		locks:    make(map[uuid.UUID]chan struct{}),
		now:      time.Now,
	}
}

func (s *Store) FindAccountByNumber(ctx context.Context, number string) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byNumber[number]
	if !ok {
		return nil, fmt.Errorf("account %q: %w", number, ledger.ErrRecordNotFound)
	}
	a := s.accounts[id]
	return &a, nil
}

func (s *Store) FindAccountByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, ledger.ErrRecordNotFound)
	}
	return &a, nil
}

func (s *Store) FindAccountsByUserID(ctx context.Context, userID ledger.UserID) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.Account, 0)
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b ledger.Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (s *Store) FindHistoryByAccountID(ctx context.Context, accountID uuid.UUID, filter ledger.MovementFilter) ([]ledger.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.History, 0)
	for i := len(s.history) - 1; i >= 0; i-- {
		h := s.history[i]
		if !h.Matches(accountID, filter) {
			continue
		}
		if h.WAccountID != nil {
			h.WAccountNumber = s.accounts[*h.WAccountID].Number
		}
		if h.DAccountID != nil {
			h.DAccountNumber = s.accounts[*h.DAccountID].Number
		}
		out = append(out, h)
	}
	return out, nil
}

// WithinTx runs fn in a unit of work. Locks taken by fn are released after
// the unit commits or rolls back.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	t := &tx{
		store:    s,
		accounts: make(map[uuid.UUID]ledger.Account),
		held:     make(map[uuid.UUID]chan struct{}),
	}
	defer t.release()

	if err := fn(ctx, t); err != nil {
		return err
	}
	return t.commit()
}

func (s *Store) lockFor(id uuid.UUID) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}
