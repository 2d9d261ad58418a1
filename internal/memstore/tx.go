package memstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

var _ ledger.Tx = (*tx)(nil)

type tx struct {
	store *Store

	// staged writes, applied on commit
	accounts map[uuid.UUID]ledger.Account
	inserted []uuid.UUID
	history  []*ledger.History

	held map[uuid.UUID]chan struct{}
}

func (t *tx) FindAccountByNumber(ctx context.Context, number string) (*ledger.Account, error) {
	for _, a := range t.accounts {
		if a.Number == number {
			return &a, nil
		}
	}
	return t.store.FindAccountByNumber(ctx, number)
}

func (t *tx) FindAccountByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	if a, ok := t.accounts[id]; ok {
		return &a, nil
	}
	return t.store.FindAccountByID(ctx, id)
}

func (t *tx) FindAccountsByUserID(ctx context.Context, userID ledger.UserID) ([]ledger.Account, error) {
	return t.store.FindAccountsByUserID(ctx, userID)
}

func (t *tx) FindHistoryByAccountID(ctx context.Context, accountID uuid.UUID, filter ledger.MovementFilter) ([]ledger.History, error) {
	return t.store.FindHistoryByAccountID(ctx, accountID, filter)
}

// LockAccount blocks until the account lock is free or ctx is done. A lock
// already held by this unit is not taken twice.
func (t *tx) LockAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	if _, ok := t.held[id]; !ok {
		l := t.store.lockFor(id)
		select {
		case l <- struct{}{}:
			t.held[id] = l
		case <-ctx.Done():
			return nil, fmt.Errorf("lock account %s: %w", id, ctx.Err())
		}
	}
	return t.FindAccountByID(ctx, id)
}

func (t *tx) InsertAccount(ctx context.Context, a *ledger.Account) (int64, error) {
	if _, err := t.FindAccountByNumber(ctx, a.Number); err == nil {
		return 0, fmt.Errorf("account %q: %w", a.Number, ledger.ErrDuplicateNumber)
	}
	if _, err := t.FindAccountByID(ctx, a.ID); err == nil {
		return 0, nil
	}
	a.CreatedAt = t.store.now()
	t.accounts[a.ID] = *a
	t.inserted = append(t.inserted, a.ID)
	return 1, nil
}

func (t *tx) UpdateAccountByID(ctx context.Context, a *ledger.Account) (int64, error) {
	current, err := t.FindAccountByID(ctx, a.ID)
	if err != nil {
		return 0, nil
	}
	current.Balance = a.Balance
	t.accounts[a.ID] = *current
	return 1, nil
}

func (t *tx) InsertHistory(ctx context.Context, h *ledger.History) (int64, error) {
	if h.WAccountID == nil && h.DAccountID == nil {
		return 0, nil
	}
	t.history = append(t.history, h)
	return 1, nil
}

func (t *tx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range t.inserted {
		if _, ok := s.byNumber[t.accounts[id].Number]; ok {
			return fmt.Errorf("account %q: %w", t.accounts[id].Number, ledger.ErrDuplicateNumber)
		}
	}

	for _, id := range t.inserted {
		s.byNumber[t.accounts[id].Number] = id
	}
	for id, a := range t.accounts {
		s.accounts[id] = a
	}
	now := s.now()
	for _, h := range t.history {
		s.nextID++
		h.ID = s.nextID
		h.CreatedAt = now
		s.history = append(s.history, *h)
	}
	return nil
}

func (t *tx) release() {
	for id, l := range t.held {
		<-l
		delete(t.held, id)
	}
}
