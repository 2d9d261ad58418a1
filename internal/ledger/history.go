package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MovementFilter selects which history rows of an account are listed.
type MovementFilter string

const (
	FilterAll        MovementFilter = "all"
	FilterDeposit    MovementFilter = "deposit"
	FilterWithdrawal MovementFilter = "withdrawal"
)

// ParseMovementFilter accepts "all", "deposit" and "withdrawal". An empty
// value means all.
func ParseMovementFilter(s string) (MovementFilter, error) {
	switch MovementFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterDeposit, FilterWithdrawal:
		return MovementFilter(s), nil
	}
	return "", validationError(fmt.Sprintf("unknown movement type %q", s))
}

// History is the immutable record of one movement. The W fields describe
// the withdrawing leg and the D fields the depositing leg; a transfer sets
// both.
type History struct {
	ID         int64      `json:"id"`
	Amount     int64      `json:"amount"`
	WAccountID *uuid.UUID `json:"w_account_id"`
	DAccountID *uuid.UUID `json:"d_account_id"`
	WBalance   *int64     `json:"w_balance"`
	DBalance   *int64     `json:"d_balance"`
	CreatedAt  time.Time  `json:"created_at"`

	// Filled on reads only.
	WAccountNumber string `json:"w_account_number,omitempty"`
	DAccountNumber string `json:"d_account_number,omitempty"`
}

func withdrawalHistory(a *Account, amount int64) *History {
	return &History{
		Amount:     amount,
		WAccountID: ptr(a.ID),
		WBalance:   ptr(a.Balance),
	}
}

func depositHistory(a *Account, amount int64) *History {
	return &History{
		Amount:     amount,
		DAccountID: ptr(a.ID),
		DBalance:   ptr(a.Balance),
	}
}

func transferHistory(from, to *Account, amount int64) *History {
	return &History{
		Amount:     amount,
		WAccountID: ptr(from.ID),
		WBalance:   ptr(from.Balance),
		DAccountID: ptr(to.ID),
		DBalance:   ptr(to.Balance),
	}
}

// Matches reports whether the row belongs to accountID under filter.
func (h *History) Matches(accountID uuid.UUID, filter MovementFilter) bool {
	isW := h.WAccountID != nil && *h.WAccountID == accountID
	isD := h.DAccountID != nil && *h.DAccountID == accountID
	switch filter {
	case FilterDeposit:
		return isD
	case FilterWithdrawal:
		return isW
	default:
		return isW || isD
	}
}

// BalanceFor returns the post-movement balance recorded for accountID.
func (h *History) BalanceFor(accountID uuid.UUID) (int64, bool) {
	if h.WAccountID != nil && *h.WAccountID == accountID && h.WBalance != nil {
		return *h.WBalance, true
	}
	if h.DAccountID != nil && *h.DAccountID == accountID && h.DBalance != nil {
		return *h.DBalance, true
	}
	return 0, false
}

func ptr[T any](v T) *T {
	return &v
}
