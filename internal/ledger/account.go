package ledger

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// UserID identifies the authenticated caller. It is resolved by the
// authentication layer and passed by value into every operation.
type UserID int64

// Account is one ledger account. Balance is kept in minor units.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Number       string    `json:"number"`
	PasswordHash []byte    `json:"-"`
	Balance      int64     `json:"balance"`
	UserID       UserID    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// CheckOwner fails with Unauthorized unless caller owns the account.
func (a *Account) CheckOwner(caller UserID) error {
	if caller != a.UserID {
		return ErrUnauthorized
	}
	return nil
}

// CheckPassword fails with Forbidden unless candidate matches the stored hash.
func (a *Account) CheckPassword(candidate string) error {
	ok, err := comparePassword(a.PasswordHash, candidate)
	if err != nil {
		return newError(KindUnknown, "could not verify account password", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// CheckBalance guards a debit: amount must be positive and covered by the
// current balance.
func (a *Account) CheckBalance(amount int64) error {
	if amount <= 0 {
		return validationError("amount must be greater than zero")
	}
	if amount > a.Balance {
		return ErrInsufficientFunds
	}
	return nil
}

// CheckDepositAmount guards a credit. There is no upper bound against the
// balance, only positivity and overflow.
func (a *Account) CheckDepositAmount(amount int64) error {
	if amount <= 0 {
		return validationError("amount must be greater than zero")
	}
	if a.Balance > math.MaxInt64-amount {
		return validationError("amount overflows the account balance")
	}
	return nil
}

// Withdraw debits the account. Callers run CheckBalance first.
func (a *Account) Withdraw(amount int64) error {
	if err := a.CheckBalance(amount); err != nil {
		return err
	}
	a.Balance -= amount
	return nil
}

// Deposit credits the account.
func (a *Account) Deposit(amount int64) error {
	if err := a.CheckDepositAmount(amount); err != nil {
		return err
	}
	a.Balance += amount
	return nil
}
