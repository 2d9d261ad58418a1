package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateAccountSchema struct {
	Number   string           `json:"number" validate:"required,max=64"`
	Password string           `json:"password" validate:"required,max=72"`
	Balance  *decimal.Decimal `json:"balance" validate:"required"`
}

type WithdrawSchema struct {
	Number   string           `json:"number" validate:"required"`
	Password string           `json:"password" validate:"required"`
	Amount   *decimal.Decimal `json:"amount" validate:"required"`
}

type DepositSchema struct {
	Number string           `json:"number" validate:"required"`
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type TransferSchema struct {
	SourceNumber      string           `json:"source_number" validate:"required"`
	DestinationNumber string           `json:"destination_number" validate:"required,nefield=SourceNumber"`
	Password          string           `json:"password" validate:"required"`
	Amount            *decimal.Decimal `json:"amount" validate:"required"`
}

type AccountShowSchema struct {
	Id        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	Balance   int64     `json:"balance"`
	UserId    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MovementResponseSchema is the receipt of a committed movement.
type MovementResponseSchema struct {
	Id                int64      `json:"id"`
	Amount            int64      `json:"amount"`
	WithdrawAccountId *uuid.UUID `json:"withdraw_account_id"`
	WithdrawBalance   *int64     `json:"withdraw_balance"`
	DepositAccountId  *uuid.UUID `json:"deposit_account_id"`
	DepositBalance    *int64     `json:"deposit_balance"`
	CreatedAt         time.Time  `json:"created_at"`
}

// HistoryShowSchema is one history row seen from a single account.
type HistoryShowSchema struct {
	Id        int64     `json:"id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}
