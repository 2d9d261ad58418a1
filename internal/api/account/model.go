package account

import (
	"github.com/google/uuid"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

func newAccountShow(a *ledger.Account) AccountShowSchema {
	return AccountShowSchema{
		Id:        a.ID,
		Number:    a.Number,
		Balance:   a.Balance,
		UserId:    int64(a.UserID),
		CreatedAt: a.CreatedAt,
	}
}

func newMovementResponse(h *ledger.History) MovementResponseSchema {
	return MovementResponseSchema{
		Id:                h.ID,
		Amount:            h.Amount,
		WithdrawAccountId: h.WAccountID,
		WithdrawBalance:   h.WBalance,
		DepositAccountId:  h.DAccountID,
		DepositBalance:    h.DBalance,
		CreatedAt:         h.CreatedAt,
	}
}

func newHistoryShow(accountID uuid.UUID, h *ledger.History) HistoryShowSchema {
	var movement string
	switch {
	case h.WAccountID != nil && h.DAccountID != nil:
		movement = "transfer"
	case h.DAccountID != nil:
		movement = "deposit"
	default:
		movement = "withdrawal"
	}

	balance, _ := h.BalanceFor(accountID)
	return HistoryShowSchema{
		Id:        h.ID,
		Type:      movement,
		Amount:    h.Amount,
		Sender:    h.WAccountNumber,
		Receiver:  h.DAccountNumber,
		Balance:   balance,
		CreatedAt: h.CreatedAt,
	}
}
