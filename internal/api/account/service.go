package account

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/JhonesBR/go-ledger/internal/helper"
	"github.com/JhonesBR/go-ledger/internal/ledger"
)

// Ledger is the subset of ledger.Service the handlers use.
type Ledger interface {
	CreateAccount(ctx context.Context, caller ledger.UserID, in ledger.CreateAccountInput) (*ledger.Account, error)
	Withdraw(ctx context.Context, caller ledger.UserID, in ledger.WithdrawInput) (*ledger.History, error)
	Deposit(ctx context.Context, caller ledger.UserID, in ledger.DepositInput) (*ledger.History, error)
	Transfer(ctx context.Context, caller ledger.UserID, in ledger.TransferInput) (*ledger.History, error)
	AccountsByUser(ctx context.Context, caller ledger.UserID) ([]ledger.Account, error)
	Account(ctx context.Context, caller ledger.UserID, id uuid.UUID) (*ledger.Account, error)
	History(ctx context.Context, caller ledger.UserID, accountID uuid.UUID, filter ledger.MovementFilter) ([]ledger.History, error)
}

var _ Ledger = (*ledger.Service)(nil)

func CreateNewAccountHandler(svc Ledger) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Parse create account schema
		var body CreateAccountSchema
		if err := c.Bind().Body(&body); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&body); err != nil {
			return unprocessable(c, err)
		}
		balance, err := helper.ToMinorUnits(*body.Balance)
		if err != nil {
			return unprocessable(c, err)
		}

		account, err := svc.CreateAccount(c, helper.Caller(c), ledger.CreateAccountInput{
			Number:         body.Number,
			Password:       body.Password,
			InitialBalance: balance,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(newAccountShow(account))
	}
}

func GetAccountsHandler(svc Ledger) fiber.Handler {
	return func(c fiber.Ctx) error {
		pagination := helper.GetPagination[AccountShowSchema](c)

		accounts, err := svc.AccountsByUser(c, helper.Caller(c))
		if err != nil {
			return err
		}

		items := make([]AccountShowSchema, 0, len(accounts))
		for i := range accounts {
			items = append(items, newAccountShow(&accounts[i]))
		}
		pagination.Fill(items)

		return c.JSON(pagination)
	}
}

func GetAccountByIDHandler(svc Ledger) fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.ErrBadRequest
		}

		account, err := svc.Account(c, helper.Caller(c), id)
		if err != nil {
			return err
		}

		return c.JSON(newAccountShow(account))
	}
}

func GetAccountHistoryHandler(svc Ledger) fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.ErrBadRequest
		}
		filter, err := ledger.ParseMovementFilter(c.Query("type", string(ledger.FilterAll)))
		if err != nil {
			return err
		}

		pagination := helper.GetPagination[HistoryShowSchema](c)

		rows, err := svc.History(c, helper.Caller(c), id, filter)
		if err != nil {
			return err
		}

		items := make([]HistoryShowSchema, 0, len(rows))
		for i := range rows {
			items = append(items, newHistoryShow(id, &rows[i]))
		}
		pagination.Fill(items)

		return c.JSON(pagination)
	}
}

func WithdrawHandler(svc Ledger) fiber.Handler {
	return func(c fiber.Ctx) error {
		var body WithdrawSchema
		if err := c.Bind().Body(&body); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&body); err != nil {
			return unprocessable(c, err)
		}
		amount, err := helper.ToMinorUnits(*body.Amount)
		if err != nil {
			return unprocessable(c, err)
		}

		history, err := svc.Withdraw(c, helper.Caller(c), ledger.WithdrawInput{
			Number:   body.Number,
			Password: body.Password,
			Amount:   amount,
		})
		if err != nil {
			return err
		}

		return c.JSON(newMovementResponse(history))
	}
}

func DepositHandler(svc Ledger) fiber.Handler {
	return func(c fiber.Ctx) error {
		var body DepositSchema
		if err := c.Bind().Body(&body); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&body); err != nil {
			return unprocessable(c, err)
		}
		amount, err := helper.ToMinorUnits(*body.Amount)
		if err != nil {
			return unprocessable(c, err)
		}

		history, err := svc.Deposit(c, helper.Caller(c), ledger.DepositInput{
			Number: body.Number,
			Amount: amount,
		})
		if err != nil {
			return err
		}

		return c.JSON(newMovementResponse(history))
	}
}

func TransferHandler(svc Ledger) fiber.Handler {
	return func(c fiber.Ctx) error {
		var body TransferSchema
		if err := c.Bind().Body(&body); err != nil {
			return fiber.ErrBadRequest
		}
		if err := helper.ValidateInput(&body); err != nil {
			return unprocessable(c, err)
		}
		amount, err := helper.ToMinorUnits(*body.Amount)
		if err != nil {
			return unprocessable(c, err)
		}

		history, err := svc.Transfer(c, helper.Caller(c), ledger.TransferInput{
			FromNumber: body.SourceNumber,
			ToNumber:   body.DestinationNumber,
			Password:   body.Password,
			Amount:     amount,
		})
		if err != nil {
			return err
		}

		return c.JSON(newMovementResponse(history))
	}
}

func unprocessable(c fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error": err.Error(),
	})
}
