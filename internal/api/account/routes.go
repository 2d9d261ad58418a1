package account

import (
	"github.com/gofiber/fiber/v3"
)

func InitializeRoutes(router fiber.Router, svc Ledger) {
	router.Get("/accounts", GetAccountsHandler(svc))
	router.Post("/accounts", CreateNewAccountHandler(svc))
	router.Post("/accounts/withdraw", WithdrawHandler(svc))
	router.Post("/accounts/deposit", DepositHandler(svc))
	router.Post("/accounts/transfer", TransferHandler(svc))
	router.Get("/accounts/:id", GetAccountByIDHandler(svc))
	router.Get("/accounts/:id/history", GetAccountHistoryHandler(svc))
}
