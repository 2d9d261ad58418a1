package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/JhonesBR/go-ledger/internal/api/account"
	"github.com/JhonesBR/go-ledger/internal/helper"
)

func InitializeRoutes(app *fiber.App, svc account.Ledger) {
	v1 := app.Group("/v1", helper.RequireCaller())
	account.InitializeRoutes(v1, svc)
}
