package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"

	"github.com/JhonesBR/go-ledger/internal/api/account"
	"github.com/JhonesBR/go-ledger/internal/ledger"
)

// NewApp builds the fiber app serving the ledger API.
func NewApp(svc account.Ledger, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "go-ledger",
		ErrorHandler: ErrorHandler(logger),
	})
	app.Use(recover.New())

	InitializeRoutes(app, svc)
	return app
}

var statusByKind = map[ledger.Kind]int{
	ledger.KindValidation:        fiber.StatusUnprocessableEntity,
	ledger.KindNotFound:          fiber.StatusNotFound,
	ledger.KindUnauthorized:      fiber.StatusUnauthorized,
	ledger.KindForbidden:         fiber.StatusForbidden,
	ledger.KindInsufficientFunds: fiber.StatusPaymentRequired,
	ledger.KindConflict:          fiber.StatusConflict,
	ledger.KindPersistence:       fiber.StatusInternalServerError,
	ledger.KindUnknown:           fiber.StatusInternalServerError,
}

// ErrorHandler maps ledger errors to HTTP responses. Server side anomalies
// are logged and reported with a generic message.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		kind := ledger.KindOf(err)
		status, ok := statusByKind[kind]
		if !ok {
			status = fiber.StatusInternalServerError
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			return c.Status(status).JSON(fiber.Map{
				"error": "internal server error",
				"kind":  kind,
			})
		}

		var le *ledger.Error
		errors.As(err, &le)
		return c.Status(status).JSON(fiber.Map{
			"error": le.Message,
			"kind":  kind,
		})
	}
}
