package helper

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

// CallerHeader carries the user id resolved by the authentication gateway in
// front of this service.
const CallerHeader = "X-User-Id"

type callerKey struct{}

// RequireCaller rejects requests without a valid caller identity and stores
// the identity for the handlers.
func RequireCaller() fiber.Handler {
	return func(c fiber.Ctx) error {
		raw := c.Get(CallerHeader)
		id, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "missing or invalid caller identity")
		}
		c.Locals(callerKey{}, ledger.UserID(id))
		return c.Next()
	}
}

// Caller returns the identity stored by RequireCaller.
func Caller(c fiber.Ctx) ledger.UserID {
	id, _ := c.Locals(callerKey{}).(ledger.UserID)
	return id
}
