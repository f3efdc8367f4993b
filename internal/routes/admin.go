package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/vault-pay/vault_pay/internal/ledger"
)

// RegisterAdminRoutes wires operator endpoints. Interest accrual applies the
// posted rate to every wallet account in one ledger pass.
func RegisterAdminRoutes(r fiber.Router, ledgerBackend ledger.Ledger, logger *slog.Logger) {
	r.Post("/admin/interest", func(c *fiber.Ctx) error {
		var req struct {
			Rate string `json:"rate"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		rate, err := decimal.NewFromString(req.Rate)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "rate must be a decimal number")
		}

		accruals, err := ledgerBackend.ApplyInterest(c.UserContext(), rate)
		if err != nil {
			if errors.Is(err, ledger.ErrInvalidRate) {
				return fiber.NewError(http.StatusBadRequest, "rate must be greater than 0 and at most 0.2")
			}
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}

		if logger != nil {
			logger.Info("interest accrual completed",
				slog.String("rate", rate.String()),
				slog.Int("accounts", len(accruals)),
			)
		}

		items := make([]fiber.Map, 0, len(accruals))
		for _, a := range accruals {
			items = append(items, fiber.Map{
				"account_code": a.Code,
				"interest":     a.Interest,
				"balance":      a.Balance,
			})
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"rate":     rate.String(),
			"accruals": items,
		})
	})
}
