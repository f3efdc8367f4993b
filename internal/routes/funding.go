package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vault-pay/vault_pay/internal/funding"
)

// RegisterFundingRoutes wires bank funding/payout endpoints.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler) {
	r.Post("/wallets/:walletId/fund/bank", h.BankIn)
	r.Post("/wallets/:walletId/withdraw/bank", h.BankOut)
}
