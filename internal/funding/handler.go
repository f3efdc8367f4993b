package funding

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vault-pay/vault_pay/internal/ledger"
	"github.com/vault-pay/vault_pay/internal/wallet"
)

// Handler exposes HTTP endpoints for bank funding flows.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// BankIn processes wallet top-ups funded by bank transfer.
func (h *Handler) BankIn(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	var req BankInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.BankIn(c.UserContext(), BankInInput{
		WalletID:    walletID,
		Amount:      req.Amount,
		ClientTxID:  req.ClientTxID,
		BankAccount: req.BankAccount,
	})
	if err != nil {
		return fundingError(c, result, err)
	}

	return c.Status(http.StatusCreated).JSON(toResponse(result))
}

// BankOut processes wallet payouts to external bank accounts.
func (h *Handler) BankOut(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	var req BankOutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.BankOut(c.UserContext(), BankOutInput{
		WalletID:    walletID,
		Amount:      req.Amount,
		ClientTxID:  req.ClientTxID,
		BankAccount: req.BankAccount,
	})
	if err != nil {
		return fundingError(c, result, err)
	}

	return c.Status(http.StatusCreated).JSON(toResponse(result))
}

func fundingError(c *fiber.Ctx, result FundingResult, err error) error {
	switch {
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return c.Status(http.StatusOK).JSON(toResponse(result))
	case errors.Is(err, ErrInvalidBankAccount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, wallet.ErrLimitExceeded):
		return fiber.NewError(http.StatusBadRequest, "spending limit exceeded")
	case errors.Is(err, wallet.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}

func toResponse(result FundingResult) FundingResponse {
	return FundingResponse{
		TransactionID: result.TransactionID,
		Status:        result.Status,
		WalletBalance: result.WalletBalance,
		BankReference: result.BankReference,
	}
}
