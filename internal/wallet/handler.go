package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/vault-pay/vault_pay/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	OwnerID  string `json:"owner_id"`
	Currency string `json:"currency"`
}

type walletResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	AccountCode string `json:"account_code"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

type amountRequest struct {
	Amount     int64  `json:"amount"`
	ClientTxID string `json:"client_tx_id"`
}

// Create provisions a wallet for the authenticated owner.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	wallet, err := h.service.Create(c.UserContext(), CreateInput{OwnerID: req.OwnerID, Currency: req.Currency})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(walletResponse{
		ID:          wallet.ID,
		OwnerID:     wallet.OwnerID,
		AccountCode: wallet.AccountCode,
		Currency:    wallet.Currency,
		Status:      wallet.Status,
	})
}

// Balance returns the wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	balance, err := h.service.Balance(c.UserContext(), walletID)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id": walletID,
		"balance":   balance.Amount,
		"timestamp": balance.AsOf,
	})
}

// Deposit credits the wallet with the posted amount.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Deposit(c.UserContext(), walletID, req.ClientTxID, req.Amount)
	if err != nil {
		return operationError(c, res, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"balance":        res.Balance,
	})
}

// Withdraw debits the wallet with the posted amount.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Withdraw(c.UserContext(), walletID, req.ClientTxID, req.Amount)
	if err != nil {
		return operationError(c, res, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"balance":        res.Balance,
	})
}

// Adjust applies a signed credit or debit to the wallet.
func (h *Handler) Adjust(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Adjust(c.UserContext(), walletID, req.ClientTxID, req.Amount)
	if err != nil {
		return operationError(c, res, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"balance":        res.Balance,
	})
}

// History lists the wallet's transactions, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "0"))
	filter := ledger.HistoryFilter{
		Kind:   c.Query("kind"),
		Status: c.Query("status"),
	}
	txs, err := h.service.History(c.UserContext(), walletID, filter, page, pageSize)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ledger.ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	items := make([]fiber.Map, 0, len(txs))
	for _, tx := range txs {
		items = append(items, fiber.Map{
			"id":         tx.ID,
			"kind":       tx.Kind,
			"from":       tx.FromCode,
			"to":         tx.ToCode,
			"amount":     tx.Amount,
			"status":     tx.Status,
			"created_at": tx.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id":    walletID,
		"transactions": items,
	})
}

type limitsRequest struct {
	Daily   int64 `json:"daily"`
	Monthly int64 `json:"monthly"`
}

// SetLimits configures the wallet's spending limits.
func (h *Handler) SetLimits(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	var req limitsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	lim, err := h.service.SetLimits(c.UserContext(), walletID, req.Daily, req.Monthly)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id": lim.WalletID,
		"daily":     lim.Daily,
		"monthly":   lim.Monthly,
	})
}

// operationError maps service errors onto HTTP statuses, replaying the stored
// result for duplicate submissions.
func operationError(c *fiber.Ctx, res ledger.TransactionResult, err error) error {
	switch {
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"transaction_id": res.TransactionID,
			"balance":        res.Balance,
		})
	case errors.Is(err, ledger.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, ErrLimitExceeded):
		return fiber.NewError(http.StatusBadRequest, "spending limit exceeded")
	case errors.Is(err, ErrNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
