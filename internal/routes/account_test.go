package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/vault-pay/vault_pay/internal/account"
	"github.com/vault-pay/vault_pay/internal/ledger"
	"github.com/vault-pay/vault_pay/internal/logging"
	"github.com/vault-pay/vault_pay/internal/wallet"
)

type failingWalletRepo struct{}

func (failingWalletRepo) Create(context.Context, wallet.Wallet) error {
	return errors.New("insert failed")
}

func (failingWalletRepo) Get(context.Context, string) (wallet.Wallet, error) {
	return wallet.Wallet{}, wallet.ErrNotFound
}

func (failingWalletRepo) GetByOwner(context.Context, string) (wallet.Wallet, error) {
	return wallet.Wallet{}, wallet.ErrNotFound
}

func newRegisterApp(repo wallet.Repository) *fiber.App {
	app := fiber.New()
	accounts := account.NewService(account.NewMemoryRepository())
	wallets := wallet.NewService(repo, ledger.NewInMemory(), nil)
	RegisterAccountRoutes(app, accounts, wallets, logging.Discard())
	return app
}

func TestRegisterProvisionsWallet(t *testing.T) {
	app := newRegisterApp(wallet.NewMemoryRepository())

	req := httptest.NewRequest(fiber.MethodPost, "/accounts/register",
		strings.NewReader(`{"email":"ada@example.com","password":"hunter22"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected %d got %d", fiber.StatusCreated, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	var decoded struct {
		UserID   string `json:"user_id"`
		WalletID string `json:"wallet_id"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.UserID == "" || decoded.WalletID == "" {
		t.Fatalf("expected user and wallet ids, got %+v", decoded)
	}
}

func TestRegisterFailsWhenWalletProvisioningFails(t *testing.T) {
	app := newRegisterApp(failingWalletRepo{})

	req := httptest.NewRequest(fiber.MethodPost, "/accounts/register",
		strings.NewReader(`{"email":"bob@example.com","password":"hunter22"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected %d got %d", fiber.StatusInternalServerError, resp.StatusCode)
	}
}
