package funding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vault-pay/vault_pay/internal/ledger"
	"github.com/vault-pay/vault_pay/internal/notification"
	"github.com/vault-pay/vault_pay/internal/wallet"
)

// WithdrawalCap limits a single bank payout, in minor units.
const WithdrawalCap int64 = 1_000_000

const bankAccountPrefix = "PT"

// ErrInvalidBankAccount indicates a malformed destination or source account number.
var ErrInvalidBankAccount = errors.New("invalid bank account number")

// Service coordinates bank funding and payout operations using the wallet
// service and bank rail connector.
type Service struct {
	wallets  *wallet.Service
	rail     BankRail
	notifier notification.Notifier
}

// NewService prepares a funding service. A nil rail falls back to the static
// simulator.
func NewService(wallets *wallet.Service, rail BankRail, notifier notification.Notifier) (*Service, error) {
	if wallets == nil {
		return nil, fmt.Errorf("wallet service is required")
	}
	if rail == nil {
		rail = StaticBankRail{}
	}
	return &Service{wallets: wallets, rail: rail, notifier: notifier}, nil
}

// BankInInput captures the required data for a bank-funded top-up.
type BankInInput struct {
	WalletID    string
	Amount      int64
	ClientTxID  string
	BankAccount string
}

// BankOutInput captures the required data for a payout to a bank account.
type BankOutInput struct {
	WalletID    string
	Amount      int64
	ClientTxID  string
	BankAccount string
}

// FundingResult represents the domain outcome of a bank operation.
type FundingResult struct {
	TransactionID string
	Status        string
	WalletBalance int64
	BankReference string
	CompletedAt   time.Time
}

// BankIn authorizes and records a bank-funded top-up into the specified wallet.
// The ledger enforces the per-transaction deposit cap.
func (s *Service) BankIn(ctx context.Context, input BankInInput) (FundingResult, error) {
	if err := validateBankAccount(input.BankAccount); err != nil {
		return FundingResult{}, err
	}
	if input.Amount <= 0 {
		return FundingResult{}, ledger.ErrInvalidAmount
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	w, err := s.wallets.Get(ctx, input.WalletID)
	if err != nil {
		return FundingResult{}, err
	}

	decision, err := s.rail.AuthorizePayIn(ctx, PayInAuthorization{
		BankAccount: input.BankAccount,
		Amount:      input.Amount,
	})
	if err != nil {
		return FundingResult{}, err
	}

	res, err := s.wallets.Deposit(ctx, w.ID, input.ClientTxID, input.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			return FundingResult{
				TransactionID: res.TransactionID,
				Status:        ledger.StatusCompleted,
				WalletBalance: res.Balance,
				BankReference: decision.Reference,
				CompletedAt:   time.Now().UTC(),
			}, err
		}
		return FundingResult{}, err
	}

	s.notify(ctx, notification.KindDeposit, w.OwnerID, fmt.Sprintf("Bank deposit of %d settled", input.Amount))

	return FundingResult{
		TransactionID: res.TransactionID,
		Status:        ledger.StatusCompleted,
		WalletBalance: res.Balance,
		BankReference: decision.Reference,
		CompletedAt:   time.Now().UTC(),
	}, nil
}

// BankOut authorizes and records a payout to the provided bank account. A
// failed payout leaves the wallet balance untouched.
func (s *Service) BankOut(ctx context.Context, input BankOutInput) (FundingResult, error) {
	if err := validateBankAccount(input.BankAccount); err != nil {
		return FundingResult{}, err
	}
	if input.Amount <= 0 || input.Amount > WithdrawalCap {
		return FundingResult{}, ledger.ErrInvalidAmount
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	w, err := s.wallets.Get(ctx, input.WalletID)
	if err != nil {
		return FundingResult{}, err
	}

	decision, err := s.rail.AuthorizePayOut(ctx, PayOutAuthorization{
		BankAccount: input.BankAccount,
		Amount:      input.Amount,
	})
	if err != nil {
		return FundingResult{}, err
	}

	res, err := s.wallets.Withdraw(ctx, w.ID, input.ClientTxID, input.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			return FundingResult{
				TransactionID: res.TransactionID,
				Status:        ledger.StatusCompleted,
				WalletBalance: res.Balance,
				BankReference: decision.Reference,
				CompletedAt:   time.Now().UTC(),
			}, err
		}
		return FundingResult{}, err
	}

	s.notify(ctx, notification.KindWithdrawal, w.OwnerID, fmt.Sprintf("Bank payout of %d settled", input.Amount))

	return FundingResult{
		TransactionID: res.TransactionID,
		Status:        ledger.StatusCompleted,
		WalletBalance: res.Balance,
		BankReference: decision.Reference,
		CompletedAt:   time.Now().UTC(),
	}, nil
}

func (s *Service) notify(ctx context.Context, kind, destination, body string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: destination, Body: body})
}

func validateBankAccount(account string) error {
	account = strings.TrimSpace(account)
	if !strings.HasPrefix(account, bankAccountPrefix) {
		return ErrInvalidBankAccount
	}
	if len(account) < 10 {
		return ErrInvalidBankAccount
	}
	return nil
}
