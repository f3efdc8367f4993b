package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vault-pay/vault_pay/internal/ledger"
)

const (
	statusActive = "active"

	defaultCurrency = "EUR"
)

var (
	// ErrLimitExceeded indicates a debit would breach the wallet's spending limits.
	ErrLimitExceeded = errors.New("spending limit exceeded")

	// ErrInvalidLimit indicates a malformed limit configuration.
	ErrInvalidLimit = errors.New("invalid spending limit")
)

// Service exposes wallet operations backed by the ledger.
type Service struct {
	repo   Repository
	ledger ledger.Ledger
	limits LimitStore

	// debitLocks serializes limit-checked debits per wallet, so that the
	// check-post-record sequence cannot interleave and jointly breach a cap.
	debitLocks sync.Map
}

// NewService builds a wallet service instance.
func NewService(repo Repository, ledgerBackend ledger.Ledger, limits LimitStore) *Service {
	if limits == nil {
		limits = NewMemoryLimitStore()
	}
	return &Service{repo: repo, ledger: ledgerBackend, limits: limits}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	OwnerID  string
	Currency string
}

// Create provisions a wallet and associated ledger account.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, error) {
	walletID := uuid.New().String()
	accountCode := fmt.Sprintf("wallet:%s", walletID)

	if _, err := uuid.Parse(input.OwnerID); err != nil {
		return Wallet{}, err
	}

	if err := s.ledger.EnsureAccount(ctx, accountCode); err != nil {
		return Wallet{}, err
	}

	currency := input.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	wallet := Wallet{
		ID:          walletID,
		OwnerID:     input.OwnerID,
		AccountCode: accountCode,
		Currency:    currency,
		Status:      statusActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, wallet); err != nil {
		return Wallet{}, err
	}

	return wallet, nil
}

// Get retrieves wallet metadata.
func (s *Service) Get(ctx context.Context, id string) (Wallet, error) {
	return s.repo.Get(ctx, id)
}

// GetByOwner retrieves the wallet owned by the given user.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	return s.repo.GetByOwner(ctx, ownerID)
}

// Balance returns the ledger balance for the wallet.
func (s *Service) Balance(ctx context.Context, id string) (Balance, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	amount, err := s.ledger.Balance(ctx, wallet.AccountCode)
	if err != nil {
		return Balance{}, err
	}
	return Balance{WalletID: wallet.ID, Amount: amount, AsOf: time.Now().UTC()}, nil
}

// Deposit credits the wallet. Amount must be positive and within the deposit cap.
func (s *Service) Deposit(ctx context.Context, id, clientTxID string, amount int64) (ledger.TransactionResult, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return ledger.TransactionResult{}, err
	}
	if clientTxID == "" {
		clientTxID = uuid.NewString()
	}
	return s.ledger.Deposit(ctx, wallet.AccountCode, clientTxID, amount)
}

// Withdraw debits the wallet, honoring spending limits. A failed withdrawal
// leaves the balance untouched.
func (s *Service) Withdraw(ctx context.Context, id, clientTxID string, amount int64) (ledger.TransactionResult, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return ledger.TransactionResult{}, err
	}
	if clientTxID == "" {
		clientTxID = uuid.NewString()
	}
	unlock := s.lockDebits(wallet.ID)
	defer unlock()
	lim, tracked, err := s.checkDebit(ctx, wallet.ID, amount)
	if err != nil {
		return ledger.TransactionResult{}, err
	}
	res, err := s.ledger.Withdraw(ctx, wallet.AccountCode, clientTxID, amount)
	if err != nil {
		return res, err
	}
	if tracked {
		if err := s.recordDebit(ctx, lim, amount); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Adjust applies a signed credit or debit to the wallet. Debits count against
// spending limits.
func (s *Service) Adjust(ctx context.Context, id, clientTxID string, amount int64) (ledger.TransactionResult, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return ledger.TransactionResult{}, err
	}
	if clientTxID == "" {
		clientTxID = uuid.NewString()
	}
	var (
		lim     Limits
		tracked bool
	)
	if amount < 0 {
		unlock := s.lockDebits(wallet.ID)
		defer unlock()
		lim, tracked, err = s.checkDebit(ctx, wallet.ID, -amount)
		if err != nil {
			return ledger.TransactionResult{}, err
		}
	}
	res, err := s.ledger.Adjust(ctx, wallet.AccountCode, clientTxID, amount)
	if err != nil {
		return res, err
	}
	if tracked {
		if err := s.recordDebit(ctx, lim, -amount); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Transfer moves funds between two wallets atomically. The source wallet's
// spending limits apply.
func (s *Service) Transfer(ctx context.Context, fromID, toID, kind, clientTxID string, amount int64) (ledger.TransferResult, error) {
	from, err := s.repo.Get(ctx, fromID)
	if err != nil {
		return ledger.TransferResult{}, err
	}
	to, err := s.repo.Get(ctx, toID)
	if err != nil {
		return ledger.TransferResult{}, err
	}
	if clientTxID == "" {
		clientTxID = uuid.NewString()
	}
	unlock := s.lockDebits(from.ID)
	defer unlock()
	lim, tracked, err := s.checkDebit(ctx, from.ID, amount)
	if err != nil {
		return ledger.TransferResult{}, err
	}
	res, err := s.ledger.Transfer(ctx, from.AccountCode, to.AccountCode, kind, clientTxID, amount)
	if err != nil {
		return res, err
	}
	if tracked {
		if err := s.recordDebit(ctx, lim, amount); err != nil {
			return res, err
		}
	}
	return res, nil
}

// History lists ledger transactions touching the wallet, newest first.
func (s *Service) History(ctx context.Context, id string, filter ledger.HistoryFilter, page, pageSize int) ([]ledger.Transaction, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, wallet.AccountCode, filter, page, pageSize)
}

// SetLimits configures daily/monthly debit caps for the wallet. Zero disables
// a cap. Setting limits resets usage counters.
func (s *Service) SetLimits(ctx context.Context, id string, daily, monthly int64) (Limits, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return Limits{}, err
	}
	if daily < 0 || monthly < 0 {
		return Limits{}, ErrInvalidLimit
	}
	if daily > 0 && monthly > 0 && daily > monthly {
		return Limits{}, fmt.Errorf("%w: daily exceeds monthly", ErrInvalidLimit)
	}
	now := time.Now().UTC()
	lim := Limits{
		WalletID: wallet.ID,
		Daily:    daily,
		Monthly:  monthly,
		Day:      now.Format(dayLayout),
		Month:    now.Format(monthLayout),
	}
	if err := s.limits.Put(ctx, lim); err != nil {
		return Limits{}, err
	}
	return lim, nil
}

// lockDebits takes the wallet's debit lock and returns the release func.
func (s *Service) lockDebits(walletID string) func() {
	v, _ := s.debitLocks.LoadOrStore(walletID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// checkDebit verifies a pending debit against the wallet's limits. It returns
// the window-rolled limits and whether usage tracking applies.
func (s *Service) checkDebit(ctx context.Context, walletID string, amount int64) (Limits, bool, error) {
	lim, ok, err := s.limits.Get(ctx, walletID)
	if err != nil {
		return Limits{}, false, err
	}
	if !ok || (lim.Daily == 0 && lim.Monthly == 0) {
		return Limits{}, false, nil
	}
	lim = lim.rolled(time.Now())
	if !lim.allows(amount) {
		return Limits{}, false, ErrLimitExceeded
	}
	return lim, true, nil
}

func (s *Service) recordDebit(ctx context.Context, lim Limits, amount int64) error {
	lim.DailyUsed += amount
	lim.MonthlyUsed += amount
	return s.limits.Put(ctx, lim)
}
