package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount occurs when an operation receives a non-positive or
	// out-of-range amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds occurs when the source account lacks available balance
	// to cover a requested posting.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound indicates the referenced account code does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrSameAccount indicates a transfer where source and destination are the
	// same account.
	ErrSameAccount = errors.New("source and destination accounts must differ")

	// ErrDuplicateTransaction indicates the provided client transaction identifier
	// already exists and therefore the operation should be treated as idempotent.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrInvalidRate indicates an interest rate outside (0, 0.2].
	ErrInvalidRate = errors.New("invalid interest rate")
)

const (
	// StatusCompleted marks a settled transaction.
	StatusCompleted = "completed"

	// KindDeposit through KindInterest classify ledger transactions.
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
	KindTransfer   = "transfer"
	KindCredit     = "credit"
	KindDebit      = "debit"
	KindInterest   = "interest"

	// SettlementAccountCode is the system account that balances single-sided
	// wallet postings (deposits, withdrawals, adjustments). It may go negative.
	SettlementAccountCode = "system:settlement"

	// InterestAccountCode is the system account funding interest accruals.
	InterestAccountCode = "system:interest"

	// DepositCap bounds a single deposit, in minor units.
	DepositCap int64 = 100_000_000

	// DefaultPageSize and MaxPageSize bound history pagination.
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// maxInterestRate caps interest accrual at 20% per application.
var maxInterestRate = decimal.New(2, -1)

// Transaction is one recorded ledger movement. Single-sided operations set
// only the side they touch: deposits and credits set ToCode, withdrawals and
// debits set FromCode.
type Transaction struct {
	ID        string
	Kind      string
	FromCode  string
	ToCode    string
	Amount    int64
	Status    string
	CreatedAt time.Time
}

// TransactionResult captures the outcome of a single-account posting.
type TransactionResult struct {
	TransactionID string
	Balance       int64
}

// TransferResult captures the outcome of a balanced two-account posting.
type TransferResult struct {
	TransactionID string
	FromBalance   int64
	ToBalance     int64
}

// Accrual reports the interest credited to one account.
type Accrual struct {
	Code     string
	Interest int64
	Balance  int64
}

// HistoryFilter narrows History results. Empty fields match everything.
type HistoryFilter struct {
	Kind   string
	Status string
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
// All mutations are atomic with respect to the non-negative balance invariant:
// they either fully apply or leave every balance unchanged.
type Ledger interface {
	EnsureAccount(ctx context.Context, code string) error
	Balance(ctx context.Context, code string) (int64, error)
	Deposit(ctx context.Context, code, clientTxID string, amount int64) (TransactionResult, error)
	Withdraw(ctx context.Context, code, clientTxID string, amount int64) (TransactionResult, error)
	Adjust(ctx context.Context, code, clientTxID string, amount int64) (TransactionResult, error)
	Transfer(ctx context.Context, fromCode, toCode, kind, clientTxID string, amount int64) (TransferResult, error)
	ApplyInterest(ctx context.Context, rate decimal.Decimal) ([]Accrual, error)
	History(ctx context.Context, code string, filter HistoryFilter, page, pageSize int) ([]Transaction, error)
}

func validateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() || rate.GreaterThan(maxInterestRate) {
		return ErrInvalidRate
	}
	return nil
}

// interestOn computes the minor-unit interest for a balance at the given rate,
// rounded half away from zero.
func interestOn(balance int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(balance).Mul(rate).Round(0).IntPart()
}

func normalizePage(page, pageSize int) (int, int, error) {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		return 0, 0, errors.New("page must be >= 1")
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return 0, 0, errors.New("page size must be between 1 and 100")
	}
	return page, pageSize, nil
}

func matches(tx Transaction, code string, filter HistoryFilter) bool {
	if tx.FromCode != code && tx.ToCode != code {
		return false
	}
	if filter.Kind != "" && tx.Kind != filter.Kind {
		return false
	}
	if filter.Status != "" && tx.Status != filter.Status {
		return false
	}
	return true
}
