package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type inMemoryLedger struct {
	mu         sync.RWMutex
	balances   map[string]int64
	byClientTx map[string]string
	history    []Transaction
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances:   make(map[string]int64),
		byClientTx: make(map[string]string),
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[code]; !exists {
		l.balances[code] = 0
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, code string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, exists := l.balances[code]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) Deposit(_ context.Context, code, clientTxID string, amount int64) (TransactionResult, error) {
	if amount <= 0 || amount > DepositCap {
		return TransactionResult{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if txID, exists := l.byClientTx[KindDeposit+":"+clientTxID]; exists {
		return TransactionResult{TransactionID: txID, Balance: l.balances[code]}, ErrDuplicateTransaction
	}

	balance, ok := l.balances[code]
	if !ok {
		return TransactionResult{}, ErrAccountNotFound
	}

	balance += amount
	l.balances[code] = balance
	l.balances[SettlementAccountCode] -= amount

	txID := l.record(Transaction{Kind: KindDeposit, ToCode: code, Amount: amount}, KindDeposit+":"+clientTxID)
	return TransactionResult{TransactionID: txID, Balance: balance}, nil
}

func (l *inMemoryLedger) Withdraw(_ context.Context, code, clientTxID string, amount int64) (TransactionResult, error) {
	if amount <= 0 {
		return TransactionResult{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if txID, exists := l.byClientTx[KindWithdrawal+":"+clientTxID]; exists {
		return TransactionResult{TransactionID: txID, Balance: l.balances[code]}, ErrDuplicateTransaction
	}

	balance, ok := l.balances[code]
	if !ok {
		return TransactionResult{}, ErrAccountNotFound
	}
	if balance < amount {
		return TransactionResult{}, ErrInsufficientFunds
	}

	balance -= amount
	l.balances[code] = balance
	l.balances[SettlementAccountCode] += amount

	txID := l.record(Transaction{Kind: KindWithdrawal, FromCode: code, Amount: amount}, KindWithdrawal+":"+clientTxID)
	return TransactionResult{TransactionID: txID, Balance: balance}, nil
}

func (l *inMemoryLedger) Adjust(_ context.Context, code, clientTxID string, amount int64) (TransactionResult, error) {
	if amount == 0 {
		return TransactionResult{}, ErrInvalidAmount
	}

	kind := KindCredit
	if amount < 0 {
		kind = KindDebit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if txID, exists := l.byClientTx[kind+":"+clientTxID]; exists {
		return TransactionResult{TransactionID: txID, Balance: l.balances[code]}, ErrDuplicateTransaction
	}

	balance, ok := l.balances[code]
	if !ok {
		return TransactionResult{}, ErrAccountNotFound
	}
	if balance+amount < 0 {
		return TransactionResult{}, ErrInsufficientFunds
	}

	balance += amount
	l.balances[code] = balance
	l.balances[SettlementAccountCode] -= amount

	tx := Transaction{Kind: KindCredit, ToCode: code, Amount: amount}
	if amount < 0 {
		tx = Transaction{Kind: KindDebit, FromCode: code, Amount: -amount}
	}
	txID := l.record(tx, kind+":"+clientTxID)
	return TransactionResult{TransactionID: txID, Balance: balance}, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, fromCode, toCode, kind, clientTxID string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}
	if fromCode == toCode {
		return TransferResult{}, ErrSameAccount
	}
	if kind == "" {
		kind = KindTransfer
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if txID, exists := l.byClientTx[kind+":"+clientTxID]; exists {
		return TransferResult{TransactionID: txID, FromBalance: l.balances[fromCode], ToBalance: l.balances[toCode]}, ErrDuplicateTransaction
	}

	fromBalance, ok := l.balances[fromCode]
	if !ok {
		return TransferResult{}, ErrAccountNotFound
	}
	toBalance, ok := l.balances[toCode]
	if !ok {
		return TransferResult{}, ErrAccountNotFound
	}

	if fromBalance < amount {
		return TransferResult{}, ErrInsufficientFunds
	}

	fromBalance -= amount
	toBalance += amount

	l.balances[fromCode] = fromBalance
	l.balances[toCode] = toBalance

	txID := l.record(Transaction{Kind: kind, FromCode: fromCode, ToCode: toCode, Amount: amount}, kind+":"+clientTxID)
	return TransferResult{TransactionID: txID, FromBalance: fromBalance, ToBalance: toBalance}, nil
}

func (l *inMemoryLedger) ApplyInterest(_ context.Context, rate decimal.Decimal) ([]Accrual, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	codes := make([]string, 0, len(l.balances))
	for code := range l.balances {
		if code == SettlementAccountCode || code == InterestAccountCode {
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)

	accruals := make([]Accrual, 0, len(codes))
	for _, code := range codes {
		interest := interestOn(l.balances[code], rate)
		balance := l.balances[code] + interest
		l.balances[code] = balance
		l.balances[InterestAccountCode] -= interest
		l.record(Transaction{Kind: KindInterest, ToCode: code, Amount: interest}, "")
		accruals = append(accruals, Accrual{Code: code, Interest: interest, Balance: balance})
	}
	return accruals, nil
}

func (l *inMemoryLedger) History(_ context.Context, code string, filter HistoryFilter, page, pageSize int) ([]Transaction, error) {
	page, pageSize, err := normalizePage(page, pageSize)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.balances[code]; !ok {
		return nil, ErrAccountNotFound
	}

	// history is append-ordered, so walking it backwards yields newest first.
	var txs []Transaction
	for i := len(l.history) - 1; i >= 0; i-- {
		if matches(l.history[i], code, filter) {
			txs = append(txs, l.history[i])
		}
	}

	start := (page - 1) * pageSize
	if start >= len(txs) {
		return []Transaction{}, nil
	}
	end := start + pageSize
	if end > len(txs) {
		end = len(txs)
	}
	return txs[start:end], nil
}

// record appends a completed transaction and registers its dedupe key.
// Callers must hold the write lock.
func (l *inMemoryLedger) record(tx Transaction, dedupeKey string) string {
	tx.ID = uuid.NewString()
	tx.Status = StatusCompleted
	tx.CreatedAt = time.Now().UTC()
	l.history = append(l.history, tx)
	if dedupeKey != "" {
		l.byClientTx[dedupeKey] = tx.ID
	}
	return tx.ID
}
