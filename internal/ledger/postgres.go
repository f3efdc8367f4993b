package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresLedger persists ledger entries in PostgreSQL ensuring double-entry balance.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// interestHoldersQuery locks every non-system account row for the accrual
// pass. Postgres rejects row locking combined with GROUP BY or aggregates, so
// the query stays a plain row select and balances are summed per account
// inside the same transaction.
const interestHoldersQuery = `
        SELECT id, code
        FROM accounts
        WHERE code NOT LIKE 'system:%'
        ORDER BY code
        FOR UPDATE`

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureAccount guarantees an account exists for the provided code.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, code string) error {
	_, err := l.db.Exec(ctx, `INSERT INTO accounts (id, code) VALUES ($1, $2)
        ON CONFLICT (code) DO NOTHING`, uuid.New(), code)
	return err
}

// Balance returns the summed balance for the specified account code.
func (l *PostgresLedger) Balance(ctx context.Context, code string) (int64, error) {
	const query = `
        SELECT COALESCE(SUM(e.amount), 0)
        FROM accounts a
        LEFT JOIN entries e ON e.account_id = a.id
        WHERE a.code = $1
        GROUP BY a.id`
	var balance int64
	if err := l.db.QueryRow(ctx, query, code).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Deposit credits the account and debits the settlement account in one posting.
func (l *PostgresLedger) Deposit(ctx context.Context, code, clientTxID string, amount int64) (TransactionResult, error) {
	if amount <= 0 || amount > DepositCap {
		return TransactionResult{}, ErrInvalidAmount
	}
	return l.postSingle(ctx, code, KindDeposit, clientTxID, amount, false)
}

// Withdraw debits the account and credits the settlement account, rejecting
// postings that would take the balance negative.
func (l *PostgresLedger) Withdraw(ctx context.Context, code, clientTxID string, amount int64) (TransactionResult, error) {
	if amount <= 0 {
		return TransactionResult{}, ErrInvalidAmount
	}
	return l.postSingle(ctx, code, KindWithdrawal, clientTxID, -amount, true)
}

// Adjust posts a signed credit or debit against the account.
func (l *PostgresLedger) Adjust(ctx context.Context, code, clientTxID string, amount int64) (TransactionResult, error) {
	if amount == 0 {
		return TransactionResult{}, ErrInvalidAmount
	}
	kind := KindCredit
	if amount < 0 {
		kind = KindDebit
	}
	return l.postSingle(ctx, code, kind, clientTxID, amount, amount < 0)
}

// postSingle records a single-account posting balanced against the settlement
// account. delta carries the sign applied to the wallet account.
func (l *PostgresLedger) postSingle(ctx context.Context, code, kind, clientTxID string, delta int64, checkFunds bool) (TransactionResult, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransactionResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	accountID, err := accountIDForCode(ctx, tx, code)
	if err != nil {
		return TransactionResult{}, err
	}
	settlementID, err := accountIDForCode(ctx, tx, SettlementAccountCode)
	if err != nil {
		return TransactionResult{}, err
	}

	const existingTxQuery = `SELECT id FROM transactions WHERE client_tx_id = $1 AND kind = $2`
	var existingTxID uuid.UUID
	if err := tx.QueryRow(ctx, existingTxQuery, clientTxID, kind).Scan(&existingTxID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return TransactionResult{}, err
		}
	} else {
		balance, balErr := balanceForAccount(ctx, tx, accountID)
		if balErr != nil {
			return TransactionResult{}, balErr
		}
		return TransactionResult{TransactionID: existingTxID.String(), Balance: balance}, ErrDuplicateTransaction
	}

	balance, err := balanceForAccount(ctx, tx, accountID)
	if err != nil {
		return TransactionResult{}, err
	}
	if checkFunds && balance+delta < 0 {
		return TransactionResult{}, ErrInsufficientFunds
	}

	txID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, client_tx_id, kind, status) VALUES ($1, $2, $3, $4)`, txID, clientTxID, kind, StatusCompleted); err != nil {
		return TransactionResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, accountID, delta); err != nil {
		return TransactionResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, settlementID, -delta); err != nil {
		return TransactionResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransactionResult{}, err
	}

	updated, err := l.Balance(ctx, code)
	if err != nil {
		return TransactionResult{}, err
	}
	return TransactionResult{TransactionID: txID.String(), Balance: updated}, nil
}

// Transfer records a balanced posting between two accounts.
func (l *PostgresLedger) Transfer(ctx context.Context, fromCode, toCode, kind, clientTxID string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}
	if fromCode == toCode {
		return TransferResult{}, ErrSameAccount
	}
	if kind == "" {
		kind = KindTransfer
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	fromAccountID, err := accountIDForCode(ctx, tx, fromCode)
	if err != nil {
		return TransferResult{}, err
	}
	toAccountID, err := accountIDForCode(ctx, tx, toCode)
	if err != nil {
		return TransferResult{}, err
	}

	const existingTxQuery = `SELECT id FROM transactions WHERE client_tx_id = $1 AND kind = $2`
	var existingTxID uuid.UUID
	if err := tx.QueryRow(ctx, existingTxQuery, clientTxID, kind).Scan(&existingTxID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return TransferResult{}, err
		}
	} else {
		fromBal, err := balanceForAccount(ctx, tx, fromAccountID)
		if err != nil {
			return TransferResult{}, err
		}
		toBal, err := balanceForAccount(ctx, tx, toAccountID)
		if err != nil {
			return TransferResult{}, err
		}
		return TransferResult{TransactionID: existingTxID.String(), FromBalance: fromBal, ToBalance: toBal}, ErrDuplicateTransaction
	}

	fromBalance, err := balanceForAccount(ctx, tx, fromAccountID)
	if err != nil {
		return TransferResult{}, err
	}
	if fromBalance < amount {
		return TransferResult{}, ErrInsufficientFunds
	}

	txID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, client_tx_id, kind, status) VALUES ($1, $2, $3, $4)`, txID, clientTxID, kind, StatusCompleted); err != nil {
		return TransferResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, fromAccountID, -amount); err != nil {
		return TransferResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, toAccountID, amount); err != nil {
		return TransferResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransferResult{}, err
	}

	fromBal, err := l.Balance(ctx, fromCode)
	if err != nil {
		return TransferResult{}, err
	}
	toBal, err := l.Balance(ctx, toCode)
	if err != nil {
		return TransferResult{}, err
	}

	return TransferResult{TransactionID: txID.String(), FromBalance: fromBal, ToBalance: toBal}, nil
}

// ApplyInterest credits every non-system account with balance * rate, funded
// from the interest system account, all inside one transaction.
func (l *PostgresLedger) ApplyInterest(ctx context.Context, rate decimal.Decimal) ([]Accrual, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	interestID, err := accountIDForCode(ctx, tx, InterestAccountCode)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, interestHoldersQuery)
	if err != nil {
		return nil, err
	}

	type holder struct {
		id   uuid.UUID
		code string
	}
	var holders []holder
	for rows.Next() {
		var h holder
		if err := rows.Scan(&h.id, &h.code); err != nil {
			rows.Close()
			return nil, err
		}
		holders = append(holders, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	accruals := make([]Accrual, 0, len(holders))
	for _, h := range holders {
		balance, err := balanceForAccount(ctx, tx, h.id)
		if err != nil {
			return nil, err
		}
		interest := interestOn(balance, rate)
		txID := uuid.New()
		if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, client_tx_id, kind, status) VALUES ($1, $2, $3, $4)`, txID, txID.String(), KindInterest, StatusCompleted); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, h.id, interest); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, interestID, -interest); err != nil {
			return nil, err
		}
		accruals = append(accruals, Accrual{Code: h.code, Interest: interest, Balance: balance + interest})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return accruals, nil
}

// History lists transactions touching the account, newest first.
func (l *PostgresLedger) History(ctx context.Context, code string, filter HistoryFilter, page, pageSize int) ([]Transaction, error) {
	page, pageSize, err := normalizePage(page, pageSize)
	if err != nil {
		return nil, err
	}

	if _, err := l.Balance(ctx, code); err != nil {
		return nil, err
	}

	const query = `
        SELECT t.id, t.kind, t.status, t.created_at, e.amount,
               COALESCE((SELECT a2.code FROM entries e2
                         JOIN accounts a2 ON a2.id = e2.account_id
                         WHERE e2.transaction_id = t.id AND e2.account_id <> e.account_id
                         LIMIT 1), '')
        FROM transactions t
        JOIN entries e ON e.transaction_id = t.id
        JOIN accounts a ON a.id = e.account_id
        WHERE a.code = $1
          AND ($2 = '' OR t.kind = $2)
          AND ($3 = '' OR t.status = $3)
        ORDER BY t.created_at DESC
        LIMIT $4 OFFSET $5`

	rows, err := l.db.Query(ctx, query, code, filter.Kind, filter.Status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []Transaction{}
	for rows.Next() {
		var (
			id     uuid.UUID
			rec    Transaction
			amount int64
			other  string
		)
		if err := rows.Scan(&id, &rec.Kind, &rec.Status, &rec.CreatedAt, &amount, &other); err != nil {
			return nil, err
		}
		rec.ID = id.String()
		rec.CreatedAt = rec.CreatedAt.UTC()
		if strings.HasPrefix(other, "system:") {
			other = ""
		}
		if amount >= 0 {
			rec.ToCode = code
			rec.FromCode = other
			rec.Amount = amount
		} else {
			rec.FromCode = code
			rec.ToCode = other
			rec.Amount = -amount
		}
		txs = append(txs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

func accountIDForCode(ctx context.Context, tx pgx.Tx, code string) (uuid.UUID, error) {
	const query = `SELECT id FROM accounts WHERE code = $1 FOR UPDATE`
	var id uuid.UUID
	if err := tx.QueryRow(ctx, query, code).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%w: %s", ErrAccountNotFound, code)
		}
		return uuid.Nil, err
	}
	return id, nil
}

func balanceForAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM entries WHERE account_id = $1`
	var balance int64
	if err := tx.QueryRow(ctx, query, accountID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}
