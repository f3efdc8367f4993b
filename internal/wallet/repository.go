package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the wallet does not exist.
var ErrNotFound = errors.New("wallet not found")

// Repository persists wallet metadata.
type Repository interface {
	Create(ctx context.Context, wallet Wallet) error
	Get(ctx context.Context, id string) (Wallet, error)
	GetByOwner(ctx context.Context, ownerID string) (Wallet, error)
}

// LimitStore persists per-wallet spending limits.
type LimitStore interface {
	Get(ctx context.Context, walletID string) (Limits, bool, error)
	Put(ctx context.Context, limits Limits) error
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record.
func (r *PostgresRepository) Create(ctx context.Context, wallet Wallet) error {
	walletID, err := uuid.Parse(wallet.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(wallet.OwnerID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallets (id, owner_id, account_code, currency, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, walletID, ownerID, wallet.AccountCode, wallet.Currency, wallet.Status, wallet.CreatedAt.UTC())
	return err
}

// Get fetches wallet metadata by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Wallet, error) {
	walletUUID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, err
	}
	row := r.db.QueryRow(ctx, `SELECT id, owner_id, account_code, currency, status, created_at
        FROM wallets WHERE id = $1`, walletUUID)
	return scanWallet(row)
}

// GetByOwner fetches the wallet owned by the given user.
func (r *PostgresRepository) GetByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return Wallet{}, err
	}
	row := r.db.QueryRow(ctx, `SELECT id, owner_id, account_code, currency, status, created_at
        FROM wallets WHERE owner_id = $1`, ownerUUID)
	return scanWallet(row)
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		idVal     uuid.UUID
		ownerID   uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&idVal, &ownerID, &w.AccountCode, &w.Currency, &w.Status, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = idVal.String()
	w.OwnerID = ownerID.String()
	w.CreatedAt = createdAt.UTC()
	return w, nil
}

// PostgresLimitStore stores spending limits in PostgreSQL.
type PostgresLimitStore struct {
	db *pgxpool.Pool
}

// NewPostgresLimitStore builds a Postgres-backed limit store.
func NewPostgresLimitStore(db *pgxpool.Pool) *PostgresLimitStore {
	return &PostgresLimitStore{db: db}
}

// Get loads the limits row for a wallet.
func (s *PostgresLimitStore) Get(ctx context.Context, walletID string) (Limits, bool, error) {
	walletUUID, err := uuid.Parse(walletID)
	if err != nil {
		return Limits{}, false, err
	}
	row := s.db.QueryRow(ctx, `SELECT daily, monthly, daily_used, monthly_used, day, month
        FROM spending_limits WHERE wallet_id = $1`, walletUUID)
	lim := Limits{WalletID: walletID}
	if err := row.Scan(&lim.Daily, &lim.Monthly, &lim.DailyUsed, &lim.MonthlyUsed, &lim.Day, &lim.Month); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Limits{}, false, nil
		}
		return Limits{}, false, err
	}
	return lim, true, nil
}

// Put upserts the limits row for a wallet.
func (s *PostgresLimitStore) Put(ctx context.Context, limits Limits) error {
	walletUUID, err := uuid.Parse(limits.WalletID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO spending_limits (wallet_id, daily, monthly, daily_used, monthly_used, day, month)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (wallet_id) DO UPDATE SET
            daily = EXCLUDED.daily, monthly = EXCLUDED.monthly,
            daily_used = EXCLUDED.daily_used, monthly_used = EXCLUDED.monthly_used,
            day = EXCLUDED.day, month = EXCLUDED.month`,
		walletUUID, limits.Daily, limits.Monthly, limits.DailyUsed, limits.MonthlyUsed, limits.Day, limits.Month)
	return err
}
