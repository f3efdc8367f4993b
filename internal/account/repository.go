package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNotFound indicates the user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken indicates a registration against an existing email.
var ErrEmailTaken = errors.New("email already registered")

// Repository persists users and their payment methods.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	UpdatePIN(ctx context.Context, id string, pinHash []byte) error
	UpdateTokenVersion(ctx context.Context, id string, version int) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	AddPaymentMethod(ctx context.Context, method PaymentMethod) error
	PaymentMethods(ctx context.Context, userID string) ([]PaymentMethod, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, email, password_hash, pin_hash, token_version, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, userID, user.Email, user.PasswordHash, user.PINHash, user.TokenVersion, user.CreatedAt.UTC())
	return err
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, password_hash, pin_hash, token_version, created_at, last_login
        FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, err
	}
	row := r.db.QueryRow(ctx, `SELECT id, email, password_hash, pin_hash, token_version, created_at, last_login
        FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// UpdatePIN stores the user's hashed PIN.
func (r *PostgresRepository) UpdatePIN(ctx context.Context, id string, pinHash []byte) error {
	return r.updateByID(ctx, id, `UPDATE users SET pin_hash = $1 WHERE id = $2`, pinHash)
}

// UpdateTokenVersion bumps the token version, invalidating issued tokens.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, id string, version int) error {
	return r.updateByID(ctx, id, `UPDATE users SET token_version = $1 WHERE id = $2`, version)
}

// UpdateLastLogin records the most recent successful authentication.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.updateByID(ctx, id, `UPDATE users SET last_login = $1 WHERE id = $2`, at.UTC())
}

func (r *PostgresRepository) updateByID(ctx context.Context, id, query string, value any) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, query, value, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddPaymentMethod inserts a payment method record.
func (r *PostgresRepository) AddPaymentMethod(ctx context.Context, method PaymentMethod) error {
	methodID, err := uuid.Parse(method.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(method.UserID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO payment_methods (id, user_id, kind, label, created_at)
        VALUES ($1, $2, $3, $4, $5)`, methodID, userID, method.Kind, method.Label, method.CreatedAt.UTC())
	return err
}

// PaymentMethods lists the user's payment methods, oldest first.
func (r *PostgresRepository) PaymentMethods(ctx context.Context, userID string) ([]PaymentMethod, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, user_id, kind, label, created_at
        FROM payment_methods WHERE user_id = $1 ORDER BY created_at`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := []PaymentMethod{}
	for rows.Next() {
		var (
			m         PaymentMethod
			id        uuid.UUID
			owner     uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&id, &owner, &m.Kind, &m.Label, &createdAt); err != nil {
			return nil, err
		}
		m.ID = id.String()
		m.UserID = owner.String()
		m.CreatedAt = createdAt.UTC()
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		lastLogin *time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Email, &user.PasswordHash, &user.PINHash, &user.TokenVersion, &createdAt, &lastLogin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	if lastLogin != nil {
		user.LastLogin = lastLogin.UTC()
	}
	return user, nil
}
