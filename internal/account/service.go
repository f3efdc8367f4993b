package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	minPINLen      = 4
	maxPINLen      = 8
)

var (
	// ErrInvalidEmail indicates a missing or malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrWeakPassword indicates a password shorter than six characters.
	ErrWeakPassword = errors.New("password must be at least 6 characters")

	// ErrInvalidPIN indicates a PIN outside 4-8 digits or containing non-digits.
	ErrInvalidPIN = errors.New("PIN must be 4-8 digits")

	// ErrInvalidCredentials indicates a failed email/password or PIN check.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPINNotSet indicates PIN verification against a user without a PIN.
	ErrPINNotSet = errors.New("PIN not set")

	// ErrInvalidMethod indicates an unsupported payment method kind.
	ErrInvalidMethod = errors.New("invalid payment method")
)

// Service manages account lifecycle: registration, authentication, PINs and
// payment methods.
type Service struct {
	repo Repository
}

// NewService creates a new account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a user with a hashed password and zero-value PIN.
func (s *Service) Register(ctx context.Context, creds Credentials) (User, error) {
	email := strings.TrimSpace(creds.Email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, ErrInvalidEmail
	}
	if len(creds.Password) < minPasswordLen {
		return User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies email/password and records the login time.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(creds.Email))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return User{}, err
	}
	user.LastLogin = now

	return user, nil
}

// SetPIN stores a hashed transaction PIN for the user.
func (s *Service) SetPIN(ctx context.Context, userID, pin string) error {
	if !validPIN(pin) {
		return ErrInvalidPIN
	}
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePIN(ctx, userID, hash)
}

// VerifyPIN checks a PIN against the stored hash. Read-only.
func (s *Service) VerifyPIN(ctx context.Context, userID, pin string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if len(user.PINHash) == 0 {
		return ErrPINNotSet
	}
	if err := bcrypt.CompareHashAndPassword(user.PINHash, []byte(pin)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// AddPaymentMethod registers a funding instrument for the user.
func (s *Service) AddPaymentMethod(ctx context.Context, userID, kind, label string) (PaymentMethod, error) {
	switch kind {
	case MethodCard, MethodBankAccount, MethodPaypal:
	default:
		return PaymentMethod{}, ErrInvalidMethod
	}
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return PaymentMethod{}, err
	}
	method := PaymentMethod{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		Label:     label,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AddPaymentMethod(ctx, method); err != nil {
		return PaymentMethod{}, err
	}
	return method, nil
}

// ListPaymentMethods returns the user's registered payment methods.
func (s *Service) ListPaymentMethods(ctx context.Context, userID string) ([]PaymentMethod, error) {
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.PaymentMethods(ctx, userID)
}

func validPIN(pin string) bool {
	if len(pin) < minPINLen || len(pin) > maxPINLen {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
