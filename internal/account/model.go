package account

import "time"

// User represents a registered wallet owner.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	PINHash      []byte
	TokenVersion int
	CreatedAt    time.Time
	LastLogin    time.Time
}

// Credentials carries login input.
type Credentials struct {
	Email    string
	Password string
}

// PaymentMethod is a stored funding instrument reference. Label holds a
// masked, display-safe identifier (last card digits, IBAN tail, paypal email).
type PaymentMethod struct {
	ID        string
	UserID    string
	Kind      string
	Label     string
	CreatedAt time.Time
}

const (
	// MethodCard through MethodPaypal are the accepted payment method kinds.
	MethodCard        = "card"
	MethodBankAccount = "bank_account"
	MethodPaypal      = "paypal"
)
