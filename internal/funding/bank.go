package funding

import (
	"context"

	"github.com/google/uuid"
)

// BankRail represents a connector to an external bank transfer network.
type BankRail interface {
	AuthorizePayIn(ctx context.Context, input PayInAuthorization) (AuthorizationDecision, error)
	AuthorizePayOut(ctx context.Context, input PayOutAuthorization) (AuthorizationDecision, error)
}

// AuthorizationDecision captures the simulated response from the bank rail.
type AuthorizationDecision struct {
	Reference string
	Status    string
}

// PayInAuthorization encapsulates details needed for a bank-funded top-up.
type PayInAuthorization struct {
	BankAccount string
	Amount      int64
}

// PayOutAuthorization captures data for a payout to an external bank account.
type PayOutAuthorization struct {
	BankAccount string
	Amount      int64
}

// StaticBankRail simulates a successful bank integration.
type StaticBankRail struct{}

// AuthorizePayIn approves the funding request with a synthetic reference.
func (StaticBankRail) AuthorizePayIn(_ context.Context, _ PayInAuthorization) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: uuid.NewString(), Status: "approved"}, nil
}

// AuthorizePayOut approves the payout request with a synthetic reference.
func (StaticBankRail) AuthorizePayOut(_ context.Context, _ PayOutAuthorization) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: uuid.NewString(), Status: "approved"}, nil
}
