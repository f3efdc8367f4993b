package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vault-pay/vault_pay/internal/ledger"
	"github.com/vault-pay/vault_pay/internal/notification"
	"github.com/vault-pay/vault_pay/internal/wallet"
)

// Service wires wallet ledger postings for peer transfers.
type Service struct {
	wallets  *wallet.Service
	notifier notification.Notifier
}

// NewService constructs a payment service.
func NewService(wallets *wallet.Service, notifier notification.Notifier) *Service {
	return &Service{wallets: wallets, notifier: notifier}
}

// TransferInput captures the data needed to move funds between wallets.
type TransferInput struct {
	FromWalletID    string
	ToWalletID      string
	Amount          int64
	ClientTxID      string
	RequestorUserID string
}

// TransferResult describes the ledger outcome of a peer transfer.
type TransferResult struct {
	TransactionID string
	FromBalance   int64
	ToBalance     int64
	CompletedAt   time.Time
}

// ErrNotOwner indicates the caller does not own the source wallet.
var ErrNotOwner = errors.New("not owner of source wallet")

// Transfer posts a balanced ledger entry between two wallets. The debit and
// credit settle together or not at all.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if input.Amount <= 0 {
		return TransferResult{}, ledger.ErrInvalidAmount
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.New().String()
	}

	fromWallet, err := s.wallets.Get(ctx, input.FromWalletID)
	if err != nil {
		return TransferResult{}, err
	}
	if input.RequestorUserID != "" && fromWallet.OwnerID != input.RequestorUserID {
		return TransferResult{}, ErrNotOwner
	}
	toWallet, err := s.wallets.Get(ctx, input.ToWalletID)
	if err != nil {
		return TransferResult{}, err
	}

	res, err := s.wallets.Transfer(ctx, fromWallet.ID, toWallet.ID, ledger.KindTransfer, input.ClientTxID, input.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			// Replay of an already-settled transfer. Surface the original
			// outcome alongside the error so callers can respond idempotently.
			return TransferResult{
				TransactionID: res.TransactionID,
				FromBalance:   res.FromBalance,
				ToBalance:     res.ToBalance,
			}, err
		}
		return TransferResult{}, err
	}

	outcome := TransferResult{
		TransactionID: res.TransactionID,
		FromBalance:   res.FromBalance,
		ToBalance:     res.ToBalance,
		CompletedAt:   time.Now().UTC(),
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransfer,
			Destination: toWallet.OwnerID,
			Body:        fmt.Sprintf("You received %d from wallet %s", input.Amount, input.FromWalletID),
		})
	}

	return outcome, nil
}
