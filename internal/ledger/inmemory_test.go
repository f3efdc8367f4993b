package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func TestInMemoryLedger_DepositWithdrawRoundTrip(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.EnsureAccount(ctx, "wallet:a"); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	SeedBalance(l, "wallet:a", 10_000)

	if _, err := l.Deposit(ctx, "wallet:a", "dep-1", 2_500); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := l.Withdraw(ctx, "wallet:a", "wd-1", 2_500); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	balance, err := l.Balance(ctx, "wallet:a")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 10_000 {
		t.Fatalf("expected round trip to restore 10000, got %d", balance)
	}
}

func TestInMemoryLedger_DepositRejectsInvalidAmounts(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")

	for _, amount := range []int64{0, -5, DepositCap + 1} {
		if _, err := l.Deposit(ctx, "wallet:a", "dep", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("deposit(%d): expected invalid amount, got %v", amount, err)
		}
	}

	balance, _ := l.Balance(ctx, "wallet:a")
	if balance != 0 {
		t.Fatalf("rejected deposits must not change balance, got %d", balance)
	}
}

func TestInMemoryLedger_WithdrawInsufficientLeavesBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	SeedBalance(l, "wallet:a", 120)

	if _, err := l.Withdraw(ctx, "wallet:a", "wd-big", 200); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	balance, _ := l.Balance(ctx, "wallet:a")
	if balance != 120 {
		t.Fatalf("failed withdrawal must leave balance at 120, got %d", balance)
	}
}

func TestInMemoryLedger_Scenario(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	SeedBalance(l, "wallet:a", 100)

	res, err := l.Withdraw(ctx, "wallet:a", "wd-30", 30)
	if err != nil {
		t.Fatalf("withdraw 30: %v", err)
	}
	if res.Balance != 70 {
		t.Fatalf("expected balance 70, got %d", res.Balance)
	}

	res, err = l.Deposit(ctx, "wallet:a", "dep-50", 50)
	if err != nil {
		t.Fatalf("deposit 50: %v", err)
	}
	if res.Balance != 120 {
		t.Fatalf("expected balance 120, got %d", res.Balance)
	}

	if _, err := l.Withdraw(ctx, "wallet:a", "wd-200", 200); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	balance, _ := l.Balance(ctx, "wallet:a")
	if balance != 120 {
		t.Fatalf("expected balance to remain 120, got %d", balance)
	}
}

func TestInMemoryLedger_TransferMaintainsBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	l.EnsureAccount(ctx, "wallet:a")
	l.EnsureAccount(ctx, "wallet:b")
	SeedBalance(l, "wallet:a", 100)

	res, err := l.Transfer(ctx, "wallet:a", "wallet:b", KindTransfer, "client-1", 50)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if res.FromBalance != 50 {
		t.Fatalf("expected from balance 50, got %d", res.FromBalance)
	}
	if res.ToBalance != 50 {
		t.Fatalf("expected to balance 50, got %d", res.ToBalance)
	}

	ledgerImpl := l.(*inMemoryLedger)
	total := ledgerImpl.balances["wallet:a"] + ledgerImpl.balances["wallet:b"]
	if total != 100 {
		t.Fatalf("ledger not balanced, total=%d", total)
	}
}

func TestInMemoryLedger_FailedTransferLeavesBothUnchanged(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	l.EnsureAccount(ctx, "wallet:b")
	SeedBalance(l, "wallet:a", 100)

	if _, err := l.Transfer(ctx, "wallet:a", "wallet:b", KindTransfer, "t-1", 500); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	ledgerImpl := l.(*inMemoryLedger)
	if ledgerImpl.balances["wallet:a"] != 100 || ledgerImpl.balances["wallet:b"] != 0 {
		t.Fatalf("failed transfer changed balances: a=%d b=%d", ledgerImpl.balances["wallet:a"], ledgerImpl.balances["wallet:b"])
	}
}

func TestInMemoryLedger_TransferSameAccount(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	SeedBalance(l, "wallet:a", 100)

	if _, err := l.Transfer(ctx, "wallet:a", "wallet:a", KindTransfer, "t-1", 10); !errors.Is(err, ErrSameAccount) {
		t.Fatalf("expected same account error, got %v", err)
	}
}

func TestInMemoryLedger_DuplicateTransaction(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	l.EnsureAccount(ctx, "wallet:b")
	SeedBalance(l, "wallet:a", 5_000)

	if _, err := l.Transfer(ctx, "wallet:a", "wallet:b", KindTransfer, "dup", 500); err != nil {
		t.Fatalf("initial transfer failed: %v", err)
	}
	res, err := l.Transfer(ctx, "wallet:a", "wallet:b", KindTransfer, "dup", 500)
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if res.FromBalance != 4_500 || res.ToBalance != 500 {
		t.Fatalf("duplicate must not post again: %+v", res)
	}

	if _, err := l.Deposit(ctx, "wallet:a", "dep-dup", 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := l.Deposit(ctx, "wallet:a", "dep-dup", 100); !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate deposit error, got %v", err)
	}
}

func TestInMemoryLedger_ConcurrentTransfers(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	l.EnsureAccount(ctx, "wallet:b")
	SeedBalance(l, "wallet:a", 100_000)
	ledgerImpl := l.(*inMemoryLedger)

	const workers = 10
	const amount = int64(500)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txID := fmt.Sprintf("tx-%d", i)
			if _, err := l.Transfer(ctx, "wallet:a", "wallet:b", KindTransfer, txID, amount); err != nil {
				t.Errorf("transfer %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	total := ledgerImpl.balances["wallet:a"] + ledgerImpl.balances["wallet:b"]
	if total != 100_000 {
		t.Fatalf("ledger not balanced after concurrency, total=%d", total)
	}
}

func TestInMemoryLedger_ConcurrentWithdrawalsNeverGoNegative(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	SeedBalance(l, "wallet:a", 1_000)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// more withdrawal attempts than funds; surplus must fail cleanly
			_, err := l.Withdraw(ctx, "wallet:a", fmt.Sprintf("wd-%d", i), 100)
			if err != nil && !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("withdraw %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	balance, _ := l.Balance(ctx, "wallet:a")
	if balance < 0 {
		t.Fatalf("balance went negative: %d", balance)
	}
}

func TestInMemoryLedger_Adjust(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	SeedBalance(l, "wallet:a", 500)

	res, err := l.Adjust(ctx, "wallet:a", "adj-1", 250)
	if err != nil {
		t.Fatalf("credit adjust: %v", err)
	}
	if res.Balance != 750 {
		t.Fatalf("expected balance 750, got %d", res.Balance)
	}

	res, err = l.Adjust(ctx, "wallet:a", "adj-2", -700)
	if err != nil {
		t.Fatalf("debit adjust: %v", err)
	}
	if res.Balance != 50 {
		t.Fatalf("expected balance 50, got %d", res.Balance)
	}

	if _, err := l.Adjust(ctx, "wallet:a", "adj-3", -100); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, err := l.Adjust(ctx, "wallet:a", "adj-4", 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for zero adjust, got %v", err)
	}
}

func TestInMemoryLedger_ApplyInterest(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	l.EnsureAccount(ctx, "wallet:b")
	SeedBalance(l, "wallet:a", 10_000)
	SeedBalance(l, "wallet:b", 0)

	accruals, err := l.ApplyInterest(ctx, decimal.NewFromFloat(0.05))
	if err != nil {
		t.Fatalf("apply interest: %v", err)
	}
	if len(accruals) != 2 {
		t.Fatalf("expected an accrual per account, got %d", len(accruals))
	}

	balance, _ := l.Balance(ctx, "wallet:a")
	if balance != 10_500 {
		t.Fatalf("expected balance 10500, got %d", balance)
	}
	balance, _ = l.Balance(ctx, "wallet:b")
	if balance != 0 {
		t.Fatalf("zero balance accrues nothing, got %d", balance)
	}

	if _, err := l.ApplyInterest(ctx, decimal.Zero); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected invalid rate for zero, got %v", err)
	}
	if _, err := l.ApplyInterest(ctx, decimal.NewFromFloat(0.25)); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected invalid rate above cap, got %v", err)
	}
}

func TestInMemoryLedger_History(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	l.EnsureAccount(ctx, "wallet:b")

	l.Deposit(ctx, "wallet:a", "dep-1", 1_000)
	l.Withdraw(ctx, "wallet:a", "wd-1", 200)
	l.Transfer(ctx, "wallet:a", "wallet:b", KindTransfer, "t-1", 300)
	l.Deposit(ctx, "wallet:b", "dep-2", 50)

	txs, err := l.History(ctx, "wallet:a", HistoryFilter{}, 1, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions for wallet:a, got %d", len(txs))
	}
	if txs[0].Kind != KindTransfer || txs[1].Kind != KindWithdrawal || txs[2].Kind != KindDeposit {
		t.Fatalf("expected newest-first ordering, got %s %s %s", txs[0].Kind, txs[1].Kind, txs[2].Kind)
	}
	for i := 0; i < len(txs)-1; i++ {
		if txs[i].CreatedAt.Before(txs[i+1].CreatedAt) {
			t.Fatalf("history not sorted descending at %d", i)
		}
	}

	deposits, err := l.History(ctx, "wallet:a", HistoryFilter{Kind: KindDeposit}, 1, 10)
	if err != nil {
		t.Fatalf("filtered history: %v", err)
	}
	if len(deposits) != 1 || deposits[0].Amount != 1_000 {
		t.Fatalf("expected single deposit of 1000, got %+v", deposits)
	}

	paged, err := l.History(ctx, "wallet:a", HistoryFilter{}, 2, 2)
	if err != nil {
		t.Fatalf("paged history: %v", err)
	}
	if len(paged) != 1 {
		t.Fatalf("expected 1 transaction on page 2, got %d", len(paged))
	}

	if _, err := l.History(ctx, "wallet:a", HistoryFilter{}, 0, 10); err == nil {
		t.Fatal("expected error for page 0")
	}
	if _, err := l.History(ctx, "wallet:a", HistoryFilter{}, 1, MaxPageSize+1); err == nil {
		t.Fatal("expected error for oversized page")
	}
}
