package ledger

import (
	"strings"
	"testing"
)

// Postgres rejects FOR UPDATE combined with GROUP BY or aggregate functions,
// so the accrual pass must lock plain account rows and sum balances in a
// separate per-account query.
func TestInterestHoldersQueryLocksPlainRows(t *testing.T) {
	for _, banned := range []string{"GROUP BY", "SUM(", "JOIN"} {
		if strings.Contains(interestHoldersQuery, banned) {
			t.Fatalf("account lock query must not contain %q", banned)
		}
	}
	if !strings.Contains(interestHoldersQuery, "FOR UPDATE") {
		t.Fatal("account lock query must take row locks")
	}
	if !strings.Contains(interestHoldersQuery, "NOT LIKE 'system:%'") {
		t.Fatal("system accounts must be excluded from accrual")
	}
}
