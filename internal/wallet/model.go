package wallet

import "time"

// Wallet represents a stored value account backed by the ledger.
type Wallet struct {
	ID          string
	OwnerID     string
	AccountCode string
	Currency    string
	Status      string
	CreatedAt   time.Time
}

// Balance encapsulates available funds for a wallet.
type Balance struct {
	WalletID string
	Amount   int64
	AsOf     time.Time
}

// Limits captures per-wallet spending caps for debit operations. A zero cap
// means the window is unlimited. Day and Month anchor the usage windows; usage
// resets when the calendar day or month rolls over.
type Limits struct {
	WalletID    string
	Daily       int64
	Monthly     int64
	DailyUsed   int64
	MonthlyUsed int64
	Day         string
	Month       string
}

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// rolled returns the limits with stale usage windows reset as of now.
func (l Limits) rolled(now time.Time) Limits {
	day := now.UTC().Format(dayLayout)
	month := now.UTC().Format(monthLayout)
	if l.Day != day {
		l.Day = day
		l.DailyUsed = 0
	}
	if l.Month != month {
		l.Month = month
		l.MonthlyUsed = 0
	}
	return l
}

// allows reports whether a debit of amount fits inside both windows.
func (l Limits) allows(amount int64) bool {
	if l.Daily > 0 && l.DailyUsed+amount > l.Daily {
		return false
	}
	if l.Monthly > 0 && l.MonthlyUsed+amount > l.Monthly {
		return false
	}
	return true
}
