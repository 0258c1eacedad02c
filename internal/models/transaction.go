// Package models provides the data structures used throughout the application.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// CategoryOther is assigned when no categorization rule matches.
	CategoryOther = "otros"

	// ReferenceNone marks sources that carry no per-row reference.
	ReferenceNone = "NONE"

	// DayLayout is the day-only representation used for identity and grouping.
	DayLayout = "2006-01-02"

	// TimestampLayout is the canonical timestamp representation.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Transaction is the canonical normalized statement row.
type Transaction struct {
	ID           string
	Timestamp    time.Time
	Amount       decimal.Decimal
	Balance      *decimal.Decimal // nil when the source gives no balance
	Account      string           // display name of the owning account
	AccountKey   string           // stable key of the owning account
	Description  string
	Category     string
	Subcategory  string
	Counterparty string
	Message      string
	Reference    string

	// Concept is the source-native operation concept (Ibercaja only).
	// It feeds exception rules and is not part of the canonical output.
	Concept string
}

// Day returns the calendar day of the transaction as YYYY-MM-DD.
func (t Transaction) Day() string {
	if t.Timestamp.IsZero() {
		return ""
	}
	return t.Timestamp.Format(DayLayout)
}

// Midnight returns the start of the transaction's calendar day.
func (t Transaction) Midnight() time.Time {
	y, m, d := t.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Timestamp.Location())
}

// IsInflow reports whether money entered the account.
func (t Transaction) IsInflow() bool {
	return t.Amount.IsPositive()
}

// IsOutflow reports whether money left the account.
func (t Transaction) IsOutflow() bool {
	return t.Amount.IsNegative()
}

// BalanceString returns the balance with two decimals, or "" when unknown.
func (t Transaction) BalanceString() string {
	if t.Balance == nil {
		return ""
	}
	return t.Balance.StringFixed(2)
}

// SetBalance stores a copy of the given balance.
func (t *Transaction) SetBalance(b decimal.Decimal) {
	t.Balance = &b
}
