package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CSVRow is the canonical output column order.
type CSVRow struct {
	Timestamp   string `csv:"timestamp"`
	Amount      string `csv:"amount"`
	Balance     string `csv:"balance"`
	Account     string `csv:"account"`
	Description string `csv:"description"`
	Category    string `csv:"category"`
	Subcategory string `csv:"subcategory"`
	Message     string `csv:"message"`
	Reference   string `csv:"reference"`
	ID          string `csv:"id"`
}

// ToCSVRow renders a transaction in canonical column order.
func (t Transaction) ToCSVRow() CSVRow {
	return CSVRow{
		Timestamp:   t.Timestamp.Format(TimestampLayout),
		Amount:      t.Amount.StringFixed(2),
		Balance:     t.BalanceString(),
		Account:     t.Account,
		Description: t.Description,
		Category:    t.Category,
		Subcategory: t.Subcategory,
		Message:     t.Message,
		Reference:   t.Reference,
		ID:          t.ID,
	}
}

// ToTransaction parses a canonical CSV row back into a transaction.
func (r CSVRow) ToTransaction() (Transaction, error) {
	ts, err := time.Parse(TimestampLayout, strings.TrimSpace(r.Timestamp))
	if err != nil {
		ts, err = time.Parse(DayLayout, strings.TrimSpace(r.Timestamp))
		if err != nil {
			return Transaction{}, fmt.Errorf("invalid timestamp %q: %w", r.Timestamp, err)
		}
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid amount %q: %w", r.Amount, err)
	}
	tx := Transaction{
		ID:          r.ID,
		Timestamp:   ts,
		Amount:      amount,
		Account:     r.Account,
		Description: r.Description,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Message:     r.Message,
		Reference:   r.Reference,
	}
	if b := strings.TrimSpace(r.Balance); b != "" {
		balance, err := decimal.NewFromString(b)
		if err != nil {
			return Transaction{}, fmt.Errorf("invalid balance %q: %w", r.Balance, err)
		}
		tx.SetBalance(balance)
	}
	return tx, nil
}
