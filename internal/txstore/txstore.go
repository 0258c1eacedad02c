// Package txstore provides account and transaction stores for the ingestion
// service: an in-memory store for tests and dry runs, and PostgreSQL.
package txstore

import (
	"context"
	"errors"

	"banka/ingest/internal/ingest"
	"banka/ingest/internal/models"
)

var (
	// ErrUnknownAccount is returned when a row or link names an account
	// that was never resolved.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrMissingID is returned when a row to insert has no id.
	ErrMissingID = errors.New("transaction without id")
)

// Store is the full surface used by the CLI.
type Store interface {
	ingest.AccountResolver
	ingest.TransactionStore

	// Fetch returns the stored rows of the given account keys, all accounts
	// when keys is empty, in ascending timestamp order.
	Fetch(ctx context.Context, accountKeys []string) ([]models.Transaction, error)
	// LinkedAccounts returns the accounts linked to a user.
	LinkedAccounts(ctx context.Context, userID string) ([]models.Account, error)
	Close()
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Postgres)(nil)
)
