package txstore

import (
	"context"
	"fmt"

	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Schema creates the tables used by Postgres. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id           UUID PRIMARY KEY,
    account_key  TEXT NOT NULL UNIQUE,
    source       TEXT NOT NULL,
    display_name TEXT NOT NULL,
    shared       BOOLEAN NOT NULL DEFAULT false,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE accounts ADD COLUMN IF NOT EXISTS shared BOOLEAN NOT NULL DEFAULT false;

CREATE TABLE IF NOT EXISTS account_owners (
    user_id    TEXT NOT NULL,
    account_id UUID NOT NULL REFERENCES accounts(id),
    PRIMARY KEY (user_id, account_id)
);

CREATE TABLE IF NOT EXISTS transactions (
    transaction_id TEXT PRIMARY KEY,
    account_id     UUID NOT NULL REFERENCES accounts(id),
    dt_date        TIMESTAMP NOT NULL,
    amount         NUMERIC(14,2) NOT NULL,
    balance        NUMERIC(14,2),
    account_name   TEXT NOT NULL,
    description    TEXT NOT NULL,
    category       TEXT NOT NULL,
    subcategory    TEXT NOT NULL DEFAULT '',
    counterparty   TEXT NOT NULL DEFAULT '',
    message        TEXT NOT NULL DEFAULT '',
    reference      TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS transactions_account_date_idx ON transactions (account_id, dt_date);
`

const insertTransaction = `
INSERT INTO transactions (
    transaction_id, account_id, dt_date, amount, balance, account_name,
    description, category, subcategory, counterparty, message, reference
)
SELECT $1::text, a.id, $3::timestamp, $4::numeric, $5::numeric, $6::text,
       $7::text, $8::text, $9::text, $10::text, $11::text, $12::text
FROM accounts a
WHERE a.account_key = $2::text
ON CONFLICT (transaction_id) DO NOTHING`

// Postgres stores accounts and rows in PostgreSQL through a pgx pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPostgres connects a pool to databaseURL and pings it.
func NewPostgres(ctx context.Context, databaseURL string, logger logging.Logger) (*Postgres, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

// EnsureSchema applies Schema.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ResolveOrCreate upserts the account by key and returns its id. The
// display name and shared flag follow the latest upload.
func (p *Postgres) ResolveOrCreate(ctx context.Context, acc models.Account) (string, error) {
	if acc.Key == "" {
		return "", fmt.Errorf("account key is empty")
	}
	var id string
	err := p.pool.QueryRow(ctx, `
INSERT INTO accounts (id, account_key, source, display_name, shared)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (account_key) DO UPDATE
SET display_name = EXCLUDED.display_name, shared = EXCLUDED.shared
RETURNING id::text`,
		uuid.NewString(), acc.Key, string(acc.Source), acc.DisplayName, acc.Shared,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert account %s: %w", acc.Key, err)
	}
	return id, nil
}

// Link records account ownership. Linking twice is a no-op.
func (p *Postgres) Link(ctx context.Context, userID, accountID string) error {
	_, err := p.pool.Exec(ctx, `
INSERT INTO account_owners (user_id, account_id)
VALUES ($1, $2::uuid)
ON CONFLICT DO NOTHING`, userID, accountID)
	if err != nil {
		return fmt.Errorf("link account %s: %w", accountID, err)
	}
	return nil
}

// ExistingIDs returns the subset of ids already stored.
func (p *Postgres) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := p.pool.Query(ctx,
		`SELECT transaction_id FROM transactions WHERE transaction_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// Insert writes rows in one database transaction. Conflicting ids are
// skipped; a row naming an unknown account rolls back the whole insert.
func (p *Postgres) Insert(ctx context.Context, rows []models.Transaction) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for _, tx := range rows {
		if tx.ID == "" {
			return 0, ErrMissingID
		}
	}

	inserted := 0
	err := pgx.BeginFunc(ctx, p.pool, func(dbtx pgx.Tx) error {
		var known int
		keys := accountKeys(rows)
		if err := dbtx.QueryRow(ctx,
			`SELECT count(*) FROM accounts WHERE account_key = ANY($1)`, keys).Scan(&known); err != nil {
			return err
		}
		if known != len(keys) {
			return fmt.Errorf("%w among %v", ErrUnknownAccount, keys)
		}

		batch := &pgx.Batch{}
		for _, tx := range rows {
			batch.Queue(insertTransaction,
				tx.ID, tx.AccountKey, tx.Timestamp, tx.Amount, nullBalance(tx.Balance), tx.Account,
				tx.Description, tx.Category, tx.Subcategory, tx.Counterparty, tx.Message, tx.Reference)
		}
		results := dbtx.SendBatch(ctx, batch)
		for range rows {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return err
			}
			inserted += int(tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("insert %d transactions: %w", len(rows), err)
	}
	p.logger.Debug("Inserted transactions",
		logging.F(logging.FieldCount, len(rows)),
		logging.F(logging.FieldInserted, inserted))
	return inserted, nil
}

func accountKeys(rows []models.Transaction) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, tx := range rows {
		if _, ok := seen[tx.AccountKey]; ok {
			continue
		}
		seen[tx.AccountKey] = struct{}{}
		keys = append(keys, tx.AccountKey)
	}
	return keys
}

func nullBalance(b *decimal.Decimal) decimal.NullDecimal {
	if b == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *b, Valid: true}
}

// Fetch implements Store.
func (p *Postgres) Fetch(ctx context.Context, accountKeys []string) ([]models.Transaction, error) {
	query := `
SELECT t.transaction_id, t.dt_date, t.amount::text, t.balance::text, t.account_name, a.account_key,
       t.description, t.category, t.subcategory, t.counterparty, t.message, t.reference
FROM transactions t
JOIN accounts a ON a.id = t.account_id`
	args := []any{}
	if len(accountKeys) > 0 {
		query += ` WHERE a.account_key = ANY($1)`
		args = append(args, accountKeys)
	}
	query += ` ORDER BY t.dt_date, t.transaction_id`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			tx      models.Transaction
			amount  string
			balance *string
		)
		if err := rows.Scan(&tx.ID, &tx.Timestamp, &amount, &balance, &tx.Account, &tx.AccountKey,
			&tx.Description, &tx.Category, &tx.Subcategory, &tx.Counterparty, &tx.Message, &tx.Reference); err != nil {
			return nil, err
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("row %s: invalid amount %q: %w", tx.ID, amount, err)
		}
		if balance != nil {
			b, err := decimal.NewFromString(*balance)
			if err != nil {
				return nil, fmt.Errorf("row %s: invalid balance %q: %w", tx.ID, *balance, err)
			}
			tx.SetBalance(b)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// LinkedAccounts implements Store.
func (p *Postgres) LinkedAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	rows, err := p.pool.Query(ctx, `
SELECT a.id::text, a.account_key, a.source, a.display_name, a.shared
FROM accounts a
JOIN account_owners o ON o.account_id = a.id
WHERE o.user_id = $1
ORDER BY a.account_key`, userID)
	if err != nil {
		return nil, fmt.Errorf("linked accounts of %s: %w", userID, err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		var (
			a      models.Account
			source string
		)
		if err := rows.Scan(&a.ID, &a.Key, &source, &a.DisplayName, &a.Shared); err != nil {
			return nil, err
		}
		a.Source = models.SourceType(source)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
