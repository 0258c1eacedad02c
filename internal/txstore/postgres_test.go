package txstore

import (
	"context"
	"os"
	"testing"
	"time"

	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullBalance(t *testing.T) {
	assert.False(t, nullBalance(nil).Valid)

	b := decimal.RequireFromString("12.30")
	nb := nullBalance(&b)
	assert.True(t, nb.Valid)
	assert.True(t, nb.Decimal.Equal(b))
}

func TestAccountKeys(t *testing.T) {
	rows := []models.Transaction{{AccountKey: "b"}, {AccountKey: "a"}, {AccountKey: "b"}}
	assert.Equal(t, []string{"b", "a"}, accountKeys(rows))
}

// TestPostgres_RoundTrip runs against a real database named by
// BANKA_TEST_DATABASE_URL.
func TestPostgres_RoundTrip(t *testing.T) {
	url := os.Getenv("BANKA_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("BANKA_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	p, err := NewPostgres(ctx, url, logging.NewMockLogger())
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.EnsureSchema(ctx))

	key := "test_" + uuid.NewString()
	accountID, err := p.ResolveOrCreate(ctx, models.Account{Key: key, Source: models.SourceRevolut, DisplayName: "Revolut"})
	require.NoError(t, err)
	again, err := p.ResolveOrCreate(ctx, models.Account{Key: key, Source: models.SourceRevolut, DisplayName: "Revolut", Shared: true})
	require.NoError(t, err)
	assert.Equal(t, accountID, again)

	user := "user-" + uuid.NewString()
	require.NoError(t, p.Link(ctx, user, accountID))
	require.NoError(t, p.Link(ctx, user, accountID))
	linked, err := p.LinkedAccounts(ctx, user)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, key, linked[0].Key)
	assert.True(t, linked[0].Shared)

	balance := decimal.RequireFromString("90.10")
	rows := []models.Transaction{
		{ID: uuid.NewString(), AccountKey: key, Account: "Revolut", Timestamp: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
			Amount: decimal.RequireFromString("-9.90"), Balance: &balance, Description: "CAFE", Category: "otros", Reference: models.ReferenceNone},
		{ID: uuid.NewString(), AccountKey: key, Account: "Revolut", Timestamp: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
			Amount: decimal.RequireFromString("100"), Description: "NOMINA", Category: "nomina", Reference: models.ReferenceNone},
	}
	n, err := p.Insert(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = p.Insert(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	known, err := p.ExistingIDs(ctx, []string{rows[0].ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, known, 1)

	got, err := p.Fetch(ctx, []string{key})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "90.10", got[0].BalanceString())
	assert.Nil(t, got[1].Balance)

	_, err = p.Insert(ctx, []models.Transaction{{ID: uuid.NewString(), AccountKey: "never-" + key, Timestamp: time.Now()}})
	assert.ErrorIs(t, err, ErrUnknownAccount)
}
