package ingest_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"banka/ingest/internal/factory"
	"banka/ingest/internal/identity"
	"banka/ingest/internal/ingest"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"
	"banka/ingest/internal/parsererror"
	"banka/ingest/internal/revolutparser"
	"banka/ingest/internal/txstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const revolutHeader = "Tipo,Producto,Fecha de inicio,Fecha de finalización,Descripción,Importe,Comisión,Divisa,State,Saldo\n"

func revolutCSV(lines ...string) []byte {
	return []byte(revolutHeader + strings.Join(lines, "\n") + "\n")
}

var statement = revolutCSV(
	"Pago con tarjeta,Actual,2024-03-04 18:30:00,2024-03-04 18:30:00,MERCADONA,-25.40,0.00,EUR,COMPLETADO,74.60",
	"Transferencia,Actual,2024-03-05 09:00:00,2024-03-05 09:00:00,Transferencia desde JUAN,50.00,0.00,EUR,COMPLETADO,124.60",
)

func newService(t *testing.T, policy identity.Policy, accounts ingest.AccountResolver, store ingest.TransactionStore) (*ingest.Service, *logging.MockLogger) {
	t.Helper()
	logger := logging.NewMockLogger()
	decoders := factory.NewRegistry(logger, revolutparser.NewDecoder(nil, nil, logger))
	return ingest.NewService(decoders, identity.NewIdentifier(policy, logger), accounts, store, logger), logger
}

func TestIngest_IdempotentReupload(t *testing.T) {
	ctx := context.Background()
	mem := txstore.NewMemory()
	svc, logger := newService(t, identity.PolicyAbort, mem, mem)

	first, err := svc.Ingest(ctx, ingest.Upload{Name: "revolut.csv", Data: statement, UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceRevolut, first.Source)
	assert.Equal(t, revolutparser.AccountKey, first.AccountKey)
	assert.Equal(t, "Revolut", first.DisplayName)
	assert.NotEmpty(t, first.AccountID)
	assert.Equal(t, 2, first.Received)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 0, first.Duplicates)
	assert.True(t, logger.HasEntry("INFO", "Statement ingested"))

	second, err := svc.Ingest(ctx, ingest.Upload{Name: "revolut.csv", Data: statement, UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, first.AccountID, second.AccountID)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Duplicates)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 2, mem.Len())

	linked, err := mem.LinkedAccounts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, revolutparser.AccountKey, linked[0].Key)
}

func TestIngest_OverlappingStatement(t *testing.T) {
	ctx := context.Background()
	mem := txstore.NewMemory()
	svc, _ := newService(t, identity.PolicyAbort, mem, mem)

	_, err := svc.Ingest(ctx, ingest.Upload{Name: "march.csv", Data: statement})
	require.NoError(t, err)

	overlap := revolutCSV(
		"Transferencia,Actual,2024-03-05 09:00:00,2024-03-05 09:00:00,Transferencia desde JUAN,50.00,0.00,EUR,COMPLETADO,124.60",
		"Pago con tarjeta,Actual,2024-03-06 12:00:00,2024-03-06 12:00:00,LIDL,-4.60,0.00,EUR,COMPLETADO,120.00",
	)
	sum, err := svc.Ingest(ctx, ingest.Upload{Name: "march-2.csv", Data: overlap})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Inserted)
	assert.Equal(t, 1, sum.Duplicates)
	assert.Equal(t, 3, mem.Len())
}

type recordingStore struct {
	existingCalls int
	insertCalls   int
	resolveCalls  int
	resolved      models.Account
	existingErr   error
	insertErr     error
}

func (r *recordingStore) ResolveOrCreate(_ context.Context, acc models.Account) (string, error) {
	r.resolveCalls++
	r.resolved = acc
	return "acc-1", nil
}

func (r *recordingStore) Link(context.Context, string, string) error { return nil }

func (r *recordingStore) ExistingIDs(context.Context, []string) (map[string]struct{}, error) {
	r.existingCalls++
	return map[string]struct{}{}, r.existingErr
}

func (r *recordingStore) Insert(_ context.Context, rows []models.Transaction) (int, error) {
	r.insertCalls++
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	return len(rows), nil
}

func TestIngest_InputErrorsNeverReachStore(t *testing.T) {
	duplicated := revolutCSV(
		"Pago con tarjeta,Actual,2024-03-04 18:30:00,,MERCADONA,-25.40,0.00,EUR,COMPLETADO,74.60",
		"Pago con tarjeta,Actual,2024-03-04 19:30:00,,MERCADONA,-25.40,0.00,EUR,COMPLETADO,74.60",
	)
	tests := []struct {
		name   string
		upload ingest.Upload
		target error
	}{
		{"legacy xls", ingest.Upload{Name: "old.xls", Data: []byte{1}}, parsererror.ErrUnrecognizedFormat},
		{"unknown layout", ingest.Upload{Name: "x.csv", Data: []byte("a,b\n1,2\n")}, parsererror.ErrUnrecognizedFormat},
		{"header only", ingest.Upload{Name: "r.csv", Data: revolutCSV()}, parsererror.ErrEmptyResult},
		{"duplicate rows", ingest.Upload{Name: "r.csv", Data: duplicated}, parsererror.ErrDuplicateTransactions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			svc, logger := newService(t, identity.PolicyAbort, store, store)

			sum, err := svc.Ingest(context.Background(), tt.upload)
			assert.Nil(t, sum)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			assert.True(t, parsererror.IsInputError(err))
			assert.Zero(t, store.resolveCalls)
			assert.Zero(t, store.existingCalls)
			assert.Zero(t, store.insertCalls)
			assert.True(t, logger.HasEntry("WARN", "Upload rejected"))
		})
	}
}

func TestIngest_DropPolicyKeepsFirstCopy(t *testing.T) {
	duplicated := revolutCSV(
		"Pago con tarjeta,Actual,2024-03-04 18:30:00,,MERCADONA,-25.40,0.00,EUR,COMPLETADO,74.60",
		"Pago con tarjeta,Actual,2024-03-04 19:30:00,,MERCADONA,-25.40,0.00,EUR,COMPLETADO,74.60",
	)
	store := &recordingStore{}
	svc, _ := newService(t, identity.PolicyDrop, store, store)

	sum, err := svc.Ingest(context.Background(), ingest.Upload{Name: "r.csv", Data: duplicated})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Received)
	assert.Equal(t, 1, sum.Inserted)
	assert.Equal(t, models.Account{Key: revolutparser.AccountKey, Source: models.SourceRevolut, DisplayName: "Revolut"}, store.resolved)
}

func TestIngest_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection refused")

	store := &recordingStore{existingErr: boom}
	svc, _ := newService(t, identity.PolicyAbort, store, store)
	_, err := svc.Ingest(context.Background(), ingest.Upload{Name: "r.csv", Data: statement})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, store.insertCalls)

	store = &recordingStore{insertErr: boom}
	svc, _ = newService(t, identity.PolicyAbort, store, store)
	_, err = svc.Ingest(context.Background(), ingest.Upload{Name: "r.csv", Data: statement})
	assert.ErrorIs(t, err, boom)
	assert.False(t, parsererror.IsInputError(err))
	assert.Equal(t, 1, store.insertCalls)
}

func TestPrepare(t *testing.T) {
	svc, _ := newService(t, identity.PolicyAbort, nil, nil)

	batch, err := svc.Prepare(ingest.Upload{Name: "revolut.csv", Data: statement})
	require.NoError(t, err)
	assert.Equal(t, "revolut.csv", batch.File)
	require.Len(t, batch.Transactions, 2)
	for _, tx := range batch.Transactions {
		assert.Len(t, tx.ID, identity.IDLength)
		assert.Equal(t, identity.ID(tx), tx.ID)
	}
	assert.Equal(t, "MERCADONA", batch.Transactions[0].Description)
	assert.Equal(t, "Supermercado", batch.Transactions[0].Category)
}

func TestBatch_Account(t *testing.T) {
	b := ingest.Batch{
		Source:      models.SourceIbercaja,
		AccountKey:  "ibercaja_716552",
		DisplayName: "Conjunta",
		Shared:      true,
	}
	assert.Equal(t, models.Account{
		Key:         "ibercaja_716552",
		Source:      models.SourceIbercaja,
		DisplayName: "Conjunta",
		Shared:      true,
	}, b.Account())
}
