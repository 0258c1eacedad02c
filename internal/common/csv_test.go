package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSheetRow struct {
	Date        string `csv:"Fecha"`
	Description string `csv:"Descripción"`
	Amount      string `csv:"Importe"`
}

func sampleTransactions() []models.Transaction {
	withBalance := models.Transaction{
		ID:          "0123456789abcdef0123456789abcdef",
		Timestamp:   time.Date(2024, 3, 4, 0, 0, 1, 0, time.UTC),
		Amount:      decimal.RequireFromString("-12.5"),
		Account:     "Personal",
		Description: "COMPRA MERCADONA, MADRID",
		Category:    "Supermercado",
		Subcategory: "Mercadona",
		Reference:   "REF1",
	}
	withBalance.SetBalance(decimal.RequireFromString("987.5"))

	return []models.Transaction{
		withBalance,
		{
			ID:          "fedcba9876543210fedcba9876543210",
			Timestamp:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.NewFromInt(20),
			Account:     "Revolut",
			Description: "BIZUM ABONO REGALO. ORDEN: ANA",
			Category:    "bizum",
			Subcategory: "ANA",
			Message:     "REGALO",
			Reference:   models.ReferenceNone,
		},
	}
}

func TestUnmarshalSheet(t *testing.T) {
	sheet := models.NewSheet("s", [][]string{
		{"Pluxee Tarjeta Restaurante"},
		{" Fecha ", "Descripción", "Importe"},
		{"04/03/2024", "BAR PEPE", "-8,50"},
		{"", "", ""},
		{"05/03/2024", "CARGA"},
	})

	rows, err := UnmarshalSheet[testSheetRow](sheet, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BAR PEPE", rows[0].Description)
	assert.Equal(t, "-8,50", rows[0].Amount)
	assert.Equal(t, "05/03/2024", rows[1].Date)
	assert.Equal(t, "", rows[1].Amount)

	_, err = UnmarshalSheet[testSheetRow](sheet, 9)
	assert.Error(t, err)

	empty, err := UnmarshalSheet[testSheetRow](sheet, 4)
	assert.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWriteTransactions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, sampleTransactions(), ';'))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp;amount;balance;account;description;category;subcategory;message;reference;id", lines[0])
	assert.Equal(t, "2024-03-04 00:00:01;-12.50;987.50;Personal;COMPRA MERCADONA, MADRID;Supermercado;Mercadona;;REF1;0123456789abcdef0123456789abcdef", lines[1])
	assert.Contains(t, lines[2], "2024-03-05 00:00:00;20.00;;Revolut;")

	assert.Error(t, WriteTransactions(&buf, nil, ','))
}

func TestCSVFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "transactions.csv")
	logger := logging.NewMockLogger()

	require.NoError(t, WriteTransactionsToCSV(sampleTransactions(), path, DefaultDelimiter, logger))
	assert.True(t, logger.HasEntry("INFO", "Wrote transactions to CSV file"))

	got, err := ReadTransactionsCSV(path, DefaultDelimiter, logger)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "COMPRA MERCADONA, MADRID", got[0].Description)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("-12.50")))
	require.NotNil(t, got[0].Balance)
	assert.Equal(t, "987.50", got[0].BalanceString())
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 1, 0, time.UTC), got[0].Timestamp)
	assert.Nil(t, got[1].Balance)
	assert.Equal(t, "REGALO", got[1].Message)
}

func TestReadTransactions_Errors(t *testing.T) {
	_, err := ReadTransactionsCSV(filepath.Join(t.TempDir(), "missing.csv"), ',', nil)
	assert.Error(t, err)

	bad := "timestamp,amount,balance,account,description,category,subcategory,message,reference,id\n" +
		"not-a-date,1,,A,d,c,s,m,r,i\n"
	_, err = ReadTransactions(strings.NewReader(bad), ',')
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(bad, "not-a-date", "2024-01-01", 1)), 0600))
	got, err := ReadTransactionsCSV(path, ',', nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
