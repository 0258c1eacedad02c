package pluxeeparser

import (
	"errors"
	"testing"
	"time"

	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"
	"banka/ingest/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticNames string

func (s staticNames) PluxeeDefaultName() (string, error) { return string(s), nil }

// statement builds a sheet with the closing balance in G6 and the header in row 9.
func statement(closing string, rows ...[]string) *models.Sheet {
	all := [][]string{
		{},
		{},
		{"", "", "Pluxee Tarjeta Restaurante"},
		{},
		{},
		{"", "", "", "", "", "Saldo disponible", closing},
		{},
		{},
		{"La fecha", "Descripción", "E importe"},
	}
	return models.NewSheet("pluxee.xlsx", append(all, rows...))
}

func TestIsPluxee(t *testing.T) {
	assert.True(t, IsPluxee(statement("0")))
	assert.False(t, IsPluxee(models.NewSheet("x", [][]string{{"Revolut"}})))

	far := make([][]string, 25)
	far[21] = []string{"Pluxee Tarjeta Restaurante"}
	assert.False(t, IsPluxee(models.NewSheet("x", far)))
}

func TestReconstructBalances(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := []models.Transaction{
		{Description: "older", Timestamp: d1, Amount: decimal.NewFromInt(-20)},
		{Description: "newer", Timestamp: d2, Amount: decimal.NewFromInt(-30)},
	}

	ReconstructBalances(rows, decimal.NewFromInt(100))

	require.Len(t, rows, 2)
	assert.Equal(t, "older", rows[0].Description)
	assert.Equal(t, "130.00", rows[0].BalanceString())
	assert.Equal(t, "newer", rows[1].Description)
	assert.Equal(t, "100.00", rows[1].BalanceString())
}

func TestDecode(t *testing.T) {
	logger := logging.NewMockLogger()
	d := NewDecoder(staticNames("Ticket Comida"), DefaultConfig(), nil, logger)

	sheet := statement("45,50",
		[]string{"05/03/2024", "BURGER KING GRAN VIA", "-12,50"},
		[]string{"05/03/2024", "RESTAURANTE", "-7,00"},
		[]string{"04/03/2024", "CASA PACO COMIDAS CASERAS Y MENUS ECONOMICOS DE LUNES A VIERNES", "-15,00"},
		[]string{"04/03/2024", "", "-1,00"},
		[]string{"01/03/2024", "CARGA TARJETA", "160,00"},
		[]string{"01/03/2024", "AJUSTE", "0,00"},
		[]string{"", "TOTAL", ""},
	)

	res, err := d.Decode(sheet)
	require.NoError(t, err)
	assert.Equal(t, AccountKey, res.AccountKey)
	assert.Equal(t, "Ticket Comida", res.DisplayName)
	require.Len(t, res.Transactions, 5)

	txs := res.Transactions
	assert.Equal(t, "CARGA TARJETA", txs[0].Description)
	assert.Equal(t, "Nómina", txs[0].Category)
	assert.Equal(t, "PLUXEE", txs[0].Subcategory)
	assert.Equal(t, "81.00", txs[0].BalanceString())

	assert.Equal(t, "", txs[1].Description)
	assert.Equal(t, "Restaurante", txs[1].Subcategory)
	assert.Equal(t, "80.00", txs[1].BalanceString())

	assert.Equal(t, "Restaurantes", txs[2].Category)
	assert.Equal(t, "CASA PACO COMIDAS CASERAS Y MENUS ECONOMICOS DE LU…", txs[2].Subcategory)
	assert.Equal(t, "65.00", txs[2].BalanceString())

	assert.Equal(t, "RESTAURANTE", txs[3].Description)
	assert.Equal(t, "RESTAURANTE", txs[3].Subcategory)
	assert.Equal(t, "58.00", txs[3].BalanceString())
	assert.Equal(t, "Burger King", txs[4].Subcategory)
	assert.Equal(t, "45.50", txs[4].BalanceString())

	day4 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, day4, txs[1].Timestamp)
	assert.Equal(t, day4.Add(time.Second), txs[2].Timestamp)

	for _, tx := range txs {
		assert.Equal(t, models.ReferenceNone, tx.Reference)
		assert.Equal(t, AccountKey, tx.AccountKey)
	}
}

func TestDecode_UnreadableClosingBalance(t *testing.T) {
	logger := logging.NewMockLogger()
	d := NewDecoder(nil, Config{}, nil, logger)

	res, err := d.Decode(statement("n/a", []string{"04/03/2024", "CAFETERIA SOL", "-3,00"}))
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "0.00", res.Transactions[0].BalanceString())
	assert.Equal(t, "SOL", res.Transactions[0].Subcategory)
	assert.Equal(t, "Pluxee", res.DisplayName)
	assert.True(t, logger.HasEntry("WARN", "Closing balance unreadable, assuming zero"))
}

func TestDecode_Malformed(t *testing.T) {
	d := NewDecoder(nil, DefaultConfig(), nil, nil)

	_, err := d.Decode(models.NewSheet("x", [][]string{{"nothing"}}))
	assert.True(t, errors.Is(err, parsererror.ErrMalformedStatement))

	noHeader := models.NewSheet("x", [][]string{{"Pluxee Tarjeta Restaurante"}, {"a", "b"}})
	_, err = d.Decode(noHeader)
	assert.True(t, errors.Is(err, parsererror.ErrMalformedStatement))
}

func TestDecode_HeaderFallbackScan(t *testing.T) {
	sheet := models.NewSheet("x", [][]string{
		{"Pluxee Tarjeta Restaurante"},
		{"Fecha", "Descripcion", "Importe"},
		{"04/03/2024", "TABERNA EL PATIO", "-9"},
	})
	res, err := NewDecoder(nil, DefaultConfig(), nil, nil).Decode(sheet)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "EL PATIO", res.Transactions[0].Subcategory)
}
