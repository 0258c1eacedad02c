package parser

import (
	"testing"

	"banka/ingest/internal/categorizer"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNewBaseParser(t *testing.T) {
	t.Run("with provided logger", func(t *testing.T) {
		mockLog := logging.NewMockLogger()
		base := NewBaseParser(mockLog, nil)
		assert.Equal(t, mockLog, base.GetLogger())
		assert.NotNil(t, base.Categorizer())
	})

	t.Run("with nil logger", func(t *testing.T) {
		base := NewBaseParser(nil, nil)
		assert.NotNil(t, base.GetLogger())
	})

	t.Run("set logger ignores nil", func(t *testing.T) {
		base := NewBaseParser(nil, nil)
		mockLog := logging.NewMockLogger()
		base.SetLogger(mockLog)
		base.SetLogger(nil)
		assert.Equal(t, mockLog, base.GetLogger())
	})
}

func TestBaseParser_CategorizeAndExceptions(t *testing.T) {
	mockLog := logging.NewMockLogger()
	base := NewBaseParser(mockLog, categorizer.NewDefaultCategorizer(mockLog))

	tx := models.Transaction{Description: "COMPRA LIDL"}
	base.Categorize(&tx)
	assert.Equal(t, "Supermercado", tx.Category)

	rows := []models.Transaction{
		tx,
		{Description: "PAGO HIPOTECA", Reference: "6010303307165"},
	}
	kept := base.ApplyExceptions(rows, models.SourceIbercaja)
	assert.Len(t, kept, 1)
	assert.True(t, mockLog.HasEntry("INFO", "Exception rules removed rows"))
}

func TestHeader(t *testing.T) {
	h := NewHeader([]string{"Fecha Operacion", "Concepto", "Descripción", "Nº Orden", "", "Importe", "importe"})

	i, ok := h.Index("descripcion")
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	i, ok = h.Index("Nº Orden")
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	i, ok = h.Index("IMPORTE")
	assert.True(t, ok)
	assert.Equal(t, 5, i, "first occurrence wins")

	_, ok = h.Index("Saldo")
	assert.False(t, ok)

	i, ok = h.IndexContaining("descripci")
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	i, ok = h.IndexContaining("fecha", "concepto")
	assert.True(t, ok)
	assert.Equal(t, 0, i, "leftmost match wins")
}

func TestFindRow(t *testing.T) {
	sheet := models.NewSheet("s", [][]string{
		{"banner"},
		{},
		{"x", " Fecha Operación "},
	})

	r, ok := FindRow(sheet, "fecha operacion", 10)
	assert.True(t, ok)
	assert.Equal(t, 2, r)

	_, ok = FindRow(sheet, "fecha operacion", 2)
	assert.False(t, ok)

	_, ok = FindRow(nil, "x", 5)
	assert.False(t, ok)
}

func TestCellAndResult(t *testing.T) {
	assert.Equal(t, "b", Cell([]string{"a", "b"}, 1))
	assert.Equal(t, "", Cell([]string{"a"}, 3))
	assert.Equal(t, "", Cell(nil, -1))

	var r *Result
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 1, (&Result{Transactions: make([]models.Transaction, 1)}).Len())
}
