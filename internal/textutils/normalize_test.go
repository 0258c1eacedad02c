package textutils_test

import (
	"testing"

	"banka/ingest/internal/textutils"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims and collapses", "  COMPRA   TARJ.\tMERCADONA  ", "COMPRA TARJ. MERCADONA"},
		{"nan marker", "nan", ""},
		{"none marker", "None", ""},
		{"empty", "", ""},
		{"control characters", "PAGO\x00 BAR\x07", "PAGO BAR"},
		{"decomposed accents recomposed", "Nómina", "Nómina"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutils.NormalizeDescription(tt.input))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "descripcion", textutils.Fold("Descripción"))
	assert.Equal(t, "fecha de finalizacion", textutils.Fold(" FECHA DE FINALIZACIÓN "))
	assert.Equal(t, "no orden", textutils.Fold("Nº Orden"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", textutils.Truncate("abc", 5, "…"))
	assert.Equal(t, "ab…", textutils.Truncate("abcdef", 2, "…"))
	assert.Equal(t, "ñá…", textutils.Truncate("ñáéí", 2, "…"))
}
