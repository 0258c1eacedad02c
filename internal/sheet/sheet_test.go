package sheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"banka/ingest/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows map[string][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for cell, values := range rows {
		v := values
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &v))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRead_XLSX(t *testing.T) {
	data := workbook(t, map[string][]interface{}{
		"A3": {"Consulta movimientos de la cuenta 20859254******716552"},
		"A7": {"Fecha Operacion", "Concepto", "Importe"},
		"A8": {45356, "COMPRA", -12.5},
	})

	s, err := Read("Movimientos.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, "Movimientos.xlsx", s.Name)
	assert.Equal(t, "Consulta movimientos de la cuenta 20859254******716552", s.Cell(2, 0))
	assert.Equal(t, "Fecha Operacion", s.Cell(6, 0))
	assert.Equal(t, "45356", s.Cell(7, 0))
	assert.Equal(t, "-12.5", s.Cell(7, 2))
	assert.Equal(t, "", s.Cell(0, 0))
}

func TestRead_XLSXDateCellIsSerial(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err := Read("fechas.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "45356", s.Cell(0, 0))
}

func TestRead_CSV(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want [][]string
	}{
		{
			name: "comma utf8",
			data: []byte("Tipo,Descripción,Importe\nPago,\"Café, bar\",-3.20\n"),
			want: [][]string{{"Tipo", "Descripción", "Importe"}, {"Pago", "Café, bar", "-3.20"}},
		},
		{
			name: "bom stripped",
			data: append([]byte{0xEF, 0xBB, 0xBF}, []byte("Tipo,Importe\n")...),
			want: [][]string{{"Tipo", "Importe"}},
		},
		{
			name: "semicolon windows-1252",
			data: []byte("Descripci\xf3n;Importe\nCAFETER\xcdA;-1,50\n"),
			want: [][]string{{"Descripción", "Importe"}, {"CAFETERÍA", "-1,50"}},
		},
		{
			name: "ragged rows",
			data: []byte("a;b;c\nx\n"),
			want: [][]string{{"a", "b", "c"}, {"x"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Read("statement.csv", tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Rows)
		})
	}
}

func TestRead_Rejected(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"legacy xls", "old.xls", []byte{0xD0, 0xCF}},
		{"pdf", "extracto.pdf", []byte("%PDF")},
		{"empty csv", "empty.csv", nil},
		{"corrupt xlsx", "broken.xlsx", []byte("not a zip")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.file, tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, parsererror.ErrUnrecognizedFormat))
		})
	}
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', SniffDelimiter("a,b,c\n"))
	assert.Equal(t, ';', SniffDelimiter("\n\na;b;\"c,d,e\"\n"))
	assert.Equal(t, ',', SniffDelimiter("single\n"))
	assert.Equal(t, ',', SniffDelimiter(""))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revolut.csv")
	require.NoError(t, os.WriteFile(path, []byte("Tipo,Importe\n"), 0600))

	s, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "revolut.csv", s.Name)
	assert.Equal(t, 1, s.Len())
}
