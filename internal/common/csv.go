// Package common provides the canonical CSV representation of transactions
// and gocsv helpers shared by decoders and commands.
package common

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"banka/ingest/internal/fileutils"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"

	"github.com/gocarina/gocsv"
)

// DefaultDelimiter is used when no delimiter is configured.
const DefaultDelimiter = ','

// sheetReader exposes the rows of a sheet, from a header row on, as a gocsv.CSVReader.
type sheetReader struct {
	rows [][]string
	pos  int
}

func (r *sheetReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *sheetReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.pos:]
	r.pos = len(r.rows)
	return rest, nil
}

// UnmarshalSheet decodes the rows after headerRow into structs whose csv tags
// name the header cells. Rows are padded to the header width and trimmed.
func UnmarshalSheet[TRow any](sheet *models.Sheet, headerRow int) ([]TRow, error) {
	if headerRow < 0 || headerRow >= sheet.Len() {
		return nil, fmt.Errorf("header row %d out of range", headerRow)
	}
	header := sheet.Row(headerRow)
	rows := [][]string{header}
	for i := headerRow + 1; i < sheet.Len(); i++ {
		if sheet.IsBlankRow(i) {
			continue
		}
		row := sheet.Row(i)
		padded := make([]string, len(header))
		copy(padded, row)
		rows = append(rows, padded)
	}

	var out []TRow
	if len(rows) == 1 {
		return out, nil
	}
	if err := gocsv.UnmarshalCSV(&sheetReader{rows: rows}, &out); err != nil {
		return nil, fmt.Errorf("error decoding sheet rows: %w", err)
	}
	return out, nil
}

// WriteTransactions writes transactions in canonical column order.
func WriteTransactions(w io.Writer, transactions []models.Transaction, delimiter rune) error {
	if transactions == nil {
		return fmt.Errorf("cannot write nil transactions to CSV")
	}
	rows := make([]models.CSVRow, len(transactions))
	for i, tx := range transactions {
		rows[i] = tx.ToCSVRow()
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteTransactionsToCSV writes transactions to a CSV file, creating its directory.
func WriteTransactionsToCSV(transactions []models.Transaction, csvFile string, delimiter rune, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	file, err := fileutils.CreateFile(csvFile)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := WriteTransactions(file, transactions, delimiter); err != nil {
		return err
	}
	logger.Info("Wrote transactions to CSV file",
		logging.F(logging.FieldFile, csvFile),
		logging.F(logging.FieldCount, len(transactions)))
	return nil
}

// ReadTransactions reads canonical CSV back into transactions.
func ReadTransactions(r io.Reader, delimiter rune) ([]models.Transaction, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1

	var rows []models.CSVRow
	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}

	out := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		tx, err := row.ToTransaction()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// ReadTransactionsCSV reads a canonical CSV file.
func ReadTransactionsCSV(csvFile string, delimiter rune, logger logging.Logger) ([]models.Transaction, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	file, err := os.Open(csvFile)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	txs, err := ReadTransactions(file, delimiter)
	if err != nil {
		return nil, err
	}
	logger.Debug("Read transactions from CSV file",
		logging.F(logging.FieldFile, csvFile),
		logging.F(logging.FieldCount, len(txs)))
	return txs, nil
}
