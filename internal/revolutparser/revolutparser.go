// Package revolutparser decodes Revolut account statements exported in
// Spanish (CSV or XLSX) into canonical transactions.
package revolutparser

import (
	"errors"

	"banka/ingest/internal/categorizer"
	"banka/ingest/internal/common"
	"banka/ingest/internal/currencyutils"
	"banka/ingest/internal/dateutils"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"
	"banka/ingest/internal/parser"
	"banka/ingest/internal/parsererror"
	"banka/ingest/internal/sequencer"
	"banka/ingest/internal/textutils"

	"github.com/shopspring/decimal"
)

// AccountKey is the stable key of the Revolut account.
const AccountKey = "revolut"

// Header is the exact column header of a Revolut export.
var Header = []string{
	"Tipo", "Producto", "Fecha de inicio", "Fecha de finalización", "Descripción",
	"Importe", "Comisión", "Divisa", "State", "Saldo",
}

// RevolutRow is a single row of a Revolut statement.
type RevolutRow struct {
	Type          string `csv:"Tipo"`
	Product       string `csv:"Producto"`
	StartedDate   string `csv:"Fecha de inicio"`
	CompletedDate string `csv:"Fecha de finalización"`
	Description   string `csv:"Descripción"`
	Amount        string `csv:"Importe"`
	Fee           string `csv:"Comisión"`
	Currency      string `csv:"Divisa"`
	State         string `csv:"State"`
	Balance       string `csv:"Saldo"`
}

// NameSource provides the configured display name of the account.
type NameSource interface {
	RevolutDefaultName() (string, error)
}

// IsRevolut reports whether row 0 of sheet is exactly the Revolut header.
func IsRevolut(sheet *models.Sheet) bool {
	row := sheet.Row(0)
	if len(row) < len(Header) {
		return false
	}
	for i, want := range Header {
		if row[i] != want {
			return false
		}
	}
	for _, extra := range row[len(Header):] {
		if extra != "" {
			return false
		}
	}
	return true
}

// Decoder decodes Revolut statements.
type Decoder struct {
	parser.BaseParser
	names NameSource
}

// NewDecoder creates a Revolut decoder. A nil names source uses "Revolut".
func NewDecoder(names NameSource, cat *categorizer.Categorizer, logger logging.Logger) *Decoder {
	return &Decoder{
		BaseParser: parser.NewBaseParser(logger, cat),
		names:      names,
	}
}

// Source implements parser.Decoder.
func (d *Decoder) Source() models.SourceType {
	return models.SourceRevolut
}

func (d *Decoder) displayName() (string, error) {
	if d.names == nil {
		return string(models.SourceRevolut), nil
	}
	name, err := d.names.RevolutDefaultName()
	if err != nil {
		return "", err
	}
	if name == "" {
		name = string(models.SourceRevolut)
	}
	return name, nil
}

// Decode implements parser.Decoder.
func (d *Decoder) Decode(sheet *models.Sheet) (*parser.Result, error) {
	logger := d.GetLogger().WithField(logging.FieldParser, models.SourceRevolut)

	if !IsRevolut(sheet) {
		return nil, &parsererror.MalformedStatementError{
			Source: models.SourceRevolut,
			Reason: "row 0 is not the Revolut column header",
		}
	}
	display, err := d.displayName()
	if err != nil {
		return nil, err
	}

	rows, err := common.UnmarshalSheet[RevolutRow](sheet, 0)
	if err != nil {
		return nil, &parsererror.MalformedStatementError{Source: models.SourceRevolut, Reason: err.Error()}
	}

	transactions := make([]models.Transaction, 0, len(rows))
	allDateOnly := true
	for i, row := range rows {
		tx, hasTime, err := convertRow(row)
		if err != nil {
			logger.WithError(err).Warn("Skipping Revolut row", logging.F(logging.FieldRow, i+1))
			continue
		}
		allDateOnly = allDateOnly && !hasTime
		tx.Account = display
		tx.AccountKey = AccountKey
		d.Categorize(&tx)
		transactions = append(transactions, tx)
	}

	transactions = d.ApplyExceptions(transactions, models.SourceRevolut)
	sequencer.SortByTimestamp(transactions)
	if allDateOnly {
		sequencer.Forward(transactions)
	}

	logger.Info("Decoded Revolut statement", logging.F(logging.FieldCount, len(transactions)))
	return &parser.Result{
		Transactions: transactions,
		AccountKey:   AccountKey,
		DisplayName:  display,
		Source:       models.SourceRevolut,
	}, nil
}

// convertRow maps a Revolut row onto a canonical transaction. A missing
// balance is taken as zero.
func convertRow(row RevolutRow) (models.Transaction, bool, error) {
	ts, hasTime, err := dateutils.ParseDate(row.StartedDate)
	if err != nil {
		return models.Transaction{}, false, err
	}
	amount, err := currencyutils.ParseAmount(row.Amount)
	if err != nil {
		return models.Transaction{}, false, err
	}
	balance, err := currencyutils.ParseAmount(row.Balance)
	if errors.Is(err, currencyutils.ErrEmptyAmount) {
		balance, err = decimal.Zero, nil
	}
	if err != nil {
		return models.Transaction{}, false, err
	}

	tx := models.Transaction{
		Timestamp:   ts,
		Amount:      amount,
		Description: textutils.NormalizeDescription(row.Description),
		Reference:   models.ReferenceNone,
	}
	tx.SetBalance(balance)
	return tx, hasTime, nil
}
