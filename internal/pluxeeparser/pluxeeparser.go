// Package pluxeeparser decodes Pluxee meal-card statements. The export has
// no per-row balance, so balances are rebuilt backward from the closing
// balance printed in the banner.
package pluxeeparser

import (
	"fmt"
	"sort"
	"strings"

	"banka/ingest/internal/categorizer"
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

// AccountKey is the stable key of the Pluxee card account.
const AccountKey = "pluxee"

// Marker identifies a Pluxee statement.
const Marker = "Pluxee Tarjeta Restaurante"

// NameSource provides the configured display name of the card account.
type NameSource interface {
	PluxeeDefaultName() (string, error)
}

// Config describes the Pluxee layout and its forced categories.
type Config struct {
	ScanRows            int
	ScanCols            int
	BalanceRow          int // closing balance cell, G6 by default
	BalanceCol          int
	HeaderRow           int
	CreditCategory      string
	CreditSubcategory   string
	DebitCategory       string
	FallbackSubcategory string
	MaxSubcategoryRunes int
}

// DefaultConfig returns the layout of current Pluxee exports.
func DefaultConfig() Config {
	return Config{
		ScanRows:            20,
		ScanCols:            15,
		BalanceRow:          5,
		BalanceCol:          6,
		HeaderRow:           8,
		CreditCategory:      "Nómina",
		CreditSubcategory:   "PLUXEE",
		DebitCategory:       categorizer.CategoryRestaurants,
		FallbackSubcategory: "Restaurante",
		MaxSubcategoryRunes: 50,
	}
}

// IsPluxee scans the top-left window of the sheet for the product name.
func IsPluxee(sheet *models.Sheet) bool {
	return containsMarker(sheet, DefaultConfig())
}

func containsMarker(sheet *models.Sheet, cfg Config) bool {
	for r := 0; r < sheet.Len() && r < cfg.ScanRows; r++ {
		for c := 0; c < cfg.ScanCols; c++ {
			if strings.Contains(sheet.Cell(r, c), Marker) {
				return true
			}
		}
	}
	return false
}

// Decoder decodes Pluxee statements.
type Decoder struct {
	parser.BaseParser
	names NameSource
	cfg   Config
}

// NewDecoder creates a Pluxee decoder. A zero Config means DefaultConfig.
func NewDecoder(names NameSource, cfg Config, cat *categorizer.Categorizer, logger logging.Logger) *Decoder {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Decoder{
		BaseParser: parser.NewBaseParser(logger, cat),
		names:      names,
		cfg:        cfg,
	}
}

// Source implements parser.Decoder.
func (d *Decoder) Source() models.SourceType {
	return models.SourcePluxee
}

func (d *Decoder) displayName() (string, error) {
	if d.names == nil {
		return string(models.SourcePluxee), nil
	}
	name, err := d.names.PluxeeDefaultName()
	if err != nil {
		return "", err
	}
	if name == "" {
		name = string(models.SourcePluxee)
	}
	return name, nil
}

type columns struct {
	date, description, amount int
}

// locateHeader prefers the configured header row and otherwise takes the
// first row naming both a date and an amount column.
func (d *Decoder) locateHeader(sheet *models.Sheet) (int, columns, bool) {
	try := func(r int) (columns, bool) {
		h := parser.NewHeader(sheet.Row(r))
		date, okDate := h.IndexContaining("fecha")
		amount, okAmount := h.IndexContaining("importe")
		desc, okDesc := h.IndexContaining("descripci")
		if !okDesc {
			desc = -1
		}
		return columns{date: date, description: desc, amount: amount}, okDate && okAmount
	}
	if cols, ok := try(d.cfg.HeaderRow); ok {
		return d.cfg.HeaderRow, cols, true
	}
	for r := 0; r < sheet.Len() && r < d.cfg.ScanRows; r++ {
		if cols, ok := try(r); ok {
			return r, cols, true
		}
	}
	return -1, columns{}, false
}

// Decode implements parser.Decoder.
func (d *Decoder) Decode(sheet *models.Sheet) (*parser.Result, error) {
	logger := d.GetLogger().WithField(logging.FieldParser, models.SourcePluxee)

	// Check if the file format is valid
	if !containsMarker(sheet, d.cfg) {
		return nil, &parsererror.MalformedStatementError{
			Source: models.SourcePluxee,
			Reason: fmt.Sprintf("marker %q not found", Marker),
		}
	}
	display, err := d.displayName()
	if err != nil {
		return nil, err
	}

	// Read the closing balance from its fixed cell
	closing, err := currencyutils.ParseAmount(sheet.Cell(d.cfg.BalanceRow, d.cfg.BalanceCol))
	if err != nil {
		logger.WithError(err).Warn("Closing balance unreadable, assuming zero")
		closing = decimal.Zero
	}

	headerRow, cols, ok := d.locateHeader(sheet)
	if !ok {
		return nil, &parsererror.MalformedStatementError{
			Source: models.SourcePluxee,
			Reason: "no header with Fecha and Importe columns",
		}
	}

	// Convert rows to transactions, dropping empty amounts and undated rows
	var transactions []models.Transaction
	for r := headerRow + 1; r < sheet.Len(); r++ {
		row := sheet.Row(r)
		amount, err := currencyutils.ParseAmount(parser.Cell(row, cols.amount))
		if err != nil || amount.IsZero() {
			continue
		}
		ts, _, err := dateutils.ParseDate(parser.Cell(row, cols.date))
		if err != nil {
			logger.Debug("Dropping Pluxee row without date", logging.F(logging.FieldRow, r+1))
			continue
		}
		tx := models.Transaction{
			Timestamp:   dateutils.StartOfDay(ts),
			Amount:      amount,
			Description: textutils.NormalizeDescription(parser.Cell(row, cols.description)),
			Account:     display,
			AccountKey:  AccountKey,
			Reference:   models.ReferenceNone,
		}
		d.categorize(&tx)
		transactions = append(transactions, tx)
	}

	// Walk back from the closing balance, then spread rows over each day
	transactions = d.ApplyExceptions(transactions, models.SourcePluxee)
	ReconstructBalances(transactions, closing)
	sequencer.Forward(transactions)

	logger.Info("Decoded Pluxee statement",
		logging.F(logging.FieldCount, len(transactions)),
		logging.F("closing_balance", currencyutils.FormatAmount(closing)))
	return &parser.Result{
		Transactions: transactions,
		AccountKey:   AccountKey,
		DisplayName:  display,
		Source:       models.SourcePluxee,
	}, nil
}

// categorize forces card top-ups into the credit category and spending into
// the debit category, keeping a rule subcategory only when it is more
// specific than the category itself.
func (d *Decoder) categorize(tx *models.Transaction) {
	if tx.IsInflow() {
		tx.Category = d.cfg.CreditCategory
		tx.Subcategory = d.cfg.CreditSubcategory
		return
	}
	a := d.Categorizer().Analyze(tx.Description)
	tx.Category = d.cfg.DebitCategory
	switch {
	case a.Subcategory != "" && !strings.EqualFold(a.Subcategory, d.cfg.DebitCategory):
		tx.Subcategory = a.Subcategory
	case tx.Description != "":
		tx.Subcategory = textutils.Truncate(tx.Description, d.cfg.MaxSubcategoryRunes, "…")
	default:
		tx.Subcategory = d.cfg.FallbackSubcategory
	}
}

// ReconstructBalances orders rows newest first (stable within a day), walks
// back from the closing balance with balance[i+1] = balance[i] - amount[i],
// and leaves rows in chronological order.
func ReconstructBalances(rows []models.Transaction, closing decimal.Decimal) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.After(rows[j].Timestamp)
	})
	balance := closing
	for i := range rows {
		rows[i].SetBalance(balance)
		balance = balance.Sub(rows[i].Amount)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
