// Package ibercajaparser decodes Ibercaja "Consulta movimientos de la cuenta"
// exports into canonical transactions.
package ibercajaparser

import (
	"fmt"
	"math"
	"sort"
	"strconv"
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
)

// Marker identifies an Ibercaja statement banner.
const Marker = "CONSULTA MOVIMIENTOS DE LA CUENTA"

// Column names of the movements table.
const (
	ColDate        = "Fecha Operacion"
	ColConcept     = "Concepto"
	ColDescription = "Descripción"
	ColOrder       = "Nº Orden"
	ColAmount      = "Importe"
	ColBalance     = "Saldo"
	ColReference   = "Referencia"
)

// AccountSource resolves masked account numbers to configured accounts.
type AccountSource interface {
	IbercajaBasePattern() (string, error)
	MatchIbercajaSuffix(text string) (string, bool, error)
	AccountInfo(suffix string) (models.AccountInfo, bool, error)
	IbercajaContributors() ([]models.Contributor, error)
}

// ConceptOverride forces a category on rows with an exact operation concept.
type ConceptOverride struct {
	Concept         string
	Category        string
	Subcategory     string
	Uncategorized   bool // only applies when no rule matched the description
	UseContributors bool // refine the subcategory with the configured contributors
}

// Config tunes the Ibercaja decoder.
type Config struct {
	// StrictAccounts rejects suffixes missing from the account configuration
	// instead of naming them "Cuenta <suffix>".
	StrictAccounts    bool
	AccountSearchRows int
	HeaderSearchRows  int
	ConceptOverrides  []ConceptOverride
	// Contributors are checked before the ones from the account configuration.
	Contributors []models.Contributor
}

// DefaultConfig returns the standard Ibercaja decoding rules.
func DefaultConfig() Config {
	return Config{
		AccountSearchRows: 5,
		HeaderSearchRows:  20,
		ConceptOverrides: []ConceptOverride{
			{Concept: "TRANSFERENCIA INTERNA", Category: categorizer.CategoryTransfer, Subcategory: "Interna_Ibercaja", UseContributors: true},
			{Concept: "TRANSFERENCIA OTRA ENTIDAD", Category: categorizer.CategoryTransfer, Subcategory: "Interna", Uncategorized: true},
			{Concept: "LIQUIDACION INTERESES DE LA CUENTA", Category: categorizer.CategoryBank, Subcategory: categorizer.SubcategoryInterests},
			{Concept: "OPERACION PRESTAMO-CREDITO-AVAL", Category: categorizer.CategoryHousing, Subcategory: categorizer.SubcategoryMortgage},
		},
	}
}

// IsIbercaja reports whether one of the first rows carries the statement banner.
func IsIbercaja(sheet *models.Sheet) bool {
	want := textutils.Fold(Marker)
	for r := 0; r < sheet.Len() && r < 5; r++ {
		for _, cell := range sheet.Row(r) {
			if strings.Contains(textutils.Fold(cell), want) {
				return true
			}
		}
	}
	return false
}

// Decoder decodes Ibercaja statements.
type Decoder struct {
	parser.BaseParser
	accounts AccountSource
	cfg      Config
}

// NewDecoder creates an Ibercaja decoder.
func NewDecoder(accounts AccountSource, cfg Config, cat *categorizer.Categorizer, logger logging.Logger) *Decoder {
	def := DefaultConfig()
	if cfg.AccountSearchRows <= 0 {
		cfg.AccountSearchRows = def.AccountSearchRows
	}
	if cfg.HeaderSearchRows <= 0 {
		cfg.HeaderSearchRows = def.HeaderSearchRows
	}
	return &Decoder{
		BaseParser: parser.NewBaseParser(logger, cat),
		accounts:   accounts,
		cfg:        cfg,
	}
}

// Source implements parser.Decoder.
func (d *Decoder) Source() models.SourceType {
	return models.SourceIbercaja
}

// columns holds the resolved column indexes; -1 means absent.
type columns struct {
	date, concept, description, order, amount, balance, reference int
}

func resolveColumns(header []string) (columns, error) {
	h := parser.NewHeader(header)
	idx := func(names ...string) int {
		i, _ := h.Index(names...)
		return i
	}
	c := columns{
		date:        idx(ColDate, "Fecha Operación", "Fecha"),
		concept:     idx(ColConcept),
		description: idx(ColDescription),
		order:       idx(ColOrder, "N Orden", "Nº de Orden", "Numero Orden"),
		amount:      idx(ColAmount),
		balance:     idx(ColBalance),
		reference:   idx(ColReference),
	}
	if c.date < 0 || c.amount < 0 {
		return c, fmt.Errorf("missing %s or %s column", ColDate, ColAmount)
	}
	return c, nil
}

// Decode implements parser.Decoder.
func (d *Decoder) Decode(sheet *models.Sheet) (*parser.Result, error) {
	logger := d.GetLogger().WithField(logging.FieldParser, models.SourceIbercaja)

	// Identify the account from the masked number in the banner
	key, info, err := d.detectAccount(sheet)
	if err != nil {
		return nil, err
	}
	logger = logger.WithFields(logging.F(logging.FieldAccountKey, key), logging.F(logging.FieldAccount, info.Name))

	contributors, err := d.contributors()
	if err != nil {
		return nil, err
	}

	// Locate the movements table
	headerRow, ok := parser.FindRow(sheet, ColDate, d.cfg.HeaderSearchRows)
	if !ok {
		return nil, &parsererror.MalformedStatementError{
			Source: models.SourceIbercaja,
			Reason: fmt.Sprintf("no %q header within the first %d rows", ColDate, d.cfg.HeaderSearchRows),
		}
	}
	cols, err := resolveColumns(sheet.Row(headerRow))
	if err != nil {
		return nil, &parsererror.MalformedStatementError{Source: models.SourceIbercaja, Reason: err.Error()}
	}

	// Convert rows, skipping the ones that cannot be parsed
	var transactions []models.Transaction
	var orders []int
	for r := headerRow + 1; r < sheet.Len(); r++ {
		if sheet.IsBlankRow(r) {
			continue
		}
		row := sheet.Row(r)
		tx, order, err := d.convertRow(row, cols, contributors)
		if err != nil {
			logger.WithError(err).Warn("Skipping Ibercaja row", logging.F(logging.FieldRow, r+1))
			continue
		}
		tx.Account = info.Name
		tx.AccountKey = key
		transactions = append(transactions, tx)
		orders = append(orders, order)
	}

	// Order newest first and rank rows within each day
	sortNewestFirst(transactions, orders)
	transactions = d.ApplyExceptions(transactions, models.SourceIbercaja)
	sequencer.Inverse(transactions)
	sequencer.SortByTimestamp(transactions)

	logger.Info("Decoded Ibercaja statement", logging.F(logging.FieldCount, len(transactions)))
	return &parser.Result{
		Transactions: transactions,
		AccountKey:   key,
		DisplayName:  info.Name,
		Shared:       info.Shared,
		Source:       models.SourceIbercaja,
	}, nil
}

// detectAccount finds the masked account number in the banner rows. The
// returned info always carries a display name.
func (d *Decoder) detectAccount(sheet *models.Sheet) (string, models.AccountInfo, error) {
	base, err := d.accounts.IbercajaBasePattern()
	if err != nil {
		return "", models.AccountInfo{}, err
	}
	for r := 0; r < sheet.Len() && r < d.cfg.AccountSearchRows; r++ {
		suffix, found, err := d.accounts.MatchIbercajaSuffix(sheet.RowText(r))
		if err != nil {
			return "", models.AccountInfo{}, err
		}
		if !found {
			continue
		}

		info, known, err := d.accounts.AccountInfo(suffix)
		if err != nil {
			return "", models.AccountInfo{}, err
		}
		switch {
		case known && info.Name != "":
		case d.cfg.StrictAccounts:
			return "", models.AccountInfo{}, &parsererror.UnrecognizedAccountError{
				Source:  models.SourceIbercaja,
				Account: base + suffix,
			}
		default:
			info = models.AccountInfo{Name: "Cuenta " + suffix, Shared: info.Shared}
		}
		return "ibercaja_" + suffix, info, nil
	}
	return "", models.AccountInfo{}, &parsererror.AccountNotDetectedError{Source: models.SourceIbercaja, Pattern: base}
}

func (d *Decoder) contributors() ([]models.Contributor, error) {
	configured, err := d.accounts.IbercajaContributors()
	if err != nil {
		return nil, err
	}
	out := make([]models.Contributor, 0, len(d.cfg.Contributors)+len(configured))
	out = append(out, d.cfg.Contributors...)
	return append(out, configured...), nil
}

func (d *Decoder) convertRow(row []string, cols columns, contributors []models.Contributor) (models.Transaction, int, error) {
	ts, _, err := dateutils.ParseDate(parser.Cell(row, cols.date))
	if err != nil {
		return models.Transaction{}, 0, err
	}
	amount, err := currencyutils.ParseAmount(parser.Cell(row, cols.amount))
	if err != nil {
		return models.Transaction{}, 0, err
	}
	balance, err := currencyutils.ParseOptionalAmount(parser.Cell(row, cols.balance))
	if err != nil {
		return models.Transaction{}, 0, err
	}

	order := math.MaxInt32
	if raw := parser.Cell(row, cols.order); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Transaction{}, 0, fmt.Errorf("invalid order number %q: %w", raw, err)
		}
		order = int(f)
	}

	reference := parser.Cell(row, cols.reference)
	if reference == "" || strings.EqualFold(reference, "nan") {
		reference = models.ReferenceNone
	}

	tx := models.Transaction{
		Timestamp:   dateutils.StartOfDay(ts),
		Amount:      amount,
		Balance:     balance,
		Description: textutils.NormalizeDescription(parser.Cell(row, cols.description)),
		Reference:   reference,
		Concept:     strings.TrimSpace(parser.Cell(row, cols.concept)),
	}
	d.Categorize(&tx)
	d.applyConceptOverrides(&tx, contributors)
	return tx, order, nil
}

// applyConceptOverrides forces categories by operation concept. For
// overrides that use contributors, the first contributor named in the
// description wins.
func (d *Decoder) applyConceptOverrides(tx *models.Transaction, contributors []models.Contributor) {
	if tx.Concept == "" {
		return
	}
	uncategorized := tx.Category == models.CategoryOther
	for _, o := range d.cfg.ConceptOverrides {
		if tx.Concept != o.Concept || (o.Uncategorized && !uncategorized) {
			continue
		}
		tx.Category = o.Category
		tx.Subcategory = o.Subcategory
		if o.UseContributors {
			for _, c := range contributors {
				if c.NameContains != "" && strings.Contains(strings.ToUpper(tx.Description), strings.ToUpper(c.NameContains)) {
					tx.Subcategory = c.Subcategory
					break
				}
			}
		}
	}
}

// sortNewestFirst orders rows by (date desc, order number asc); a lower
// order number is a more recent operation within the day.
func sortNewestFirst(rows []models.Transaction, orders []int) {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ta, tb := rows[idx[a]].Timestamp, rows[idx[b]].Timestamp
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return orders[idx[a]] < orders[idx[b]]
	})
	sorted := make([]models.Transaction, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}
