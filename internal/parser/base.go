// Package parser provides the base parser functionality and common interfaces.
package parser

import (
	"strings"

	"banka/ingest/internal/categorizer"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"
	"banka/ingest/internal/textutils"
)

// BaseParser provides common functionality for all decoder implementations.
//
// Decoders embed BaseParser to share logging, categorization and header lookup:
//
//	type Decoder struct {
//		parser.BaseParser
//		cfg Config
//	}
type BaseParser struct {
	logger      logging.Logger
	categorizer *categorizer.Categorizer
}

// NewBaseParser creates a BaseParser. Nil arguments fall back to a silent
// logger and the built-in categorization rules.
func NewBaseParser(logger logging.Logger, cat *categorizer.Categorizer) BaseParser {
	if logger == nil {
		logger = logging.Nop()
	}
	if cat == nil {
		cat = categorizer.NewDefaultCategorizer(logger)
	}
	return BaseParser{logger: logger, categorizer: cat}
}

// SetLogger replaces the logger.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// GetLogger returns the current logger instance.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// Categorizer returns the rule engine used by the decoder.
func (b *BaseParser) Categorizer() *categorizer.Categorizer {
	return b.categorizer
}

// Categorize fills the categorization fields of tx.
func (b *BaseParser) Categorize(tx *models.Transaction) {
	b.categorizer.Apply(tx)
}

// ApplyExceptions runs the exception layer and logs how many rows it removed.
func (b *BaseParser) ApplyExceptions(rows []models.Transaction, source models.SourceType) []models.Transaction {
	kept := b.categorizer.ApplyExceptions(rows)
	if removed := len(rows) - len(kept); removed > 0 {
		b.logger.Info("Exception rules removed rows",
			logging.F(logging.FieldSource, source),
			logging.F(logging.FieldCount, removed))
	}
	return kept
}

// Header maps folded column names to their index in a header row.
type Header map[string]int

// NewHeader indexes a header row. Names are folded (lower case, no accents);
// the first occurrence of a repeated name wins.
func NewHeader(row []string) Header {
	h := make(Header, len(row))
	for i, name := range row {
		key := textutils.Fold(name)
		if key == "" {
			continue
		}
		if _, exists := h[key]; !exists {
			h[key] = i
		}
	}
	return h
}

// Index returns the column of the first name present in the header.
func (h Header) Index(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := h[textutils.Fold(n)]; ok {
			return i, true
		}
	}
	return -1, false
}

// IndexContaining returns the leftmost column whose folded name contains one
// of the given fragments.
func (h Header) IndexContaining(fragments ...string) (int, bool) {
	best := -1
	for name, i := range h {
		for _, f := range fragments {
			if strings.Contains(name, textutils.Fold(f)) && (best < 0 || i < best) {
				best = i
			}
		}
	}
	return best, best >= 0
}

// FindRow returns the index of the first row within limit whose cells
// contain a cell equal (folded) to marker.
func FindRow(sheet *models.Sheet, marker string, limit int) (int, bool) {
	want := textutils.Fold(marker)
	for r := 0; r < sheet.Len() && r < limit; r++ {
		for _, cell := range sheet.Row(r) {
			if textutils.Fold(cell) == want {
				return r, true
			}
		}
	}
	return -1, false
}

// Cell returns row[i] or "" when i is out of range.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
