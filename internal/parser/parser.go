package parser

import (
	"banka/ingest/internal/models"
)

// Decoder turns a raw statement sheet into canonical rows for one institution.
//
// Implementations return parsererror values: AccountNotDetected or
// UnrecognizedAccount when the account identity cannot be established and
// MalformedStatement when the header or data region is missing.
type Decoder interface {
	Decode(sheet *models.Sheet) (*Result, error)
	Source() models.SourceType
}

// Result is the output of a decoder. Rows are in ascending timestamp order
// and carry no ids yet.
type Result struct {
	Transactions []models.Transaction
	AccountKey   string
	DisplayName  string
	Shared       bool // the account is held jointly
	Source       models.SourceType
}

// Len returns the number of decoded rows.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Transactions)
}
