// Package parsererror defines the fatal input errors of statement ingestion.
// Every error type matches its sentinel through errors.Is.
package parsererror

import (
	"errors"
	"fmt"
	"strings"

	"banka/ingest/internal/currencyutils"
	"banka/ingest/internal/models"
)

var (
	ErrUnrecognizedFormat    = errors.New("unrecognized statement format")
	ErrAccountNotDetected    = errors.New("account not detected")
	ErrUnrecognizedAccount   = errors.New("unrecognized account")
	ErrMalformedStatement    = errors.New("malformed statement")
	ErrDuplicateTransactions = errors.New("duplicate transactions")
	ErrEmptyResult           = errors.New("no valid transactions")
)

// UnrecognizedFormatError means no decoder accepted the input.
type UnrecognizedFormatError struct {
	FileName string
	Reason   string
}

func (e *UnrecognizedFormatError) Error() string {
	if e.FileName == "" {
		return fmt.Sprintf("%v: %s", ErrUnrecognizedFormat, e.Reason)
	}
	return fmt.Sprintf("%v in '%s': %s", ErrUnrecognizedFormat, e.FileName, e.Reason)
}

func (e *UnrecognizedFormatError) Is(target error) bool { return target == ErrUnrecognizedFormat }

// AccountNotDetectedError means the statement carries no recognizable account identity.
type AccountNotDetectedError struct {
	Source  models.SourceType
	Pattern string
}

func (e *AccountNotDetectedError) Error() string {
	return fmt.Sprintf("%s: %v (expected pattern %s)", e.Source, ErrAccountNotDetected, e.Pattern)
}

func (e *AccountNotDetectedError) Is(target error) bool { return target == ErrAccountNotDetected }

// UnrecognizedAccountError means an account identity was found but is not configured.
type UnrecognizedAccountError struct {
	Source  models.SourceType
	Account string
}

func (e *UnrecognizedAccountError) Error() string {
	return fmt.Sprintf("%s: %v '%s'", e.Source, ErrUnrecognizedAccount, e.Account)
}

func (e *UnrecognizedAccountError) Is(target error) bool { return target == ErrUnrecognizedAccount }

// MalformedStatementError means the expected header or data region is missing.
type MalformedStatementError struct {
	Source models.SourceType
	Reason string
}

func (e *MalformedStatementError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Source, ErrMalformedStatement, e.Reason)
}

func (e *MalformedStatementError) Is(target error) bool { return target == ErrMalformedStatement }

// DuplicateTransactionsError lists every row whose id appears more than once in a batch.
type DuplicateTransactionsError struct {
	Rows []models.Transaction
}

// IDs returns the distinct colliding ids in first-seen order.
func (e *DuplicateTransactionsError) IDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, r := range e.Rows {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		ids = append(ids, r.ID)
	}
	return ids
}

func (e *DuplicateTransactionsError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: %d rows share an id", ErrDuplicateTransactions, len(e.Rows))
	for _, r := range e.Rows {
		fmt.Fprintf(&b, "\n  %s | %s | %s | %s | %s | %s",
			r.ID, r.Day(), currencyutils.FormatAmount(r.Amount), r.Description, r.Account, r.Reference)
	}
	return b.String()
}

func (e *DuplicateTransactionsError) Is(target error) bool {
	return target == ErrDuplicateTransactions
}

// EmptyResultError means decoding produced zero rows.
type EmptyResultError struct {
	FileName string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%v in '%s'", ErrEmptyResult, e.FileName)
}

func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }

// IsInputError reports whether err is one of the local input errors above,
// as opposed to a store or I/O failure.
func IsInputError(err error) bool {
	for _, s := range []error{
		ErrUnrecognizedFormat, ErrAccountNotDetected, ErrUnrecognizedAccount,
		ErrMalformedStatement, ErrDuplicateTransactions, ErrEmptyResult,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
