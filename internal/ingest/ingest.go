// Package ingest runs one uploaded statement through detection, decoding and
// identification, then persists the rows that are not yet known.
package ingest

import (
	"context"
	"fmt"

	"banka/ingest/internal/factory"
	"banka/ingest/internal/identity"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"
	"banka/ingest/internal/parsererror"
	"banka/ingest/internal/sheet"

	"github.com/google/uuid"
)

// AccountResolver owns account identity and user ownership.
type AccountResolver interface {
	// ResolveOrCreate returns the id of the account with acc.Key, creating it
	// from acc when missing. acc.ID is ignored.
	ResolveOrCreate(ctx context.Context, acc models.Account) (string, error)
	Link(ctx context.Context, userID, accountID string) error
}

// TransactionStore persists canonical rows keyed by id. Insert is
// all-or-nothing and ignores ids that already exist.
type TransactionStore interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	Insert(ctx context.Context, rows []models.Transaction) (int, error)
}

// Upload is one statement file as received from a user.
type Upload struct {
	Name   string
	Data   []byte
	UserID string
}

// Batch is a fully validated statement ready to be stored.
type Batch struct {
	File         string
	Source       models.SourceType
	AccountKey   string
	DisplayName  string
	Shared       bool
	Transactions []models.Transaction
}

// Account describes the account the batch belongs to.
func (b *Batch) Account() models.Account {
	return models.Account{
		Key:         b.AccountKey,
		Source:      b.Source,
		DisplayName: b.DisplayName,
		Shared:      b.Shared,
	}
}

// Summary reports the outcome of one ingestion.
type Summary struct {
	RunID       uuid.UUID
	File        string
	Source      models.SourceType
	AccountKey  string
	AccountID   string
	DisplayName string
	Received    int
	Inserted    int
	Duplicates  int // rows whose id was already stored
}

// Service ingests statements.
type Service struct {
	decoders   *factory.Registry
	identifier *identity.Identifier
	accounts   AccountResolver
	store      TransactionStore
	logger     logging.Logger
}

// NewService creates an ingestion service.
func NewService(decoders *factory.Registry, identifier *identity.Identifier, accounts AccountResolver, store TransactionStore, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	if identifier == nil {
		identifier = identity.NewIdentifier(identity.PolicyAbort, logger)
	}
	return &Service{
		decoders:   decoders,
		identifier: identifier,
		accounts:   accounts,
		store:      store,
		logger:     logger,
	}
}

// Prepare reads, detects, decodes and identifies an upload without touching
// any store. Every input error surfaces here.
func (s *Service) Prepare(up Upload) (*Batch, error) {
	sh, err := sheet.Read(up.Name, up.Data)
	if err != nil {
		return nil, err
	}
	res, err := s.decoders.Decode(sh)
	if err != nil {
		return nil, err
	}
	if res.Len() == 0 {
		return nil, &parsererror.EmptyResultError{FileName: up.Name}
	}
	rows, err := s.identifier.Identify(res.Transactions)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &parsererror.EmptyResultError{FileName: up.Name}
	}
	return &Batch{
		File:         up.Name,
		Source:       res.Source,
		AccountKey:   res.AccountKey,
		DisplayName:  res.DisplayName,
		Shared:       res.Shared,
		Transactions: rows,
	}, nil
}

// Ingest prepares an upload, resolves its account, links it to the user and
// inserts the rows whose ids are not stored yet.
func (s *Service) Ingest(ctx context.Context, up Upload) (*Summary, error) {
	runID := uuid.New()
	logger := s.logger.WithFields(
		logging.F(logging.FieldRunID, runID.String()),
		logging.F(logging.FieldFile, up.Name))

	batch, err := s.Prepare(up)
	if err != nil {
		logger.WithError(err).Warn("Upload rejected")
		return nil, err
	}
	sum := &Summary{
		RunID:       runID,
		File:        batch.File,
		Source:      batch.Source,
		AccountKey:  batch.AccountKey,
		DisplayName: batch.DisplayName,
		Received:    len(batch.Transactions),
	}

	sum.AccountID, err = s.accounts.ResolveOrCreate(ctx, batch.Account())
	if err != nil {
		return nil, fmt.Errorf("resolve account %s: %w", batch.AccountKey, err)
	}
	if up.UserID != "" {
		if err := s.accounts.Link(ctx, up.UserID, sum.AccountID); err != nil {
			return nil, fmt.Errorf("link account %s to user: %w", batch.AccountKey, err)
		}
	}

	ids := make([]string, len(batch.Transactions))
	for i, tx := range batch.Transactions {
		ids[i] = tx.ID
	}
	known, err := s.store.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("look up existing ids: %w", err)
	}
	fresh := make([]models.Transaction, 0, len(batch.Transactions))
	for _, tx := range batch.Transactions {
		if _, ok := known[tx.ID]; !ok {
			fresh = append(fresh, tx)
		}
	}
	sum.Duplicates = len(batch.Transactions) - len(fresh)

	if len(fresh) > 0 {
		sum.Inserted, err = s.store.Insert(ctx, fresh)
		if err != nil {
			return nil, fmt.Errorf("insert transactions: %w", err)
		}
	}

	logger.Info("Statement ingested",
		logging.F(logging.FieldSource, sum.Source),
		logging.F(logging.FieldAccountKey, sum.AccountKey),
		logging.F(logging.FieldCount, sum.Received),
		logging.F(logging.FieldInserted, sum.Inserted),
		logging.F(logging.FieldDuplicates, sum.Duplicates))
	return sum, nil
}
