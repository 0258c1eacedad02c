package txstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"banka/ingest/internal/models"

	"github.com/google/uuid"
)

// Memory keeps accounts and rows in process memory.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]models.Account // by key
	owners   map[string]map[string]struct{}
	rows     map[string]models.Transaction
	order    []string
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]models.Account),
		owners:   make(map[string]map[string]struct{}),
		rows:     make(map[string]models.Transaction),
	}
}

// ResolveOrCreate returns the id of the account with acc.Key, creating it
// with a random id on first sight. The display name and shared flag follow
// the latest upload.
func (m *Memory) ResolveOrCreate(_ context.Context, acc models.Account) (string, error) {
	if acc.Key == "" {
		return "", fmt.Errorf("account key is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.accounts[acc.Key]
	if !ok {
		stored = models.Account{ID: uuid.NewString(), Key: acc.Key, Source: acc.Source}
	}
	stored.DisplayName = acc.DisplayName
	stored.Shared = acc.Shared
	m.accounts[acc.Key] = stored
	return stored.ID, nil
}

// Link records that userID owns accountID.
func (m *Memory) Link(_ context.Context, userID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID(accountID); !ok {
		return fmt.Errorf("link %s: %w", accountID, ErrUnknownAccount)
	}
	set, ok := m.owners[userID]
	if !ok {
		set = make(map[string]struct{})
		m.owners[userID] = set
	}
	set[accountID] = struct{}{}
	return nil
}

func (m *Memory) byID(id string) (models.Account, bool) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return models.Account{}, false
}

// ExistingIDs returns the subset of ids already stored.
func (m *Memory) ExistingIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := m.rows[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// Insert validates every row before storing any. Rows whose id is already
// stored are skipped and not counted.
func (m *Memory) Insert(_ context.Context, rows []models.Transaction) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range rows {
		if tx.ID == "" {
			return 0, ErrMissingID
		}
		if _, ok := m.accounts[tx.AccountKey]; !ok {
			return 0, fmt.Errorf("insert %s: %w %q", tx.ID, ErrUnknownAccount, tx.AccountKey)
		}
	}
	inserted := 0
	for _, tx := range rows {
		if _, ok := m.rows[tx.ID]; ok {
			continue
		}
		m.rows[tx.ID] = tx
		m.order = append(m.order, tx.ID)
		inserted++
	}
	return inserted, nil
}

// Fetch implements Store.
func (m *Memory) Fetch(_ context.Context, accountKeys []string) ([]models.Transaction, error) {
	want := make(map[string]struct{}, len(accountKeys))
	for _, k := range accountKeys {
		want[k] = struct{}{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Transaction
	for _, id := range m.order {
		tx := m.rows[id]
		if _, ok := want[tx.AccountKey]; len(want) > 0 && !ok {
			continue
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// LinkedAccounts implements Store.
func (m *Memory) LinkedAccounts(_ context.Context, userID string) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Account
	for id := range m.owners[userID] {
		if a, ok := m.byID(id); ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Len returns the number of stored rows.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// Close implements Store.
func (m *Memory) Close() {}
