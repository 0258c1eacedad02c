// Package identity computes deterministic transaction ids and enforces
// uniqueness within a batch.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"banka/ingest/internal/currencyutils"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"
	"banka/ingest/internal/parsererror"
)

// IDLength is the number of hex characters kept from the digest.
const IDLength = 32

// Key returns the normalized string an id is derived from.
func Key(tx models.Transaction) string {
	return strings.Join([]string{
		tx.Day(),
		tx.Description,
		tx.Reference,
		currencyutils.FormatAmount(tx.Amount),
		tx.BalanceString(),
		tx.Account,
	}, "|")
}

// ID returns the deterministic id of a transaction.
func ID(tx models.Transaction) string {
	sum := sha256.Sum256([]byte(Key(tx)))
	return hex.EncodeToString(sum[:])[:IDLength]
}

// Assign sets the ID of every row in place.
func Assign(rows []models.Transaction) {
	for i := range rows {
		rows[i].ID = ID(rows[i])
	}
}

// FindDuplicates returns every row whose id occurs more than once, grouped
// by id in first-seen order. Rows must already carry ids.
func FindDuplicates(rows []models.Transaction) []models.Transaction {
	count := make(map[string]int, len(rows))
	for _, r := range rows {
		count[r.ID]++
	}
	var order []string
	groups := make(map[string][]models.Transaction)
	for _, r := range rows {
		if count[r.ID] < 2 {
			continue
		}
		if _, ok := groups[r.ID]; !ok {
			order = append(order, r.ID)
		}
		groups[r.ID] = append(groups[r.ID], r)
	}
	var out []models.Transaction
	for _, id := range order {
		out = append(out, groups[id]...)
	}
	return out
}

// CheckDuplicates returns a DuplicateTransactionsError listing the colliding
// rows, or nil.
func CheckDuplicates(rows []models.Transaction) error {
	if dups := FindDuplicates(rows); len(dups) > 0 {
		return &parsererror.DuplicateTransactionsError{Rows: dups}
	}
	return nil
}

// Policy decides what happens to rows that share an id within a batch.
type Policy string

const (
	// PolicyAbort rejects the whole batch.
	PolicyAbort Policy = "abort"
	// PolicyDrop keeps the first occurrence of each id.
	PolicyDrop Policy = "drop"
)

// ParsePolicy validates a policy name. The empty string means PolicyAbort.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicyDrop:
		return PolicyDrop, nil
	default:
		return "", fmt.Errorf("invalid duplicate policy %q (want abort or drop)", s)
	}
}

// Identifier assigns ids to a decoded batch and applies a duplicate policy.
type Identifier struct {
	policy Policy
	logger logging.Logger
}

// NewIdentifier creates an identifier. An empty policy means PolicyAbort.
func NewIdentifier(policy Policy, logger logging.Logger) *Identifier {
	if policy == "" {
		policy = PolicyAbort
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Identifier{policy: policy, logger: logger}
}

// Policy returns the configured duplicate policy.
func (i *Identifier) Policy() Policy {
	return i.policy
}

// Identify returns a copy of rows with ids set. Under PolicyAbort any
// collision is a DuplicateTransactionsError; under PolicyDrop later copies
// are removed.
func (i *Identifier) Identify(rows []models.Transaction) ([]models.Transaction, error) {
	out := make([]models.Transaction, len(rows))
	copy(out, rows)
	Assign(out)

	dups := FindDuplicates(out)
	if len(dups) == 0 {
		return out, nil
	}
	if i.policy == PolicyAbort {
		err := &parsererror.DuplicateTransactionsError{Rows: dups}
		i.logger.Error("Duplicate transaction ids in batch",
			logging.F(logging.FieldDuplicates, len(err.IDs())),
			logging.F(logging.FieldCount, len(dups)))
		return nil, err
	}

	seen := make(map[string]struct{}, len(out))
	kept := out[:0]
	for _, tx := range out {
		if _, ok := seen[tx.ID]; ok {
			i.logger.Warn("Dropped duplicate transaction",
				logging.F(logging.FieldTransactionID, tx.ID),
				logging.F("day", tx.Day()),
				logging.F("description", tx.Description))
			continue
		}
		seen[tx.ID] = struct{}{}
		kept = append(kept, tx)
	}
	return kept, nil
}
