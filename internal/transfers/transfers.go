// Package transfers pairs same-day, equal-magnitude, opposite-sign rows
// between a user's own accounts.
package transfers

import (
	"sort"
	"strings"

	"banka/ingest/internal/currencyutils"
	"banka/ingest/internal/identity"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultOwnAccounts are the display names tracked when none are configured.
var DefaultOwnAccounts = []string{"Revolut", "Personal", "Conjunta"}

// Pair is one matched internal transfer.
type Pair struct {
	Outflow models.Transaction
	Inflow  models.Transaction
}

// Detector finds internal transfers among rows of tracked accounts.
type Detector struct {
	own    map[string]struct{}
	logger logging.Logger
}

// NewDetector tracks the given account display names, or DefaultOwnAccounts
// when none are given.
func NewDetector(own []string, logger logging.Logger) *Detector {
	if logger == nil {
		logger = logging.Nop()
	}
	names := own
	if len(names) == 0 {
		names = DefaultOwnAccounts
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = struct{}{}
		}
	}
	return &Detector{own: set, logger: logger}
}

// NewDetectorForAccounts tracks exactly the display names of the given
// accounts, typically the ones linked to a user.
func NewDetectorForAccounts(accounts []models.Account, logger logging.Logger) *Detector {
	names := make([]string, 0, len(accounts))
	for _, a := range accounts {
		names = append(names, a.DisplayName)
	}
	d := NewDetector(names, logger)
	if len(names) == 0 {
		d.own = map[string]struct{}{}
	}
	return d
}

// OwnAccounts returns the tracked display names in sorted order.
func (d *Detector) OwnAccounts() []string {
	out := make([]string, 0, len(d.own))
	for n := range d.own {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (d *Detector) tracks(tx models.Transaction) bool {
	_, ok := d.own[strings.TrimSpace(tx.Account)]
	return ok
}

type groupKey struct {
	day    string
	amount string
}

// Annotate returns the matched pairs. Within each (day, |amount|) group every
// outflow is paired with the first unused inflow from a different account,
// in encounter order.
func (d *Detector) Annotate(rows []models.Transaction) []Pair {
	var order []groupKey
	groups := make(map[groupKey][]models.Transaction)
	for _, tx := range rows {
		if !d.tracks(tx) || tx.Amount.IsZero() || tx.Day() == "" {
			continue
		}
		key := groupKey{day: tx.Day(), amount: currencyutils.FormatAmount(tx.Amount.Abs())}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx)
	}

	var pairs []Pair
	for _, key := range order {
		var negatives, positives []models.Transaction
		for _, tx := range groups[key] {
			if tx.IsOutflow() {
				negatives = append(negatives, tx)
			} else {
				positives = append(positives, tx)
			}
		}
		used := make([]bool, len(positives))
		for _, neg := range negatives {
			for i, pos := range positives {
				if used[i] || strings.TrimSpace(pos.Account) == strings.TrimSpace(neg.Account) {
					continue
				}
				used[i] = true
				pairs = append(pairs, Pair{Outflow: neg, Inflow: pos})
				break
			}
		}
	}

	d.logger.Debug("Internal transfers detected",
		logging.F(logging.FieldCount, len(pairs)),
		logging.F("rows", len(rows)))
	return pairs
}

// Detect returns the ids of every row that belongs to a matched pair. Rows
// without an id are identified by their content hash.
func (d *Detector) Detect(rows []models.Transaction) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, p := range d.Annotate(rows) {
		ids[rowID(p.Outflow)] = struct{}{}
		ids[rowID(p.Inflow)] = struct{}{}
	}
	return ids
}

func rowID(tx models.Transaction) string {
	if tx.ID != "" {
		return tx.ID
	}
	return identity.ID(tx)
}

// LatestBalances returns, per account display name, the balance of its most
// recent row. A most recent row without balance counts as zero.
func LatestBalances(rows []models.Transaction) map[string]decimal.Decimal {
	latest := make(map[string]models.Transaction)
	for _, tx := range rows {
		name := strings.TrimSpace(tx.Account)
		if name == "" {
			name = "Otra"
		}
		if cur, ok := latest[name]; ok && tx.Timestamp.Before(cur.Timestamp) {
			continue
		}
		latest[name] = tx
	}
	out := make(map[string]decimal.Decimal, len(latest))
	for name, tx := range latest {
		if tx.Balance == nil {
			out[name] = decimal.Zero
			continue
		}
		out[name] = *tx.Balance
	}
	return out
}
