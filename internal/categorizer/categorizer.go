// Package categorizer assigns categories to statement rows with an ordered
// pattern table, extracts counterparties and messages for a few categories,
// and applies a data-driven exception layer.
package categorizer

import (
	"fmt"
	"strings"

	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"
	"banka/ingest/internal/textutils"
)

// Analysis is the full outcome of analyzing one description.
type Analysis struct {
	Category     string
	Subcategory  string
	Counterparty string
	Message      string
}

// RuleSource provides rule overrides, typically a store.ConfigStore.
// A nil slice means "keep the built-in table".
type RuleSource interface {
	LoadCategoryRules() ([]models.CategoryRuleConfig, error)
	LoadExceptionRules() ([]models.ExceptionRuleConfig, error)
}

// Categorizer is safe for concurrent use; it is never mutated after construction.
type Categorizer struct {
	rules      []Rule
	exceptions []Exception
	logger     logging.Logger
}

// NewCategorizer creates a categorizer over the given tables.
func NewCategorizer(rules []Rule, exceptions []Exception, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Categorizer{rules: rules, exceptions: exceptions, logger: logger}
}

// NewDefaultCategorizer uses the built-in rule table and exceptions.
func NewDefaultCategorizer(logger logging.Logger) *Categorizer {
	return NewCategorizer(DefaultRules(), DefaultExceptions(), logger)
}

// NewCategorizerFromSource loads rule and exception overrides from src,
// falling back to the built-in tables for whichever is absent.
func NewCategorizerFromSource(src RuleSource, logger logging.Logger) (*Categorizer, error) {
	rules := DefaultRules()
	exceptions := DefaultExceptions()

	cfgs, err := src.LoadCategoryRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load category rules: %w", err)
	}
	if cfgs != nil {
		if rules, err = CompileRules(cfgs); err != nil {
			return nil, err
		}
	}

	exc, err := src.LoadExceptionRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load exception rules: %w", err)
	}
	if exc != nil {
		exceptions = NewExceptions(exc)
	}

	return NewCategorizer(rules, exceptions, logger), nil
}

// Rules returns the ordered rule table.
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Exceptions returns the exception layer.
func (c *Categorizer) Exceptions() []Exception {
	out := make([]Exception, len(c.exceptions))
	copy(out, c.exceptions)
	return out
}

// Categorize returns the category of the first matching rule, or
// models.CategoryOther with an empty subcategory.
func (c *Categorizer) Categorize(description string) (category, subcategory string) {
	desc := strings.ToUpper(description)
	for _, r := range c.rules {
		if r.Pattern.MatchString(desc) {
			return r.Category, r.Subcategory
		}
	}
	return models.CategoryOther, ""
}

// Analyze categorizes description and runs the secondary extraction of its category.
func (c *Categorizer) Analyze(description string) Analysis {
	category, subcategory := c.Categorize(description)
	a := Analysis{Category: category, Subcategory: subcategory}

	switch {
	case category == CategoryBizum:
		a.Counterparty = textutils.ExtractBizumContact(description)
		a.Subcategory = a.Counterparty
		a.Message = textutils.ExtractBizumMessage(description)
	case strings.EqualFold(category, CategoryRestaurants) && subcategory == "":
		a.Subcategory = textutils.ExtractVenue(description)
	case category == CategoryTransfer && subcategory == "":
		a.Counterparty = textutils.ExtractTransferCounterparty(description)
		a.Subcategory = a.Counterparty
	}
	return a
}

// Apply fills the categorization fields of tx from its description.
func (c *Categorizer) Apply(tx *models.Transaction) {
	a := c.Analyze(tx.Description)
	tx.Category = a.Category
	tx.Subcategory = a.Subcategory
	tx.Counterparty = a.Counterparty
	tx.Message = a.Message
}

// ApplyExceptions runs the exception layer over rows. Every matching "set"
// exception overwrites category and subcategory in order; a row matched by
// any "remove" exception is dropped. The input slice is not modified.
func (c *Categorizer) ApplyExceptions(rows []models.Transaction) []models.Transaction {
	kept := make([]models.Transaction, 0, len(rows))
	for _, tx := range rows {
		removed := false
		for _, e := range c.exceptions {
			if !e.Matches(tx) {
				continue
			}
			switch e.Action {
			case models.ExceptionSet:
				tx.Category = e.Category
				tx.Subcategory = e.Subcategory
				c.logger.Debug("Exception rule applied",
					logging.F(logging.FieldRule, e.Name),
					logging.F(logging.FieldCategory, e.Category))
			case models.ExceptionRemove:
				removed = true
			}
		}
		if removed {
			c.logger.Info("Row removed by exception rule",
				logging.F(logging.FieldReason, "exception"),
				logging.F("description", tx.Description),
				logging.F("reference", tx.Reference))
			continue
		}
		kept = append(kept, tx)
	}
	return kept
}
