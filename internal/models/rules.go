package models

// CategoryRuleConfig is one entry of an ordered categorization table.
// Pattern is a regular expression matched against the upper-cased description.
type CategoryRuleConfig struct {
	Pattern     string `yaml:"pattern"`
	Category    string `yaml:"category"`
	Subcategory string `yaml:"subcategory,omitempty"`
}

// CategoryRulesConfig is the top-level structure of a categories YAML file.
type CategoryRulesConfig struct {
	Rules []CategoryRuleConfig `yaml:"rules"`
}

// ExceptionAction says what an exception rule does to a matching row.
type ExceptionAction string

const (
	ExceptionSet    ExceptionAction = "set"
	ExceptionRemove ExceptionAction = "remove"
)

// ExceptionRuleConfig is one hard-coded correction or removal.
// Every non-empty condition must hold for the rule to match.
type ExceptionRuleConfig struct {
	Name                string          `yaml:"name"`
	DescriptionContains string          `yaml:"description_contains,omitempty"`
	ReferenceEquals     string          `yaml:"reference_equals,omitempty"`
	ReferenceContains   string          `yaml:"reference_contains,omitempty"`
	ConceptContains     string          `yaml:"concept_contains,omitempty"`
	Action              ExceptionAction `yaml:"action"`
	Category            string          `yaml:"category,omitempty"`
	Subcategory         string          `yaml:"subcategory,omitempty"`
}

// ExceptionRulesConfig is the top-level structure of an exceptions YAML file.
type ExceptionRulesConfig struct {
	Exceptions []ExceptionRuleConfig `yaml:"exceptions"`
}
