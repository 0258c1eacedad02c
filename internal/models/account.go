package models

// SourceType tags the institution a statement comes from.
type SourceType string

const (
	SourceIbercaja SourceType = "Ibercaja"
	SourceRevolut  SourceType = "Revolut"
	SourcePluxee   SourceType = "Pluxee"
)

// Account is a resolved statement owner. Key is stable across uploads.
type Account struct {
	ID          string
	Key         string
	Source      SourceType
	DisplayName string
	Shared      bool
}

// AccountInfo is what the account configuration knows about a masked number.
type AccountInfo struct {
	Name   string
	Shared bool
}

// AccountsConfig mirrors accounts.yaml.
type AccountsConfig struct {
	Ibercaja IbercajaAccounts `yaml:"ibercaja"`
	Revolut  DefaultAccount   `yaml:"revolut"`
	Pluxee   DefaultAccount   `yaml:"pluxee"`
}

// IbercajaAccounts maps 6-digit account suffixes to their configuration.
type IbercajaAccounts struct {
	BasePattern  string                     `yaml:"base_pattern"`
	Accounts     map[string]IbercajaAccount `yaml:"accounts"`
	Contributors []Contributor              `yaml:"contributors"`
}

// Contributor names whoever pays into a shared account. Internal transfers
// whose description contains NameContains get Subcategory.
type Contributor struct {
	NameContains string `yaml:"name_contains"`
	Subcategory  string `yaml:"subcategory"`
}

// IbercajaAccount is a single configured Ibercaja account.
type IbercajaAccount struct {
	Name   string `yaml:"name"`
	Shared bool   `yaml:"shared"`
}

// DefaultAccount holds the display name used for card-based sources.
type DefaultAccount struct {
	DefaultName string `yaml:"default_name"`
}

// DefaultAccountsConfig is used when no accounts.yaml can be found.
func DefaultAccountsConfig() *AccountsConfig {
	return &AccountsConfig{
		Ibercaja: IbercajaAccounts{
			BasePattern: "20859254******",
			Accounts: map[string]IbercajaAccount{
				"716552": {Name: "Conjunta", Shared: true},
				"716650": {Name: "Personal", Shared: false},
			},
		},
		Revolut: DefaultAccount{DefaultName: "Revolut"},
		Pluxee:  DefaultAccount{DefaultName: "Pluxee"},
	}
}
