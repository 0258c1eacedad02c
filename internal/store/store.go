// Package store loads the YAML configuration files of the ingestion pipeline:
// account naming, categorization rules and exception rules.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAccountsFile   = "accounts.yaml"
	DefaultCategoriesFile = "categories.yaml"
	DefaultExceptionsFile = "exceptions.yaml"
)

// ConfigStore resolves and reads the pipeline's YAML files.
// An empty file name means the default name in the standard locations.
type ConfigStore struct {
	AccountsFile   string
	CategoriesFile string
	ExceptionsFile string
	logger         logging.Logger
}

// NewConfigStore creates a store for the given files.
func NewConfigStore(accountsFile, categoriesFile, exceptionsFile string, logger logging.Logger) *ConfigStore {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ConfigStore{
		AccountsFile:   accountsFile,
		CategoriesFile: categoriesFile,
		ExceptionsFile: exceptionsFile,
		logger:         logger,
	}
}

// FindConfigFile looks for a configuration file in standard locations
func (s *ConfigStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join(".banka", filename),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(homeDir, ".banka", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// readYAML resolves name (or fallback) and decodes it into out.
// found is false when the file does not exist anywhere.
func (s *ConfigStore) readYAML(name, fallback string, out interface{}) (path string, found bool, err error) {
	if name == "" {
		name = fallback
	}
	path, err = s.FindConfigFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return name, false, nil
		}
		return name, false, fmt.Errorf("error resolving %s: %w", name, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return path, false, fmt.Errorf("error reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return path, false, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return path, true, nil
}

// LoadAccounts reads the account naming configuration. A missing file yields
// the built-in defaults; missing sections are filled from the defaults too.
func (s *ConfigStore) LoadAccounts() (*models.AccountsConfig, error) {
	var cfg models.AccountsConfig
	path, found, err := s.readYAML(s.AccountsFile, DefaultAccountsFile, &cfg)
	if err != nil {
		return nil, err
	}
	defaults := models.DefaultAccountsConfig()
	if !found {
		s.logger.Warn("Accounts file not found, using defaults", logging.F(logging.FieldFile, path))
		return defaults, nil
	}

	if cfg.Ibercaja.BasePattern == "" {
		cfg.Ibercaja.BasePattern = defaults.Ibercaja.BasePattern
	}
	if cfg.Ibercaja.Accounts == nil {
		cfg.Ibercaja.Accounts = map[string]models.IbercajaAccount{}
	}
	if cfg.Revolut.DefaultName == "" {
		cfg.Revolut.DefaultName = defaults.Revolut.DefaultName
	}
	if cfg.Pluxee.DefaultName == "" {
		cfg.Pluxee.DefaultName = defaults.Pluxee.DefaultName
	}

	s.logger.Debug("Loaded accounts configuration",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(cfg.Ibercaja.Accounts)))
	return &cfg, nil
}

// LoadCategoryRules reads an ordered categorization table.
// A missing file returns nil so the caller keeps its built-in table.
func (s *ConfigStore) LoadCategoryRules() ([]models.CategoryRuleConfig, error) {
	var cfg models.CategoryRulesConfig
	path, found, err := s.readYAML(s.CategoriesFile, DefaultCategoriesFile, &cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.Debug("Categories file not found, using built-in rules", logging.F(logging.FieldFile, path))
		return nil, nil
	}
	for i, r := range cfg.Rules {
		if r.Pattern == "" || r.Category == "" {
			return nil, fmt.Errorf("%s: rule %d needs both pattern and category", path, i)
		}
	}
	s.logger.Debug("Loaded category rules",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(cfg.Rules)))
	return cfg.Rules, nil
}

// LoadExceptionRules reads the exception layer.
// A missing file returns nil so the caller keeps its built-in list.
func (s *ConfigStore) LoadExceptionRules() ([]models.ExceptionRuleConfig, error) {
	var cfg models.ExceptionRulesConfig
	path, found, err := s.readYAML(s.ExceptionsFile, DefaultExceptionsFile, &cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.Debug("Exceptions file not found, using built-in exceptions", logging.F(logging.FieldFile, path))
		return nil, nil
	}
	for i, r := range cfg.Exceptions {
		switch r.Action {
		case models.ExceptionSet, models.ExceptionRemove:
		default:
			return nil, fmt.Errorf("%s: exception %d (%s) has unknown action %q", path, i, r.Name, r.Action)
		}
		if r.DescriptionContains == "" && r.ReferenceEquals == "" &&
			r.ReferenceContains == "" && r.ConceptContains == "" {
			return nil, fmt.Errorf("%s: exception %d (%s) has no condition", path, i, r.Name)
		}
	}
	s.logger.Debug("Loaded exception rules",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(cfg.Exceptions)))
	return cfg.Exceptions, nil
}
