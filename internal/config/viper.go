// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"banka/ingest/internal/identity"
	"banka/ingest/internal/validation"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "BANKA"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	Accounts struct {
		File  string `mapstructure:"file" yaml:"file"`
		Watch bool   `mapstructure:"watch" yaml:"watch"`
	} `mapstructure:"accounts" yaml:"accounts"`

	Rules struct {
		CategoriesFile string `mapstructure:"categories_file" yaml:"categories_file"`
		ExceptionsFile string `mapstructure:"exceptions_file" yaml:"exceptions_file"`
	} `mapstructure:"rules" yaml:"rules"`

	Ingest struct {
		DuplicatePolicy string `mapstructure:"duplicate_policy" yaml:"duplicate_policy"`
		StrictAccounts  bool   `mapstructure:"strict_accounts" yaml:"strict_accounts"`
	} `mapstructure:"ingest" yaml:"ingest"`

	Transfers struct {
		OwnAccounts []string `mapstructure:"own_accounts" yaml:"own_accounts"`
	} `mapstructure:"transfers" yaml:"transfers"`

	Database struct {
		URL string `mapstructure:"url" yaml:"-"` // never serialized
	} `mapstructure:"database" yaml:"database"`
}

// Delimiter returns the validated CSV delimiter.
func (c *Config) Delimiter() rune {
	r, err := validation.ParseDelimiter(c.CSV.Delimiter)
	if err != nil {
		return ','
	}
	return r
}

// DuplicatePolicy returns the validated duplicate policy.
func (c *Config) DuplicatePolicy() identity.Policy {
	p, err := identity.ParsePolicy(c.Ingest.DuplicatePolicy)
	if err != nil {
		return identity.PolicyAbort
	}
	return p
}

// InitializeConfig loads configuration from defaults, the config file and
// BANKA_* environment variables, in increasing priority. An explicit
// configFile must exist; otherwise config.yaml is searched in
// $HOME/.banka, .banka and the working directory.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.banka")
		v.AddConfigPath(".banka")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The database URL is also read from the conventional unprefixed name.
	if err := v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL: %w", err)
	}

	// 4. Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("csv.delimiter", ",")

	v.SetDefault("accounts.file", "accounts.yaml")
	v.SetDefault("accounts.watch", false)

	v.SetDefault("rules.categories_file", "categories.yaml")
	v.SetDefault("rules.exceptions_file", "exceptions.yaml")

	v.SetDefault("ingest.duplicate_policy", string(identity.PolicyAbort))
	v.SetDefault("ingest.strict_accounts", false)

	v.SetDefault("transfers.own_accounts", []string{"Revolut", "Personal", "Conjunta"})

	v.SetDefault("database.url", "")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if _, err := validation.ParseDelimiter(config.CSV.Delimiter); err != nil {
		return fmt.Errorf("csv.delimiter: %w", err)
	}

	if _, err := identity.ParsePolicy(config.Ingest.DuplicatePolicy); err != nil {
		return fmt.Errorf("ingest.duplicate_policy: %w", err)
	}

	for i, name := range config.Transfers.OwnAccounts {
		config.Transfers.OwnAccounts[i] = strings.TrimSpace(name)
	}

	return nil
}
