// Package container provides dependency injection for the ingestion pipeline.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"

	"banka/ingest/internal/accounts"
	"banka/ingest/internal/categorizer"
	"banka/ingest/internal/config"
	"banka/ingest/internal/factory"
	"banka/ingest/internal/ibercajaparser"
	"banka/ingest/internal/identity"
	"banka/ingest/internal/ingest"
	"banka/ingest/internal/logging"
	"banka/ingest/internal/pluxeeparser"
	"banka/ingest/internal/revolutparser"
	"banka/ingest/internal/store"
	"banka/ingest/internal/transfers"
	"banka/ingest/internal/txstore"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	categorizer *categorizer.Categorizer
	decoders    *factory.Registry
	identifier  *identity.Identifier
	transfers   *transfers.Detector
}

// NewContainer creates and wires all application dependencies with a logrus
// logger configured from cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger is NewContainer with an injected logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	configStore := store.NewConfigStore(
		cfg.Accounts.File,
		cfg.Rules.CategoriesFile,
		cfg.Rules.ExceptionsFile,
		logger,
	)

	registry := accounts.NewRegistry(configStore, logger)
	if cfg.Accounts.Watch {
		if path, err := configStore.FindConfigFile(cfg.Accounts.File); err == nil {
			registry.Watch(path)
			logger.Info("Watching accounts file", logging.F(logging.FieldFile, path))
		} else {
			logger.Warn("Accounts file not found, nothing to watch", logging.F(logging.FieldFile, cfg.Accounts.File))
		}
	}

	cat, err := categorizer.NewCategorizerFromSource(configStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load categorization rules: %w", err)
	}

	ibercajaCfg := ibercajaparser.DefaultConfig()
	ibercajaCfg.StrictAccounts = cfg.Ingest.StrictAccounts

	decoders := factory.NewRegistry(logger,
		ibercajaparser.NewDecoder(registry, ibercajaCfg, cat, logger),
		revolutparser.NewDecoder(registry, cat, logger),
		pluxeeparser.NewDecoder(registry, pluxeeparser.DefaultConfig(), cat, logger),
	)

	logger.Debug("Container initialized",
		logging.F("decoders", len(decoders.Sources())),
		logging.F("rules", len(cat.Rules())),
		logging.F("exceptions", len(cat.Exceptions())))

	return &Container{
		logger:      logger,
		config:      cfg,
		categorizer: cat,
		decoders:    decoders,
		identifier:  identity.NewIdentifier(cfg.DuplicatePolicy(), logger),
		transfers:   transfers.NewDetector(cfg.Transfers.OwnAccounts, logger),
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetCategorizer returns the container's categorizer instance.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetDecoders returns the decoder registry.
func (c *Container) GetDecoders() *factory.Registry {
	return c.decoders
}

// GetIdentifier returns the transaction identifier.
func (c *Container) GetIdentifier() *identity.Identifier {
	return c.identifier
}

// GetTransferDetector returns the detector tracking the configured own accounts.
func (c *Container) GetTransferDetector() *transfers.Detector {
	return c.transfers
}

// OpenStore returns the PostgreSQL store when a database URL is configured,
// with its schema applied, and an in-memory store otherwise.
func (c *Container) OpenStore(ctx context.Context) (txstore.Store, error) {
	if c.config.Database.URL == "" {
		c.logger.Info("No database configured, using in-memory store")
		return txstore.NewMemory(), nil
	}
	pg, err := txstore.NewPostgres(ctx, c.config.Database.URL, c.logger)
	if err != nil {
		return nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

// NewIngestService wires an ingestion service over s.
func (c *Container) NewIngestService(s txstore.Store) *ingest.Service {
	return ingest.NewService(c.decoders, c.identifier, s, s, c.logger)
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	c.logger.Debug("Container closed")
	return nil
}
