// Package root contains the root command for the application
package root

import (
	"fmt"

	"banka/ingest/internal/config"
	"banka/ingest/internal/container"
	"banka/ingest/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input  string
	Output string
	Config string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.Nop()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "banka-ingest",
		Short: "A CLI tool to ingest bank statements into a canonical transaction store.",
		Long: `banka-ingest reads Ibercaja, Revolut and Pluxee statements (XLSX or CSV),
normalizes them into canonical transactions with stable ids and categories,
and stores the rows that are not known yet.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to banka-ingest!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return Setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			Teardown()
		},
	}

	// Common flags accessible to all commands
	SharedFlags = CommonFlags{}

	app *container.Container
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file or directory")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file (stdout when empty)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Config, "config", "", "Config file (default searches $HOME/.banka, .banka and .)")
}

// Setup loads .env and the configuration, then builds the container shared
// by every command.
func Setup() error {
	envFile, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.InitializeConfig(SharedFlags.Config)
	if err != nil {
		return err
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	SetContainer(c)

	if envFile != "" {
		Log.Debug("Loaded environment file", logging.F(logging.FieldFile, envFile))
	}
	return nil
}

// Teardown releases the container built by Setup.
func Teardown() {
	if app == nil {
		return
	}
	if err := app.Close(); err != nil {
		Log.WithError(err).Warn("Failed to close container")
	}
}

// SetContainer installs c as the shared container and adopts its logger.
func SetContainer(c *container.Container) {
	app = c
	if c != nil {
		Log = c.GetLogger()
	}
}

// GetContainer returns the shared container, or an error when no command
// set it up.
func GetContainer() (*container.Container, error) {
	if app == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	return app, nil
}
