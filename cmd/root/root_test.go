package root_test

import (
	"path/filepath"
	"testing"

	"banka/ingest/cmd/root"
	"banka/ingest/internal/config"
	"banka/ingest/internal/container"
	"banka/ingest/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "banka-ingest", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "ingest bank statements")
	assert.Contains(t, root.Cmd.Long, "Ibercaja, Revolut and Pluxee")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.NotNil(t, root.Cmd.PersistentPostRun)
}

func TestRootCommand_Flags(t *testing.T) {
	if root.Cmd.PersistentFlags().Lookup("input") == nil {
		root.Init()
	}

	inputFlag := root.Cmd.PersistentFlags().Lookup("input")
	require.NotNil(t, inputFlag)
	assert.Equal(t, "i", inputFlag.Shorthand)

	outputFlag := root.Cmd.PersistentFlags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	configFlag := root.Cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Empty(t, configFlag.Shorthand)
}

func TestSetContainer(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.CSV.Delimiter = ","
	cfg.Accounts.File = filepath.Join(dir, "accounts.yaml")
	cfg.Rules.CategoriesFile = filepath.Join(dir, "categories.yaml")
	cfg.Rules.ExceptionsFile = filepath.Join(dir, "exceptions.yaml")

	logger := logging.NewMockLogger()
	c, err := container.NewContainerWithLogger(cfg, logger)
	require.NoError(t, err)

	root.SetContainer(c)
	t.Cleanup(func() { root.SetContainer(nil) })

	got, err := root.GetContainer()
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Equal(t, logging.Logger(logger), root.Log)

	root.Teardown()
	assert.True(t, logger.HasEntry("DEBUG", "Container closed"))
}

func TestGetContainer_Uninitialized(t *testing.T) {
	root.SetContainer(nil)
	_, err := root.GetContainer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestSetup_UsesEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("BANKA_LOG_LEVEL", "warn")
	t.Setenv("BANKA_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Chdir(dir)
	t.Cleanup(func() { root.SetContainer(nil) })

	require.NoError(t, root.Setup())
	c, err := root.GetContainer()
	require.NoError(t, err)
	assert.Equal(t, "warn", c.GetConfig().Log.Level)
	assert.Empty(t, c.GetConfig().Database.URL)
}
