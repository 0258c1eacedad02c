package accounts

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"
	"banka/ingest/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	mu    sync.Mutex
	calls int
	cfgs  []*models.AccountsConfig
	err   error
}

func (l *countingLoader) LoadAccounts() (*models.AccountsConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	i := l.calls - 1
	if i >= len(l.cfgs) {
		i = len(l.cfgs) - 1
	}
	return l.cfgs[i], nil
}

func TestRegistry_LazyLoad(t *testing.T) {
	loader := &countingLoader{cfgs: []*models.AccountsConfig{models.DefaultAccountsConfig()}}
	r := NewRegistry(loader, logging.NewMockLogger())
	assert.Equal(t, 0, loader.calls)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name, err := r.RevolutDefaultName()
			assert.NoError(t, err)
			assert.Equal(t, "Revolut", name)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, loader.calls)
}

func TestRegistry_Reload(t *testing.T) {
	second := models.DefaultAccountsConfig()
	second.Ibercaja.Accounts["716650"] = models.IbercajaAccount{Name: "Nómina"}
	loader := &countingLoader{cfgs: []*models.AccountsConfig{models.DefaultAccountsConfig(), second}}
	r := NewRegistry(loader, nil)

	info, ok, err := r.AccountInfo("716650")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Personal", info.Name)

	require.NoError(t, r.Reload())
	info, _, _ = r.AccountInfo("716650")
	assert.Equal(t, "Nómina", info.Name)
}

func TestRegistry_ReloadFailureKeepsPrevious(t *testing.T) {
	loader := &countingLoader{cfgs: []*models.AccountsConfig{models.DefaultAccountsConfig()}}
	r := NewRegistry(loader, nil)
	_, err := r.PluxeeDefaultName()
	require.NoError(t, err)

	loader.err = errors.New("disk gone")
	assert.Error(t, r.Reload())

	name, err := r.PluxeeDefaultName()
	require.NoError(t, err)
	assert.Equal(t, "Pluxee", name)
}

func TestRegistry_MatchIbercajaSuffix(t *testing.T) {
	r := NewStaticRegistry(models.DefaultAccountsConfig())

	tests := []struct {
		text   string
		suffix string
		found  bool
	}{
		{"Cuenta: 20859254******716552 EUR", "716552", true},
		{"20859254**********123456", "123456", true},
		{"ES12 3456 7890", "", false},
		{"20859254716552", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			suffix, found, err := r.MatchIbercajaSuffix(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.suffix, suffix)
		})
	}
}

func TestRegistry_AccountInfo(t *testing.T) {
	r := NewStaticRegistry(models.DefaultAccountsConfig())

	info, ok, err := r.AccountInfo("716552")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.AccountInfo{Name: "Conjunta", Shared: true}, info)

	_, ok, err = r.AccountInfo("999999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_ContributorsAreCopied(t *testing.T) {
	cfg := models.DefaultAccountsConfig()
	cfg.Ibercaja.Contributors = []models.Contributor{
		{NameContains: "ANA GIL", Subcategory: "Aportacion_Conjunta_Ana"},
	}
	r := NewStaticRegistry(cfg)

	got, err := r.IbercajaContributors()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Aportacion_Conjunta_Ana", got[0].Subcategory)

	got[0].Subcategory = "changed"
	again, err := r.IbercajaContributors()
	require.NoError(t, err)
	assert.Equal(t, "Aportacion_Conjunta_Ana", again[0].Subcategory)
}

func TestRegistry_WatchReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	write := func(name string) {
		content := "revolut:\n  default_name: " + name + "\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
	write("One")

	logger := logging.NewMockLogger()
	r := NewRegistry(store.NewConfigStore(path, "", "", logger), logger)
	name, err := r.RevolutDefaultName()
	require.NoError(t, err)
	assert.Equal(t, "One", name)

	r.Watch(path)
	write("Two")

	assert.Eventually(t, func() bool {
		name, err := r.RevolutDefaultName()
		return err == nil && name == "Two"
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, logger.HasEntry("INFO", "Accounts file changed, reloading"))
}

func TestRegistry_InvalidBasePattern(t *testing.T) {
	cfg := models.DefaultAccountsConfig()
	cfg.Ibercaja.BasePattern = "******"
	r := NewStaticRegistry(cfg)

	_, err := r.IbercajaBasePattern()
	assert.Error(t, err)
}
