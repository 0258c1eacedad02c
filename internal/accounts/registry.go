// Package accounts holds the process-wide account naming configuration.
//
// The configuration is loaded on first use, read concurrently without locks,
// and replaced wholesale by Reload. Readers never observe a partially
// updated map.
package accounts

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"banka/ingest/internal/logging"
	"banka/ingest/internal/models"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Loader produces a fresh accounts configuration.
type Loader interface {
	LoadAccounts() (*models.AccountsConfig, error)
}

// snapshot is an immutable view of one loaded configuration.
type snapshot struct {
	cfg     *models.AccountsConfig
	pattern *regexp.Regexp
}

// Registry serves account names and identity patterns.
type Registry struct {
	loader  Loader
	logger  logging.Logger
	current atomic.Pointer[snapshot]
	mu      sync.Mutex // serializes loads
}

// NewRegistry creates a registry backed by loader. Nothing is read until first use.
func NewRegistry(loader Loader, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Registry{loader: loader, logger: logger}
}

// NewStaticRegistry creates a registry over a fixed configuration.
func NewStaticRegistry(cfg *models.AccountsConfig) *Registry {
	return &Registry{loader: staticLoader{cfg}, logger: logging.Nop()}
}

type staticLoader struct{ cfg *models.AccountsConfig }

func (s staticLoader) LoadAccounts() (*models.AccountsConfig, error) { return s.cfg, nil }

func (r *Registry) get() (*snapshot, error) {
	if s := r.current.Load(); s != nil {
		return s, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.current.Load(); s != nil {
		return s, nil
	}
	return r.loadLocked()
}

func (r *Registry) loadLocked() (*snapshot, error) {
	cfg, err := r.loader.LoadAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts configuration: %w", err)
	}
	if cfg == nil {
		cfg = models.DefaultAccountsConfig()
	}
	pattern, err := compileBasePattern(cfg.Ibercaja.BasePattern)
	if err != nil {
		return nil, err
	}
	s := &snapshot{cfg: cfg, pattern: pattern}
	r.current.Store(s)
	r.logger.Info("Accounts configuration loaded",
		logging.F(logging.FieldCount, len(cfg.Ibercaja.Accounts)))
	return s, nil
}

// Reload discards the cached configuration and loads it again.
// On failure the previous configuration stays in place.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.loadLocked()
	return err
}

// compileBasePattern turns "20859254******" into a regexp capturing the
// six-digit suffix that follows the masked run.
func compileBasePattern(base string) (*regexp.Regexp, error) {
	prefix := strings.TrimRight(base, "*")
	if prefix == "" {
		return nil, fmt.Errorf("invalid ibercaja base pattern %q", base)
	}
	re, err := regexp.Compile(regexp.QuoteMeta(prefix) + `\*+(\d{6})`)
	if err != nil {
		return nil, fmt.Errorf("invalid ibercaja base pattern %q: %w", base, err)
	}
	return re, nil
}

// IbercajaBasePattern returns the configured masked prefix, e.g. "20859254******".
func (r *Registry) IbercajaBasePattern() (string, error) {
	s, err := r.get()
	if err != nil {
		return "", err
	}
	return s.cfg.Ibercaja.BasePattern, nil
}

// MatchIbercajaSuffix finds the six-digit suffix of a masked account number in text.
func (r *Registry) MatchIbercajaSuffix(text string) (string, bool, error) {
	s, err := r.get()
	if err != nil {
		return "", false, err
	}
	m := s.pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false, nil
	}
	return m[1], true, nil
}

// IbercajaContributors returns a copy of the configured contributors of
// shared Ibercaja accounts.
func (r *Registry) IbercajaContributors() ([]models.Contributor, error) {
	s, err := r.get()
	if err != nil {
		return nil, err
	}
	return append([]models.Contributor(nil), s.cfg.Ibercaja.Contributors...), nil
}

// AccountInfo returns what is configured for an Ibercaja suffix.
func (r *Registry) AccountInfo(suffix string) (models.AccountInfo, bool, error) {
	s, err := r.get()
	if err != nil {
		return models.AccountInfo{}, false, err
	}
	acc, ok := s.cfg.Ibercaja.Accounts[suffix]
	if !ok {
		return models.AccountInfo{}, false, nil
	}
	return models.AccountInfo{Name: acc.Name, Shared: acc.Shared}, true, nil
}

// RevolutDefaultName returns the display name of the Revolut account.
func (r *Registry) RevolutDefaultName() (string, error) {
	s, err := r.get()
	if err != nil {
		return "", err
	}
	return s.cfg.Revolut.DefaultName, nil
}

// PluxeeDefaultName returns the display name of the Pluxee card account.
func (r *Registry) PluxeeDefaultName() (string, error) {
	s, err := r.get()
	if err != nil {
		return "", err
	}
	return s.cfg.Pluxee.DefaultName, nil
}

// Watch reloads the registry whenever the file at path changes.
func (r *Registry) Watch(path string) {
	v := viper.New()
	v.SetConfigFile(path)
	v.OnConfigChange(func(e fsnotify.Event) {
		r.logger.Info("Accounts file changed, reloading", logging.F(logging.FieldFile, e.Name))
		if err := r.Reload(); err != nil {
			r.logger.WithError(err).Error("Failed to reload accounts configuration")
		}
	})
	v.WatchConfig()
}
