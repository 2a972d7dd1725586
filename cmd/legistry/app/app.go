// Package app provides the application context and dependency management
// for the legistry CLI: configuration, logging, the canonical store, and
// the jurisdiction metadata registry.
package app

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/internal/store/memory"
	"github.com/civiclens/legistry/internal/store/postgres"
	"github.com/civiclens/legistry/internal/store/sqlite"
	"github.com/civiclens/legistry/pkg/errors"
	"github.com/civiclens/legistry/pkg/jurisdictions"
)

// App represents the legistry application with all its dependencies.
type App struct {
	version string
	commit  string
	date    string

	config *Config
	logger *zerolog.Logger

	// Store and registry are lazy-initialized singletons.
	mu       sync.Mutex
	store    store.Store
	registry *jurisdictions.Registry
}

// New creates a new App instance with the given version information.
func New(version, commit, date string, opts ...Option) (*App, error) {
	a := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "load configuration", err)
	}
	a.config = config

	logger := NewLogger(config)
	a.logger = &logger

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Version returns the version string.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// Store returns the canonical store, opening it lazily from the configured
// backend.
func (a *App) Store(ctx context.Context) (store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		return a.store, nil
	}

	var (
		s   store.Store
		err error
	)
	switch a.config.StoreBackend {
	case "memory":
		s = memory.NewStore()
	case "sqlite":
		s, err = sqlite.NewStore(a.config.StorePath)
	case "postgres":
		s, err = postgres.NewStore(ctx, a.config.PostgresDSN)
	default:
		return nil, errors.NewConfigError("store", "unknown backend "+a.config.StoreBackend, nil)
	}
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// Registry returns the jurisdiction metadata registry, loading it lazily
// from the configured directory.
func (a *App) Registry() (*jurisdictions.Registry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.registry != nil {
		return a.registry, nil
	}

	reg, err := jurisdictions.Load(os.DirFS(a.config.JurisdictionsDir))
	if err != nil {
		return nil, err
	}
	a.registry = reg
	return reg, nil
}

// Close releases the store if one was opened.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// ExitOnError prints an error and exits with status 1. Meant for top-level
// error handling in main.go.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		logger := NewLogger(config)
		a.logger = &logger
		return nil
	}
}

// WithStore sets a custom store (useful for testing).
func WithStore(s store.Store) Option {
	return func(a *App) error {
		a.store = s
		return nil
	}
}

// WithRegistry sets a custom jurisdiction registry (useful for testing).
func WithRegistry(reg *jurisdictions.Registry) Option {
	return func(a *App) error {
		a.registry = reg
		return nil
	}
}
