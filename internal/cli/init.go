// Package cli consolidates the initialization steps shared by the
// fintrack binaries: environment loading, logging, configuration, and
// bringing up a loaded record store over the configured backend.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// SetupLogger initializes structured logging for the given component and
// installs it as the process default.
func SetupLogger(component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: component,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Errors are
// ignored; the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting
// the process on failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore builds the configured backend and returns a record store
// loaded from it alongside the backend result. result.Cleanup (when set)
// must run after the store is closed.
func OpenStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*store.Store, *backend.Result, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, err
	}

	st := store.New(store.Config{
		Owner:   cfg.OwnerID,
		Backend: result.Store,
	})
	if err := st.Load(ctx); err != nil {
		st.Close()
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
		return nil, nil, err
	}
	return st, result, nil
}

// CloseStore drains the store and releases backend resources.
func CloseStore(st *store.Store, result *backend.Result, logger *applog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("Store close failed", "error", err)
	}
	if result.Cleanup != nil {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}
}
