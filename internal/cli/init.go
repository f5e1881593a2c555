// Package cli provides common CLI initialization utilities for
// cmd/beruang.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"beruang/internal/config"
	"beruang/internal/ledger"
	"beruang/internal/log"
)

// SetupLogger initializes structured logging to stderr at the given level
// and sets it as the default logger. Unknown levels fall back to info.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	if lvl, err := log.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// Header builds the ledger column names from configuration.
func Header(cfg *config.Config) ledger.Header {
	return ledger.Header{
		Date:     cfg.HeaderDate,
		Details:  cfg.HeaderDetails,
		Category: cfg.HeaderCategory,
		Account:  cfg.HeaderAccount,
		Currency: cfg.HeaderCurrency,
		Cost:     cfg.HeaderCost,
	}
}

// CommandContext returns a context cancelled on SIGINT, SIGTERM or after
// timeout, whichever comes first.
func CommandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
