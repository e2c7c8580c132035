// Package cli holds the start-up steps shared by cmd/budget and
// cmd/budget-worker.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/config"
	"budget/internal/log"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the configured level and makes
// it the slog default.
func SetupLogger(cfg *config.Config, out io.Writer, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     cfg.Level(),
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig(out io.Writer) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		boot := log.New(log.Config{Component: log.ComponentApp, Output: out})
		boot.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend builds the store factory for the configured backend.
// Exits the process on failure.
func OpenBackend(logger *log.Logger, cfg *config.Config) *backend.Factory {
	backendCfg, err := backend.FromAppConfig(cfg)
	var factory *backend.Factory
	if err == nil {
		factory, err = backend.NewFactory(backendCfg, logger)
	}
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.StoreBackend)
		os.Exit(1)
	}
	return factory
}

// ConnectAMQP dials the broker when AMQP_URL is set. A nil client means
// events are off; connection failures are logged and tolerated.
func ConnectAMQP(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - ledger events will not be published")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
// cleanup, when set, runs once the signal arrives.
func GracefulShutdown(logger *log.Logger, cleanup func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			if cleanup != nil {
				cleanup()
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
