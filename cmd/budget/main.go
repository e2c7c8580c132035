package main

import (
	"os"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/menu"
	"budget/internal/services"
)

func main() {
	cli.LoadEnvFile()

	// Logs go to stderr so they never interleave with the menu.
	cfg := cli.LoadAndValidateConfig(os.Stderr)
	logger := cli.SetupLogger(cfg, os.Stderr, log.ComponentApp)

	factory := cli.OpenBackend(logger, cfg)

	var publisher services.Publisher
	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	l, err := ledger.New(cfg.Participants...)
	if err != nil {
		logger.Error("Failed to create ledger", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.GracefulShutdown(logger, nil)
	defer cancel()

	svc := services.NewLedgerService(l, factory, publisher, logger)
	session := menu.NewSession(svc, targetLabel(factory.Type()))
	m := menu.New(os.Stdin, os.Stdout, menu.Options{Logger: logger})

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, session) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Menu stopped", log.FieldError, err)
			os.Exit(1)
		}
	case <-ctx.Done():
		// The menu is blocked on stdin; leave it there.
	}
}

func targetLabel(t backend.BackendType) string {
	switch t {
	case backend.SQLiteBackend:
		return "Database"
	case backend.SheetsBackend:
		return "Sheet"
	case backend.MemoryBackend:
		return "Name"
	default:
		return "Filename"
	}
}
