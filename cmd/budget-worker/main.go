package main

import (
	"context"
	"errors"
	"os"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/scheduler"
	"budget/internal/services"
	gsheet "budget/internal/sheets/google"
	"budget/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(os.Stdout)
	logger := cli.SetupLogger(cfg, os.Stdout, log.ComponentWorker)

	logger.Info("Starting budget-worker", log.FieldBackend, cfg.StoreBackend)

	factory := cli.OpenBackend(logger, cfg)

	var publisher services.Publisher
	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	ctx, cancel := cli.GracefulShutdown(logger, nil)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	sched := scheduler.New(logger)
	reminder := services.NewDueReminder(factory, cfg.Participants, publisher, logger)
	if err := sched.AddReminder(gctx, cfg.ReminderCron, reminder); err != nil {
		logger.Error("Failed to schedule reminder", log.FieldError, err)
		os.Exit(1)
	}
	g.Go(func() error { return sched.Run(gctx) })

	switch {
	case amqpClient == nil:
		logger.Info("Skipping Sheets mirror - no AMQP connection")
	case cfg.GoogleSpreadsheetID == "":
		logger.Info("Skipping Sheets mirror - no GOOGLE_SPREADSHEET_ID provided")
	case factory.Type() == backend.SheetsBackend:
		logger.Info("Skipping Sheets mirror - ledger already lives in Sheets")
	default:
		sheet, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror := worker.NewSheetsMirror(factory, sheet, cfg.Participants, logger)
		g.Go(func() error {
			return amqpClient.ConsumeLedgerEvents(gctx, mirror.HandleEvent)
		})
		logger.Info("Sheets mirror started", "sheet", cfg.GoogleSheetName)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
