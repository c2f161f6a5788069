package main

import (
	"context"
	"errors"
	"os"
	"time"

	"brewtrack/internal/amqp"
	"brewtrack/internal/cache"
	"brewtrack/internal/cli"
	"brewtrack/internal/config"
	"brewtrack/internal/log"
	"brewtrack/internal/sheets"
	gsheet "brewtrack/internal/sheets/google"
	"brewtrack/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	janitorInterval = time.Hour
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	boot := cli.SetupLogger("info")
	cfg := cli.MustLoadConfig(boot, (*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)

	logger.Info("Starting brewtrack-worker")

	var ledger sheets.LedgerWriter
	if cfg.LedgerEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		ledger = sheets.NewLogLedger(logger)
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, writing ledger to log")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	lw := worker.NewLedgerWorker(ledger, logger)
	janitor := cache.NewJanitor(logger, lw.Seen())

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close failed", log.FieldError, err)
		}
		stats := lw.Stats()
		logger.Info("Ledger worker stopped",
			"appended", stats.Appended,
			"duplicates", stats.Duplicates,
			"failed", stats.Failed)
	})

	go janitor.Run(ctx, janitorInterval)

	go func() {
		err := amqpClient.Consume(ctx, lw.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
