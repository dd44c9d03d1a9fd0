package main

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	logger.Info("Starting ledger-worker")
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("The memory backend is private to each process; the worker will only see empty ledgers")
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sheets, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetPrefix, gsheet.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("Google Sheets client initialized", log.FieldSpreadsheetID, cfg.GoogleSpreadsheetID)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(store.Persister, sheets, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// missed messages are recovered here; failures do not stop the worker
		if err := syncWorker.StartupSync(gctx); err != nil {
			logger.Error("Startup sync finished with errors", log.FieldError, err)
		}
		return nil
	})
	g.Go(func() error {
		return client.ConsumeLedgerChanged(gctx, syncWorker.HandleLedgerChanged)
	})
	return g.Wait()
}
