// Command ledgerctl is an interactive shell over one owner's ledger. Undo and
// redo history lives as long as the shell does.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/ledger"
	"ledger/internal/log"
)

func main() {
	owner := flag.String("owner", os.Getenv("USER"), "ledger owner")
	dataBackend := flag.String("backend", "", "storage backend (sqlite, file, memory); defaults to DATA_BACKEND")
	dataDir := flag.String("data-dir", "", "directory of the file backend; defaults to DATA_DIR")
	dbPath := flag.String("db", "", "sqlite database path; defaults to SQLITE_DB_PATH")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stderr).WithComponent(log.ComponentCLI)
	cfg := config.Load()
	if *dataBackend != "" {
		cfg.DataBackend = *dataBackend
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *dbPath != "" {
		cfg.SQLiteDBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(2)
	}

	if err := run(cfg, *owner, logger); err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, owner string, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := ledger.OpenSession(ctx, owner, ledger.Options{
		MaxTransactions:   cfg.MaxTransactions,
		HistoryLimit:      cfg.HistoryLimit,
		RecurringCapacity: cfg.RecurringCapacity,
		Persister:         store.Persister,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("open ledger of %q: %w", owner, err)
	}

	fmt.Fprintf(os.Stdout, "Ledger of %s: %d transactions. Type help for commands.\n", sess.Owner(), sess.Len())
	return newShell(sess, os.Stdout).run(ctx, os.Stdin)
}
