// Package storage persists ledgers in SQLite. The schema is managed with
// embedded golang-migrate migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/storage/record"
)

// SQLiteRepository implements ledger.Persister, ledger.RecurringPersister
// and ledger.IDWatermark. Each Save replaces the owner's rows in one
// database transaction.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer; sqlite serializes writes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("SQLite ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load returns the owner's transactions in id order.
func (r *SQLiteRepository) Load(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, kind, category, amount, currency, description
		FROM transactions
		WHERE owner = ?
		ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			id                                                  int64
			date, kind, category, amount, currency, description string
		)
		if err := rows.Scan(&id, &date, &kind, &category, &amount, &currency, &description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := record.DecodeDetails(date, kind, category, amount, currency, description)
		if err != nil {
			return nil, fmt.Errorf("decode transaction %d: %w", id, err)
		}
		out = append(out, core.Transaction{ID: id, Owner: owner, Details: d})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Save replaces the owner's transactions with txs and raises the owner's id
// watermark to the highest id seen.
func (r *SQLiteRepository) Save(ctx context.Context, owner string, txs []core.Transaction) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE owner = ?`, owner); err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (owner, id, date, kind, category, amount, currency, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		var maxID int64
		for _, t := range txs {
			if _, err := stmt.ExecContext(ctx, owner, t.ID, t.Date.String(), string(t.Kind),
				t.Category, core.FormatAmount(t.Amount), t.Currency, t.Description); err != nil {
				return fmt.Errorf("insert transaction %d: %w", t.ID, err)
			}
			maxID = max(maxID, t.ID)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_owners (owner, max_id, updated_at)
			VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
			ON CONFLICT(owner) DO UPDATE SET
				max_id = MAX(max_id, excluded.max_id),
				updated_at = excluded.updated_at`, owner, maxID); err != nil {
			return fmt.Errorf("update id watermark: %w", err)
		}
		return nil
	})
}

// MaxIssuedID returns the highest id ever saved for owner, 0 for a new owner.
func (r *SQLiteRepository) MaxIssuedID(ctx context.Context, owner string) (int64, error) {
	var maxID int64
	err := r.db.QueryRowContext(ctx, `SELECT max_id FROM ledger_owners WHERE owner = ?`, owner).Scan(&maxID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query id watermark: %w", err)
	}
	return maxID, nil
}

// LoadRecurring returns the owner's recurring queue, head first.
func (r *SQLiteRepository) LoadRecurring(ctx context.Context, owner string) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, kind, category, amount, currency, description
		FROM recurring_templates
		WHERE owner = ?
		ORDER BY position`, owner)
	if err != nil {
		return nil, fmt.Errorf("query recurring templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTemplate
	for rows.Next() {
		var date, kind, category, amount, currency, description string
		if err := rows.Scan(&date, &kind, &category, &amount, &currency, &description); err != nil {
			return nil, fmt.Errorf("scan recurring template: %w", err)
		}
		d, err := record.DecodeDetails(date, kind, category, amount, currency, description)
		if err != nil {
			return nil, fmt.Errorf("decode recurring template %d: %w", len(out), err)
		}
		out = append(out, core.RecurringTemplate{Owner: owner, Details: d})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring templates: %w", err)
	}
	return out, nil
}

// SaveRecurring replaces the owner's recurring queue.
func (r *SQLiteRepository) SaveRecurring(ctx context.Context, owner string, items []core.RecurringTemplate) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recurring_templates WHERE owner = ?`, owner); err != nil {
			return fmt.Errorf("clear recurring templates: %w", err)
		}
		for pos, rt := range items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recurring_templates (owner, position, date, kind, category, amount, currency, description)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				owner, pos, rt.Date.String(), string(rt.Kind), rt.Category,
				core.FormatAmount(rt.Amount), rt.Currency, rt.Description); err != nil {
				return fmt.Errorf("insert recurring template %d: %w", pos, err)
			}
		}
		return nil
	})
}

// Owners lists every owner with at least one saved ledger.
func (r *SQLiteRepository) Owners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT owner FROM ledger_owners ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, owner)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.ErrorContext(ctx, "Rollback failed", log.FieldError, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
