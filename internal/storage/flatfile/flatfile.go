// Package flatfile keeps each owner's ledger in a CSV file under a data
// directory, with the recurring queue in a companion file.
package flatfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"ledger/internal/core"
	"ledger/internal/storage/record"
)

const (
	ledgerSuffix    = ".csv"
	recurringSuffix = ".recurring.csv"
	metaSuffix      = ".meta.csv"
)

var metaHeader = []string{"max_issued_id"}

// Store implements ledger.Persister, ledger.RecurringPersister and
// ledger.IDWatermark. The watermark lives in a per-owner meta file and only
// grows, so ids of deleted transactions are never handed out again.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Load reads the owner's ledger. A missing file is an empty ledger.
func (s *Store) Load(_ context.Context, owner string) ([]core.Transaction, error) {
	rows, err := s.read(s.path(owner, ledgerSuffix), record.Header)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(rows))
	for i, row := range rows {
		tx, err := record.Decode(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", owner, i+2, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// Save raises the owner's watermark before replacing the ledger file.
func (s *Store) Save(ctx context.Context, owner string, txs []core.Transaction) error {
	var highest int64
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		highest = max(highest, tx.ID)
		rows = append(rows, record.Encode(tx))
	}

	issued, err := s.MaxIssuedID(ctx, owner)
	if err != nil {
		return err
	}
	if highest > issued {
		meta := [][]string{{strconv.FormatInt(highest, 10)}}
		if err := s.write(s.path(owner, metaSuffix), metaHeader, meta); err != nil {
			return err
		}
	}
	return s.write(s.path(owner, ledgerSuffix), record.Header, rows)
}

// MaxIssuedID returns the highest id ever saved for owner, 0 if none.
func (s *Store) MaxIssuedID(_ context.Context, owner string) (int64, error) {
	rows, err := s.read(s.path(owner, metaSuffix), metaHeader)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	id, err := strconv.ParseInt(rows[0][0], 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%s meta: invalid max issued id %q", owner, rows[0][0])
	}
	return id, nil
}

func (s *Store) LoadRecurring(_ context.Context, owner string) ([]core.RecurringTemplate, error) {
	rows, err := s.read(s.path(owner, recurringSuffix), record.TemplateHeader)
	if err != nil {
		return nil, err
	}
	out := make([]core.RecurringTemplate, 0, len(rows))
	for i, row := range rows {
		rt, err := record.DecodeTemplate(row)
		if err != nil {
			return nil, fmt.Errorf("%s recurring line %d: %w", owner, i+2, err)
		}
		out = append(out, rt)
	}
	return out, nil
}

func (s *Store) SaveRecurring(_ context.Context, owner string, items []core.RecurringTemplate) error {
	rows := make([][]string, 0, len(items))
	for _, rt := range items {
		rows = append(rows, record.EncodeTemplate(rt))
	}
	return s.write(s.path(owner, recurringSuffix), record.TemplateHeader, rows)
}

// path escapes owner so that it always names a file inside dir.
func (s *Store) path(owner, suffix string) string {
	return filepath.Join(s.dir, url.PathEscape(owner)+suffix)
}

func (s *Store) read(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if !slices.Equal(first, header) {
		return nil, fmt.Errorf("read %s: unexpected header %v", filepath.Base(path), first)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// write replaces path atomically through a temp file in the same directory.
func (s *Store) write(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write records: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
