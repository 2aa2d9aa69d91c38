package ledger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// JSONL stores each table as <dir>/<table>.jsonl, one JSON object per line.
// Replacing a table uses temp file, fsync, rename so a crash leaves either
// the old or the new file. Appends are fsynced before returning.
type JSONL struct {
	dir string
	mu  sync.Mutex
}

var (
	_ types.LedgerStore = (*JSONL)(nil)
	_ types.Appender    = (*JSONL)(nil)
)

// NewJSONL returns a store rooted at dir, creating dir if needed.
func NewJSONL(dir string) (*JSONL, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &JSONL{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *JSONL) Dir() string { return s.dir }

// ReadTable returns the rows of the named table. A missing file is an
// empty table.
func (s *JSONL) ReadTable(_ context.Context, name string) ([]types.Row, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := readJSONL(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return []types.Row{}, nil
	}
	return rows, err
}

// WriteTable atomically replaces the named table.
func (s *JSONL) WriteTable(_ context.Context, name string, rows []types.Row) error {
	if err := checkName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONL(s.path(name), rows)
}

// AppendRows appends rows to the named table.
func (s *JSONL) AppendRows(_ context.Context, name string, rows []types.Row) error {
	if err := checkName(name); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendJSONL(s.path(name), rows)
}

// Close is a no-op; files are closed after every call.
func (s *JSONL) Close() error { return nil }

func (s *JSONL) path(name string) string {
	return filepath.Join(s.dir, name+".jsonl")
}

// readJSONL reads a JSONL file. Empty and malformed lines are skipped.
func readJSONL(path string) ([]types.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := decodeLines(f)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return rows, nil
}

// writeJSONL atomically writes rows to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, rows []types.Row) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	if err := writeLines(w, rows); err != nil {
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// appendJSONL adds rows to the end of a JSONL file, creating it if needed.
func appendJSONL(path string, rows []types.Row) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := writeLines(w, rows); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	return f.Close()
}

func writeLines(w *bufio.Writer, rows []types.Row) error {
	for _, r := range rows {
		b, err := encodeRow(r)
		if err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	return nil
}
