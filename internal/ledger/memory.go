package ledger

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// Memory is an in-process store. It is used by tests and by the memory
// backend; nothing survives Close.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]types.Row

	// FailWrite, when set, is consulted before every write. A non-nil
	// result fails the write for that table without changing it.
	FailWrite func(table string) error
}

var (
	_ types.LedgerStore = (*Memory)(nil)
	_ types.Appender    = (*Memory)(nil)
	_ types.BatchWriter = (*Memory)(nil)
)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]types.Row)}
}

// ReadTable returns a copy of the named table.
func (m *Memory) ReadTable(_ context.Context, name string) ([]types.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyRows(m.tables[name]), nil
}

// WriteTable replaces the named table with a copy of rows.
func (m *Memory) WriteTable(_ context.Context, name string, rows []types.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(name); err != nil {
		return err
	}
	m.tables[name] = copyRows(rows)
	return nil
}

// AppendRows adds a copy of rows to the end of the named table.
func (m *Memory) AppendRows(_ context.Context, name string, rows []types.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(name); err != nil {
		return err
	}
	m.tables[name] = append(m.tables[name], copyRows(rows)...)
	return nil
}

// WriteBatch applies every write in b or none of them.
func (m *Memory) WriteBatch(_ context.Context, b types.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tr := range b.Replace {
		if err := m.fail(tr.Table); err != nil {
			return err
		}
	}
	for _, tr := range b.Append {
		if err := m.fail(tr.Table); err != nil {
			return err
		}
	}
	for _, tr := range b.Replace {
		m.tables[tr.Table] = copyRows(tr.Rows)
	}
	for _, tr := range b.Append {
		m.tables[tr.Table] = append(m.tables[tr.Table], copyRows(tr.Rows)...)
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func (m *Memory) fail(table string) error {
	if m.FailWrite == nil {
		return nil
	}
	return m.FailWrite(table)
}
