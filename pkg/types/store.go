package types

import "context"

// Row is one stored row: a mapping from column name to value. Values are
// strings, json.Number, bool or nil; readers must tolerate any of them.
type Row map[string]any

// LedgerStore is a named-table store with no partial-row update primitive.
// Callers treat every write as a replacement of the whole table.
type LedgerStore interface {
	// ReadTable returns every row of the named table in stored order.
	// A table that does not exist yet yields an empty slice, not an error.
	ReadTable(ctx context.Context, name string) ([]Row, error)

	// WriteTable replaces the named table with rows.
	WriteTable(ctx context.Context, name string, rows []Row) error

	// Close releases backend resources.
	Close() error
}

// Appender is implemented by stores that can append rows to a table
// without rewriting it. Movement ledgers use it when available.
type Appender interface {
	AppendRows(ctx context.Context, name string, rows []Row) error
}

// TableRows pairs a table name with its rows.
type TableRows struct {
	Table string
	Rows  []Row
}

// Batch is a set of table writes that belong to one logical unit.
// Replace entries overwrite their table; Append entries add to it.
type Batch struct {
	Replace []TableRows
	Append  []TableRows
}

// BatchWriter is implemented by stores that can apply a Batch atomically.
type BatchWriter interface {
	WriteBatch(ctx context.Context, b Batch) error
}
