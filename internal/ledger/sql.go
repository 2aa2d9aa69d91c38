package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// dialect captures the differences between the SQL backends.
type dialect struct {
	name   string
	schema string
	// bind returns the placeholder for the n-th (1-based) parameter.
	bind func(n int) string
}

// SQLStore keeps every table in one ledger_rows relation keyed by table
// name and sequence number. Writes run in a transaction, so WriteTable,
// AppendRows and WriteBatch are all atomic.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

var (
	_ types.LedgerStore = (*SQLStore)(nil)
	_ types.Appender    = (*SQLStore)(nil)
	_ types.BatchWriter = (*SQLStore)(nil)
)

// newSQLStore applies the dialect schema to db.
func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		return nil, fmt.Errorf("applying %s schema: %w", d.name, err)
	}
	return &SQLStore{db: db, d: d}, nil
}

// DB exposes the underlying handle for tests.
func (s *SQLStore) DB() *sql.DB { return s.db }

// ReadTable returns the rows of the named table in sequence order.
func (s *SQLStore) ReadTable(ctx context.Context, name string) ([]types.Row, error) {
	q := "SELECT payload FROM ledger_rows WHERE table_name = " + s.d.bind(1) + " ORDER BY seq"
	rs, err := s.db.QueryContext(ctx, q, name)
	if err != nil {
		return nil, fmt.Errorf("selecting %s: %w", name, err)
	}
	defer func() { _ = rs.Close() }()

	rows := []types.Row{}
	for rs.Next() {
		var payload []byte
		if err := rs.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", name, err)
		}
		row, err := decodeRow(payload)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", name, err)
	}
	return rows, nil
}

// WriteTable replaces the named table.
func (s *SQLStore) WriteTable(ctx context.Context, name string, rows []types.Row) error {
	return s.WriteBatch(ctx, types.Batch{Replace: []types.TableRows{{Table: name, Rows: rows}}})
}

// AppendRows adds rows after the last row of the named table.
func (s *SQLStore) AppendRows(ctx context.Context, name string, rows []types.Row) error {
	return s.WriteBatch(ctx, types.Batch{Append: []types.TableRows{{Table: name, Rows: rows}}})
}

// WriteBatch applies every write in b in one transaction.
func (s *SQLStore) WriteBatch(ctx context.Context, b types.Batch) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, tr := range b.Replace {
		del := "DELETE FROM ledger_rows WHERE table_name = " + s.d.bind(1)
		if _, err = tx.ExecContext(ctx, del, tr.Table); err != nil {
			return fmt.Errorf("clearing %s: %w", tr.Table, err)
		}
		if err = s.insert(ctx, tx, tr.Table, 0, tr.Rows); err != nil {
			return err
		}
	}
	for _, tr := range b.Append {
		var last int64
		q := "SELECT COALESCE(MAX(seq), 0) FROM ledger_rows WHERE table_name = " + s.d.bind(1)
		if err = tx.QueryRowContext(ctx, q, tr.Table).Scan(&last); err != nil {
			return fmt.Errorf("reading %s sequence: %w", tr.Table, err)
		}
		if err = s.insert(ctx, tx, tr.Table, last, tr.Rows); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func (s *SQLStore) insert(ctx context.Context, tx *sql.Tx, table string, after int64, rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO ledger_rows (table_name, seq, payload) VALUES (%s, %s, %s)",
		s.d.bind(1), s.d.bind(2), s.d.bind(3))
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for i, r := range rows {
		payload, err := encodeRow(r)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, table, after+int64(i)+1, string(payload)); err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error { return s.db.Close() }
