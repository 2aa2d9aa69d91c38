// Package ledger provides the Ledger Store backends: named tables of rows
// that are read whole and written whole.
//
// Every backend implements types.LedgerStore. The memory, sqlite and
// postgres backends also implement types.BatchWriter and types.Appender;
// the jsonl backend implements types.Appender only; the s3 backend
// implements neither.
package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// SQLiteFile is the database file the sqlite backend creates in DataDir.
const SQLiteFile = "bodega.db"

// Open validates cfg and opens the backend it names.
func Open(ctx context.Context, cfg types.Config) (types.LedgerStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	switch cfg.Backend {
	case types.BackendMemory:
		return NewMemory(), nil
	case types.BackendJSONL:
		return NewJSONL(dataDir)
	case types.BackendSQLite:
		return OpenSQLite(ctx, filepath.Join(dataDir, SQLiteFile))
	case types.BackendPostgres:
		return OpenPostgres(ctx, cfg.Postgres.DSN)
	case types.BackendS3:
		return OpenS3(ctx, cfg.S3)
	}
	return nil, types.ErrBackendUnknown
}

// checkName rejects table names that cannot be used as a file or object
// name component.
func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}
