package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

//go:embed schema_postgres.sql
var postgresSchema string

var postgresDialect = dialect{
	name:   "postgres",
	schema: postgresSchema,
	bind:   func(n int) string { return "$" + strconv.Itoa(n) },
}

// OpenPostgres connects to dsn and ensures the ledger_rows table exists.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := newSQLStore(ctx, db, postgresDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
