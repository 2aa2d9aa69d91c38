package types

import "errors"

// Config selects and parameterizes the Ledger Store backend.
type Config struct {
	Backend  string         `json:"backend" yaml:"backend"`
	DataDir  string         `json:"data_dir" yaml:"data_dir"`
	Postgres PostgresConfig `json:"postgres" yaml:"postgres"`
	S3       S3Config       `json:"s3" yaml:"s3"`
}

// PostgresConfig holds connection parameters for the postgres backend.
type PostgresConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

// S3Config holds parameters for the s3 backend. Credentials come from the
// default AWS credential chain.
type S3Config struct {
	Bucket    string `json:"bucket" yaml:"bucket"`
	Region    string `json:"region" yaml:"region"`
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Prefix    string `json:"prefix" yaml:"prefix"`
	PathStyle bool   `json:"path_style" yaml:"path_style"`
}

// Supported backend names.
const (
	BackendJSONL    = "jsonl"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendMemory   = "memory"
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrPostgresDSNMissing = errors.New("postgres backend requires a dsn")
	ErrS3BucketMissing    = errors.New("s3 backend requires a bucket")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendJSONL:    true,
	BackendSQLite:   true,
	BackendPostgres: true,
	BackendS3:       true,
	BackendMemory:   true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. An empty DataDir is valid; file backends
// fall back to the working directory.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.Backend {
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return ErrPostgresDSNMissing
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return ErrS3BucketMissing
		}
	}
	return nil
}
