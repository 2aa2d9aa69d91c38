package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "gsheets", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:   "valid jsonl config",
			config: Config{Backend: BackendJSONL, DataDir: "/tmp/data"},
		},
		{
			name:   "sqlite with empty DataDir is valid at config level",
			config: Config{Backend: BackendSQLite},
		},
		{
			name:    "postgres without dsn",
			config:  Config{Backend: BackendPostgres},
			wantErr: ErrPostgresDSNMissing,
		},
		{
			name:   "postgres with dsn",
			config: Config{Backend: BackendPostgres, Postgres: PostgresConfig{DSN: "postgres://localhost/bodega"}},
		},
		{
			name:    "s3 without bucket",
			config:  Config{Backend: BackendS3, S3: S3Config{Region: "eu-west-1"}},
			wantErr: ErrS3BucketMissing,
		},
		{
			name:   "s3 with bucket",
			config: Config{Backend: BackendS3, S3: S3Config{Bucket: "bodega"}},
		},
		{
			name:   "memory needs nothing else",
			config: Config{Backend: BackendMemory},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
