// Package config loads bodega settings from config.yaml and BODEGA_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/bodega/internal/paths"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

// Config keys.
const (
	KeyBackend      = "backend"
	KeyDataDir      = "data_dir"
	KeyPostgresDSN  = "postgres.dsn"
	KeyS3Bucket     = "s3.bucket"
	KeyS3Region     = "s3.region"
	KeyS3Endpoint   = "s3.endpoint"
	KeyS3Prefix     = "s3.prefix"
	KeyS3PathStyle  = "s3.path_style"
	KeyPasswordHash = "auth.password_hash"
	KeyJWTSecret    = "auth.jwt_secret"
	KeyLogLevel     = "log.level"
	KeyLogFile      = "log.file"
	KeyServeAddr    = "serve.addr"
)

// EnvPrefix prefixes every environment override, e.g. BODEGA_BACKEND or
// BODEGA_S3_BUCKET.
const EnvPrefix = "BODEGA"

// Defaults.
const (
	DefaultBackend   = types.BackendJSONL
	DefaultLogLevel  = "info"
	DefaultServeAddr = ":8080"
)

// Settings is the full configuration.
type Settings struct {
	types.Config `yaml:",inline"`
	Auth         AuthSettings  `yaml:"auth"`
	Log          LogSettings   `yaml:"log"`
	Serve        ServeSettings `yaml:"serve"`
}

// AuthSettings hold the login password hash and the token signing key.
type AuthSettings struct {
	PasswordHash string `yaml:"password_hash"`
	JWTSecret    string `yaml:"jwt_secret"`
}

// LogSettings configure logging.
type LogSettings struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// ServeSettings configure the HTTP API.
type ServeSettings struct {
	Addr string `yaml:"addr"`
}

// Default returns the settings written to a new config.yaml.
func Default() Settings {
	return Settings{
		Config: types.Config{Backend: DefaultBackend},
		Log:    LogSettings{Level: DefaultLogLevel},
		Serve:  ServeSettings{Addr: DefaultServeAddr},
	}
}

// Load reads config.yaml from configDir, creating the directory and a
// default file on first run, and applies environment overrides.
func Load(configDir string) (*Settings, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		def := Default()
		if err := Save(configDir, &def); err != nil {
			return nil, fmt.Errorf("ensure default config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	v := viper.New()
	v.SetDefault(KeyBackend, DefaultBackend)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyServeAddr, DefaultServeAddr)
	for _, k := range []string{KeyDataDir, KeyPostgresDSN, KeyS3Bucket, KeyS3Region, KeyS3Endpoint,
		KeyS3Prefix, KeyPasswordHash, KeyJWTSecret, KeyLogFile} {
		v.SetDefault(k, "")
	}
	v.SetDefault(KeyS3PathStyle, false)
	v.SetConfigName(strings.TrimSuffix(paths.ConfigFileName, filepath.Ext(paths.ConfigFileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	s := &Settings{
		Config: types.Config{
			Backend:  v.GetString(KeyBackend),
			DataDir:  v.GetString(KeyDataDir),
			Postgres: types.PostgresConfig{DSN: v.GetString(KeyPostgresDSN)},
			S3: types.S3Config{
				Bucket:    v.GetString(KeyS3Bucket),
				Region:    v.GetString(KeyS3Region),
				Endpoint:  v.GetString(KeyS3Endpoint),
				Prefix:    v.GetString(KeyS3Prefix),
				PathStyle: v.GetBool(KeyS3PathStyle),
			},
		},
		Auth: AuthSettings{
			PasswordHash: v.GetString(KeyPasswordHash),
			JWTSecret:    v.GetString(KeyJWTSecret),
		},
		Log: LogSettings{
			Level: v.GetString(KeyLogLevel),
			File:  v.GetString(KeyLogFile),
		},
		Serve: ServeSettings{Addr: v.GetString(KeyServeAddr)},
	}
	return s, nil
}

// Save writes s to config.yaml in configDir. The file holds the password
// hash and signing key, so it is readable by the owner only.
func Save(configDir string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := paths.ConfigFile(configDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
