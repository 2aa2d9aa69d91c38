// Package paths resolves where bodega keeps its configuration and data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Directory names relative to the working directory.
const (
	DefaultConfigDirName = ".bodega"
	DefaultDataDirName   = ".bodega-db"
	appName              = "bodega"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "BODEGA_CONFIG_DIR"
	EnvDataDir   = "BODEGA_DATA_DIR"
)

// ConfigFileName is the configuration file inside the config directory.
const ConfigFileName = "config.yaml"

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory:
// $XDG_CONFIG_HOME/bodega or ~/.config/bodega on Linux, and
// os.UserConfigDir()/bodega elsewhere.
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// DefaultDataDir returns the platform data directory:
// $XDG_DATA_HOME/bodega or ~/.local/share/bodega on Linux, and the same
// directory as DefaultConfigDir elsewhere.
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	return DefaultConfigDir()
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}

// ResolveConfigDir returns the configuration directory: flag, then
// BODEGA_CONFIG_DIR, then DefaultConfigDir. Explicit values are made
// absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory: flag, then BODEGA_DATA_DIR,
// then the data_dir value from config.yaml, then .bodega-db in the working
// directory.
func ResolveDataDir(flag, configured string) (string, error) {
	for _, v := range []string{flag, os.Getenv(EnvDataDir), configured} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the path of config.yaml in dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}
