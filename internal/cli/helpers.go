package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bodega/internal/config"
	"github.com/mesh-intelligence/bodega/internal/ledger"
	"github.com/mesh-intelligence/bodega/internal/logging"
	"github.com/mesh-intelligence/bodega/internal/paths"
	"github.com/mesh-intelligence/bodega/internal/session"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

var (
	errPasswordRequired = errors.New("password required (--password or $" + EnvPassword + ")")
	errNotInitialized   = errors.New("bodega is not initialized; run bodega init")
)

// workspace is the resolved configuration plus whatever a command opened.
type workspace struct {
	configDir string
	settings  *config.Settings
	// configured is data_dir as written in config.yaml, before resolution.
	configured string
	logger     *slog.Logger
	store      types.LedgerStore
	sess       *session.Session
}

// loadWorkspace resolves directories and reads config.yaml.
func (a *app) loadWorkspace(cmd *cobra.Command) (*workspace, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	s, err := config.Load(configDir)
	if err != nil {
		return nil, sysError(err)
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, s.DataDir)
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	configured := s.DataDir
	s.DataDir = dataDir
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", paths.ConfigFile(configDir), err)
	}
	logger, err := a.logger(cmd, s.Log.Level)
	if err != nil {
		return nil, err
	}
	return &workspace{configDir: configDir, settings: s, configured: configured, logger: logger}, nil
}

// save writes the settings back to config.yaml with data_dir as configured.
func (w *workspace) save() error {
	s := *w.settings
	s.DataDir = w.configured
	return sysError(config.Save(w.configDir, &s))
}

// logger writes to stderr. Below WARN is shown only with --verbose, so
// command output stays readable.
func (a *app) logger(cmd *cobra.Command, level string) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	if !a.flags.verbose && lvl < slog.LevelWarn {
		lvl = slog.LevelWarn
	}
	return logging.New(lvl, cmd.ErrOrStderr(), cmd.ErrOrStderr()), nil
}

// openStore opens the configured backend.
func (w *workspace) openStore(ctx context.Context) error {
	store, err := ledger.Open(ctx, w.settings.Config)
	if err != nil {
		return sysError(fmt.Errorf("open %s store: %w", w.settings.Backend, err))
	}
	w.store = store
	return nil
}

// password returns the password from --password or the environment.
func (a *app) password() (string, error) {
	if a.flags.password != "" {
		return a.flags.password, nil
	}
	if pw := os.Getenv(EnvPassword); pw != "" {
		return pw, nil
	}
	return "", errPasswordRequired
}

// close ends the session and releases the store.
func (w *workspace) close(ctx context.Context) error {
	var errs []error
	if w.sess != nil {
		errs = append(errs, w.sess.Close(ctx))
	}
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			errs = append(errs, sysError(fmt.Errorf("close store: %w", err)))
		}
	}
	return errors.Join(errs...)
}

// withSession opens a session, runs fn and closes the session.
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, w *workspace) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w, err := a.loadWorkspace(cmd)
	if err != nil {
		return err
	}
	if w.settings.Auth.PasswordHash == "" {
		return errNotInitialized
	}
	pw, err := a.password()
	if err != nil {
		return err
	}
	if err := w.openStore(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := w.close(ctx); err == nil {
			err = cerr
		}
	}()

	w.sess, err = session.Open(ctx, pw, session.Options{
		Store:        w.store,
		PasswordHash: w.settings.Auth.PasswordHash,
		Logger:       w.logger,
	})
	if err != nil {
		return err
	}
	return fn(ctx, w)
}

// emit writes v as indented JSON in --json mode, and otherwise calls text
// with a tab-aligned writer.
func (a *app) emit(cmd *cobra.Command, v any, text func(tw io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

// parseID parses a positive integer id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseQuantity parses a quantity argument; a comma works as the decimal
// separator.
func parseQuantity(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q: %w", s, types.ErrInvalidQuantity)
	}
	return d, nil
}
