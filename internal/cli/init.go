package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bodega/internal/auth"
	"github.com/mesh-intelligence/bodega/internal/paths"
	"github.com/mesh-intelligence/bodega/internal/persist"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize bodega configuration and storage",
		Long: `Create the configuration and data directories, set the session password
and open the storage backend once. The password comes from --password or
$` + EnvPassword + `; without either a random one is generated and printed once.
Running init again keeps the existing password.`,
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w, err := a.loadWorkspace(cmd)
	if err != nil {
		return err
	}
	if a.flags.dataDir != "" {
		w.configured = w.settings.DataDir
	}

	var generated string
	if w.settings.Auth.PasswordHash == "" {
		pw, err := a.password()
		if err != nil {
			if pw, err = auth.GeneratePassword(16); err != nil {
				return sysError(err)
			}
			generated = pw
		}
		if err := setCredentials(w.settings, pw); err != nil {
			return err
		}
	}
	if err := w.save(); err != nil {
		return err
	}

	if err := w.openStore(ctx); err != nil {
		return err
	}
	st, err := persist.Status(ctx, w.store)
	if cerr := w.close(ctx); err == nil {
		err = cerr
	}
	if err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "bodega initialized\nconfig: %s\nbackend: %s\n", paths.ConfigFile(w.configDir), w.settings.Backend)
	if w.settings.Backend == types.BackendJSONL || w.settings.Backend == types.BackendSQLite {
		fmt.Fprintf(out, "data: %s\n", w.settings.DataDir)
	}
	if st.Pending {
		fmt.Fprintln(out, "an unfinished save is pending; it is rolled forward on the next login")
	}
	if generated != "" {
		fmt.Fprintf(out, "password: %s\n(store it now; it is not shown again)\n", generated)
	}
	return nil
}
