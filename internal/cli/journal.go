package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bodega/internal/auth"
	"github.com/mesh-intelligence/bodega/internal/persist"
)

func newJournalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect and recover unfinished saves",
		Long: `Stores that cannot write several tables atomically get a write-ahead
journal. A save that was interrupted leaves the journal behind; the next
session rolls it forward, or "journal recover" does it on demand.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show whether an unfinished save is pending",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd, func(ctx context.Context, w *workspace) error {
					st, err := persist.Status(ctx, w.store)
					if err != nil {
						return err
					}
					return a.emit(cmd, st, func(tw io.Writer) {
						if !st.Pending {
							fmt.Fprintln(tw, "no unfinished save")
							return
						}
						fmt.Fprintf(tw, "unfinished save %s from %s\ntables: %s\n",
							st.ID, st.Created.Local().Format(time.RFC3339), strings.Join(st.Tables, ", "))
					})
				})
			},
		},
		&cobra.Command{
			Use:   "recover",
			Short: "Roll an unfinished save forward",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				pw, err := a.password()
				if err != nil {
					return err
				}
				return a.withStore(cmd, func(ctx context.Context, w *workspace) error {
					if err := auth.CheckPassword(w.settings.Auth.PasswordHash, pw); err != nil {
						return err
					}
					n, err := persist.New(w.store, persist.WithLogger(w.logger)).Recover(ctx)
					if err != nil {
						return err
					}
					out := map[string]int{"entries": n}
					return a.emit(cmd, out, func(tw io.Writer) {
						if n == 0 {
							fmt.Fprintln(tw, "nothing to recover")
							return
						}
						fmt.Fprintf(tw, "rolled forward %d journal entries\n", n)
					})
				})
			},
		},
	)
	return cmd
}

// withStore opens the store without a session.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, w *workspace) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w, err := a.loadWorkspace(cmd)
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
	return fn(ctx, w)
}
