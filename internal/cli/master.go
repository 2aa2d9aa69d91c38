package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bodega/internal/repository"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

func newMasterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "master",
		Short: "Export and import master data (operators, supplies, tools)",
		Long: `Master data is exchanged as a JSON array of rows keyed by the stored
column headers. Export a table, edit it, and import it back:

  bodega master export supplies --file supplies.json
  bodega master import supplies --file supplies.json

Rows without an ID are new entries. Supply quantities and tool custody of
existing entries are kept; they change only through movements.`,
	}
	cmd.AddCommand(newMasterExportCmd(a), newMasterImportCmd(a))
	return cmd
}

func resolveMasterTable(kind string) (string, error) {
	table, err := types.ResolveTable(kind)
	if err != nil || !types.IsMasterTable(table) {
		return "", fmt.Errorf("unknown master table %q (valid: operators, supplies, tools): %w", kind, types.ErrUnknownTable)
	}
	return table, nil
}

func newMasterExportCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "export <operators|supplies|tools>",
		Short: "Write a master table as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := resolveMasterTable(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, w *workspace) error {
				var rows []types.Row
				w.sess.Read(func(r *repository.Repository) {
					rows, err = r.Rows(table)
				})
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal %s: %w", table, err)
				}
				data = append(data, '\n')
				if file == "" || file == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(file, data, 0o644); err != nil {
					return sysError(fmt.Errorf("write %s: %w", file, err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows from %s to %s\n", len(rows), table, file)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "output file (default: stdout)")
	return cmd
}

func newMasterImportCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import <operators|supplies|tools>",
		Short: "Replace a master table from JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := resolveMasterTable(args[0])
			if err != nil {
				return err
			}
			var data []byte
			if file == "" || file == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			var rows []types.Row
			if err := dec.Decode(&rows); err != nil {
				return fmt.Errorf("parse import: %w", err)
			}
			return a.withSession(cmd, func(ctx context.Context, w *workspace) error {
				if err := w.sess.SaveMasterData(ctx, table, rows); err != nil {
					return err
				}
				var n int
				w.sess.Read(func(r *repository.Repository) {
					saved, _ := r.Rows(table)
					n = len(saved)
				})
				fmt.Fprintf(cmd.OutOrStdout(), "%s saved: %d rows\n", table, n)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "input file (default: stdin)")
	return cmd
}
