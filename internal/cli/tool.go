package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bodega/internal/repository"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

func newToolCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "List, loan and return tools",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list [query...]",
			Short: "List tools matching every word of query",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withSession(cmd, func(ctx context.Context, w *workspace) error {
					var tools []types.Tool
					w.sess.Read(func(r *repository.Repository) {
						tools = r.SearchTools(strings.Join(args, " "))
					})
					return a.emit(cmd, tools, func(tw io.Writer) {
						fmt.Fprintln(tw, "ID\tTAG\tNAME\tBRAND\tCONDITION\tCUSTODIAN")
						for _, t := range tools {
							fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.AssetTag, t.Name, t.Brand, t.Condition, t.Custodian)
						}
					})
				})
			},
		},
		&cobra.Command{
			Use:   "loan <id> <operator>",
			Short: "Loan a tool from the warehouse to an operator",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				operator := strings.Join(args[1:], " ")
				return a.withSession(cmd, func(ctx context.Context, w *workspace) error {
					m, err := w.sess.ToolLoan(ctx, id, operator)
					if err != nil {
						return err
					}
					return a.emitToolMovement(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "return <id> <GOOD|BAD>",
			Short: "Return a loaned tool to the warehouse",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				cond, err := types.ParseCondition(args[1])
				if err != nil {
					return err
				}
				return a.withSession(cmd, func(ctx context.Context, w *workspace) error {
					m, err := w.sess.ToolReturn(ctx, id, cond)
					if err != nil {
						return err
					}
					return a.emitToolMovement(cmd, m)
				})
			},
		},
		newToolHistoryCmd(a),
	)
	return cmd
}

func newToolHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show tool movements, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}
			return a.withSession(cmd, func(ctx context.Context, w *workspace) error {
				var moves []types.ToolMovement
				w.sess.Read(func(r *repository.Repository) {
					moves = r.ToolHistory(id)
				})
				if limit > 0 && len(moves) > limit {
					moves = moves[:limit]
				}
				return a.emit(cmd, moves, func(tw io.Writer) {
					fmt.Fprintln(tw, "TIME\tTOOL\tACTION\tPARTY\tDETAIL")
					for _, m := range moves {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
							m.Timestamp.Local().Format(timeLayout), m.ToolName, m.Action, m.Party, m.Detail)
					}
				})
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many movements")
	return cmd
}

func (a *app) emitToolMovement(cmd *cobra.Command, m *types.ToolMovement) error {
	return a.emit(cmd, m, func(tw io.Writer) {
		if m.Action == types.ToolLoan {
			fmt.Fprintf(tw, "%s loaned to %s (movement %s)\n", m.ToolName, m.Party, m.ID)
			return
		}
		fmt.Fprintf(tw, "%s returned %s (movement %s)\n", m.ToolName, m.Detail, m.ID)
	})
}
