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

const timeLayout = "2006-01-02 15:04"

func newSupplyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supply",
		Short: "List and move consumable supplies",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list [query...]",
			Short: "List supplies matching every word of query",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.listSupplies(cmd, func(r *repository.Repository) []types.Supply {
					return r.SearchSupplies(strings.Join(args, " "))
				})
			},
		},
		&cobra.Command{
			Use:   "low",
			Short: "List supplies below their minimum stock",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.listSupplies(cmd, (*repository.Repository).LowStock)
			},
		},
		&cobra.Command{
			Use:   "exit <id> <quantity> <operator>",
			Short: "Withdraw a quantity of a supply to an operator",
			Args:  cobra.MinimumNArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				qty, err := parseQuantity(args[1])
				if err != nil {
					return err
				}
				operator := strings.Join(args[2:], " ")
				return a.withSession(cmd, func(ctx context.Context, w *workspace) error {
					m, err := w.sess.SupplyExit(ctx, id, qty, operator)
					if err != nil {
						return err
					}
					return a.emitSupplyMovement(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "entry <id> <quantity>",
			Short: "Receive a quantity of a supply into the warehouse",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				qty, err := parseQuantity(args[1])
				if err != nil {
					return err
				}
				return a.withSession(cmd, func(ctx context.Context, w *workspace) error {
					m, err := w.sess.SupplyEntry(ctx, id, qty)
					if err != nil {
						return err
					}
					return a.emitSupplyMovement(cmd, m)
				})
			},
		},
		newSupplyHistoryCmd(a),
	)
	return cmd
}

func newSupplyHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show supply movements, newest first",
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
				var moves []types.SupplyMovement
				w.sess.Read(func(r *repository.Repository) {
					moves = r.SupplyHistory(id)
				})
				if limit > 0 && len(moves) > limit {
					moves = moves[:limit]
				}
				return a.emit(cmd, moves, func(tw io.Writer) {
					fmt.Fprintln(tw, "TIME\tSUPPLY\tKIND\tQUANTITY\tUNIT\tCOUNTERPARTY")
					for _, m := range moves {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
							m.Timestamp.Local().Format(timeLayout), m.SupplyName, m.Kind, m.Quantity, m.Unit, m.Counterparty)
					}
				})
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many movements")
	return cmd
}

func (a *app) listSupplies(cmd *cobra.Command, pick func(*repository.Repository) []types.Supply) error {
	return a.withSession(cmd, func(ctx context.Context, w *workspace) error {
		var supplies []types.Supply
		w.sess.Read(func(r *repository.Repository) {
			supplies = pick(r)
		})
		return a.emit(cmd, supplies, func(tw io.Writer) {
			fmt.Fprintln(tw, "ID\tNAME\tQUANTITY\tUNIT\tMINIMUM\t")
			for _, s := range supplies {
				flag := ""
				if s.IsLow() {
					flag = "LOW"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Quantity, s.Unit, s.Minimum, flag)
			}
		})
	})
}

func (a *app) emitSupplyMovement(cmd *cobra.Command, m *types.SupplyMovement) error {
	return a.emit(cmd, m, func(tw io.Writer) {
		verb := "received"
		if m.Kind == types.SupplyExit {
			verb = "issued to " + m.Counterparty
		}
		fmt.Fprintf(tw, "%s %s %s %s (movement %s)\n", m.Quantity, m.Unit, m.SupplyName, verb, m.ID)
	})
}
