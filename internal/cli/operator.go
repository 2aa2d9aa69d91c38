package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bodega/internal/repository"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

func newOperatorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Show operators",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List operators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, w *workspace) error {
				var ops []types.Operator
				w.sess.Read(func(r *repository.Repository) {
					ops = r.Operators()
				})
				return a.emit(cmd, ops, func(tw io.Writer) {
					fmt.Fprintln(tw, "NAME\tTYPE")
					for _, o := range ops {
						fmt.Fprintf(tw, "%s\t%s\n", o.Name, o.Type)
					}
				})
			})
		},
	})
	return cmd
}
