// Package cli implements the bodega command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// EnvPassword supplies the password when --password is not given.
const EnvPassword = "BODEGA_PASSWORD"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	password  string
	verbose   bool
}

// app carries the state of one invocation.
type app struct {
	flags rootFlags
}

// NewRootCmd creates the top-level "bodega" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "bodega",
		Short: "Warehouse supply and tool custody ledger",
		Long: "Bodega keeps the stock of consumable supplies and the custody of\n" +
			"durable tools, with an append-only history of every movement.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: .bodega-db)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVar(&a.flags.password, "password", "", "session password (default: $"+EnvPassword+")")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log informational messages")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newSupplyCmd(a),
		newToolCmd(a),
		newOperatorCmd(a),
		newMasterCmd(a),
		newJournalCmd(a),
		newPasswdCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the command line args and returns the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// sysError marks err as a system error (exit code 2).
func sysError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitSysError, err: err}
}

// exitCode maps err to an exit code. Store failures are system errors;
// everything else not marked otherwise is a user error.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrStore) {
		return exitSysError
	}
	return exitUserError
}
