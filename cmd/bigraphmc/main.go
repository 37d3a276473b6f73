// Command bigraphmc model checks bigraphical reactive systems described in
// YAML model files.
//
// Exit codes: 0 when every predicate held, 1 when a predicate was violated,
// 2 on any other error.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const (
	exitOK        = 0
	exitViolation = 1
	exitError     = 2
)

// errViolations is returned by check when a counterexample was found.
var errViolations = errors.New("predicates violated")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errViolations):
		return exitViolation
	default:
		fmt.Fprintln(stderr, errorStyle.Render("error: "+err.Error()))
		return exitError
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "bigraphmc",
		Short:         "Explore and check the state space of bigraphical reactive systems",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")

	root.AddCommand(newCheckCmd(), newInspectCmd())
	return root
}
