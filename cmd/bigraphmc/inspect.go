package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
)

func newInspectCmd() *cobra.Command {
	var states bool
	cmd := &cobra.Command{
		Use:   "inspect SNAPSHOT",
		Short: "Summarise a reaction graph snapshot written by check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			g, err := reactiongraph.ReadSnapshot(f)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render("Snapshot "+args[0]))
			if g.Incomplete() {
				fmt.Fprintln(w, warnStyle.Render("incomplete: "+g.IncompleteReason()))
			}
			fmt.Fprintln(w, renderGraph(g))
			if states {
				for _, s := range g.States() {
					mark := " "
					if g.Satisfying(s.ID) {
						mark = successStyle.Render("✓")
					}
					fmt.Fprintf(w, "%s s%-6d %s  %s\n", mark, s.ID, s.Label, dimStyle.Render(s.Canonical))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&states, "states", false, "list every state with its canonical form")
	return cmd
}
