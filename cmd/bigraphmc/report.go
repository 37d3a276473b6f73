package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-bigraph/pkg/algorithms"
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 2).
			MarginRight(2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(16)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// maxListed caps the state IDs listed per line.
const maxListed = 10

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func renderReport(w io.Writer, g *reactiongraph.Graph, c *collector, traces bool) {
	s := c.summary
	status := successStyle.Render("complete")
	if s.Incomplete {
		status = warnStyle.Render("incomplete: " + s.Reason)
	}

	run := boxStyle.Render(strings.Join([]string{
		row("strategy", s.Strategy),
		row("status", status),
		row("reactions", fmt.Sprint(s.Reactions)),
		row("null reactions", fmt.Sprint(s.NullReactions)),
		row("run errors", fmt.Sprint(c.errors)),
		row("duration", s.Duration.Round(time.Microsecond).String()),
	}, "\n"))

	fmt.Fprintln(w, titleStyle.Render("Run "+s.ID))
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, run, renderGraph(g)))
	fmt.Fprintln(w, renderViolations(g, c.violations, traces))
}

// renderGraph summarises the shape of the reaction graph.
func renderGraph(g *reactiongraph.Graph) string {
	terminal := g.TerminalComponents()
	livelocks := 0
	for _, comp := range terminal {
		if comp.Size > 1 {
			livelocks++
		}
	}
	stats := algorithms.AnalyzeCycles(g.Cycles())

	return boxStyle.Render(strings.Join([]string{
		row("states", fmt.Sprint(g.StateCount())),
		row("transitions", fmt.Sprint(g.TransitionCount())),
		row("deadlocks", listIDs(g.Deadlocks())),
		row("livelocks", fmt.Sprint(livelocks)),
		row("cycles", fmt.Sprintf("%d (longest %d)", stats.TotalCycles, stats.LongestCycle)),
		row("max depth", fmt.Sprint(maxDepth(g))),
	}, "\n"))
}

func renderViolations(g *reactiongraph.Graph, vs []violation, traces bool) string {
	if len(vs) == 0 {
		return successStyle.Render("✓ every predicate held")
	}

	// The first counterexample per predicate is the shortest one found.
	first := make(map[string]violation)
	var order []string
	count := make(map[string]int)
	for _, v := range vs {
		if _, ok := first[v.predicate]; !ok {
			first[v.predicate] = v
			order = append(order, v.predicate)
		}
		count[v.predicate]++
	}

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %d violation(s)", len(vs))))
	for _, name := range order {
		v := first[name]
		fmt.Fprintf(&sb, "\n  %s in %d state(s), first at state %d\n    %s",
			name, count[name], v.state, renderTrace(v.trace))
	}
	if traces {
		sb.WriteString("\n" + titleStyle.Render("Counterexamples"))
		for _, v := range vs {
			fmt.Fprintf(&sb, "\n  %s @ %d: %s", v.predicate, v.state, renderTrace(v.trace))
		}
	}
	return sb.String()
}

func renderTrace(p *reactiongraph.Path) string {
	if p == nil || len(p.States) == 0 {
		return dimStyle.Render("(no trace)")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "s%d", p.States[0].ID)
	for _, t := range p.Transitions {
		fmt.Fprintf(&sb, " -%s-> s%d", t.Rule, t.To)
	}
	return sb.String()
}

func listIDs(ids []uint64) string {
	if len(ids) == 0 {
		return "0"
	}
	parts := make([]string, 0, maxListed)
	for i, id := range ids {
		if i == maxListed {
			parts = append(parts, "…")
			break
		}
		parts = append(parts, fmt.Sprintf("s%d", id))
	}
	return fmt.Sprintf("%d [%s]", len(ids), strings.Join(parts, " "))
}

func maxDepth(g *reactiongraph.Graph) int {
	deepest := 0
	for _, d := range g.Depths() {
		deepest = max(deepest, d)
	}
	return deepest
}
