package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-bigraph/pkg/checker"
	"github.com/dd0wney/cluso-bigraph/pkg/logging"
	"github.com/dd0wney/cluso-bigraph/pkg/metrics"
	"github.com/dd0wney/cluso-bigraph/pkg/model"
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
)

type checkFlags struct {
	strategy       string
	maxTransitions int
	maxTime        time.Duration
	cycles         bool
	sequential     bool
	seed           uint64
	snapshot       string
	metricsAddr    string
	traces         bool
}

func newCheckCmd() *cobra.Command {
	var f checkFlags
	cmd := &cobra.Command{
		Use:   "check MODEL",
		Short: "Explore a model and check its predicates",
		Long: `Explore the state space of the model file and check every predicate on
each visited state. Flags override the model's check section.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], &f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.strategy, "strategy", "", "exploration strategy: bfs, dfs or random")
	fl.IntVar(&f.maxTransitions, "max-transitions", 0, "stop after this many reactions (0 = unbounded)")
	fl.DurationVar(&f.maxTime, "max-time", 0, "stop after this long (0 = unbounded)")
	fl.BoolVar(&f.cycles, "cycles", false, "record transitions into known states")
	fl.BoolVar(&f.sequential, "sequential", false, "match rules one at a time")
	fl.Uint64Var(&f.seed, "seed", 0, "seed for the random and annealing strategies")
	fl.StringVar(&f.snapshot, "snapshot", "", "write the reaction graph to this file")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	fl.BoolVar(&f.traces, "traces", false, "print every counterexample trace")
	return cmd
}

func runCheck(cmd *cobra.Command, path string, f *checkFlags) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	timer := logging.StartTimer(logger, "model loaded", logging.Path(path))
	m, err := model.LoadFile(path)
	if err != nil {
		timer.EndError(err)
		return err
	}
	timer.End(logging.Count(len(m.Rules)), logging.Int("predicates", len(m.Predicates)))

	opts, err := applyFlags(cmd, m.Options(), f)
	if err != nil {
		return err
	}
	reg := metrics.NewRegistry()
	collect := &collector{}
	opts.Logger = logger.With(logging.Path(path))
	opts.Metrics = reg
	opts.Listener = collect

	if f.metricsAddr != "" {
		stop, err := serveMetrics(f.metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	g, err := checker.Synthesize(ctx, m.Agent, m.Rules, m.Predicates, opts)
	if g == nil {
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	reg.UpdateSystemMetrics()

	renderReport(cmd.OutOrStdout(), g, collect, f.traces)

	if f.snapshot != "" {
		if err := writeSnapshot(f.snapshot, g); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("snapshot written to "+f.snapshot))
	}
	if err != nil {
		return err
	}
	if len(collect.violations) > 0 {
		return errViolations
	}
	return nil
}

// applyFlags overrides the model's settings with the flags that were set.
func applyFlags(cmd *cobra.Command, opts checker.Options, f *checkFlags) (checker.Options, error) {
	fl := cmd.Flags()
	if fl.Changed("strategy") {
		switch f.strategy {
		case "bfs":
			opts.Strategy = checker.BFS()
		case "dfs":
			opts.Strategy = checker.DFS()
		case "random":
			opts.Strategy = checker.Random()
		default:
			return opts, fmt.Errorf("unknown strategy %q; annealing is configured in the model file", f.strategy)
		}
	}
	if fl.Changed("max-transitions") {
		opts.MaximumTransitions = f.maxTransitions
	}
	if fl.Changed("max-time") {
		opts.MaximumTime = f.maxTime
	}
	if fl.Changed("cycles") {
		opts.AllowCyclesInGraph = f.cycles
	}
	if fl.Changed("sequential") {
		opts.ParallelRuleMatching = !f.sequential
	}
	if fl.Changed("seed") {
		opts.Seed = f.seed
	}
	return opts, nil
}

func newLogger(cmd *cobra.Command) (logging.Logger, error) {
	logger := logging.NewFromEnv(cmd.ErrOrStderr())
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	if level != "" {
		logger.SetLevel(logging.ParseLevel(level))
	}
	return logger.With(logging.Component("bigraphmc")), nil
}

func serveMetrics(addr string, reg *metrics.Registry, logger logging.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", logging.Error(err))
		}
	}()
	logger.Info("serving metrics", logging.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func writeSnapshot(path string, g *reactiongraph.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := g.WriteSnapshot(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return f.Close()
}

// collector keeps what the report needs from a run.
type collector struct {
	checker.NopListener
	summary    checker.Summary
	violations []violation
	errors     int
}

type violation struct {
	state     uint64
	predicate string
	trace     *reactiongraph.Path
}

func (c *collector) OnPredicateViolated(state uint64, predicate string, trace *reactiongraph.Path) {
	c.violations = append(c.violations, violation{state, predicate, trace})
}

func (c *collector) OnError(error) { c.errors++ }

func (c *collector) OnRunFinished(s checker.Summary) { c.summary = s }
