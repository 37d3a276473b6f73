package checker

import (
	"context"
	"runtime"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/parallel"
	"github.com/dd0wney/cluso-bigraph/pkg/predicate"
	"github.com/dd0wney/cluso-bigraph/pkg/reaction"
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
)

// Runner executes whole runs on a bounded worker pool.
type Runner struct {
	pool *parallel.WorkerPool
}

// NewRunner creates a runner with the given number of workers. Zero or less
// means runtime.NumCPU().
func NewRunner(workers int) (*Runner, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool, err := parallel.NewWorkerPool(workers)
	if err != nil {
		return nil, err
	}
	return &Runner{pool: pool}, nil
}

// Submit queues a run. The future resolves with Synthesize's results; it
// resolves with parallel.ErrPoolClosed once the runner is closed.
func (rn *Runner) Submit(ctx context.Context, agent *bigraph.Bigraph, rules []*reaction.Rule, preds []predicate.Predicate, opts Options) *parallel.Future[*reactiongraph.Graph] {
	return parallel.Go(rn.pool, func() (*reactiongraph.Graph, error) {
		return Synthesize(ctx, agent, rules, preds, opts)
	})
}

// Workers returns the size of the pool.
func (rn *Runner) Workers() int { return rn.pool.Workers() }

// Close waits for queued runs to finish and stops the workers.
func (rn *Runner) Close() { rn.pool.Close() }
