package checker

import (
	"time"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/canonical"
	"github.com/dd0wney/cluso-bigraph/pkg/logging"
	"github.com/dd0wney/cluso-bigraph/pkg/metrics"
	"github.com/dd0wney/cluso-bigraph/pkg/reaction"
	"github.com/dd0wney/cluso-bigraph/pkg/validation"
)

// Encoder computes the state identity of a bigraph.
type Encoder interface {
	Encode(b *bigraph.Bigraph) string
}

// Options configures one model checking run.
type Options struct {
	// MaximumTransitions bounds the number of reactions processed, null
	// reactions included. Zero means unbounded.
	MaximumTransitions int
	// MaximumTime bounds the wall-clock duration. Zero means unbounded.
	MaximumTime time.Duration
	// AllowCyclesInGraph records transitions into states that are already
	// in the graph, self loops included.
	AllowCyclesInGraph bool
	// ParallelRuleMatching matches the rules of one state concurrently.
	ParallelRuleMatching bool

	Strategy Strategy
	Listener Listener
	Logger   logging.Logger
	Metrics  *metrics.Registry

	// Seed drives the Random and SimulatedAnnealing strategies.
	Seed uint64

	// Algebra and Encoder default to reaction.Rewriter and canonical.Encoder.
	Algebra reaction.Algebra
	Encoder Encoder
}

// DefaultOptions returns options for an unbounded breadth-first run.
func DefaultOptions() Options {
	return Options{
		Strategy:             BFS(),
		ParallelRuleMatching: true,
	}
}

// Validate reports every problem with the options.
func (o Options) Validate() error {
	cv := validation.NewConfigValidator("Options").
		NonNegative("MaximumTransitions", o.MaximumTransitions).
		NonNegativeDuration("MaximumTime", o.MaximumTime).
		Custom("Strategy", func() error {
			if o.Strategy == nil {
				return errNoStrategy
			}
			return nil
		})
	if o.Strategy != nil {
		o.Strategy.validate(cv, o)
	}
	return cv.Validate()
}

// withDefaults fills the optional collaborators.
func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
	if o.Algebra == nil {
		o.Algebra = reaction.Rewriter{}
	}
	if o.Encoder == nil {
		o.Encoder = canonical.NewEncoder()
	}
	return o
}
