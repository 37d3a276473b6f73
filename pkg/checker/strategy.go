package checker

import (
	"errors"

	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
	"github.com/dd0wney/cluso-bigraph/pkg/validation"
)

var errNoStrategy = errors.New("no strategy configured")

// Strategy decides the order in which states are expanded. The set of
// strategies is closed: BFS, DFS, Random and SimulatedAnnealing.
type Strategy interface {
	Name() string
	validate(cv *validation.ConfigValidator, o Options)
	explore(r *run) error
}

// frontier holds states waiting for expansion.
type frontier interface {
	push(s *reactiongraph.State)
	pop() (*reactiongraph.State, bool)
	len() int
}
