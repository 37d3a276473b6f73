package checker

import (
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
	"github.com/dd0wney/cluso-bigraph/pkg/validation"
)

type dfs struct{}

// DFS expands the most recently discovered state first, using an explicit
// stack.
func DFS() Strategy { return dfs{} }

func (dfs) Name() string { return "dfs" }

func (dfs) validate(*validation.ConfigValidator, Options) {}

func (dfs) explore(r *run) error {
	return r.exhaust(&stack{})
}

type stack struct {
	items []*reactiongraph.State
}

func (s *stack) push(st *reactiongraph.State) { s.items = append(s.items, st) }

func (s *stack) pop() (*reactiongraph.State, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	st := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return st, true
}

func (s *stack) len() int { return len(s.items) }
