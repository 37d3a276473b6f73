package checker

import (
	"container/list"

	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
	"github.com/dd0wney/cluso-bigraph/pkg/validation"
)

type bfs struct{}

// BFS expands states in first-in first-out order. Every reachable state is
// expanded once.
func BFS() Strategy { return bfs{} }

func (bfs) Name() string { return "bfs" }

func (bfs) validate(*validation.ConfigValidator, Options) {}

func (bfs) explore(r *run) error {
	return r.exhaust(&queue{l: list.New()})
}

type queue struct {
	l *list.List
}

func (q *queue) push(s *reactiongraph.State) { q.l.PushBack(s) }

func (q *queue) pop() (*reactiongraph.State, bool) {
	if q.l.Len() == 0 {
		return nil, false
	}
	return q.l.Remove(q.l.Front()).(*reactiongraph.State), true
}

func (q *queue) len() int { return q.l.Len() }
