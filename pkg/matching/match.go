package matching

import (
	"fmt"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
)

// Match is the decomposition of an agent around one occurrence of a redex.
type Match struct {
	Embedding Embedding

	// Regions[r] is the agent place hosting redex root r. Together with the
	// unmatched rest of the agent it forms the context.
	Regions []*bigraph.Place

	// Parameters[s] lists the agent places that fill redex site s.
	Parameters [][]*bigraph.Place

	// LinkImage maps redex links to the agent links they are wired to.
	LinkImage map[*bigraph.Link]*bigraph.Link
}

// Image reports whether the agent node belongs to the redex image.
func (m *Match) Image(x *bigraph.Place) bool {
	for _, v := range m.Embedding {
		if v == x {
			return true
		}
	}
	return false
}

// BuildMatch derives the match for a verified embedding.
func BuildMatch(redex, agent bigraph.View, emb Embedding) (*Match, error) {
	nodes := redex.Nodes()
	if len(emb) != len(nodes) {
		return nil, fmt.Errorf("%w: %d images for %d redex nodes", ErrInvalidEmbedding, len(emb), len(nodes))
	}
	used := make(map[*bigraph.Place]bool, len(emb))
	for i, x := range emb {
		if x == nil || !x.IsNode() {
			return nil, fmt.Errorf("%w: redex node %d has no image", ErrInvalidEmbedding, i)
		}
		if used[x] {
			return nil, fmt.Errorf("%w: %v is hit twice", ErrInvalidEmbedding, x)
		}
		used[x] = true
	}

	m := &Match{
		Embedding: emb,
		Regions:   make([]*bigraph.Place, len(redex.Roots())),
		LinkImage: make(map[*bigraph.Link]*bigraph.Link),
	}
	for _, r := range redex.Roots() {
		kids := nodeChildren(redex, r)
		if len(kids) == 0 {
			return nil, fmt.Errorf("%w: root %d", ErrEmptyRedex, r.Index)
		}
		m.Regions[r.Index] = agent.Parent(emb[kids[0].Index])
	}

	for _, u := range nodes {
		rl, al := nodeLinks(redex, u), nodeLinks(agent, emb[u.Index])
		if len(rl) != len(al) {
			return nil, fmt.Errorf("%w: arity of %v", ErrInvalidEmbedding, u)
		}
		for i, r := range rl {
			if prev, ok := m.LinkImage[r]; ok && prev != al[i] {
				return nil, fmt.Errorf("%w: link %v maps to %v and %v", ErrInvalidEmbedding, r, prev, al[i])
			}
			m.LinkImage[r] = al[i]
		}
	}

	m.Parameters = partition(redex, agent, emb, m.Regions, used)
	return m, nil
}
