package predicate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
)

var roomSig = bigraph.MustSignature(
	bigraph.Control{Name: "Room", Arity: 1},
	bigraph.Control{Name: "User", Arity: 1},
)

// occupied builds Room[e0].(User[u1]).
func occupied() *bigraph.Bigraph {
	bd := bigraph.NewBuilder(roomSig)
	room := bd.Node(bd.Root(), "Room", "e0")
	bd.Node(room, "User", "u1")
	return bd.MustBuild()
}

// empty builds Room[e0].
func empty() *bigraph.Bigraph {
	bd := bigraph.NewBuilder(roomSig)
	bd.Node(bd.Root(), "Room", "e0")
	return bd.MustBuild()
}

// userInRoom matches Room[x].(User[y] | -).
func userInRoom(t *testing.T) *Pattern {
	t.Helper()
	bd := bigraph.NewBuilder(roomSig)
	room := bd.Node(bd.Root(), "Room", "x")
	bd.Node(room, "User", "y")
	bd.Site(room)
	p, err := NewPattern("user-in-room", bd.MustBuild())
	require.NoError(t, err)
	return p
}

func TestPattern(t *testing.T) {
	p := userInRoom(t)
	assert.Equal(t, "user-in-room", p.Name())

	ok, err := p.Test(occupied())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Test(empty())
	require.NoError(t, err)
	assert.False(t, ok)

	agent := occupied()
	matches, err := p.Matches(agent)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Same(t, agent.Roots()[0], matches[0].Regions[0])
	assert.Empty(t, matches[0].Parameters[0])
}

func TestNewPatternRejectsUnusablePatterns(t *testing.T) {
	_, err := NewPattern("nil", nil)
	assert.ErrorIs(t, err, ErrInvalidPattern)

	bd := bigraph.NewBuilder(roomSig)
	bd.Site(bd.Root())
	_, err = NewPattern("hole", bd.MustBuild())
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestCombinators(t *testing.T) {
	yes := Func("yes", func(*bigraph.Bigraph) (bool, error) { return true, nil })
	no := Func("no", func(*bigraph.Bigraph) (bool, error) { return false, nil })
	boom := errors.New("boom")
	broken := Func("broken", func(*bigraph.Bigraph) (bool, error) { return false, boom })

	tests := []struct {
		pred    Predicate
		name    string
		want    bool
		wantErr bool
	}{
		{Not(yes), "!yes", false, false},
		{Not(no), "!no", true, false},
		{Not(broken), "!broken", false, true},
		{And(yes, yes), "(yes && yes)", true, false},
		{And(yes, no), "(yes && no)", false, false},
		{And(no, broken), "(no && broken)", false, false},
		{Or(no, yes), "(no || yes)", true, false},
		{Or(no, no), "(no || no)", false, false},
		{Or(broken, yes), "(broken || yes)", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.pred.Name())
			got, err := tt.pred.Test(empty())
			if tt.wantErr {
				assert.ErrorIs(t, err, boom)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAbsentPattern(t *testing.T) {
	absent := Not(userInRoom(t))

	ok, err := absent.Test(empty())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = absent.Test(occupied())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckerEvaluate(t *testing.T) {
	panicky := Func("panicky", func(*bigraph.Bigraph) (bool, error) { panic("nil dereference") })
	failing := Func("failing", func(*bigraph.Bigraph) (bool, error) { return false, errors.New("bad state") })

	c := NewChecker(userInRoom(t), panicky, failing)
	require.Equal(t, 3, c.Len())

	results := c.Evaluate(occupied())
	require.Len(t, results, 3)

	assert.True(t, results[0].Holds)
	assert.NoError(t, results[0].Err)

	assert.False(t, results[1].Holds)
	assert.ErrorIs(t, results[1].Err, ErrEvaluation)
	assert.Contains(t, results[1].Err.Error(), "panicky")

	assert.False(t, results[2].Holds)
	assert.ErrorIs(t, results[2].Err, ErrEvaluation)

	assert.False(t, Satisfied(results))
	assert.True(t, Satisfied(results[:1]))
}

func TestCounterexample(t *testing.T) {
	_, err := Counterexample(reactiongraph.New(), 1)
	assert.ErrorIs(t, err, ErrNoPath)

	g := reactiongraph.New()
	for _, form := range []string{"s1", "s2", "s3", "island"} {
		g.AddState(form, nil)
	}
	g.AddTransition(reactiongraph.Transition{From: 1, To: 2, Rule: "enter"})
	g.AddTransition(reactiongraph.Transition{From: 2, To: 3, Rule: "enter"})
	g.AddTransition(reactiongraph.Transition{From: 1, To: 3, Rule: "jump", Occurrence: 1})

	path, err := Counterexample(g, 3)
	require.NoError(t, err)
	require.Len(t, path.Transitions, 1)
	assert.Equal(t, "jump", path.Transitions[0].Rule)
	assert.Equal(t, uint64(1), path.States[0].ID)
	assert.Equal(t, uint64(3), path.States[len(path.States)-1].ID)

	path, err = Counterexample(g, 1)
	require.NoError(t, err)
	assert.Empty(t, path.Transitions)

	_, err = Counterexample(g, 4)
	assert.ErrorIs(t, err, ErrNoPath)
}
