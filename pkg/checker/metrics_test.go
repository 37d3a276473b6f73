package checker

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/matching"
	"github.com/dd0wney/cluso-bigraph/pkg/metrics"
	"github.com/dd0wney/cluso-bigraph/pkg/predicate"
	"github.com/dd0wney/cluso-bigraph/pkg/reaction"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	t.Fatal("not a counter or gauge")
	return 0
}

func TestMetricsListener(t *testing.T) {
	reg := metrics.NewRegistry()
	opts := options(BFS(), nil)
	opts.Metrics = reg
	opts.MaximumTransitions = 3

	_, err := Synthesize(context.Background(), roomAgent(), []*reaction.Rule{enterRule()}, []predicate.Predicate{atMostUsers(2)}, opts)
	require.NoError(t, err)

	assert.Equal(t, 3.0, value(t, reg.TransitionsTotal.WithLabelValues("bfs")))
	assert.Equal(t, 3.0, value(t, reg.StatesTotal.WithLabelValues("bfs")))
	assert.Equal(t, 3.0, value(t, reg.RuleMatchesTotal.WithLabelValues("enter")))
	assert.Equal(t, 2.0, value(t, reg.PredicateChecksTotal.WithLabelValues("at-most-users", "pass")))
	assert.Equal(t, 1.0, value(t, reg.PredicateViolationsTotal.WithLabelValues("at-most-users")))
	assert.Equal(t, 1.0, value(t, reg.RunsTotal.WithLabelValues("bfs", "incomplete")))
	assert.Equal(t, 0.0, value(t, reg.RunsInFlight))
}

func TestMetricsListenerErrors(t *testing.T) {
	reg := metrics.NewRegistry()
	opts := options(DFS(), nil)
	opts.Metrics = reg
	opts.Algebra = algebraFunc(func(*bigraph.Bigraph, *reaction.Rule, *matching.Match) (*bigraph.Bigraph, error) {
		panic("boom")
	})
	broken := predicate.Func("broken", func(*bigraph.Bigraph) (bool, error) {
		return false, errors.New("cannot evaluate")
	})

	_, err := Synthesize(context.Background(), single("A"), flipRules(), []predicate.Predicate{broken}, opts)
	require.NoError(t, err)

	assert.Equal(t, 1.0, value(t, reg.RulePanicsTotal.WithLabelValues("flip")))
	assert.Equal(t, 1.0, value(t, reg.PredicateErrorsTotal.WithLabelValues("broken")))
	assert.Equal(t, 1.0, value(t, reg.RunsTotal.WithLabelValues("dfs", "complete")))
}
