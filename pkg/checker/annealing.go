package checker

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/canonical"
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
	"github.com/dd0wney/cluso-bigraph/pkg/validation"
)

// AnnealingParams configures the SimulatedAnnealing strategy.
type AnnealingParams struct {
	// Goals are exemplar states. A state's energy is its kernel distance to
	// the nearest goal.
	Goals  []*bigraph.Bigraph
	Kernel canonical.Kernel

	Schedule           Schedule
	InitialTemperature float64
	// Epsilon is the temperature at or below which picks become greedy.
	Epsilon float64
	// EpochSize is the number of expansions between cooling steps.
	EpochSize int
	// MaxEpoch stops the run once the epoch count exceeds it. Zero means no
	// limit.
	MaxEpoch int
	// EnergyEps stops the run when a picked state is this close to a goal.
	EnergyEps float64
	// FairnessK forces every (FairnessK+1)-th pick to take the oldest open
	// state. Zero disables forced picks.
	FairnessK int
}

// DefaultAnnealingParams returns a geometric schedule over the WL kernel.
func DefaultAnnealingParams(goals ...*bigraph.Bigraph) AnnealingParams {
	return AnnealingParams{
		Goals:              goals,
		Kernel:             canonical.WLKernel{Iterations: canonical.DefaultWLIterations},
		Schedule:           Geometric{Alpha: 0.9, Floor: 1e-3},
		InitialTemperature: 1,
		Epsilon:            1e-3,
		EpochSize:          10,
		MaxEpoch:           1000,
		EnergyEps:          1e-6,
		FairnessK:          4,
	}
}

type annealing struct {
	p AnnealingParams
}

// SimulatedAnnealing explores states in order of Boltzmann-weighted
// closeness to the goal exemplars, with a FIFO side queue against
// starvation.
func SimulatedAnnealing(p AnnealingParams) Strategy { return annealing{p} }

func (annealing) Name() string { return "annealing" }

func (a annealing) validate(cv *validation.ConfigValidator, _ Options) {
	p := a.p
	cv.Custom("Goals", func() error {
		if len(p.Goals) == 0 {
			return errors.New("at least one goal exemplar is required")
		}
		for i, g := range p.Goals {
			if g == nil {
				return errors.New("nil goal exemplar")
			}
			if err := g.Validate(); err != nil {
				return fmt.Errorf("goal %d: %w", i, err)
			}
		}
		return nil
	}).
		Custom("Kernel", func() error {
			if p.Kernel == nil {
				return errors.New("no similarity kernel")
			}
			return nil
		}).
		Custom("Schedule", func() error {
			if p.Schedule == nil {
				return errNoSchedule
			}
			return nil
		}).
		PositiveFloat("InitialTemperature", p.InitialTemperature).
		NonNegativeFloat("Epsilon", p.Epsilon).
		Positive("EpochSize", p.EpochSize).
		NonNegative("MaxEpoch", p.MaxEpoch).
		NonNegativeFloat("EnergyEps", p.EnergyEps).
		NonNegative("FairnessK", p.FairnessK)
	if p.Schedule != nil {
		p.Schedule.validate(cv)
	}
}

func (a annealing) explore(r *run) error {
	an := newAnnealer(a.p, r.rng, a.energy)
	an.push(r.graph.Initial())

	expansions, epoch := 0, 0
	for an.len() > 0 {
		if r.budgetSpent() {
			return nil
		}
		st, e := an.pick()
		if e <= a.p.EnergyEps {
			r.checkPredicates(st)
			r.graph.MarkIncomplete(ReasonGoal)
			return nil
		}

		results := r.expand(st)
		for _, s := range r.emit(st, results, r.opts.AllowCyclesInGraph) {
			an.push(s)
		}
		r.listener.OnStateExpanded(st.ID, len(results), an.len())
		r.checkPredicates(st)

		expansions++
		if expansions%a.p.EpochSize == 0 {
			epoch++
			an.t = a.p.Schedule.Next(an.t, epoch)
			r.listener.OnEpoch(epoch, an.t)
			if a.p.MaxEpoch > 0 && epoch > a.p.MaxEpoch {
				if an.len() > 0 {
					r.graph.MarkIncomplete(ReasonEpochs)
				}
				return nil
			}
		}
	}
	return nil
}

// energy is the kernel distance from b to the nearest goal.
func (a annealing) energy(b *bigraph.Bigraph) float64 {
	best := math.Inf(1)
	for _, g := range a.p.Goals {
		k := canonical.Normalized(a.p.Kernel, b, g)
		if d := math.Sqrt(math.Max(0, 2-2*k)); d < best {
			best = d
		}
	}
	return best
}

// annealer holds the open states of an annealing run. The FIFO queue may
// hold states that were already picked; they are skipped lazily.
type annealer struct {
	p      AnnealingParams
	rng    *rand.Rand
	t      float64
	picks  int
	open   []*reactiongraph.State
	fifo   []*reactiongraph.State
	closed map[uint64]bool
	cache  map[string]float64
	energy func(*bigraph.Bigraph) float64
}

func newAnnealer(p AnnealingParams, rng *rand.Rand, energy func(*bigraph.Bigraph) float64) *annealer {
	return &annealer{
		p:      p,
		rng:    rng,
		t:      p.InitialTemperature,
		closed: make(map[uint64]bool),
		cache:  make(map[string]float64),
		energy: energy,
	}
}

func (an *annealer) push(s *reactiongraph.State) {
	an.open = append(an.open, s)
	an.fifo = append(an.fifo, s)
}

func (an *annealer) len() int { return len(an.open) }

// energyOf returns the cached energy of a state, keyed by canonical form.
func (an *annealer) energyOf(s *reactiongraph.State) float64 {
	if e, ok := an.cache[s.Canonical]; ok {
		return e
	}
	e := an.energy(s.Bigraph)
	an.cache[s.Canonical] = e
	return e
}

// pick removes and returns the next state to expand with its energy.
func (an *annealer) pick() (*reactiongraph.State, float64) {
	an.picks++
	idx := -1
	if an.p.FairnessK > 0 && an.picks%(an.p.FairnessK+1) == 0 {
		for len(an.fifo) > 0 && an.closed[an.fifo[0].ID] {
			an.fifo = an.fifo[1:]
		}
		if len(an.fifo) > 0 {
			idx = an.indexOf(an.fifo[0])
		}
	}
	if idx < 0 {
		energies := make([]float64, len(an.open))
		for i, s := range an.open {
			energies[i] = an.energyOf(s)
		}
		idx = boltzmannPick(energies, an.t, an.p.Epsilon, an.rng)
	}

	st := an.open[idx]
	an.open = append(an.open[:idx], an.open[idx+1:]...)
	an.closed[st.ID] = true
	return st, an.energyOf(st)
}

func (an *annealer) indexOf(s *reactiongraph.State) int {
	for i, o := range an.open {
		if o == s {
			return i
		}
	}
	return -1
}

// boltzmannPick samples index i with probability proportional to
// exp(-energies[i]/t). At t <= eps it returns the first minimum-energy index.
func boltzmannPick(energies []float64, t, eps float64, rng *rand.Rand) int {
	if len(energies) == 0 {
		return -1
	}
	best := 0
	for i, e := range energies {
		if e < energies[best] {
			best = i
		}
	}
	if t <= eps {
		return best
	}

	// Shifting by the minimum keeps the largest weight at 1.
	weights := make([]float64, len(energies))
	total := 0.0
	for i, e := range energies {
		weights[i] = math.Exp(-(e - energies[best]) / t)
		total += weights[i]
	}
	x := rng.Float64() * total
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	return len(energies) - 1
}
