package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/checker"
	"github.com/dd0wney/cluso-bigraph/pkg/predicate"
	"github.com/dd0wney/cluso-bigraph/pkg/reaction"
	"github.com/dd0wney/cluso-bigraph/pkg/validation"
)

// ErrInvalidModel is returned for documents that cannot be decoded,
// validated or built.
var ErrInvalidModel = errors.New("model: invalid document")

// Model is a loaded reactive system ready for checking.
type Model struct {
	Signature  *bigraph.Signature
	Agent      *bigraph.Bigraph
	Rules      []*reaction.Rule
	Predicates []predicate.Predicate

	check CheckDoc
	goals []*bigraph.Bigraph
}

// LoadFile reads a model from a YAML file.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// Load decodes, validates and builds a model. Unknown keys are rejected.
func Load(r io.Reader) (*Model, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if err := validation.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	m, err := Build(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	return m, nil
}

// Build turns a validated document into a model.
func Build(doc *Document) (*Model, error) {
	controls := make([]bigraph.Control, len(doc.Signature))
	for i, c := range doc.Signature {
		controls[i] = bigraph.Control{Name: c.Name, Arity: c.Arity}
	}
	sig, err := bigraph.NewSignature(controls...)
	if err != nil {
		return nil, err
	}

	m := &Model{Signature: sig, check: doc.Check}
	if m.Agent, err = buildBigraph(sig, &doc.Agent); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	seen := make(map[string]bool)
	for _, rd := range doc.Rules {
		if seen[rd.Name] {
			return nil, fmt.Errorf("rule %s: %w", rd.Name, bigraph.ErrDuplicateName)
		}
		seen[rd.Name] = true
		rule, err := buildRule(sig, &rd)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rd.Name, err)
		}
		m.Rules = append(m.Rules, rule)
	}

	for _, pd := range doc.Predicates {
		pattern, err := buildBigraph(sig, &pd.Pattern)
		if err != nil {
			return nil, fmt.Errorf("predicate %s: %w", pd.Name, err)
		}
		p, err := predicate.NewPattern(pd.Name, pattern)
		if err != nil {
			return nil, fmt.Errorf("predicate %s: %w", pd.Name, err)
		}
		var pred predicate.Predicate = p
		if pd.Absent {
			pred = predicate.Func(pd.Name, predicate.Not(p).Test)
		}
		m.Predicates = append(m.Predicates, pred)
	}

	if a := doc.Check.Annealing; a != nil {
		for i := range a.Goals {
			g, err := buildBigraph(sig, &a.Goals[i])
			if err != nil {
				return nil, fmt.Errorf("annealing goal %d: %w", i, err)
			}
			m.goals = append(m.goals, g)
		}
	}
	return m, nil
}

func buildRule(sig *bigraph.Signature, rd *RuleDoc) (*reaction.Rule, error) {
	redex, err := buildBigraph(sig, &rd.Redex)
	if err != nil {
		return nil, fmt.Errorf("redex: %w", err)
	}
	reactum, err := buildBigraph(sig, &rd.Reactum)
	if err != nil {
		return nil, fmt.Errorf("reactum: %w", err)
	}
	rule := &reaction.Rule{
		Name:          rd.Name,
		Redex:         redex,
		Reactum:       reactum,
		Instantiation: rd.Instantiation,
		Tracking:      rd.Tracking,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

func buildBigraph(sig *bigraph.Signature, bd *BigraphDoc) (*bigraph.Bigraph, error) {
	b := bigraph.NewBuilder(sig)
	for _, root := range bd.Roots {
		r := b.Root()
		if err := addPlaces(b, r, root.Children); err != nil {
			return nil, err
		}
	}
	b.Edge(bd.Edges...)
	b.OuterName(bd.Outer...)

	inner := make([]string, 0, len(bd.Inner))
	for name := range bd.Inner {
		inner = append(inner, name)
	}
	sort.Strings(inner)
	for _, name := range inner {
		b.InnerName(name, bd.Inner[name])
	}

	out, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func addPlaces(b *bigraph.Builder, parent *bigraph.Place, places []PlaceDoc) error {
	for _, p := range places {
		if p.Site {
			if p.Control != "" || len(p.Links) > 0 || len(p.Children) > 0 {
				return fmt.Errorf("%w: a site has no control, links or children", bigraph.ErrMalformed)
			}
			b.Site(parent)
			continue
		}
		if p.Control == "" {
			return fmt.Errorf("%w: place needs a control or site: true", bigraph.ErrMalformed)
		}
		n := b.Node(parent, p.Control, p.Links...)
		if err := addPlaces(b, n, p.Children); err != nil {
			return err
		}
	}
	return nil
}

// Options returns checker options for the document's check section.
// Collaborators such as the listener and logger are left to the caller.
func (m *Model) Options() checker.Options {
	c := m.check
	opts := checker.DefaultOptions()
	opts.MaximumTransitions = c.MaximumTransitions
	opts.MaximumTime = c.MaximumTime
	opts.AllowCyclesInGraph = c.AllowCycles
	opts.ParallelRuleMatching = !c.Sequential
	opts.Seed = c.Seed
	opts.Strategy = m.strategy()
	return opts
}

func (m *Model) strategy() checker.Strategy {
	switch m.check.Strategy {
	case "dfs":
		return checker.DFS()
	case "random":
		return checker.Random()
	case "annealing":
		return checker.SimulatedAnnealing(m.annealing())
	default:
		return checker.BFS()
	}
}

func (m *Model) annealing() checker.AnnealingParams {
	p := checker.DefaultAnnealingParams(m.goals...)
	a := m.check.Annealing
	if a == nil {
		return p
	}
	p.InitialTemperature = validation.DefaultOr(a.InitialTemperature, p.InitialTemperature)
	p.Epsilon = validation.DefaultOr(a.Epsilon, p.Epsilon)
	p.EpochSize = validation.DefaultOr(a.EpochSize, p.EpochSize)
	p.EnergyEps = validation.DefaultOr(a.EnergyEps, p.EnergyEps)
	if a.MaxEpoch != nil {
		p.MaxEpoch = *a.MaxEpoch
	}
	if a.FairnessK != nil {
		p.FairnessK = *a.FairnessK
	}

	switch a.Schedule {
	case "linear":
		p.Schedule = checker.Linear{Beta: a.Beta}
	case "logarithmic":
		p.Schedule = checker.Logarithmic{T0: validation.DefaultOr(a.T0, p.InitialTemperature)}
	default:
		p.Schedule = checker.Geometric{Alpha: validation.DefaultOr(a.Alpha, 0.9), Floor: p.Epsilon}
	}
	return p
}
