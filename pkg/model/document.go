// Package model loads bigraphical reactive systems from YAML documents.
//
// A document lists the signature, the initial agent, the reaction rules,
// the predicates to check and the exploration settings:
//
//	signature:
//	  - {name: Room, arity: 1}
//	  - {name: User, arity: 1}
//	agent:
//	  roots:
//	    - children:
//	        - control: Room
//	          links: [e0]
//	          children:
//	            - {control: User, links: [u1]}
//	rules:
//	  - name: enter
//	    redex:
//	      roots:
//	        - children:
//	            - control: Room
//	              links: [x]
//	              children: [{site: true}]
//	    reactum:
//	      ...
//	check:
//	  strategy: bfs
//	  maximum_transitions: 1000
//
// Sites are numbered in document order, depth first.
package model

import "time"

// Document is the YAML form of a model.
type Document struct {
	Signature  []ControlDoc   `yaml:"signature" validate:"required,min=1,dive"`
	Agent      BigraphDoc     `yaml:"agent" validate:"required"`
	Rules      []RuleDoc      `yaml:"rules" validate:"dive"`
	Predicates []PredicateDoc `yaml:"predicates" validate:"dive"`
	Check      CheckDoc       `yaml:"check"`
}

// ControlDoc declares one control.
type ControlDoc struct {
	Name  string `yaml:"name" validate:"required,ident"`
	Arity int    `yaml:"arity" validate:"min=0"`
}

// BigraphDoc is a place forest plus its link interface. Link names not
// listed under edges become outer names.
type BigraphDoc struct {
	Roots []RootDoc         `yaml:"roots" validate:"required,min=1,dive"`
	Edges []string          `yaml:"edges" validate:"dive,ident"`
	Outer []string          `yaml:"outer" validate:"dive,ident"`
	Inner map[string]string `yaml:"inner" validate:"dive,keys,ident,endkeys,ident"`
}

// RootDoc is one region.
type RootDoc struct {
	Children []PlaceDoc `yaml:"children" validate:"dive"`
}

// PlaceDoc is a node or, when Site is set, a site. A site carries nothing
// else.
type PlaceDoc struct {
	Control  string     `yaml:"control" validate:"omitempty,ident"`
	Site     bool       `yaml:"site"`
	Links    []string   `yaml:"links" validate:"dive,ident"`
	Children []PlaceDoc `yaml:"children" validate:"dive"`
}

// RuleDoc is one reaction rule. Instantiation maps reactum sites to redex
// sites; when omitted it is the identity.
type RuleDoc struct {
	Name          string      `yaml:"name" validate:"required,ident"`
	Redex         BigraphDoc  `yaml:"redex" validate:"required"`
	Reactum       BigraphDoc  `yaml:"reactum" validate:"required"`
	Instantiation []int       `yaml:"instantiation" validate:"dive,min=0"`
	Tracking      map[int]int `yaml:"tracking"`
}

// PredicateDoc holds when Pattern occurs in a state, or when it does not
// if Absent is set.
type PredicateDoc struct {
	Name    string     `yaml:"name" validate:"required,ident"`
	Pattern BigraphDoc `yaml:"pattern" validate:"required"`
	Absent  bool       `yaml:"absent"`
}

// CheckDoc holds the exploration settings.
type CheckDoc struct {
	Strategy           string        `yaml:"strategy" validate:"omitempty,oneof=bfs dfs random annealing"`
	MaximumTransitions int           `yaml:"maximum_transitions" validate:"min=0"`
	MaximumTime        time.Duration `yaml:"maximum_time" validate:"min=0"`
	AllowCycles        bool          `yaml:"allow_cycles"`
	Sequential         bool          `yaml:"sequential"`
	Seed               uint64        `yaml:"seed"`
	Annealing          *AnnealingDoc `yaml:"annealing" validate:"required_if=Strategy annealing"`
}

// AnnealingDoc configures the simulated annealing strategy. Zero values
// keep the defaults.
type AnnealingDoc struct {
	Goals              []BigraphDoc `yaml:"goals" validate:"required,min=1,dive"`
	Schedule           string       `yaml:"schedule" validate:"omitempty,oneof=geometric linear logarithmic"`
	Alpha              float64      `yaml:"alpha" validate:"gte=0,lt=1"`
	Beta               float64      `yaml:"beta" validate:"gte=0"`
	T0                 float64      `yaml:"t0" validate:"gte=0"`
	InitialTemperature float64      `yaml:"initial_temperature" validate:"gte=0"`
	Epsilon            float64      `yaml:"epsilon" validate:"gte=0"`
	EpochSize          int          `yaml:"epoch_size" validate:"min=0"`
	MaxEpoch           *int         `yaml:"max_epoch" validate:"omitempty,min=0"`
	EnergyEps          float64      `yaml:"energy_eps" validate:"gte=0"`
	FairnessK          *int         `yaml:"fairness_k" validate:"omitempty,min=0"`
}
