package checker

import (
	"errors"
	"fmt"
)

// Sentinel errors. Fatal ones abort Synthesize; the rest are reported to
// the listener and the run continues.
var (
	// ErrStructuralPrecondition: the initial agent is not ground or not prime.
	ErrStructuralPrecondition = errors.New("checker: structural precondition failed")
	// ErrConfiguration: missing strategy, invalid options or an invalid rule.
	ErrConfiguration = errors.New("checker: invalid configuration")
	// ErrMatchConstruction: an occurrence could not be rewritten. Non-fatal.
	ErrMatchConstruction = errors.New("checker: match construction failed")
	// ErrMatcherPanic: matching a rule panicked and was treated as no match.
	ErrMatcherPanic = errors.New("checker: matcher panicked")
	// ErrMatching: the matcher rejected a rule for one state. Non-fatal.
	ErrMatching = errors.New("checker: rule matching failed")
	// ErrPredicateEvaluation: a predicate failed or no counterexample path
	// exists yet. Non-fatal.
	ErrPredicateEvaluation = errors.New("checker: predicate evaluation failed")
)

// RunError describes a failure inside a run.
type RunError struct {
	Op        string // Operation that failed (e.g. "match", "rewrite", "evaluate")
	Kind      error  // One of the sentinel errors above
	RunID     string
	State     uint64 // State ID (if applicable)
	Rule      string
	Predicate string
	Cause     error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	msg := e.Op
	if e.State != 0 {
		msg += fmt.Sprintf(" state %d", e.State)
	}
	if e.Rule != "" {
		msg += fmt.Sprintf(" rule %s", e.Rule)
	}
	if e.Predicate != "" {
		msg += fmt.Sprintf(" predicate %s", e.Predicate)
	}
	switch {
	case e.Kind != nil && e.Cause != nil:
		return fmt.Sprintf("%s: %v: %v", msg, e.Kind, e.Cause)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", msg, e.Kind)
	default:
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
}

// Unwrap returns the underlying cause for error chain support.
func (e *RunError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the error's kind or matches its cause.
func (e *RunError) Is(target error) bool {
	if target == nil {
		return false
	}
	return e.Kind == target || errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building RunErrors.
type ErrorBuilder struct {
	err RunError
}

// NewError creates a new error builder for an operation.
func NewError(op string, kind error) *ErrorBuilder {
	return &ErrorBuilder{err: RunError{Op: op, Kind: kind}}
}

// Run sets the run ID.
func (b *ErrorBuilder) Run(id string) *ErrorBuilder {
	b.err.RunID = id
	return b
}

// State sets the state ID.
func (b *ErrorBuilder) State(id uint64) *ErrorBuilder {
	b.err.State = id
	return b
}

// Rule sets the rule name.
func (b *ErrorBuilder) Rule(name string) *ErrorBuilder {
	b.err.Rule = name
	return b
}

// Predicate sets the predicate name.
func (b *ErrorBuilder) Predicate(name string) *ErrorBuilder {
	b.err.Predicate = name
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

func configError(format string, args ...any) error {
	return NewError("configure", ErrConfiguration).Cause(fmt.Errorf(format, args...)).Err()
}

// IsFatal reports whether err aborts a run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrStructuralPrecondition)
}
