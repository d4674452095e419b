// Package predicate defines the expression evaluation capability graph views consume when deriving subgraphs. Views
// treat predicate text as opaque; a Compiler turns it into an evaluable Predicate.
package predicate

import (
	"errors"
	"strings"
)

var (
	ErrCompile  = errors.New("predicate compilation failed")
	ErrEvaluate = errors.New("predicate evaluation failed")
)

// Environment binds the identifiers visible to a predicate. Nested map[string]any values are exposed as structs so
// that join predicates can address `edge.weight` or `start.id`.
type Environment map[string]any

type Predicate interface {
	// Source returns the expression text the predicate was compiled from.
	Source() string

	// Evaluate returns the truth value of the predicate against the given environment.
	Evaluate(env Environment) (bool, error)
}

type Compiler interface {
	Compile(expression string) (Predicate, error)
}

// IsEmpty returns true if the expression carries no filtering constraint.
func IsEmpty(expression string) bool {
	return strings.TrimSpace(expression) == ""
}

// Eval evaluates a possibly nil predicate. A nil predicate accepts everything.
func Eval(predicate Predicate, env Environment) (bool, error) {
	if predicate == nil {
		return true, nil
	}

	return predicate.Evaluate(env)
}
