package view

import (
	"errors"
	"fmt"
)

var ErrInvalidScope = errors.New("invalid derivation scope")

type scopeKind int

const (
	scopeAll scopeKind = iota
	scopeVertex
	scopeEdge
)

// Scope restricts a derivation to a single label. The zero value is ScopeAll.
type Scope struct {
	kind  scopeKind
	label string
}

var ScopeAll = Scope{}

func VertexScope(label string) Scope {
	return Scope{
		kind:  scopeVertex,
		label: label,
	}
}

func EdgeScope(label string) Scope {
	return Scope{
		kind:  scopeEdge,
		label: label,
	}
}

// scopeError reports an inconsistent flag combination as a configuration error. The derived view is not named yet.
func scopeError(format string, args ...any) error {
	return newConfigurationError("", fmt.Errorf("%w: "+format, append([]any{ErrInvalidScope}, args...)...))
}

// ScopeFromFlags adapts the planner's label name pair and vertex flag. Exactly one of the names may be set and the flag
// must agree with it. Two empty names select the whole parent. Inconsistent combinations fail with a
// *ConfigurationError wrapping ErrInvalidScope.
func ScopeFromFlags(vertexLabel, edgeLabel string, isVertex bool) (Scope, error) {
	switch {
	case vertexLabel == "" && edgeLabel == "":
		return ScopeAll, nil

	case vertexLabel != "" && edgeLabel != "":
		return ScopeAll, scopeError("both vertex label %q and edge label %q are set", vertexLabel, edgeLabel)

	case vertexLabel != "":
		if !isVertex {
			return ScopeAll, scopeError("vertex label %q given for an edge scope", vertexLabel)
		}

		return VertexScope(vertexLabel), nil

	default:
		if isVertex {
			return ScopeAll, scopeError("edge label %q given for a vertex scope", edgeLabel)
		}

		return EdgeScope(edgeLabel), nil
	}
}

func (s Scope) IsAll() bool {
	return s.kind == scopeAll
}

func (s Scope) Label() string {
	return s.label
}

// Kind returns the element kind of a single label scope. The second return is false for ScopeAll.
func (s Scope) Kind() (ElementKind, bool) {
	switch s.kind {
	case scopeVertex:
		return VertexKind, true
	case scopeEdge:
		return EdgeKind, true
	default:
		return VertexKind, false
	}
}

// Covers returns true if a label of the given kind is rebuilt by a derivation with this scope.
func (s Scope) Covers(kind ElementKind, label string) bool {
	if s.IsAll() {
		return true
	}

	scopeKind, _ := s.Kind()
	return scopeKind == kind && s.label == label
}

func (s Scope) String() string {
	switch s.kind {
	case scopeVertex:
		return "vertex(" + s.label + ")"
	case scopeEdge:
		return "edge(" + s.label + ")"
	default:
		return "all"
	}
}
