package predicate

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/specterops/relgraph/graph"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

const (
	DefaultMaxSteps = uint64(50_000)

	predicateFilename = "predicate"
)

var fileOptions = &syntax.FileOptions{}

// StarlarkCompiler compiles predicates into sandboxed Starlark expressions. Each evaluation runs on a fresh thread
// bounded by maxSteps.
type StarlarkCompiler struct {
	maxSteps uint64
}

func NewStarlarkCompiler(maxSteps uint64) *StarlarkCompiler {
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}

	return &StarlarkCompiler{
		maxSteps: maxSteps,
	}
}

// Compile normalizes and parses the expression. An empty expression compiles to a nil Predicate, which accepts every
// element.
func (s *StarlarkCompiler) Compile(expression string) (Predicate, error) {
	if IsEmpty(expression) {
		return nil, nil
	}

	normalized, err := Normalize(expression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}

	if _, err := fileOptions.ParseExpr(predicateFilename, normalized, 0); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCompile, expression, err)
	}

	return &starlarkPredicate{
		source:     expression,
		normalized: normalized,
		maxSteps:   s.maxSteps,
	}, nil
}

type starlarkPredicate struct {
	source     string
	normalized string
	maxSteps   uint64
}

func (s *starlarkPredicate) Source() string {
	return s.source
}

func (s *starlarkPredicate) Evaluate(env Environment) (bool, error) {
	globals, err := toStringDict(env)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrEvaluate, err)
	}

	thread := &starlark.Thread{Name: "predicate-eval"}
	thread.SetMaxExecutionSteps(s.maxSteps)

	if result, err := starlark.EvalOptions(fileOptions, thread, predicateFilename, s.normalized, globals); err != nil {
		return false, fmt.Errorf("%w: %q: %w", ErrEvaluate, s.source, err)
	} else {
		return bool(result.Truth()), nil
	}
}

func toStringDict(env Environment) (starlark.StringDict, error) {
	globals := make(starlark.StringDict, len(env))

	for name, value := range env {
		if converted, err := toStarlark(value); err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		} else {
			globals[name] = converted
		}
	}

	return globals, nil
}

func toStarlark(value any) (starlark.Value, error) {
	switch typed := value.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return typed, nil
	case bool:
		return starlark.Bool(typed), nil
	case int:
		return starlark.MakeInt(typed), nil
	case int8:
		return starlark.MakeInt64(int64(typed)), nil
	case int16:
		return starlark.MakeInt64(int64(typed)), nil
	case int32:
		return starlark.MakeInt64(int64(typed)), nil
	case int64:
		return starlark.MakeInt64(typed), nil
	case uint8:
		return starlark.MakeUint64(uint64(typed)), nil
	case uint16:
		return starlark.MakeUint64(uint64(typed)), nil
	case uint32:
		return starlark.MakeUint64(uint64(typed)), nil
	case uint64:
		return starlark.MakeUint64(typed), nil
	case graph.ID:
		return starlark.MakeUint64(typed.Uint64()), nil
	case float32:
		return starlark.Float(typed), nil
	case float64:
		if math.IsNaN(typed) {
			return starlark.None, nil
		}

		return starlark.Float(typed), nil
	case string:
		return starlark.String(typed), nil
	case []byte:
		return starlark.Bytes(typed), nil
	case time.Time:
		return starlark.String(typed.UTC().Format(time.RFC3339Nano)), nil
	case []any:
		elements := make([]starlark.Value, len(typed))

		for idx, element := range typed {
			if converted, err := toStarlark(element); err != nil {
				return nil, err
			} else {
				elements[idx] = converted
			}
		}

		return starlark.NewList(elements), nil
	case []string:
		elements := make([]starlark.Value, len(typed))

		for idx, element := range typed {
			elements[idx] = starlark.String(element)
		}

		return starlark.NewList(elements), nil
	case *graph.Properties:
		if typed == nil {
			return toStarlark(map[string]any{})
		}

		return toStarlark(typed.Map)
	case map[string]any:
		members := make(starlark.StringDict, len(typed))

		for _, key := range slices.Sorted(maps.Keys(typed)) {
			if converted, err := toStarlark(typed[key]); err != nil {
				return nil, fmt.Errorf("member %s: %w", key, err)
			} else {
				members[key] = converted
			}
		}

		return starlarkstruct.FromStringDict(starlarkstruct.Default, members), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}
