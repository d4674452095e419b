package view

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration  = errors.New("invalid graph view configuration")
	ErrSchemaMismatch = errors.New("graph element does not match view schema")
	ErrUnknownLabel   = errors.New("unknown label")
	ErrNoSuchElement  = errors.New("no such graph element")
)

// ConfigurationError reports every problem found while validating a construction or derivation request. No view is
// produced when one is returned.
type ConfigurationError struct {
	View     string
	Problems error
}

func newConfigurationError(view string, problems error) *ConfigurationError {
	return &ConfigurationError{
		View:     view,
		Problems: problems,
	}
}

func (s *ConfigurationError) Error() string {
	if s.View == "" {
		return fmt.Sprintf("graph view configuration: %v", s.Problems)
	}

	return fmt.Sprintf("graph view %q: %v", s.View, s.Problems)
}

func (s *ConfigurationError) Unwrap() []error {
	return []error{ErrConfiguration, s.Problems}
}

// SchemaMismatchError is returned by LoadGraph when a decoded element carries a different number of fields than the
// view's schema for its kind.
type SchemaMismatchError struct {
	Label    string
	Kind     ElementKind
	Expected int
	Actual   int
}

func (s *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s %s carries %d fields but the view schema declares %d", s.Kind, s.Label, s.Actual, s.Expected)
}

func (s *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}
