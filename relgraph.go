// Package relgraph assembles property graph views over relational tables and keeps them cached per compiled procedure.
package relgraph

import (
	"context"
	"errors"

	"github.com/specterops/relgraph/predicate"
	"github.com/specterops/relgraph/storage"
)

const (
	DefaultViewCacheCapacity = 128
	DefaultPredicateMaxSteps = predicate.DefaultMaxSteps
)

var (
	ErrDriverMissing = errors.New("driver missing")
)

// DriverConstructor describes a function that takes a context and a relgraph configuration struct and returns either
// a valid storage catalog or the associated error that prevented instantiation.
type DriverConstructor func(ctx context.Context, cfg Config) (storage.Catalog, error)

var availableDrivers = map[string]DriverConstructor{}

// Register registers a storage driver under the given driverName
func Register(driverName string, constructor DriverConstructor) {
	availableDrivers[driverName] = constructor
}

// Config is the basic configuration struct for relgraph catalogs and view registries
type Config struct {
	ConnectionString string

	// DriverConfig holds driver-specific configuration data that will be passed to the driver constructor. The type
	// and structure depend on the specific driver.
	DriverConfig any

	// ViewCacheCapacity bounds the number of views a Registry keeps.
	ViewCacheCapacity int

	// PredicateMaxSteps bounds the Starlark execution steps of a single predicate evaluation.
	PredicateMaxSteps uint64

	// PredicateCompiler overrides the Starlark predicate compiler.
	PredicateCompiler predicate.Compiler
}

func DefaultConfig() Config {
	return Config{
		ViewCacheCapacity: DefaultViewCacheCapacity,
		PredicateMaxSteps: DefaultPredicateMaxSteps,
	}
}

func (s Config) withDefaults() Config {
	if s.ViewCacheCapacity <= 0 {
		s.ViewCacheCapacity = DefaultViewCacheCapacity
	}

	if s.PredicateMaxSteps == 0 {
		s.PredicateMaxSteps = DefaultPredicateMaxSteps
	}

	if s.PredicateCompiler == nil {
		s.PredicateCompiler = predicate.NewStarlarkCompiler(s.PredicateMaxSteps)
	}

	return s
}

// Open creates a new storage catalog. This function expects the driver name, often imported to ensure that
// registration logic occurs.
func Open(ctx context.Context, driverName string, config Config) (storage.Catalog, error) {
	if driverConstructor, hasDriver := availableDrivers[driverName]; !hasDriver {
		return nil, ErrDriverMissing
	} else {
		return driverConstructor(ctx, config)
	}
}
