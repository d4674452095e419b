package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/storage"
	"github.com/specterops/relgraph/util/channels"
)

const propertiesColumn = "properties"

// Catalog resolves property tables named by node label. The lookup key is matched against a node property.
type Catalog struct {
	runner      Runner
	limiter     channels.ConcurrencyLimiter
	keyProperty string
}

func NewCatalog(runner Runner, maxSessions int) *Catalog {
	if maxSessions <= 0 {
		maxSessions = DefaultConcurrentConnections
	}

	return &Catalog{
		runner:      runner,
		limiter:     channels.NewConcurrencyLimiter(maxSessions),
		keyProperty: DefaultKeyProperty,
	}
}

// WithKeyProperty sets the node property that property lookups match keys against.
func (s *Catalog) WithKeyProperty(keyProperty string) *Catalog {
	s.keyProperty = keyProperty
	return s
}

func (s *Catalog) Table(_ context.Context, name string) (storage.Table, error) {
	return nil, fmt.Errorf("%w: neo4j holds no relational table %s", storage.ErrUnsupported, name)
}

func (s *Catalog) PropertyTable(_ context.Context, name string) (storage.PropertyTable, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: property tables are named by a node label", storage.ErrNoSuchTable)
	}

	return &PropertyTable{
		label:   name,
		runner:  s.runner,
		limiter: s.limiter,
		cypher:  fmt.Sprintf("match (n:%s) where n.%s = $key return properties(n) as %s limit 1", quote(name), quote(s.keyProperty), propertiesColumn),
	}, nil
}

func (s *Catalog) Close(ctx context.Context) error {
	return s.runner.Close(ctx)
}

func quote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

// PropertyTable reads the properties of the first node carrying the label whose key property matches.
type PropertyTable struct {
	label   string
	runner  Runner
	limiter channels.ConcurrencyLimiter
	cypher  string
}

func (s *PropertyTable) Name() string {
	return s.label
}

func (s *PropertyTable) Lookup(ctx context.Context, key graph.ID) (*graph.Properties, error) {
	var (
		value any
		found bool
	)

	if err := s.limiter.Run(ctx, func() error {
		var err error

		value, found, err = s.runner.ReadSingle(ctx, s.cypher, map[string]any{"key": key.Int64()}, propertiesColumn)
		return err
	}); err != nil {
		return nil, fmt.Errorf("looking up properties of %s key %s: %w", s.label, key, err)
	}

	if !found || value == nil {
		return nil, nil
	}

	if values, typeOK := value.(map[string]any); !typeOK {
		return nil, fmt.Errorf("properties of %s key %s have unexpected type %T", s.label, key, value)
	} else {
		properties := graph.NewProperties()

		for name, propertyValue := range values {
			properties.Set(name, normalizeValue(propertyValue))
		}

		return properties, nil
	}
}

// normalizeValue converts neo4j temporal values to time.Time.
func normalizeValue(value any) any {
	if temporal, isTemporal := value.(interface{ Time() time.Time }); isTemporal {
		return temporal.Time()
	}

	return value
}
