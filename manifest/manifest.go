// Package manifest reads YAML view manifests and resolves them against a storage catalog into view definitions.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/specterops/relgraph"
	"github.com/specterops/relgraph/storage"
	"github.com/specterops/relgraph/util"
	"github.com/specterops/relgraph/view"
	"gopkg.in/yaml.v3"
)

var ErrInvalidManifest = errors.New("invalid manifest")

// Element binds one label to one table. Columns name the table columns exposed as schema fields, in schema order.
type Element struct {
	Label   string   `yaml:"label"`
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns"`
	Start   string   `yaml:"start,omitempty"`
	End     string   `yaml:"end,omitempty"`
}

type View struct {
	Name         string          `yaml:"name"`
	Directed     bool            `yaml:"directed"`
	VertexSchema []storage.Field `yaml:"vertex_schema"`
	EdgeSchema   []storage.Field `yaml:"edge_schema"`
	Vertices     []Element       `yaml:"vertices"`
	Edges        []Element       `yaml:"edges"`
}

type Subgraph struct {
	Name            string `yaml:"name"`
	Parent          string `yaml:"parent"`
	FilterHint      string `yaml:"filter_hint,omitempty"`
	Postfilter      bool   `yaml:"postfilter"`
	VertexPredicate string `yaml:"vertex_predicate,omitempty"`
	EdgePredicate   string `yaml:"edge_predicate,omitempty"`
	JoinPredicate   string `yaml:"join_predicate,omitempty"`
	InputGraphSize  int    `yaml:"input_graph_size,omitempty"`
	ScopeVertex     string `yaml:"scope_vertex,omitempty"`
	ScopeEdge       string `yaml:"scope_edge,omitempty"`
}

// Manifest declares the views of one compiled procedure.
type Manifest struct {
	DatabaseID    int64      `yaml:"database_id"`
	Signature     string     `yaml:"signature"`
	PropertyTable string     `yaml:"property_table,omitempty"`
	Views         []View     `yaml:"views"`
	Subgraphs     []Subgraph `yaml:"subgraphs,omitempty"`
}

func Parse(data []byte) (Manifest, error) {
	var manifest Manifest

	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	return manifest, manifest.validate()
}

func Load(path string) (Manifest, error) {
	if data, err := os.ReadFile(path); err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	} else {
		return Parse(data)
	}
}

func (s Manifest) validate() error {
	var (
		problems = util.NewErrorCollector()
		declared = map[string]struct{}{}
	)

	declare := func(name string) {
		if name == "" {
			problems.Add(errors.New("a view has no name"))
		} else if _, duplicate := declared[name]; duplicate {
			problems.Add(fmt.Errorf("view %s is declared more than once", name))
		} else {
			declared[name] = struct{}{}
		}
	}

	if s.Signature == "" {
		problems.Add(errors.New("signature is required"))
	}

	for _, next := range s.Views {
		declare(next.Name)
	}

	// Subgraphs may only derive from views declared before them
	for _, next := range s.Subgraphs {
		if _, found := declared[next.Parent]; !found {
			problems.Add(fmt.Errorf("subgraph %s derives from undeclared view %q", next.Name, next.Parent))
		}

		declare(next.Name)
	}

	if err := problems.Combined(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	return nil
}

func (s Manifest) view(name string) (View, bool) {
	for _, next := range s.Views {
		if next.Name == name {
			return next, true
		}
	}

	return View{}, false
}

// baseView follows subgraph parents back to the declared view that holds the table layout.
func (s Manifest) baseView(name string) (View, bool) {
	for range len(s.Subgraphs) + 1 {
		if declared, found := s.view(name); found {
			return declared, true
		}

		parentFound := false

		for _, next := range s.Subgraphs {
			if next.Name == name {
				name = next.Parent
				parentFound = true
				break
			}
		}

		if !parentFound {
			break
		}
	}

	return View{}, false
}

type resolver struct {
	ctx     context.Context
	catalog storage.Catalog
	tables  map[string]storage.Table
}

func (s *resolver) table(name string) (storage.Table, error) {
	if table, cached := s.tables[name]; cached {
		return table, nil
	} else if table, err := s.catalog.Table(s.ctx, name); err != nil {
		return nil, err
	} else {
		s.tables[name] = table
		return table, nil
	}
}

func (s *resolver) columnIDs(table storage.Table, columns []string) ([]int, error) {
	columnIDs := make([]int, len(columns))

	for idx, column := range columns {
		if columnID := table.Schema().IndexOf(column); columnID < 0 {
			return nil, fmt.Errorf("%w: %s.%s", storage.ErrNoSuchColumn, table.Name(), column)
		} else {
			columnIDs[idx] = columnID
		}
	}

	return columnIDs, nil
}

// Definition resolves the named view, or the table layout of the named subgraph's base view, into a definition.
func (s Manifest) Definition(ctx context.Context, catalog storage.Catalog, name string) (view.Definition, error) {
	declared, found := s.baseView(name)
	if !found {
		return view.Definition{}, fmt.Errorf("%w: no view named %s", ErrInvalidManifest, name)
	}

	var (
		resolve = &resolver{
			ctx:     ctx,
			catalog: catalog,
			tables:  map[string]storage.Table{},
		}

		definition = view.Definition{
			Name:         name,
			Directed:     declared.Directed,
			VertexSchema: storage.NewTupleSchema(declared.VertexSchema...),
			EdgeSchema:   storage.NewTupleSchema(declared.EdgeSchema...),
			DatabaseID:   s.DatabaseID,
			Signature:    s.Signature,
		}
	)

	for _, vertex := range declared.Vertices {
		if table, err := resolve.table(vertex.Table); err != nil {
			return view.Definition{}, err
		} else if columnIDs, err := resolve.columnIDs(table, vertex.Columns); err != nil {
			return view.Definition{}, err
		} else {
			definition.VertexLabels = append(definition.VertexLabels, vertex.Label)
			definition.VertexTables = append(definition.VertexTables, table)
			definition.VertexColumnIDs = append(definition.VertexColumnIDs, columnIDs)
		}
	}

	for _, edge := range declared.Edges {
		if table, err := resolve.table(edge.Table); err != nil {
			return view.Definition{}, err
		} else if columnIDs, err := resolve.columnIDs(table, edge.Columns); err != nil {
			return view.Definition{}, err
		} else {
			definition.EdgeLabels = append(definition.EdgeLabels, edge.Label)
			definition.EdgeTables = append(definition.EdgeTables, table)
			definition.EdgeColumnIDs = append(definition.EdgeColumnIDs, columnIDs)
			definition.StartVLabels = append(definition.StartVLabels, edge.Start)
			definition.EndVLabels = append(definition.EndVLabels, edge.End)
		}
	}

	if s.PropertyTable != "" {
		if propertyTable, err := catalog.PropertyTable(ctx, s.PropertyTable); err != nil {
			return view.Definition{}, err
		} else {
			definition.PropertyTable = propertyTable
		}
	}

	return definition, nil
}

// SubgraphDefinition resolves a declared subgraph against its already loaded parent.
func (s Manifest) SubgraphDefinition(ctx context.Context, catalog storage.Catalog, subgraph Subgraph, parent *view.GraphView) (view.SubgraphDefinition, error) {
	scope, err := view.ScopeFromFlags(subgraph.ScopeVertex, subgraph.ScopeEdge, subgraph.ScopeVertex != "")
	if err != nil {
		return view.SubgraphDefinition{}, fmt.Errorf("subgraph %s: %w", subgraph.Name, err)
	}

	definition, err := s.Definition(ctx, catalog, subgraph.Name)
	if err != nil {
		return view.SubgraphDefinition{}, err
	}

	return view.SubgraphDefinition{
		Definition:      definition,
		Parent:          parent,
		FilterHint:      subgraph.FilterHint,
		Postfilter:      subgraph.Postfilter,
		VertexPredicate: subgraph.VertexPredicate,
		EdgePredicate:   subgraph.EdgePredicate,
		JoinPredicate:   subgraph.JoinPredicate,
		InputGraphSize:  subgraph.InputGraphSize,
		Scope:           scope,
	}, nil
}

// Apply acquires every declared view and derives every declared subgraph through the registry, in declaration
// order. The returned views follow the same order.
func (s Manifest) Apply(ctx context.Context, registry *relgraph.Registry, catalog storage.Catalog) ([]*view.GraphView, error) {
	var (
		loaded = make(map[string]*view.GraphView, len(s.Views)+len(s.Subgraphs))
		views  = make([]*view.GraphView, 0, len(s.Views)+len(s.Subgraphs))
	)

	for _, declared := range s.Views {
		if definition, err := s.Definition(ctx, catalog, declared.Name); err != nil {
			return nil, err
		} else if graphView, err := registry.Acquire(ctx, definition); err != nil {
			return nil, err
		} else {
			loaded[declared.Name] = graphView
			views = append(views, graphView)
		}
	}

	for _, subgraph := range s.Subgraphs {
		if definition, err := s.SubgraphDefinition(ctx, catalog, subgraph, loaded[subgraph.Parent]); err != nil {
			return nil, err
		} else if graphView, err := registry.Derive(ctx, definition); err != nil {
			return nil, err
		} else {
			loaded[subgraph.Name] = graphView
			views = append(views, graphView)
		}
	}

	return views, nil
}
