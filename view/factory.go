package view

import (
	"fmt"
	"slices"
	"strings"

	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/predicate"
	"github.com/specterops/relgraph/storage"
	"github.com/specterops/relgraph/util"
)

// Factory builds, derives, loads and dumps graph views. It holds no state beyond the predicate compiler used for
// derivations.
type Factory struct {
	compiler predicate.Compiler
}

func NewFactory(compiler predicate.Compiler) Factory {
	return Factory{
		compiler: compiler,
	}
}

type problems struct {
	view      string
	collector util.ErrorCollector
}

func newProblems(view string) *problems {
	return &problems{
		view:      view,
		collector: util.NewErrorCollector(),
	}
}

func (s *problems) add(format string, args ...any) {
	s.collector.Add(fmt.Errorf(format, args...))
}

func (s *problems) err() error {
	if combined := s.collector.Combined(); combined != nil {
		return newConfigurationError(s.view, combined)
	}

	return nil
}

type labelEntries struct {
	kind        ElementKind
	labels      []string
	tables      []storage.Table
	columnIDs   [][]int
	columnNames []string
	startLabels []string
	endLabels   []string
	schema      storage.TupleSchema
}

func vertexEntries(definition Definition, schema storage.TupleSchema) labelEntries {
	return labelEntries{
		kind:        VertexKind,
		labels:      definition.VertexLabels,
		tables:      definition.VertexTables,
		columnIDs:   definition.VertexColumnIDs,
		columnNames: definition.VertexColumnNames,
		schema:      schema,
	}
}

func edgeEntries(definition Definition, schema storage.TupleSchema) labelEntries {
	return labelEntries{
		kind:        EdgeKind,
		labels:      definition.EdgeLabels,
		tables:      definition.EdgeTables,
		columnIDs:   definition.EdgeColumnIDs,
		columnNames: definition.EdgeColumnNames,
		startLabels: definition.StartVLabels,
		endLabels:   definition.EndVLabels,
		schema:      schema,
	}
}

func (s labelEntries) validateColumns(problems *problems, label string, table storage.Table, columnIDs []int) bool {
	if len(columnIDs) != s.schema.Len() {
		problems.add("%s label %s maps %d columns but the %s schema declares %d fields", s.kind, label, len(columnIDs), s.kind, s.schema.Len())
		return false
	}

	var (
		tableSchema = table.Schema()
		valid       = true
	)

	for position, columnID := range columnIDs {
		if columnID < 0 || columnID >= tableSchema.Len() {
			problems.add("%s label %s column id %d is not a valid offset into table %s with %d columns", s.kind, label, columnID, table.Name(), tableSchema.Len())
			valid = false
		} else if len(s.columnNames) > 0 && tableSchema.Fields[columnID].Name != s.columnNames[position] {
			problems.add("%s label %s column id %d of table %s is named %s, expected %s", s.kind, label, columnID, table.Name(), tableSchema.Fields[columnID].Name, s.columnNames[position])
			valid = false
		}
	}

	return valid
}

// build validates every label entry and constructs bindings for the entries accepted by include. Entries repeating a
// label merge into the first binding of that label.
func (s labelEntries) build(problems *problems, owner Owner, include func(label string) bool) []*LabelTableBinding {
	if len(s.labels) != len(s.tables) {
		problems.add("%d %s labels were given for %d %s tables", len(s.labels), s.kind, len(s.tables), s.kind)
		return nil
	}

	if len(s.labels) > 0 && len(s.columnIDs) != 1 && len(s.columnIDs) != len(s.labels) {
		problems.add("%d %s column id lists were given for %d %s labels", len(s.columnIDs), s.kind, len(s.labels), s.kind)
		return nil
	}

	if len(s.columnNames) > 0 && len(s.columnNames) != s.schema.Len() {
		problems.add("%d %s column names were given for %d schema fields", len(s.columnNames), s.kind, s.schema.Len())
		return nil
	}

	if s.kind == EdgeKind && (len(s.startLabels) != len(s.labels) || len(s.endLabels) != len(s.labels)) {
		problems.add("%d start and %d end label entries were given for %d edge labels", len(s.startLabels), len(s.endLabels), len(s.labels))
		return nil
	}

	var (
		bindings []*LabelTableBinding
		byLabel  = map[string]*LabelTableBinding{}
	)

	for idx, label := range s.labels {
		var (
			table     = s.tables[idx]
			columnIDs = s.columnIDs[0]
		)

		if len(s.columnIDs) > 1 {
			columnIDs = s.columnIDs[idx]
		}

		if strings.TrimSpace(label) == "" {
			problems.add("%s label entry %d has no name", s.kind, idx)
			continue
		}

		if table == nil {
			problems.add("%s label %s entry %d has no table", s.kind, label, idx)
			continue
		}

		if !s.validateColumns(problems, label, table, columnIDs) {
			continue
		}

		var startLabels, endLabels graph.Kinds

		if s.kind == EdgeKind {
			startLabels = graph.ParseKinds(s.startLabels[idx])
			endLabels = graph.ParseKinds(s.endLabels[idx])

			if len(startLabels) == 0 || len(endLabels) == 0 {
				problems.add("edge label %s entry %d must allow at least one start and one end label", label, idx)
				continue
			}
		}

		if !include(label) {
			continue
		}

		if existing, found := byLabel[label]; found {
			if !existing.sameShape(columnIDs, startLabels, endLabels) {
				problems.add("%s label %s is bound more than once with differing column ids or endpoint labels", s.kind, label)
			} else if slices.Contains(existing.TableNames(), table.Name()) {
				problems.add("%s label %s binds table %s more than once", s.kind, label, table.Name())
			} else {
				existing.tables = append(existing.tables, table)
			}

			continue
		}

		binding := newBinding(s.kind, label, owner, columnIDs, s.columnNames)
		binding.tables = append(binding.tables, table)
		binding.startLabels = startLabels
		binding.endLabels = endLabels

		byLabel[label] = binding
		bindings = append(bindings, binding)
	}

	return bindings
}

func includeAll(string) bool {
	return true
}

// validateEndpoints checks that every endpoint label allowed by an edge binding names a vertex label of the view.
func validateEndpoints(problems *problems, view *GraphView, edgeBindings []*LabelTableBinding) {
	vertexLabels := graph.StringsToKinds(view.VertexLabels())

	for _, binding := range edgeBindings {
		for _, startLabel := range binding.startLabels {
			if !vertexLabels.ContainsOneOf(startLabel) {
				problems.add("edge label %s allows start label %s which is not a vertex label of the view", binding.Label(), startLabel)
			}
		}

		for _, endLabel := range binding.endLabels {
			if !vertexLabels.ContainsOneOf(endLabel) {
				problems.add("edge label %s allows end label %s which is not a vertex label of the view", binding.Label(), endLabel)
			}
		}
	}
}

func newView(definition Definition, fingerprint uint64, schema GraphSchema, propertyTable storage.PropertyTable) *GraphView {
	return &GraphView{
		key:           definition.Key(),
		fingerprint:   fingerprint,
		directed:      definition.Directed,
		owner:         newOwner(definition.Name),
		schema:        schema,
		propertyTable: propertyTable,
	}
}

// CreateGraphView assembles a base view from raw table and schema inputs. The view starts empty; nothing is read from
// the backing tables beyond their schemas.
func (s Factory) CreateGraphView(definition Definition) (*GraphView, error) {
	var (
		problems = newProblems(definition.Name)
		schema   = GraphSchema{
			Vertex: definition.VertexSchema,
			Edge:   definition.EdgeSchema,
		}
	)

	if strings.TrimSpace(definition.Name) == "" {
		problems.add("view name is empty")
	}

	schema.validate(problems.add)

	view := newView(definition, definition.Fingerprint(), schema, definition.PropertyTable)
	view.vertexBindings = vertexEntries(definition, schema.Vertex).build(problems, view.owner, includeAll)
	view.edgeBindings = edgeEntries(definition, schema.Edge).build(problems, view.owner, includeAll)

	validateEndpoints(problems, view, view.edgeBindings)

	if err := problems.err(); err != nil {
		return nil, err
	}

	return view, nil
}

func (s Factory) compile(problems *problems, role, expression string) predicate.Predicate {
	if predicate.IsEmpty(expression) {
		return nil
	}

	if s.compiler == nil {
		problems.add("%s predicate %q given but no predicate compiler is configured", role, expression)
		return nil
	}

	if compiled, err := s.compiler.Compile(expression); err != nil {
		problems.add("%s predicate: %w", role, err)
		return nil
	} else {
		return compiled
	}
}

func checkParentTables(problems *problems, parent *GraphView, bindings []*LabelTableBinding) {
	for _, binding := range bindings {
		if parentBinding, found := parent.Binding(binding.kind, binding.Label()); !found {
			problems.add("%s label %s is absent from parent view %s", binding.kind, binding.Label(), parent.Name())
		} else if !slices.Equal(parentBinding.TableNames(), binding.TableNames()) {
			problems.add("%s label %s must be backed by the tables of parent view %s: %v", binding.kind, binding.Label(), parent.Name(), parentBinding.TableNames())
		}
	}
}

// inheritBindings returns the parent's bindings in order, replacing those rebuilt by the derivation.
func inheritBindings(parentBindings, rebuilt []*LabelTableBinding) []*LabelTableBinding {
	bindings := make([]*LabelTableBinding, len(parentBindings))

	for idx, parentBinding := range parentBindings {
		bindings[idx] = parentBinding

		for _, next := range rebuilt {
			if next.Label() == parentBinding.Label() {
				bindings[idx] = next
				break
			}
		}
	}

	return bindings
}

// CreateSubGraphView assembles a view derived from an existing view. Without a scope every label of the definition is
// rebuilt and must exist in the parent. With a single label scope only that label is rebuilt; every other binding is
// the parent's, shared by reference and still owned by the parent. Predicates are compiled here but only applied by
// LoadGraph.
func (s Factory) CreateSubGraphView(definition SubgraphDefinition) (*GraphView, error) {
	problems := newProblems(definition.Name)

	parent := definition.Parent
	if parent == nil {
		problems.add("derivation requires a parent view")
		return nil, problems.err()
	}

	if strings.TrimSpace(definition.Name) == "" {
		problems.add("view name is empty")
	}

	var (
		scope               = definition.Scope
		scopeKind, isScoped = scope.Kind()
		propertyTable       = definition.PropertyTable
		schema              = GraphSchema{
			Vertex: definition.VertexSchema,
			Edge:   definition.EdgeSchema,
		}
	)

	if propertyTable == nil {
		propertyTable = parent.propertyTable
	}

	if isScoped {
		if schema.Vertex.Len() == 0 {
			schema.Vertex = parent.schema.Vertex
		}

		if schema.Edge.Len() == 0 {
			schema.Edge = parent.schema.Edge
		}

		if schema.Vertex.Len() != parent.schema.Vertex.Len() || schema.Edge.Len() != parent.schema.Edge.Len() {
			problems.add("scoped derivation schemas %s must match the field counts of parent view %s: %s", schema, parent.Name(), parent.schema)
		}

		if _, found := parent.Binding(scopeKind, scope.Label()); !found {
			problems.add("scope %s names a label absent from parent view %s", scope, parent.Name())
		}

		labels := definition.VertexLabels
		if scopeKind == EdgeKind {
			labels = definition.EdgeLabels
		}

		if !slices.Contains(labels, scope.Label()) {
			problems.add("scope %s names a label absent from the derivation inputs", scope)
		}
	}

	schema.validate(problems.add)

	includeVertex := func(label string) bool {
		return scope.Covers(VertexKind, label)
	}

	includeEdge := func(label string) bool {
		return scope.Covers(EdgeKind, label)
	}

	var (
		view           = newView(definition.Definition, definition.Fingerprint(), schema, propertyTable)
		vertexBindings = vertexEntries(definition.Definition, schema.Vertex).build(problems, view.owner, includeVertex)
		edgeBindings   = edgeEntries(definition.Definition, schema.Edge).build(problems, view.owner, includeEdge)
	)

	checkParentTables(problems, parent, vertexBindings)
	checkParentTables(problems, parent, edgeBindings)

	if isScoped {
		view.vertexBindings = inheritBindings(parent.vertexBindings, vertexBindings)
		view.edgeBindings = inheritBindings(parent.edgeBindings, edgeBindings)
	} else {
		view.vertexBindings = vertexBindings
		view.edgeBindings = edgeBindings
	}

	validateEndpoints(problems, view, edgeBindings)

	derivation := &Derivation{
		Parent:          parent,
		FilterHint:      definition.FilterHint,
		Postfilter:      definition.Postfilter,
		VertexPredicate: s.compile(problems, "vertex", definition.VertexPredicate),
		EdgePredicate:   s.compile(problems, "edge", definition.EdgePredicate),
		JoinPredicate:   s.compile(problems, "join", definition.JoinPredicate),
		InputGraphSize:  definition.InputGraphSize,
		Scope:           scope,
	}

	if derivation.InputGraphSize <= 0 {
		derivation.InputGraphSize = int(parent.NumVertices() + parent.NumEdges())
	}

	if err := problems.err(); err != nil {
		return nil, err
	}

	view.derivation = derivation
	return view, nil
}
