package view

import (
	"context"
	"fmt"
	"slices"

	"github.com/specterops/relgraph/cardinality"
	"github.com/specterops/relgraph/container"
	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/storage"
)

// LabelTableBinding associates one vertex or edge label with the tables that store its instances and the column
// offsets, within each table's native tuple, that project onto the view's schema fields. The binding also holds the
// label's element index: a member set and row references for vertices, a triplestore for edges.
type LabelTableBinding struct {
	kind        ElementKind
	label       graph.Kind
	owner       Owner
	tables      []storage.Table
	columnIDs   []int
	columnNames []string
	startLabels graph.Kinds
	endLabels   graph.Kinds

	members cardinality.Duplex[uint64]
	rows    map[uint64]RowRef
	edges   container.MutableTriplestore
}

func newBinding(kind ElementKind, label string, owner Owner, columnIDs []int, columnNames []string) *LabelTableBinding {
	binding := &LabelTableBinding{
		kind:        kind,
		label:       graph.StringKind(label),
		owner:       owner,
		columnIDs:   slices.Clone(columnIDs),
		columnNames: slices.Clone(columnNames),
		members:     cardinality.NewBitmap64(),
	}

	if kind == VertexKind {
		binding.rows = map[uint64]RowRef{}
	} else {
		binding.edges = container.NewTriplestore()
	}

	return binding
}

func (s *LabelTableBinding) Kind() ElementKind {
	return s.kind
}

func (s *LabelTableBinding) Label() string {
	return s.label.String()
}

func (s *LabelTableBinding) Owner() Owner {
	return s.owner
}

func (s *LabelTableBinding) Tables() []storage.Table {
	return slices.Clone(s.tables)
}

func (s *LabelTableBinding) TableNames() []string {
	names := make([]string, len(s.tables))

	for idx, table := range s.tables {
		names[idx] = table.Name()
	}

	return names
}

func (s *LabelTableBinding) ColumnIDs() []int {
	return slices.Clone(s.columnIDs)
}

func (s *LabelTableBinding) ColumnNames() []string {
	return slices.Clone(s.columnNames)
}

// StartLabels returns the vertex labels allowed as the start of an edge of this label. Vertex bindings return nil.
func (s *LabelTableBinding) StartLabels() graph.Kinds {
	return s.startLabels.Copy()
}

// EndLabels returns the vertex labels allowed as the end of an edge of this label. Vertex bindings return nil.
func (s *LabelTableBinding) EndLabels() graph.Kinds {
	return s.endLabels.Copy()
}

// Len returns the number of elements indexed under this label.
func (s *LabelTableBinding) Len() uint64 {
	return s.members.Cardinality()
}

func (s *LabelTableBinding) Contains(id graph.ID) bool {
	return s.members.Contains(id.Uint64())
}

// IDs returns the keys indexed under this label in ascending order.
func (s *LabelTableBinding) IDs() []graph.ID {
	var ids []graph.ID

	s.members.Each(func(value uint64) bool {
		ids = append(ids, graph.ID(value))
		return true
	})

	return ids
}

// Row returns the row reference of the indexed vertex with the given key.
func (s *LabelTableBinding) Row(id graph.ID) (RowRef, bool) {
	ref, exists := s.rows[id.Uint64()]
	return ref, exists
}

// Edge returns the indexed edge with the given key.
func (s *LabelTableBinding) Edge(id graph.ID) (container.Edge, bool) {
	if s.edges == nil {
		return container.Edge{}, false
	}

	return s.edges.Edge(id.Uint64())
}

// Fetch re-reads the tuple behind the row reference and projects it onto the view's schema.
func (s *LabelTableBinding) Fetch(ctx context.Context, ref RowRef) ([]any, error) {
	if ref.Table < 0 || ref.Table >= len(s.tables) {
		return nil, fmt.Errorf("%s %s has no table at position %d: %w", s.kind, s.label, ref.Table, storage.ErrNoSuchRow)
	}

	if tuple, err := s.tables[ref.Table].Fetch(ctx, ref.Row); err != nil {
		return nil, fmt.Errorf("fetching %s %s row %s: %w", s.kind, s.label, ref, err)
	} else {
		return tuple.Project(s.columnIDs)
	}
}

// project maps a scanned tuple onto the view's schema.
func (s *LabelTableBinding) project(tuple storage.Tuple) ([]any, error) {
	return tuple.Project(s.columnIDs)
}

func (s *LabelTableBinding) putVertex(id uint64, ref RowRef) {
	s.members.Add(id)
	s.rows[id] = ref
}

func (s *LabelTableBinding) removeVertices(ids cardinality.Duplex[uint64]) uint64 {
	var removed uint64

	ids.Each(func(id uint64) bool {
		if s.members.Contains(id) {
			s.members.Remove(id)
			delete(s.rows, id)
			removed++
		}

		return true
	})

	return removed
}

func (s *LabelTableBinding) putEdge(edge container.Edge) {
	s.members.Add(edge.ID)
	s.edges.AddEdge(edge)
}

func (s *LabelTableBinding) removeEdges(ids cardinality.Duplex[uint64]) uint64 {
	s.members.AndNot(ids)
	return s.edges.RemoveEdges(ids)
}

func (s *LabelTableBinding) eachEdge(delegate func(edge container.Edge) bool) {
	if s.edges != nil {
		s.edges.EachEdge(delegate)
	}
}

func (s *LabelTableBinding) eachAdjacentEdge(node uint64, direction graph.Direction, delegate func(edge container.Edge) bool) {
	if s.edges != nil {
		s.edges.EachAdjacentEdge(node, direction, delegate)
	}
}

// sameShape returns true if the other binding projects the same columns and carries the same endpoint labels.
func (s *LabelTableBinding) sameShape(columnIDs []int, startLabels, endLabels graph.Kinds) bool {
	return slices.Equal(s.columnIDs, columnIDs) &&
		s.startLabels.Hash() == startLabels.Hash() &&
		s.endLabels.Hash() == endLabels.Hash()
}
