package view

import (
	"context"
	"fmt"

	"github.com/specterops/relgraph/container"
	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/predicate"
	"github.com/specterops/relgraph/storage"
)

// Derivation records how a derived view refines its parent.
type Derivation struct {
	Parent          *GraphView
	FilterHint      string
	Postfilter      bool
	VertexPredicate predicate.Predicate
	EdgePredicate   predicate.Predicate
	JoinPredicate   predicate.Predicate
	InputGraphSize  int
	Scope           Scope
}

// GraphView is a property graph assembled over relational tables. Label sets and bindings are fixed at construction;
// only the element indexes of owned bindings change, and only through LoadGraph. A GraphView is not safe for
// concurrent loading, nor for queries that overlap a load.
type GraphView struct {
	key            Key
	fingerprint    uint64
	directed       bool
	owner          Owner
	schema         GraphSchema
	propertyTable  storage.PropertyTable
	vertexBindings []*LabelTableBinding
	edgeBindings   []*LabelTableBinding
	derivation     *Derivation
	lastLoad       LoadStats
}

func (s *GraphView) Name() string {
	return s.key.Name
}

func (s *GraphView) Key() Key {
	return s.key
}

// Fingerprint returns the fingerprint of the definition the view was built from.
func (s *GraphView) Fingerprint() uint64 {
	return s.fingerprint
}

func (s *GraphView) IsDirected() bool {
	return s.directed
}

func (s *GraphView) Owner() Owner {
	return s.owner
}

func (s *GraphView) Schema() GraphSchema {
	return s.schema
}

func (s *GraphView) PropertyTable() storage.PropertyTable {
	return s.propertyTable
}

// Derivation returns the derivation record of a derived view or nil for a base view.
func (s *GraphView) Derivation() *Derivation {
	return s.derivation
}

func (s *GraphView) Parent() *GraphView {
	if s.derivation == nil {
		return nil
	}

	return s.derivation.Parent
}

// LastLoad returns the statistics of the most recent LoadGraph call.
func (s *GraphView) LastLoad() LoadStats {
	return s.lastLoad.Clone()
}

func labelsOf(bindings []*LabelTableBinding) []string {
	labels := make([]string, len(bindings))

	for idx, binding := range bindings {
		labels[idx] = binding.Label()
	}

	return labels
}

func (s *GraphView) VertexLabels() []string {
	return labelsOf(s.vertexBindings)
}

func (s *GraphView) EdgeLabels() []string {
	return labelsOf(s.edgeBindings)
}

func (s *GraphView) bindings(kind ElementKind) []*LabelTableBinding {
	if kind == EdgeKind {
		return s.edgeBindings
	}

	return s.vertexBindings
}

func (s *GraphView) Binding(kind ElementKind, label string) (*LabelTableBinding, bool) {
	for _, binding := range s.bindings(kind) {
		if binding.Label() == label {
			return binding, true
		}
	}

	return nil, false
}

func (s *GraphView) lookupBinding(kind ElementKind, label string) (*LabelTableBinding, error) {
	if binding, found := s.Binding(kind, label); !found {
		return nil, fmt.Errorf("%w: view %s has no %s label %q", ErrUnknownLabel, s.key.Name, kind, label)
	} else {
		return binding, nil
	}
}

// Owns returns true if the view may mutate the binding.
func (s *GraphView) Owns(binding *LabelTableBinding) bool {
	return binding.owner == s.owner
}

// EndpointLabels returns the vertex labels allowed at the start and end of edges of the given label.
func (s *GraphView) EndpointLabels(edgeLabel string) (graph.Kinds, graph.Kinds, error) {
	if binding, err := s.lookupBinding(EdgeKind, edgeLabel); err != nil {
		return nil, nil, err
	} else {
		return binding.StartLabels(), binding.EndLabels(), nil
	}
}

// VertexBindingOf returns the binding that indexes the vertex key.
func (s *GraphView) VertexBindingOf(id graph.ID) (*LabelTableBinding, bool) {
	for _, binding := range s.vertexBindings {
		if binding.members.Contains(id.Uint64()) {
			return binding, true
		}
	}

	return nil, false
}

func (s *GraphView) ContainsVertex(id graph.ID) bool {
	_, found := s.VertexBindingOf(id)
	return found
}

// ownsVertexSet returns true if every vertex binding of the view is owned by it. Inherited vertex bindings may lose
// members when the view that owns them reloads.
func (s *GraphView) ownsVertexSet() bool {
	for _, binding := range s.vertexBindings {
		if !s.Owns(binding) {
			return false
		}
	}

	return true
}

// edgeVisible hides edges whose endpoints are not part of this view's vertex set. Owned edges over an owned vertex set
// are pruned by the loader and skip the check.
func (s *GraphView) edgeVisible(binding *LabelTableBinding, edge container.Edge) bool {
	if s.Owns(binding) && s.ownsVertexSet() {
		return true
	}

	return s.ContainsVertex(graph.ID(edge.Start)) && s.ContainsVertex(graph.ID(edge.End))
}

// EachVertex visits the vertices of the given label in ascending key order.
func (s *GraphView) EachVertex(label string, delegate func(id graph.ID, ref RowRef) bool) error {
	binding, err := s.lookupBinding(VertexKind, label)
	if err != nil {
		return err
	}

	binding.members.Each(func(id uint64) bool {
		return delegate(graph.ID(id), binding.rows[id])
	})

	return nil
}

// EachEdge visits the visible edges of the given label in insertion order.
func (s *GraphView) EachEdge(label string, delegate func(edge container.Edge) bool) error {
	binding, err := s.lookupBinding(EdgeKind, label)
	if err != nil {
		return err
	}

	binding.eachEdge(func(edge container.Edge) bool {
		if s.edgeVisible(binding, edge) {
			return delegate(edge)
		}

		return true
	})

	return nil
}

func (s *GraphView) NumVertices() uint64 {
	var count uint64

	for _, binding := range s.vertexBindings {
		count += binding.Len()
	}

	return count
}

func (s *GraphView) NumEdges() uint64 {
	var (
		count         uint64
		ownsVertexSet = s.ownsVertexSet()
	)

	for _, binding := range s.edgeBindings {
		if ownsVertexSet && s.Owns(binding) {
			count += binding.Len()
		} else {
			binding.eachEdge(func(edge container.Edge) bool {
				if s.edgeVisible(binding, edge) {
					count++
				}

				return true
			})
		}
	}

	return count
}

// Vertex re-fetches the vertex with the given key from its backing table.
func (s *GraphView) Vertex(ctx context.Context, id graph.ID) (Vertex, error) {
	binding, found := s.VertexBindingOf(id)
	if !found {
		return Vertex{}, fmt.Errorf("%w: vertex %s in view %s", ErrNoSuchElement, id, s.key.Name)
	}

	ref := binding.rows[id.Uint64()]

	if fields, err := binding.Fetch(ctx, ref); err != nil {
		return Vertex{}, err
	} else {
		return Vertex{
			Label:  binding.Label(),
			Table:  ref.Table,
			Row:    ref.Row,
			Fields: fields,
		}, nil
	}
}

// Edge re-fetches the edge of the given label and key from its backing table.
func (s *GraphView) Edge(ctx context.Context, label string, id graph.ID) (Edge, error) {
	binding, err := s.lookupBinding(EdgeKind, label)
	if err != nil {
		return Edge{}, err
	}

	edge, found := binding.Edge(id)
	if !found || !s.edgeVisible(binding, edge) {
		return Edge{}, fmt.Errorf("%w: %s edge %s in view %s", ErrNoSuchElement, label, id, s.key.Name)
	}

	ref := RowRef{
		Table: edge.Table,
		Row:   storage.RowID(edge.Row),
	}

	if fields, err := binding.Fetch(ctx, ref); err != nil {
		return Edge{}, err
	} else {
		decoded := Edge{
			Label:  label,
			Table:  ref.Table,
			Row:    ref.Row,
			Fields: fields,
		}

		if startBinding, found := s.VertexBindingOf(graph.ID(edge.Start)); found {
			decoded.StartLabel = startBinding.Label()
		}

		if endBinding, found := s.VertexBindingOf(graph.ID(edge.End)); found {
			decoded.EndLabel = endBinding.Label()
		}

		return decoded, nil
	}
}

// Properties returns the out of band properties of the given key from the view's property table. Views without a
// property table return an empty bag.
func (s *GraphView) Properties(ctx context.Context, id graph.ID) (*graph.Properties, error) {
	if s.propertyTable == nil {
		return graph.NewProperties(), nil
	}

	if properties, err := s.propertyTable.Lookup(ctx, id); err != nil {
		return nil, fmt.Errorf("looking up properties of %s in %s: %w", id, s.propertyTable.Name(), err)
	} else if properties == nil {
		return graph.NewProperties(), nil
	} else {
		return properties, nil
	}
}
