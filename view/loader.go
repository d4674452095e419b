package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/specterops/relgraph/cardinality"
	"github.com/specterops/relgraph/container"
	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/predicate"
	"github.com/specterops/relgraph/util"
)

var ErrNilView = errors.New("graph view is nil")

type filterMode int

const (
	filterNone filterMode = iota
	filterBeforeInsert
	filterAfterInsert
)

type loadedEdge struct {
	decoded Edge
	start   graph.ID
	end     graph.ID
}

// loader populates one view from one batch of decoded elements. Vertex keys are unique across the vertex labels of a
// view: the first label to claim a key in a batch, or the label already indexing it, keeps it.
type loader struct {
	ctx        context.Context
	view       *GraphView
	derivation *Derivation
	mode       filterMode
	recorder   *loadRecorder

	claimed        map[uint64]*LabelTableBinding
	decoded        map[uint64]Vertex
	vertexValues   map[uint64]map[string]any
	insertedVertex map[*LabelTableBinding]cardinality.Duplex[uint64]
	exciseVertex   map[*LabelTableBinding]cardinality.Duplex[uint64]
	insertedEdges  map[*LabelTableBinding]map[uint64]loadedEdge
	exciseEdges    map[*LabelTableBinding]cardinality.Duplex[uint64]
	verticesGone   bool
}

func newLoader(ctx context.Context, view *GraphView, numVertices, numEdges int) *loader {
	instance := &loader{
		ctx:            ctx,
		view:           view,
		derivation:     view.derivation,
		mode:           filterNone,
		recorder:       newLoadRecorder(numVertices, numEdges),
		claimed:        map[uint64]*LabelTableBinding{},
		decoded:        map[uint64]Vertex{},
		vertexValues:   map[uint64]map[string]any{},
		insertedVertex: map[*LabelTableBinding]cardinality.Duplex[uint64]{},
		exciseVertex:   map[*LabelTableBinding]cardinality.Duplex[uint64]{},
		insertedEdges:  map[*LabelTableBinding]map[uint64]loadedEdge{},
		exciseEdges:    map[*LabelTableBinding]cardinality.Duplex[uint64]{},
	}

	if derivation := view.derivation; derivation != nil {
		if derivation.VertexPredicate != nil || derivation.EdgePredicate != nil || derivation.JoinPredicate != nil {
			if derivation.Postfilter {
				instance.mode = filterAfterInsert
			} else {
				instance.mode = filterBeforeInsert
			}
		}
	}

	return instance
}

func setFor(sets map[*LabelTableBinding]cardinality.Duplex[uint64], binding *LabelTableBinding) cardinality.Duplex[uint64] {
	if set, found := sets[binding]; found {
		return set
	}

	set := cardinality.NewBitmap64()
	sets[binding] = set

	return set
}

func (s *loader) drop(kind ElementKind, label string, reason DropReason, args ...any) {
	s.recorder.drop(reason)

	slog.Debug("Dropped graph element", append([]any{
		slog.String("view", s.view.Name()),
		slog.String("kind", kind.String()),
		slog.String("label", label),
		slog.String("reason", string(reason)),
	}, args...)...)
}

func (s *loader) validateShapes(vertices []Vertex, edges []Edge) error {
	for _, vertex := range vertices {
		if len(vertex.Fields) != s.view.schema.Vertex.Len() {
			return &SchemaMismatchError{
				Label:    vertex.Label,
				Kind:     VertexKind,
				Expected: s.view.schema.Vertex.Len(),
				Actual:   len(vertex.Fields),
			}
		}
	}

	for _, edge := range edges {
		if len(edge.Fields) != s.view.schema.Edge.Len() {
			return &SchemaMismatchError{
				Label:    edge.Label,
				Kind:     EdgeKind,
				Expected: s.view.schema.Edge.Len(),
				Actual:   len(edge.Fields),
			}
		}
	}

	return nil
}

// ownedBinding resolves the binding an element loads into, dropping elements of unknown or inherited labels.
func (s *loader) ownedBinding(kind ElementKind, label string) (*LabelTableBinding, bool) {
	if binding, found := s.view.Binding(kind, label); !found {
		s.drop(kind, label, DropUnknownLabel)
		return nil, false
	} else if !s.view.Owns(binding) {
		s.drop(kind, label, DropUnownedLabel, slog.String("owner", binding.owner.String()))
		return nil, false
	} else {
		return binding, true
	}
}

func (s *loader) evaluate(role string, compiled predicate.Predicate, env predicate.Environment) bool {
	matched, err := predicate.Eval(compiled, env)
	if err != nil {
		slog.Debug("Predicate evaluation failed", slog.String("view", s.view.Name()), slog.String("predicate", role), slog.String("err", err.Error()))
		return false
	}

	return matched
}

func fieldsEnv(names []string, fields []any) map[string]any {
	env := make(map[string]any, len(names))

	for idx, name := range names {
		env[name] = fields[idx]
	}

	return env
}

// valuesOf materializes the values of a vertex for predicate evaluation: property table entries overlaid by the
// vertex's schema fields. Vertices not decoded in this batch are re-fetched from their backing table.
func (s *loader) valuesOf(id graph.ID) (map[string]any, error) {
	if values, cached := s.vertexValues[id.Uint64()]; cached {
		return values, nil
	}

	var fields []any

	if vertex, decoded := s.decoded[id.Uint64()]; decoded {
		fields = vertex.Fields
	} else if vertex, err := s.view.Vertex(s.ctx, id); err != nil {
		return nil, err
	} else {
		fields = vertex.Fields
	}

	values := map[string]any{}

	if s.view.propertyTable != nil {
		if properties, err := s.view.Properties(s.ctx, id); err != nil {
			return nil, err
		} else {
			values = properties.Map
		}
	}

	merged := fieldsEnv(s.view.schema.Vertex.Names(), fields)
	for key, value := range values {
		if _, shadowed := merged[key]; !shadowed {
			merged[key] = value
		}
	}

	s.vertexValues[id.Uint64()] = merged
	return merged, nil
}

func (s *loader) acceptVertex(id graph.ID) (bool, error) {
	if s.derivation.VertexPredicate == nil {
		return true, nil
	}

	if values, err := s.valuesOf(id); err != nil {
		return false, err
	} else {
		return s.evaluate("vertex", s.derivation.VertexPredicate, values), nil
	}
}

func (s *loader) acceptEdge(edge loadedEdge) (bool, error) {
	edgeValues := fieldsEnv(s.view.schema.Edge.Names(), edge.decoded.Fields)

	if s.derivation.EdgePredicate != nil && !s.evaluate("edge", s.derivation.EdgePredicate, edgeValues) {
		return false, nil
	}

	if s.derivation.JoinPredicate == nil {
		return true, nil
	}

	startValues, err := s.valuesOf(edge.start)
	if err != nil {
		return false, err
	}

	endValues, err := s.valuesOf(edge.end)
	if err != nil {
		return false, err
	}

	return s.evaluate("join", s.derivation.JoinPredicate, predicate.Environment{
		"edge":  edgeValues,
		"start": startValues,
		"end":   endValues,
	}), nil
}

func (s *loader) loadVertex(vertex Vertex) error {
	binding, owned := s.ownedBinding(VertexKind, vertex.Label)
	if !owned {
		return nil
	}

	id, err := vertex.ID()
	if err != nil {
		s.drop(VertexKind, vertex.Label, DropInvalidKey, slog.String("err", err.Error()))
		return nil
	}

	if claimer, claimed := s.claimed[id.Uint64()]; claimed && claimer != binding {
		s.drop(VertexKind, vertex.Label, DropDuplicateVertex, slog.String("id", id.String()), slog.String("claimed_by", claimer.Label()))
		return nil
	}

	if existing, found := s.view.VertexBindingOf(id); found && existing != binding {
		s.drop(VertexKind, vertex.Label, DropDuplicateVertex, slog.String("id", id.String()), slog.String("claimed_by", existing.Label()))
		return nil
	}

	s.claimed[id.Uint64()] = binding
	s.decoded[id.Uint64()] = vertex
	delete(s.vertexValues, id.Uint64())

	if s.mode == filterBeforeInsert {
		if accepted, err := s.acceptVertex(id); err != nil {
			return err
		} else if !accepted {
			s.drop(VertexKind, vertex.Label, DropPredicate, slog.String("id", id.String()))

			// A rejected reload of an indexed key retracts the earlier version
			if binding.Contains(id) {
				setFor(s.exciseVertex, binding).Add(id.Uint64())
			}

			return nil
		}
	}

	binding.putVertex(id.Uint64(), vertex.Ref())
	setFor(s.insertedVertex, binding).Add(id.Uint64())

	if excise, found := s.exciseVertex[binding]; found {
		excise.Remove(id.Uint64())
	}

	return nil
}

// resolveEndpoint returns the label of the indexed vertex the key refers to, or the reason the endpoint is rejected.
func (s *loader) resolveEndpoint(allowed graph.Kinds, explicitLabel string, id graph.ID) DropReason {
	binding, found := s.view.VertexBindingOf(id)
	if !found {
		return DropDanglingEndpoint
	}

	if explicitLabel != "" && explicitLabel != binding.Label() {
		return DropEndpointLabel
	}

	if !allowed.ContainsOneOf(binding.label) {
		return DropEndpointLabel
	}

	return ""
}

// retractEdge marks the indexed version of a rejected edge key for excision. A rejected reload of an edge key leaves
// no earlier version of it behind.
func (s *loader) retractEdge(binding *LabelTableBinding, id graph.ID) {
	if binding.Contains(id) {
		setFor(s.exciseEdges, binding).Add(id.Uint64())
	}

	delete(s.insertedEdges[binding], id.Uint64())
}

func (s *loader) loadEdge(edge Edge) error {
	binding, owned := s.ownedBinding(EdgeKind, edge.Label)
	if !owned {
		return nil
	}

	id, err := edge.ID()
	if err != nil {
		s.drop(EdgeKind, edge.Label, DropInvalidKey, slog.String("err", err.Error()))
		return nil
	}

	start, err := edge.StartID()
	if err != nil {
		s.drop(EdgeKind, edge.Label, DropInvalidKey, slog.String("err", err.Error()))
		s.retractEdge(binding, id)
		return nil
	}

	end, err := edge.EndID()
	if err != nil {
		s.drop(EdgeKind, edge.Label, DropInvalidKey, slog.String("err", err.Error()))
		s.retractEdge(binding, id)
		return nil
	}

	if reason := s.resolveEndpoint(binding.startLabels, edge.StartLabel, start); reason != "" {
		s.drop(EdgeKind, edge.Label, reason, slog.String("id", id.String()), slog.String("start", start.String()))
		s.retractEdge(binding, id)
		return nil
	}

	if reason := s.resolveEndpoint(binding.endLabels, edge.EndLabel, end); reason != "" {
		s.drop(EdgeKind, edge.Label, reason, slog.String("id", id.String()), slog.String("end", end.String()))
		s.retractEdge(binding, id)
		return nil
	}

	next := loadedEdge{
		decoded: edge,
		start:   start,
		end:     end,
	}

	if s.mode == filterBeforeInsert {
		if accepted, err := s.acceptEdge(next); err != nil {
			return err
		} else if !accepted {
			s.drop(EdgeKind, edge.Label, DropPredicate, slog.String("id", id.String()))
			s.retractEdge(binding, id)
			return nil
		}
	}

	binding.putEdge(container.Edge{
		ID:    id.Uint64(),
		Kind:  binding.label,
		Start: start.Uint64(),
		End:   end.Uint64(),
		Table: edge.Table,
		Row:   uint64(edge.Row),
	})

	if _, found := s.insertedEdges[binding]; !found {
		s.insertedEdges[binding] = map[uint64]loadedEdge{}
	}

	s.insertedEdges[binding][id.Uint64()] = next

	if excise, found := s.exciseEdges[binding]; found {
		excise.Remove(id.Uint64())
	}

	return nil
}

// postfilterVertices evaluates the vertex predicate against every vertex inserted by this batch and marks the failures for excision.
func (s *loader) postfilterVertices() error {
	for binding, inserted := range s.insertedVertex {
		var evaluationErr error

		inserted.Each(func(id uint64) bool {
			if accepted, err := s.acceptVertex(graph.ID(id)); err != nil {
				evaluationErr = err
				return false
			} else if !accepted {
				s.drop(VertexKind, binding.Label(), DropPredicate, slog.String("id", graph.ID(id).String()))
				setFor(s.exciseVertex, binding).Add(id)
			}

			return true
		})

		if evaluationErr != nil {
			return evaluationErr
		}
	}

	return nil
}

func (s *loader) applyVertexExcision() {
	for binding, excise := range s.exciseVertex {
		if removed := binding.removeVertices(excise); removed > 0 {
			s.recorder.stats.VerticesExcised += removed
			s.verticesGone = true
		}
	}

	clear(s.exciseVertex)
}

func (s *loader) postfilterEdges() error {
	for binding, inserted := range s.insertedEdges {
		for id, edge := range inserted {
			if !binding.Contains(graph.ID(id)) {
				continue
			}

			// Edges that lost an endpoint are removed by pruneDanglingEdges
			if !s.view.ContainsVertex(edge.start) || !s.view.ContainsVertex(edge.end) {
				continue
			}

			if accepted, err := s.acceptEdge(edge); err != nil {
				return err
			} else if !accepted {
				s.drop(EdgeKind, binding.Label(), DropPredicate, slog.String("id", graph.ID(id).String()))
				setFor(s.exciseEdges, binding).Add(id)
			}
		}
	}

	return nil
}

// pruneDanglingEdges marks owned edges whose start or end vertex is no longer part of the view.
func (s *loader) pruneDanglingEdges() {
	if !s.verticesGone {
		return
	}

	for _, binding := range s.view.edgeBindings {
		if !s.view.Owns(binding) {
			continue
		}

		binding.eachEdge(func(edge container.Edge) bool {
			if !s.view.ContainsVertex(graph.ID(edge.Start)) || !s.view.ContainsVertex(graph.ID(edge.End)) {
				setFor(s.exciseEdges, binding).Add(edge.ID)
			}

			return true
		})
	}
}

func (s *loader) applyEdgeExcision() {
	for binding, excise := range s.exciseEdges {
		s.recorder.stats.EdgesExcised += binding.removeEdges(excise)
	}

	clear(s.exciseEdges)
}

func (s *loader) tally() LoadStats {
	for binding, inserted := range s.insertedVertex {
		inserted.Each(func(id uint64) bool {
			if binding.members.Contains(id) {
				s.recorder.stats.VerticesLoaded++
			}

			return true
		})
	}

	for binding, inserted := range s.insertedEdges {
		for id, edge := range inserted {
			if binding.members.Contains(id) {
				s.recorder.stats.EdgesLoaded++
				s.recorder.endpoints.Add(edge.start.Uint64(), edge.end.Uint64())
			}
		}
	}

	return s.recorder.finish()
}

func (s *loader) load(vertices []Vertex, edges []Edge) (LoadStats, error) {
	if err := s.validateShapes(vertices, edges); err != nil {
		return LoadStats{}, err
	}

	for _, vertex := range vertices {
		if err := s.loadVertex(vertex); err != nil {
			return LoadStats{}, err
		}
	}

	if s.mode == filterAfterInsert {
		if err := s.postfilterVertices(); err != nil {
			return LoadStats{}, err
		}
	} else {
		s.applyVertexExcision()
	}

	for _, edge := range edges {
		if err := s.loadEdge(edge); err != nil {
			return LoadStats{}, err
		}
	}

	if s.mode == filterAfterInsert {
		s.applyVertexExcision()

		if err := s.postfilterEdges(); err != nil {
			return LoadStats{}, err
		}
	}

	s.pruneDanglingEdges()
	s.applyEdgeExcision()

	return s.tally(), nil
}

// LoadGraph populates the view's owned label indexes from decoded elements. Vertices load before edges. Elements of
// unknown or inherited labels, edges with rejected or missing endpoints and, in derived views, elements failing a
// predicate are dropped without error. A decoded element whose field count disagrees with the view schema fails the
// whole call before the view is touched. Storage errors raised while materializing predicate inputs abort the call
// and leave the view partially loaded.
func (s Factory) LoadGraph(ctx context.Context, view *GraphView, vertices []Vertex, edges []Edge) error {
	if view == nil {
		return ErrNilView
	}

	measure := util.SLogMeasureFunction("LoadGraph", slog.String("view", view.Name()))

	if stats, err := newLoader(ctx, view, len(vertices), len(edges)).load(vertices, edges); err != nil {
		measure(slog.String("err", err.Error()))
		return fmt.Errorf("loading graph view %s: %w", view.Name(), err)
	} else {
		view.lastLoad = stats

		measure(
			slog.Uint64("vertices_loaded", stats.VerticesLoaded),
			slog.Uint64("edges_loaded", stats.EdgesLoaded),
			slog.Int("dropped", stats.DroppedTotal()),
			slog.Uint64("distinct_endpoints", stats.DistinctEndpoints),
		)

		return nil
	}
}
