package container

import (
	"slices"

	"github.com/specterops/relgraph/cardinality"
	"github.com/specterops/relgraph/graph"
)

// Edge is the traversal-facing projection of a graph view edge. Row is the positional reference back into the
// edge label's backing tables.
type Edge struct {
	ID    uint64     `json:"id"`
	Kind  graph.Kind `json:"kind"`
	Start uint64     `json:"start_id"`
	End   uint64     `json:"end_id"`
	Table int        `json:"table"`
	Row   uint64     `json:"row"`
}

// Other returns the endpoint opposite of the given vertex.
func (s Edge) Other(node uint64) uint64 {
	if node == s.Start {
		return s.End
	}

	return s.Start
}

type Triplestore interface {
	NumEdges() uint64
	ContainsEdge(id uint64) bool
	Edge(id uint64) (Edge, bool)
	EachEdge(delegate func(next Edge) bool)
	EachAdjacentEdge(node uint64, direction graph.Direction, delegate func(next Edge) bool)
}

type MutableTriplestore interface {
	Triplestore

	AddEdge(edge Edge)
	RemoveEdges(ids cardinality.Duplex[uint64]) uint64
}

type triplestore struct {
	edges      []Edge
	positions  map[uint64]int
	startIndex map[uint64][]int
	endIndex   map[uint64][]int
}

func NewTriplestore() MutableTriplestore {
	return &triplestore{
		positions:  map[uint64]int{},
		startIndex: map[uint64][]int{},
		endIndex:   map[uint64][]int{},
	}
}

func (s *triplestore) reindex() {
	// Clear but preserve allocations
	clear(s.positions)
	clear(s.startIndex)
	clear(s.endIndex)

	for edgeIdx, edge := range s.edges {
		s.positions[edge.ID] = edgeIdx
		s.startIndex[edge.Start] = append(s.startIndex[edge.Start], edgeIdx)
		s.endIndex[edge.End] = append(s.endIndex[edge.End], edgeIdx)
	}
}

func (s *triplestore) NumEdges() uint64 {
	return uint64(len(s.edges))
}

func (s *triplestore) ContainsEdge(id uint64) bool {
	_, exists := s.positions[id]
	return exists
}

func (s *triplestore) Edge(id uint64) (Edge, bool) {
	if position, exists := s.positions[id]; exists {
		return s.edges[position], true
	}

	return Edge{}, false
}

// AddEdge appends the edge to the store. An edge that reuses an existing ID replaces the stored edge in place.
func (s *triplestore) AddEdge(edge Edge) {
	if position, exists := s.positions[edge.ID]; exists {
		previous := s.edges[position]
		s.edges[position] = edge

		if previous.Start != edge.Start || previous.End != edge.End {
			s.reindex()
		}

		return
	}

	s.edges = append(s.edges, edge)
	edgeIdx := len(s.edges) - 1

	s.positions[edge.ID] = edgeIdx
	s.startIndex[edge.Start] = append(s.startIndex[edge.Start], edgeIdx)
	s.endIndex[edge.End] = append(s.endIndex[edge.End], edgeIdx)
}

// RemoveEdges compacts the store, dropping every edge whose ID is in the given set, and returns the number of edges
// removed. Node lookups are rebuilt once per call.
func (s *triplestore) RemoveEdges(ids cardinality.Duplex[uint64]) uint64 {
	if ids == nil || ids.Cardinality() == 0 {
		return 0
	}

	before := len(s.edges)
	s.edges = slices.DeleteFunc(s.edges, func(edge Edge) bool {
		return ids.Contains(edge.ID)
	})

	if removed := before - len(s.edges); removed > 0 {
		s.reindex()
		return uint64(removed)
	}

	return 0
}

func (s *triplestore) EachEdge(delegate func(edge Edge) bool) {
	for _, nextEdge := range s.edges {
		if !delegate(nextEdge) {
			break
		}
	}
}

func (s *triplestore) adjacentEdgeIndices(node uint64, direction graph.Direction) []int {
	switch direction {
	case graph.DirectionOutbound:
		return s.startIndex[node]

	case graph.DirectionInbound:
		return s.endIndex[node]

	default:
		var (
			outboundEdges = s.startIndex[node]
			inboundEdges  = s.endIndex[node]
			edgeIndices   = make([]int, 0, len(outboundEdges)+len(inboundEdges))
		)

		edgeIndices = append(edgeIndices, outboundEdges...)

		for _, edgeIdx := range inboundEdges {
			// Self-loops are already present from the outbound side
			if s.edges[edgeIdx].Start != node {
				edgeIndices = append(edgeIndices, edgeIdx)
			}
		}

		return edgeIndices
	}
}

func (s *triplestore) EachAdjacentEdge(node uint64, direction graph.Direction, delegate func(next Edge) bool) {
	for _, edgeIndex := range s.adjacentEdgeIndices(node, direction) {
		if !delegate(s.edges[edgeIndex]) {
			break
		}
	}
}
