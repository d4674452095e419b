package container

import (
	"testing"

	"github.com/specterops/relgraph/cardinality"
	"github.com/specterops/relgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adjacentEdges(ts Triplestore, node uint64, direction graph.Direction) []Edge {
	var edges []Edge

	ts.EachAdjacentEdge(node, direction, func(next Edge) bool {
		edges = append(edges, next)
		return true
	})

	return edges
}

func TestAddEdge(t *testing.T) {
	ts := NewTriplestore()

	edge := Edge{
		ID:    1,
		Kind:  graph.StringKind("Knows"),
		Start: 10,
		End:   20,
	}

	ts.AddEdge(edge)
	assert.Equal(t, uint64(1), ts.NumEdges())
	assert.True(t, ts.ContainsEdge(1))

	fetched, found := ts.Edge(1)
	assert.True(t, found)
	assert.Equal(t, edge, fetched)
}

func TestAddEdgeReplacesExisting(t *testing.T) {
	ts := NewTriplestore()

	ts.AddEdge(Edge{ID: 1, Start: 10, End: 20})
	ts.AddEdge(Edge{ID: 1, Start: 10, End: 30, Row: 7})

	require.Equal(t, uint64(1), ts.NumEdges())
	require.Empty(t, adjacentEdges(ts, 20, graph.DirectionInbound))
	require.Len(t, adjacentEdges(ts, 30, graph.DirectionInbound), 1)

	fetched, _ := ts.Edge(1)
	require.Equal(t, uint64(7), fetched.Row)
}

func TestEachEdge(t *testing.T) {
	ts := NewTriplestore()

	edges := []Edge{
		{ID: 1, Start: 10, End: 20},
		{ID: 2, Start: 20, End: 30},
	}

	for _, e := range edges {
		ts.AddEdge(e)
	}

	var collected []Edge
	ts.EachEdge(func(e Edge) bool {
		collected = append(collected, e)
		return true
	})

	assert.Equal(t, edges, collected)
}

func TestAdjacentEdges(t *testing.T) {
	ts := NewTriplestore()

	edges := []Edge{
		{ID: 1, Start: 10, End: 20},
		{ID: 2, Start: 20, End: 30},
		{ID: 3, Start: 10, End: 30},
		{ID: 4, Start: 30, End: 30},
	}

	for _, e := range edges {
		ts.AddEdge(e)
	}

	assert.Len(t, adjacentEdges(ts, 10, graph.DirectionOutbound), 2)
	assert.Len(t, adjacentEdges(ts, 30, graph.DirectionInbound), 3)
	assert.Len(t, adjacentEdges(ts, 20, graph.DirectionBoth), 2)

	// The self-loop must only be reported once when walking both directions
	assert.Len(t, adjacentEdges(ts, 30, graph.DirectionBoth), 3)
}

func TestRemoveEdges(t *testing.T) {
	ts := NewTriplestore()

	for id := uint64(1); id <= 4; id++ {
		ts.AddEdge(Edge{ID: id, Start: id, End: id + 1})
	}

	removed := ts.RemoveEdges(cardinality.NewBitmap64With(2, 4, 99))
	require.Equal(t, uint64(2), removed)
	require.Equal(t, uint64(2), ts.NumEdges())
	require.False(t, ts.ContainsEdge(2))
	require.Empty(t, adjacentEdges(ts, 2, graph.DirectionOutbound))

	remaining, found := ts.Edge(3)
	require.True(t, found)
	require.Equal(t, uint64(4), remaining.End)
	require.Len(t, adjacentEdges(ts, 3, graph.DirectionOutbound), 1)

	require.Zero(t, ts.RemoveEdges(nil))
	require.Zero(t, ts.RemoveEdges(cardinality.NewBitmap64()))
}

func TestEdgeOther(t *testing.T) {
	edge := Edge{ID: 1, Start: 10, End: 20}

	assert.Equal(t, uint64(10), edge.Other(20))
	assert.Equal(t, uint64(20), edge.Other(10))
}
