package container_test

import (
	"testing"

	"github.com/specterops/relgraph/container"
	"github.com/specterops/relgraph/graph"
	"github.com/stretchr/testify/require"
)

type tripleAdjacency struct {
	ts container.Triplestore
}

func (s tripleAdjacency) EachAdjacentNode(node uint64, direction graph.Direction, delegate func(adjacent uint64) bool) {
	s.ts.EachAdjacentEdge(node, direction, func(next container.Edge) bool {
		return delegate(next.Other(node))
	})
}

func TestReach(t *testing.T) {
	var (
		ts       = container.NewTriplestore()
		expected = map[uint64][]uint64{
			1: {2, 3, 4, 5, 6, 7},
			2: {3, 4, 5, 6, 7},
			3: {4, 5, 6, 7},
			4: {},
			5: {6},
			6: {},
			7: {},
		}
	)

	ts.AddEdge(container.Edge{ID: 1, Start: 1, End: 2})
	ts.AddEdge(container.Edge{ID: 2, Start: 2, End: 3})
	ts.AddEdge(container.Edge{ID: 3, Start: 3, End: 4})
	ts.AddEdge(container.Edge{ID: 4, Start: 3, End: 5})
	ts.AddEdge(container.Edge{ID: 5, Start: 5, End: 6})
	ts.AddEdge(container.Edge{ID: 6, Start: 3, End: 7})

	for node, expectedReach := range expected {
		actualReach := container.Reach(tripleAdjacency{ts: ts}, node, graph.DirectionOutbound, 0).Slice()
		require.ElementsMatch(t, expectedReach, actualReach)
	}

	require.ElementsMatch(t, []uint64{2, 3}, container.Reach(tripleAdjacency{ts: ts}, 1, graph.DirectionOutbound, 2).Slice())
	require.ElementsMatch(t, []uint64{1, 2, 3}, container.Reach(tripleAdjacency{ts: ts}, 4, graph.DirectionInbound, 0).Slice())
}
