package view

import (
	"slices"

	"github.com/specterops/relgraph/cardinality"
	"github.com/specterops/relgraph/container"
	"github.com/specterops/relgraph/graph"
)

// traversalDirection widens the requested direction for undirected views, where every edge is walkable both ways.
func (s *GraphView) traversalDirection(direction graph.Direction) graph.Direction {
	if !s.directed {
		return graph.DirectionBoth
	}

	return direction
}

// EachAdjacentEdge visits the visible edges of every edge label adjacent to the vertex in the given direction.
func (s *GraphView) EachAdjacentEdge(id graph.ID, direction graph.Direction, delegate func(edge container.Edge) bool) {
	direction = s.traversalDirection(direction)

	for _, binding := range s.edgeBindings {
		shouldContinue := true

		binding.eachAdjacentEdge(id.Uint64(), direction, func(edge container.Edge) bool {
			if s.edgeVisible(binding, edge) {
				shouldContinue = delegate(edge)
			}

			return shouldContinue
		})

		if !shouldContinue {
			return
		}
	}
}

// EachNode visits the key of every vertex in the view, label by label in ascending key order.
func (s *GraphView) EachNode(delegate func(node uint64) bool) {
	for _, binding := range s.vertexBindings {
		shouldContinue := true

		binding.members.Each(func(id uint64) bool {
			shouldContinue = delegate(id)
			return shouldContinue
		})

		if !shouldContinue {
			return
		}
	}
}

// EachAdjacentNode satisfies container.Adjacency.
func (s *GraphView) EachAdjacentNode(node uint64, direction graph.Direction, delegate func(adjacent uint64) bool) {
	s.EachAdjacentEdge(graph.ID(node), direction, func(edge container.Edge) bool {
		return delegate(edge.Other(node))
	})
}

// Neighbors returns the distinct keys of vertices one hop away in ascending order.
func (s *GraphView) Neighbors(id graph.ID, direction graph.Direction) []graph.ID {
	neighbors := cardinality.NewBitmap64()

	s.EachAdjacentNode(id.Uint64(), direction, func(adjacent uint64) bool {
		neighbors.Add(adjacent)
		return true
	})

	return toIDs(neighbors)
}

// Reach returns the keys of every vertex reachable from the root within maxDepth hops in ascending order. A maxDepth
// of zero or less places no bound on the walk.
func (s *GraphView) Reach(id graph.ID, direction graph.Direction, maxDepth int) []graph.ID {
	return toIDs(container.Reach(s, id.Uint64(), direction, maxDepth))
}

func toIDs(set cardinality.Duplex[uint64]) []graph.ID {
	ids := make([]graph.ID, 0, set.Cardinality())

	set.Each(func(value uint64) bool {
		ids = append(ids, graph.ID(value))
		return true
	})

	return slices.Clip(ids)
}
