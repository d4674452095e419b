package container

import (
	"github.com/gammazero/deque"
	"github.com/specterops/relgraph/cardinality"
	"github.com/specterops/relgraph/graph"
)

// Adjacency is the minimal contract a breadth-first walk needs from a graph.
type Adjacency interface {
	EachAdjacentNode(node uint64, direction graph.Direction, delegate func(adjacent uint64) bool)
}

type reachCursor struct {
	node  uint64
	depth int
}

// Reach walks the adjacency breadth-first from the root node and returns every node reachable within maxDepth hops.
// A maxDepth of zero or less places no bound on the walk. The root node is only part of the result when a cycle leads
// back to it.
func Reach(adjacency Adjacency, root uint64, direction graph.Direction, maxDepth int) cardinality.Duplex[uint64] {
	var (
		reach      = cardinality.NewBitmap64()
		visited    = cardinality.NewBitmap64With(root)
		traversals deque.Deque[reachCursor]
	)

	traversals.PushBack(reachCursor{
		node: root,
	})

	for traversals.Len() > 0 {
		nextCursor := traversals.PopFront()

		if maxDepth > 0 && nextCursor.depth >= maxDepth {
			continue
		}

		adjacency.EachAdjacentNode(nextCursor.node, direction, func(adjacent uint64) bool {
			reach.Add(adjacent)

			if visited.CheckedAdd(adjacent) {
				traversals.PushBack(reachCursor{
					node:  adjacent,
					depth: nextCursor.depth + 1,
				})
			}

			return true
		})
	}

	return reach
}
