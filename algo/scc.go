// Package algo holds graph algorithms that run directly over graph view adjacency.
package algo

import (
	"math"

	"github.com/specterops/relgraph/cardinality"
	"github.com/specterops/relgraph/container"
	"github.com/specterops/relgraph/graph"
)

// Digraph is satisfied by *view.GraphView. Undirected views report every edge in both directions, which makes
// strongly connected components of an undirected view its connected components.
type Digraph interface {
	container.Adjacency

	EachNode(delegate func(node uint64) bool)
}

func adjacent(digraph container.Adjacency, node uint64, direction graph.Direction) []uint64 {
	var adjacentNodes []uint64

	digraph.EachAdjacentNode(node, direction, func(adjacentNode uint64) bool {
		adjacentNodes = append(adjacentNodes, adjacentNode)
		return true
	})

	return adjacentNodes
}

// StronglyConnectedComponents runs an iterative Tarjan search and returns the components along with a reverse index
// of node to component offset. Components are emitted in reverse topological order.
func StronglyConnectedComponents(digraph Digraph, direction graph.Direction) ([]cardinality.Duplex[uint64], map[uint64]int) {
	type descentCursor struct {
		id        uint64
		branches  []uint64
		branchIdx int
	}

	var (
		numNodes                    = countNodes(digraph)
		initialAlloc                = int64(math.Sqrt(float64(numNodes)))
		lastSearchedNodeID          = uint64(0)
		index                       = 0
		visitedIndex                = make(map[uint64]int, numNodes)
		lowLinks                    = make(map[uint64]int, numNodes)
		onStack                     = cardinality.NewBitmap64()
		stack                       = make([]uint64, 0, initialAlloc)
		dfsDescentStack             = make([]*descentCursor, 0, initialAlloc)
		stronglyConnectedComponents = make([]cardinality.Duplex[uint64], 0, initialAlloc)
		nodeToSCCIndex              = make(map[uint64]int, numNodes)
	)

	digraph.EachNode(func(node uint64) bool {
		if _, visited := visitedIndex[node]; visited {
			return true
		}

		dfsDescentStack = append(dfsDescentStack, &descentCursor{
			id:        node,
			branches:  adjacent(digraph, node, direction),
			branchIdx: 0,
		})

		for len(dfsDescentStack) > 0 {
			nextCursor := dfsDescentStack[len(dfsDescentStack)-1]

			if nextCursor.branchIdx == 0 {
				// First visit of this node
				visitedIndex[nextCursor.id] = index
				lowLinks[nextCursor.id] = index
				index += 1

				stack = append(stack, nextCursor.id)
				onStack.Add(nextCursor.id)
			} else if lastSearchedNodeID != nextCursor.id {
				// Revisiting this node from a descending DFS
				lowLinks[nextCursor.id] = min(lowLinks[nextCursor.id], lowLinks[lastSearchedNodeID])
			}

			lastSearchedNodeID = nextCursor.id

			if nextCursor.branchIdx < len(nextCursor.branches) {
				nextBranchID := nextCursor.branches[nextCursor.branchIdx]
				nextCursor.branchIdx += 1

				if _, visited := visitedIndex[nextBranchID]; !visited {
					lastSearchedNodeID = nextBranchID

					dfsDescentStack = append(dfsDescentStack, &descentCursor{
						id:        nextBranchID,
						branches:  adjacent(digraph, nextBranchID, direction),
						branchIdx: 0,
					})
				} else if onStack.Contains(nextBranchID) {
					// Branch is on the traversal stack; hence it is also in the current SCC
					lowLinks[nextCursor.id] = min(lowLinks[nextCursor.id], visitedIndex[nextBranchID])
				}
			} else {
				dfsDescentStack = dfsDescentStack[:len(dfsDescentStack)-1]

				if lowLinks[nextCursor.id] == visitedIndex[nextCursor.id] {
					var (
						scc   = cardinality.NewBitmap64()
						sccID = len(stronglyConnectedComponents)
					)

					for {
						// Unwind the stack to the root of the component
						currentNode := stack[len(stack)-1]
						stack = stack[:len(stack)-1]

						onStack.Remove(currentNode)
						scc.Add(currentNode)

						nodeToSCCIndex[currentNode] = sccID

						if currentNode == nextCursor.id {
							break
						}
					}

					stronglyConnectedComponents = append(stronglyConnectedComponents, scc)
				}
			}
		}

		return true
	})

	return stronglyConnectedComponents, nodeToSCCIndex
}

func countNodes(digraph Digraph) uint64 {
	var count uint64

	digraph.EachNode(func(uint64) bool {
		count++
		return true
	})

	return count
}

// ComponentGraph is the condensation of a digraph: one node per strongly connected component and one edge per
// distinct pair of adjacent components.
type ComponentGraph struct {
	components      []cardinality.Duplex[uint64]
	memberComponent map[uint64]int
	edges           container.MutableTriplestore
}

func NewComponentGraph(digraph Digraph, direction graph.Direction) ComponentGraph {
	var (
		components, memberComponent = StronglyConnectedComponents(digraph, direction)
		edges                       = container.NewTriplestore()
		seenEdges                   = map[[2]uint64]struct{}{}
	)

	digraph.EachNode(func(node uint64) bool {
		nodeComponent := uint64(memberComponent[node])

		digraph.EachAdjacentNode(node, direction, func(adjacentNode uint64) bool {
			if adjacentComponent := uint64(memberComponent[adjacentNode]); nodeComponent != adjacentComponent {
				pair := [2]uint64{nodeComponent, adjacentComponent}

				if direction == graph.DirectionInbound {
					pair = [2]uint64{adjacentComponent, nodeComponent}
				}

				if _, seen := seenEdges[pair]; !seen {
					seenEdges[pair] = struct{}{}

					edges.AddEdge(container.Edge{
						ID:    uint64(len(seenEdges)),
						Start: pair[0],
						End:   pair[1],
					})
				}
			}

			return true
		})

		return true
	})

	return ComponentGraph{
		components:      components,
		memberComponent: memberComponent,
		edges:           edges,
	}
}

func (s ComponentGraph) NumComponents() int {
	return len(s.components)
}

func (s ComponentGraph) NumEdges() uint64 {
	return s.edges.NumEdges()
}

func (s ComponentGraph) Members(component int) cardinality.Duplex[uint64] {
	if component < 0 || component >= len(s.components) {
		return cardinality.NewBitmap64()
	}

	return s.components[component]
}

func (s ComponentGraph) ContainingComponent(node uint64) (int, bool) {
	component, found := s.memberComponent[node]
	return component, found
}

// EachAdjacentNode walks the condensed edges and satisfies container.Adjacency.
func (s ComponentGraph) EachAdjacentNode(component uint64, direction graph.Direction, delegate func(adjacent uint64) bool) {
	s.edges.EachAdjacentEdge(component, direction, func(edge container.Edge) bool {
		return delegate(edge.Other(component))
	})
}

// ComponentReachable returns true if the end component is reachable from the start component in the given direction.
// Every component reaches itself.
func (s ComponentGraph) ComponentReachable(start, end int, direction graph.Direction) bool {
	if start == end {
		return true
	}

	return container.Reach(s, uint64(start), direction, 0).Contains(uint64(end))
}

// ComponentHistogram counts how many of the given nodes fall into each component. Unknown nodes are skipped.
func (s ComponentGraph) ComponentHistogram(nodes []uint64) map[int]uint64 {
	histogram := map[int]uint64{}

	for _, node := range nodes {
		if component, found := s.memberComponent[node]; found {
			histogram[component] += 1
		}
	}

	return histogram
}
