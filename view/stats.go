package view

import (
	"maps"
	"time"

	"github.com/specterops/relgraph/cardinality"
)

// DropReason names why the loader left an element out of a view.
type DropReason string

const (
	DropUnknownLabel     DropReason = "unknown_label"
	DropUnownedLabel     DropReason = "unowned_label"
	DropInvalidKey       DropReason = "invalid_key"
	DropDuplicateVertex  DropReason = "duplicate_vertex"
	DropEndpointLabel    DropReason = "endpoint_label"
	DropDanglingEndpoint DropReason = "dangling_endpoint"
	DropPredicate        DropReason = "predicate"
)

// LoadStats summarizes one LoadGraph call.
type LoadStats struct {
	VerticesDecoded int
	EdgesDecoded    int
	VerticesLoaded  uint64
	EdgesLoaded     uint64

	// VerticesExcised and EdgesExcised count elements removed after insertion, either by postfilter excision or
	// because an endpoint was removed.
	VerticesExcised uint64
	EdgesExcised    uint64
	Dropped         map[DropReason]int

	// DistinctEndpoints is a HyperLogLog estimate of the number of distinct vertex keys referenced by loaded edges.
	DistinctEndpoints uint64
	Elapsed           time.Duration
}

func (s LoadStats) DroppedTotal() int {
	total := 0

	for _, count := range s.Dropped {
		total += count
	}

	return total
}

func (s LoadStats) Clone() LoadStats {
	clone := s
	clone.Dropped = maps.Clone(s.Dropped)

	return clone
}

type loadRecorder struct {
	stats     LoadStats
	endpoints cardinality.Simplex[uint64]
	started   time.Time
}

func newLoadRecorder(vertices, edges int) *loadRecorder {
	return &loadRecorder{
		stats: LoadStats{
			VerticesDecoded: vertices,
			EdgesDecoded:    edges,
			Dropped:         map[DropReason]int{},
		},
		endpoints: cardinality.NewHyperLogLog64(),
		started:   time.Now(),
	}
}

func (s *loadRecorder) drop(reason DropReason) {
	s.stats.Dropped[reason]++
}

func (s *loadRecorder) finish() LoadStats {
	s.stats.DistinctEndpoints = s.endpoints.Cardinality()
	s.stats.Elapsed = time.Since(s.started)

	return s.stats
}
