package cardinality

import (
	"encoding/binary"

	"github.com/axiomhq/hyperloglog"
)

type hyperLogLog64 struct {
	sketch *hyperloglog.Sketch
}

// NewHyperLogLog64 returns a 14 register HyperLogLog sketch. The sketch skips sparse encoding since load statistics
// are recorded once per bulk load and then read many times by planners.
func NewHyperLogLog64() Simplex[uint64] {
	return &hyperLogLog64{
		sketch: hyperloglog.NewNoSparse(),
	}
}

func (s *hyperLogLog64) Clone() Simplex[uint64] {
	return &hyperLogLog64{
		sketch: s.sketch.Clone(),
	}
}

func (s *hyperLogLog64) Clear() {
	s.sketch = hyperloglog.NewNoSparse()
}

func (s *hyperLogLog64) Add(values ...uint64) {
	var buffer [8]byte

	for idx := 0; idx < len(values); idx++ {
		binary.LittleEndian.PutUint64(buffer[:], values[idx])
		s.sketch.Insert(buffer[:])
	}
}

func (s *hyperLogLog64) Or(provider Provider[uint64]) {
	switch typedProvider := provider.(type) {
	case *hyperLogLog64:
		// Merge only fails on precision mismatch and every sketch here shares the default precision
		_ = s.sketch.Merge(typedProvider.sketch)

	case Duplex[uint64]:
		typedProvider.Each(func(nextValue uint64) bool {
			s.Add(nextValue)
			return true
		})
	}
}

func (s *hyperLogLog64) Cardinality() uint64 {
	return s.sketch.Estimate()
}
