package cardinality_test

import (
	"testing"

	"github.com/specterops/relgraph/cardinality"
	"github.com/stretchr/testify/require"
)

func TestBitmap64(t *testing.T) {
	bitmap := cardinality.NewBitmap64With(1, 2, 3, 4, 5)

	require.Equal(t, uint64(5), bitmap.Cardinality())
	require.True(t, bitmap.Contains(3))
	require.False(t, bitmap.CheckedAdd(3))
	require.True(t, bitmap.CheckedAdd(6))

	bitmap.Remove(1)
	require.Equal(t, []uint64{2, 3, 4, 5, 6}, bitmap.Slice())

	clone := bitmap.Clone()
	clone.Add(10)
	require.False(t, bitmap.Contains(10))
	require.True(t, clone.Contains(10))
}

func TestBitmap64_AndNot(t *testing.T) {
	bitmap := cardinality.NewBitmap64With(1, 2, 3, 4)
	bitmap.AndNot(cardinality.NewBitmap64With(2, 4, 8))

	require.Equal(t, []uint64{1, 3}, bitmap.Slice())
}

func TestBitmap64_Or(t *testing.T) {
	bitmap := cardinality.NewBitmap64With(1)
	bitmap.Or(cardinality.NewBitmap64With(2, 3))

	require.Equal(t, []uint64{1, 2, 3}, bitmap.Slice())

	var visited []uint64
	bitmap.Each(func(value uint64) bool {
		visited = append(visited, value)
		return len(visited) < 2
	})

	require.Equal(t, []uint64{1, 2}, visited)
}

func TestHyperLogLog64_OrWithDuplex(t *testing.T) {
	sketch := cardinality.NewHyperLogLog64()
	sketch.Add(1, 2)
	sketch.Or(cardinality.NewBitmap64With(2, 3))

	require.Equal(t, uint64(3), sketch.Cardinality())

	clone := sketch.Clone()
	sketch.Clear()

	require.Equal(t, uint64(0), sketch.Cardinality())
	require.Equal(t, uint64(3), clone.Cardinality())
}
