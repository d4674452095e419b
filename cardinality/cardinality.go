package cardinality

type DuplexConstructor[T uint32 | uint64] func() Duplex[T]

// Provider describes the most basic functionality of a cardinality provider algorithm: adding elements to the provider
// and producing the cardinality of those elements.
type Provider[T uint32 | uint64] interface {
	Add(value ...T)
	Or(other Provider[T])
	Clear()
	Cardinality() uint64
}

// Simplex is a one-way cardinality provider that does not allow a user to retrieve encoded values back out of the
// provider. Graph views use it for planner estimates where an exact set would be wasted memory.
type Simplex[T uint32 | uint64] interface {
	Provider[T]

	Clone() Simplex[T]
}

// Duplex is a two-way cardinality provider that allows a user to retrieve encoded values back out of the provider.
// Label indexes use it to track membership of vertex and edge keys.
type Duplex[T uint32 | uint64] interface {
	Provider[T]

	AndNot(other Provider[T])
	Remove(value T)
	Slice() []T
	Contains(value T) bool
	Each(delegate func(value T) bool)
	CheckedAdd(value T) bool
	Clone() Duplex[T]
}
