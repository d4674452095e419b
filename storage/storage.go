// Package storage declares the contracts a graph view consumes from the relational storage engine: tuple schemas,
// positional tuple access, table scans and key based property lookup.
package storage

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/storage.go -package=mocks . Table,PropertyTable

import (
	"context"
	"errors"
	"strconv"

	"github.com/specterops/relgraph/graph"
)

var (
	ErrNoSuchRow    = errors.New("no such row")
	ErrNoSuchColumn = errors.New("no such column")
	ErrNoSuchTable  = errors.New("no such table")
	ErrUnsupported  = errors.New("operation not supported by this catalog")
)

// RowID is a stable positional reference to a tuple within one table.
type RowID uint64

func (s RowID) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// Tuple is one decoded row in the table's native layout.
type Tuple struct {
	Row    RowID
	Values []any
}

// Value returns the value at the given column offset.
func (s Tuple) Value(column int) (any, error) {
	if column < 0 || column >= len(s.Values) {
		return nil, ErrNoSuchColumn
	}

	return s.Values[column], nil
}

// Project returns the values at the given column offsets in order.
func (s Tuple) Project(columns []int) ([]any, error) {
	projected := make([]any, len(columns))

	for idx, column := range columns {
		if value, err := s.Value(column); err != nil {
			return nil, err
		} else {
			projected[idx] = value
		}
	}

	return projected, nil
}

// Table is a handle to one relational table.
type Table interface {
	// Name returns the catalog name of the table.
	Name() string

	// Schema returns the native tuple layout of the table.
	Schema() TupleSchema

	// Scan visits every tuple in the table. Returning false from the delegate stops the scan early.
	Scan(ctx context.Context, delegate func(tuple Tuple) (bool, error)) error

	// Fetch returns the tuple at the given row or ErrNoSuchRow.
	Fetch(ctx context.Context, row RowID) (Tuple, error)
}

// PropertyTable is a side table holding properties that are not embedded in vertex or edge tuples.
type PropertyTable interface {
	Name() string

	// Lookup returns the properties stored under the given key. A key without properties returns a nil bag and a
	// nil error.
	Lookup(ctx context.Context, key graph.ID) (*graph.Properties, error)
}

// Catalog resolves table handles by catalog name. Drivers return a Catalog from relgraph.Open.
type Catalog interface {
	Table(ctx context.Context, name string) (Table, error)
	PropertyTable(ctx context.Context, name string) (PropertyTable, error)
	Close(ctx context.Context) error
}
