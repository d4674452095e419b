package view

import (
	"errors"
	"fmt"

	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/storage"
)

const (
	vertexKeyField = 0
	edgeKeyField   = 0
	edgeStartField = 1
	edgeEndField   = 2

	minVertexFields = 1
	minEdgeFields   = 3
)

var ErrInvalidKey = errors.New("invalid element key")

// RowRef locates the tuple an element was decoded from. Table is the position of the backing table within the label
// binding.
type RowRef struct {
	Table int
	Row   storage.RowID
}

func (s RowRef) String() string {
	return fmt.Sprintf("%d:%s", s.Table, s.Row)
}

// Vertex is a decoded vertex tuple. Fields are laid out in the view's vertex schema order; the first field is the
// vertex key.
type Vertex struct {
	Label  string
	Table  int
	Row    storage.RowID
	Fields []any
}

func (s Vertex) Ref() RowRef {
	return RowRef{
		Table: s.Table,
		Row:   s.Row,
	}
}

func (s Vertex) ID() (graph.ID, error) {
	return keyAt(s.Fields, vertexKeyField)
}

// Edge is a decoded edge tuple. Fields are laid out in the view's edge schema order; the first three fields are the
// edge key and the start and end vertex keys. StartLabel and EndLabel are optional; when set they must name one of the
// endpoint labels allowed for the edge's label.
type Edge struct {
	Label      string
	Table      int
	Row        storage.RowID
	StartLabel string
	EndLabel   string
	Fields     []any
}

func (s Edge) Ref() RowRef {
	return RowRef{
		Table: s.Table,
		Row:   s.Row,
	}
}

func (s Edge) ID() (graph.ID, error) {
	return keyAt(s.Fields, edgeKeyField)
}

func (s Edge) StartID() (graph.ID, error) {
	return keyAt(s.Fields, edgeStartField)
}

func (s Edge) EndID() (graph.ID, error) {
	return keyAt(s.Fields, edgeEndField)
}

func keyAt(fields []any, idx int) (graph.ID, error) {
	if idx >= len(fields) {
		return 0, fmt.Errorf("%w: field %d is missing", ErrInvalidKey, idx)
	}

	if value, err := graph.NewPropertyValue(fields[idx]).Int64(); err != nil {
		return 0, fmt.Errorf("%w: field %d: %w", ErrInvalidKey, idx, err)
	} else if value < 0 {
		return 0, fmt.Errorf("%w: field %d holds negative key %d", ErrInvalidKey, idx, value)
	} else {
		return graph.ID(value), nil
	}
}
