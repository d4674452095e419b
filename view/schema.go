package view

import (
	"fmt"

	"github.com/specterops/relgraph/storage"
)

// GraphSchema holds the vertex and edge tuple layouts shared by every label of a view.
type GraphSchema struct {
	Vertex storage.TupleSchema
	Edge   storage.TupleSchema
}

func (s GraphSchema) For(kind ElementKind) storage.TupleSchema {
	if kind == EdgeKind {
		return s.Edge
	}

	return s.Vertex
}

func (s GraphSchema) validate(collect func(format string, args ...any)) {
	if err := s.Vertex.Validate(); err != nil {
		collect("vertex schema: %v", err)
	}

	if err := s.Edge.Validate(); err != nil {
		collect("edge schema: %v", err)
	}

	if s.Vertex.Len() < minVertexFields {
		collect("vertex schema must declare at least %d field for the vertex key", minVertexFields)
	}

	if s.Edge.Len() < minEdgeFields {
		collect("edge schema must declare at least %d fields for the edge, start and end keys", minEdgeFields)
	}
}

func (s GraphSchema) String() string {
	return fmt.Sprintf("vertex=%s edge=%s", s.Vertex, s.Edge)
}
