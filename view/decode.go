package view

import (
	"context"
	"fmt"

	"github.com/specterops/relgraph/container"
	"github.com/specterops/relgraph/storage"
)

// Decode produces decoded elements for every binding the view owns. Base views scan the backing tables. Derived views
// re-fetch the elements indexed by the parent's binding of the same label so that a derivation never rescans a table.
func Decode(ctx context.Context, view *GraphView) ([]Vertex, []Edge, error) {
	var (
		vertices []Vertex
		edges    []Edge
		parent   = view.Parent()
	)

	for _, binding := range view.vertexBindings {
		if !view.Owns(binding) {
			continue
		}

		var (
			decoded []Vertex
			err     error
		)

		if parent != nil {
			decoded, err = refetchVertices(ctx, parent, binding)
		} else {
			decoded, err = scanVertices(ctx, binding)
		}

		if err != nil {
			return nil, nil, fmt.Errorf("decoding vertex label %s of view %s: %w", binding.Label(), view.Name(), err)
		}

		vertices = append(vertices, decoded...)
	}

	for _, binding := range view.edgeBindings {
		if !view.Owns(binding) {
			continue
		}

		var (
			decoded []Edge
			err     error
		)

		if parent != nil {
			decoded, err = refetchEdges(ctx, parent, binding)
		} else {
			decoded, err = scanEdges(ctx, binding)
		}

		if err != nil {
			return nil, nil, fmt.Errorf("decoding edge label %s of view %s: %w", binding.Label(), view.Name(), err)
		}

		edges = append(edges, decoded...)
	}

	return vertices, edges, nil
}

func scanBinding(ctx context.Context, binding *LabelTableBinding, delegate func(ref RowRef, fields []any)) error {
	for tableIdx, table := range binding.tables {
		if err := table.Scan(ctx, func(tuple storage.Tuple) (bool, error) {
			if fields, err := binding.project(tuple); err != nil {
				return false, fmt.Errorf("table %s row %s: %w", table.Name(), tuple.Row, err)
			} else {
				delegate(RowRef{Table: tableIdx, Row: tuple.Row}, fields)
				return true, nil
			}
		}); err != nil {
			return err
		}
	}

	return nil
}

func scanVertices(ctx context.Context, binding *LabelTableBinding) ([]Vertex, error) {
	var vertices []Vertex

	err := scanBinding(ctx, binding, func(ref RowRef, fields []any) {
		vertices = append(vertices, Vertex{
			Label:  binding.Label(),
			Table:  ref.Table,
			Row:    ref.Row,
			Fields: fields,
		})
	})

	return vertices, err
}

func scanEdges(ctx context.Context, binding *LabelTableBinding) ([]Edge, error) {
	var edges []Edge

	err := scanBinding(ctx, binding, func(ref RowRef, fields []any) {
		edges = append(edges, Edge{
			Label:  binding.Label(),
			Table:  ref.Table,
			Row:    ref.Row,
			Fields: fields,
		})
	})

	return edges, err
}

func refetchVertices(ctx context.Context, parent *GraphView, binding *LabelTableBinding) ([]Vertex, error) {
	parentBinding, err := parent.lookupBinding(VertexKind, binding.Label())
	if err != nil {
		return nil, err
	}

	var (
		vertices []Vertex
		fetchErr error
	)

	parentBinding.members.Each(func(id uint64) bool {
		ref := parentBinding.rows[id]

		if fields, err := binding.Fetch(ctx, ref); err != nil {
			fetchErr = err
			return false
		} else {
			vertices = append(vertices, Vertex{
				Label:  binding.Label(),
				Table:  ref.Table,
				Row:    ref.Row,
				Fields: fields,
			})

			return true
		}
	})

	return vertices, fetchErr
}

func refetchEdges(ctx context.Context, parent *GraphView, binding *LabelTableBinding) ([]Edge, error) {
	parentBinding, err := parent.lookupBinding(EdgeKind, binding.Label())
	if err != nil {
		return nil, err
	}

	var (
		edges    []Edge
		fetchErr error
	)

	parentBinding.eachEdge(func(edge container.Edge) bool {
		if !parent.edgeVisible(parentBinding, edge) {
			return true
		}

		ref := RowRef{
			Table: edge.Table,
			Row:   storage.RowID(edge.Row),
		}

		if fields, err := binding.Fetch(ctx, ref); err != nil {
			fetchErr = err
			return false
		} else {
			edges = append(edges, Edge{
				Label:  binding.Label(),
				Table:  ref.Table,
				Row:    ref.Row,
				Fields: fields,
			})

			return true
		}
	})

	return edges, fetchErr
}
