package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/specterops/relgraph/predicate"
)

// PrintGraphView writes a human readable description of the view's labels, bindings and derivation. It never mutates
// the view. A nil view is a programming error and panics.
func (s Factory) PrintGraphView(writer io.Writer, view *GraphView) error {
	if view == nil {
		panic("PrintGraphView called with a nil graph view")
	}

	_, err := io.WriteString(writer, Dump(view))
	return err
}

func writeBinding(builder *strings.Builder, view *GraphView, binding *LabelTableBinding) {
	ownership := "owned"
	if !view.Owns(binding) {
		ownership = "inherited from " + binding.owner.String()
	}

	fmt.Fprintf(builder, "  %s label %s (%s)\n", binding.kind, binding.Label(), ownership)
	fmt.Fprintf(builder, "    tables: %s\n", strings.Join(binding.TableNames(), ", "))
	fmt.Fprintf(builder, "    column ids: %v\n", binding.columnIDs)

	if len(binding.columnNames) > 0 {
		fmt.Fprintf(builder, "    column names: %s\n", strings.Join(binding.columnNames, ", "))
	}

	if binding.kind == EdgeKind {
		fmt.Fprintf(builder, "    start labels: %s\n", binding.startLabels.Formatted())
		fmt.Fprintf(builder, "    end labels: %s\n", binding.endLabels.Formatted())
	}

	fmt.Fprintf(builder, "    elements: %d\n", binding.Len())
}

// Dump renders the same description PrintGraphView writes.
func Dump(view *GraphView) string {
	builder := &strings.Builder{}

	direction := "undirected"
	if view.directed {
		direction = "directed"
	}

	fmt.Fprintf(builder, "graph view %s (%s) owner %s\n", view.Name(), direction, view.owner)
	fmt.Fprintf(builder, "  database: %d signature: %s\n", view.key.DatabaseID, view.key.Signature)
	fmt.Fprintf(builder, "  vertex schema: %s\n", view.schema.Vertex)
	fmt.Fprintf(builder, "  edge schema: %s\n", view.schema.Edge)

	if view.propertyTable != nil {
		fmt.Fprintf(builder, "  property table: %s\n", view.propertyTable.Name())
	}

	for _, binding := range view.vertexBindings {
		writeBinding(builder, view, binding)
	}

	for _, binding := range view.edgeBindings {
		writeBinding(builder, view, binding)
	}

	if derivation := view.derivation; derivation != nil {
		fmt.Fprintf(builder, "  derived from %s scope %s postfilter %t input graph size %d\n",
			derivation.Parent.owner, derivation.Scope, derivation.Postfilter, derivation.InputGraphSize)

		if derivation.FilterHint != "" {
			fmt.Fprintf(builder, "    filter hint: %s\n", derivation.FilterHint)
		}

		for _, next := range []struct {
			role     string
			compiled predicate.Predicate
		}{
			{role: "vertex", compiled: derivation.VertexPredicate},
			{role: "edge", compiled: derivation.EdgePredicate},
			{role: "join", compiled: derivation.JoinPredicate},
		} {
			if next.compiled != nil {
				fmt.Fprintf(builder, "    %s predicate: %s\n", next.role, next.compiled.Source())
			}
		}
	}

	return builder.String()
}
