package view_test

import (
	"bytes"
	"testing"

	"github.com/specterops/relgraph/util/test"
	"github.com/specterops/relgraph/view"
	"github.com/stretchr/testify/require"
)

func TestFactory_PrintGraphView(t *testing.T) {
	var (
		social    = test.NewSocial()
		factory   = newFactory()
		graphView = newSocialView(t, factory, social)
		first     = &bytes.Buffer{}
		second    = &bytes.Buffer{}
	)

	require.NoError(t, factory.PrintGraphView(first, graphView))
	require.NoError(t, factory.PrintGraphView(second, graphView))

	// Printing is idempotent and does not mutate the view
	require.Equal(t, first.String(), second.String())
	require.Equal(t, first.String(), view.Dump(graphView))
	require.Equal(t, uint64(3), graphView.NumVertices())

	dump := first.String()
	require.Contains(t, dump, "graph view social (undirected)")
	require.Contains(t, dump, "signature: friends(int)")
	require.Contains(t, dump, "vertex schema: (id int64, name string, age int64)")
	require.Contains(t, dump, "property table: person_properties")
	require.Contains(t, dump, "vertex label Person (owned)")
	require.Contains(t, dump, "tables: people")
	require.Contains(t, dump, "column ids: [1 2 3]")
	require.Contains(t, dump, "start labels: Person")
	require.Contains(t, dump, "elements: 2")
}

func TestFactory_PrintGraphView_Derived(t *testing.T) {
	var (
		social  = test.NewSocial()
		factory = newFactory()
		parent  = newSocialView(t, factory, social)
	)

	definition := social.Subgraph("youngPeople", parent)
	definition.VertexPredicate = "age < 30"
	definition.FilterHint = "vertex"
	definition.Scope = view.VertexScope("Person")

	derived, err := factory.CreateSubGraphView(definition)
	require.NoError(t, err)

	dump := view.Dump(derived)
	require.Contains(t, dump, "edge label Knows (inherited from "+parent.Owner().String()+")")
	require.Contains(t, dump, "scope vertex(Person) postfilter false input graph size 5")
	require.Contains(t, dump, "filter hint: vertex")
	require.Contains(t, dump, "vertex predicate: age < 30")
	require.NotContains(t, dump, "edge predicate")
}

func TestFactory_PrintGraphView_NilView(t *testing.T) {
	require.Panics(t, func() {
		_ = newFactory().PrintGraphView(&bytes.Buffer{}, nil)
	})
}
