package relgraph_test

import (
	"context"
	"testing"

	"github.com/specterops/relgraph"
	"github.com/specterops/relgraph/storage"
	"github.com/specterops/relgraph/storage/memory"
	"github.com/specterops/relgraph/util/test"
	"github.com/specterops/relgraph/view"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	var (
		ctx     = context.Background()
		catalog = memory.NewCatalog()
	)

	_, err := relgraph.Open(ctx, "missing", relgraph.DefaultConfig())
	require.ErrorIs(t, err, relgraph.ErrDriverMissing)

	relgraph.Register("memory-test", func(ctx context.Context, cfg relgraph.Config) (storage.Catalog, error) {
		return catalog, nil
	})

	opened, err := relgraph.Open(ctx, "memory-test", relgraph.DefaultConfig())
	require.NoError(t, err)
	require.Same(t, catalog, opened)
}

func TestRegistry_Acquire(t *testing.T) {
	var (
		ctx      = context.Background()
		social   = test.NewSocial()
		registry = relgraph.NewRegistry(relgraph.DefaultConfig())
	)

	graphView, err := registry.Acquire(ctx, social.Definition())
	require.NoError(t, err)
	require.Equal(t, uint64(3), graphView.NumVertices())
	require.Equal(t, uint64(2), graphView.NumEdges())
	require.Equal(t, 3, graphView.LastLoad().VerticesDecoded)
	require.Equal(t, 2, graphView.LastLoad().EdgesDecoded)

	// A second acquire with the same definition reuses the loaded view without touching the tables
	again, err := registry.Acquire(ctx, social.Definition())
	require.NoError(t, err)
	require.Same(t, graphView, again)
	require.Equal(t, int64(1), social.People.Scans())
	require.Equal(t, int64(1), registry.Stats().Hits())

	// A changed catalog definition under the same key rebuilds the view
	changed := social.Definition()
	changed.Directed = true

	rebuilt, err := registry.Acquire(ctx, changed)
	require.NoError(t, err)
	require.NotSame(t, graphView, rebuilt)
	require.True(t, rebuilt.IsDirected())
	require.Equal(t, int64(2), social.People.Scans())

	registry.Invalidate(changed.Key())

	afterInvalidate, err := registry.Acquire(ctx, changed)
	require.NoError(t, err)
	require.NotSame(t, rebuilt, afterInvalidate)
	require.Equal(t, int64(3), social.People.Scans())
}

func TestRegistry_AcquireConfigurationError(t *testing.T) {
	var (
		ctx        = context.Background()
		social     = test.NewSocial()
		registry   = relgraph.NewRegistry(relgraph.DefaultConfig())
		definition = social.Definition()
	)

	definition.VertexTables = nil

	_, err := registry.Acquire(ctx, definition)
	require.ErrorIs(t, err, view.ErrConfiguration)
	require.Equal(t, int64(0), registry.Stats().Size())
}

func TestRegistry_Derive(t *testing.T) {
	var (
		ctx      = context.Background()
		social   = test.NewSocial()
		registry = relgraph.NewRegistry(relgraph.DefaultConfig())
	)

	parent, err := registry.Acquire(ctx, social.Definition())
	require.NoError(t, err)

	young := social.Subgraph("young", parent)
	young.VertexPredicate = "age < 30"

	derived, err := registry.Derive(ctx, young)
	require.NoError(t, err)
	require.Same(t, parent, derived.Parent())
	require.Equal(t, uint64(2), derived.NumVertices())
	require.Equal(t, uint64(0), derived.NumEdges())
	require.True(t, derived.ContainsVertex(test.Alice))
	require.False(t, derived.ContainsVertex(test.Bob))

	// Derivations never rescan the backing tables
	require.Equal(t, int64(1), social.People.Scans())

	again, err := registry.Derive(ctx, young)
	require.NoError(t, err)
	require.Same(t, derived, again)

	// A different predicate is a different derivation of the same key
	young.VertexPredicate = "age < 36"

	widened, err := registry.Derive(ctx, young)
	require.NoError(t, err)
	require.NotSame(t, derived, widened)
	require.Equal(t, uint64(3), widened.NumVertices())
	require.Equal(t, uint64(2), widened.NumEdges())

	registry.Purge()
	require.Equal(t, int64(0), registry.Stats().Size())
}
