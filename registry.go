package relgraph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/specterops/relgraph/cache"
	"github.com/specterops/relgraph/view"
)

// Registry keeps the views of active compiled procedures keyed by database, signature and view name. A cached view
// is rebuilt when its definition no longer matches the one it was built from, which is how catalog changes surface.
// Builds are serialized so that no two loads ever run against the same view.
type Registry struct {
	factory view.Factory
	views   cache.Cache[view.Key, *view.GraphView]
	lock    *sync.Mutex
}

func NewRegistry(config Config) *Registry {
	config = config.withDefaults()

	return &Registry{
		factory: view.NewFactory(config.PredicateCompiler),
		views:   cache.NewSieve[view.Key, *view.GraphView](config.ViewCacheCapacity),
		lock:    &sync.Mutex{},
	}
}

func (s *Registry) Factory() view.Factory {
	return s.factory
}

func (s *Registry) Stats() cache.Stats {
	return s.views.Stats()
}

func (s *Registry) cached(key view.Key, fingerprint uint64) (*view.GraphView, bool) {
	if cached, found := s.views.Get(key); !found {
		return nil, false
	} else if cached.Fingerprint() != fingerprint {
		slog.Info("Rebuilding graph view after catalog change", slog.String("view", key.String()))
		return nil, false
	} else {
		return cached, true
	}
}

func (s *Registry) populate(ctx context.Context, graphView *view.GraphView) error {
	if vertices, edges, err := view.Decode(ctx, graphView); err != nil {
		return err
	} else {
		return s.factory.LoadGraph(ctx, graphView, vertices, edges)
	}
}

// Acquire returns the loaded base view for the definition, building and loading it when absent or stale.
func (s *Registry) Acquire(ctx context.Context, definition view.Definition) (*view.GraphView, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	key := definition.Key()

	if cached, found := s.cached(key, definition.Fingerprint()); found {
		return cached, nil
	}

	graphView, err := s.factory.CreateGraphView(definition)
	if err != nil {
		return nil, err
	}

	if err := s.populate(ctx, graphView); err != nil {
		return nil, fmt.Errorf("populating graph view %s: %w", key, err)
	}

	s.views.Put(key, graphView)
	return graphView, nil
}

// Derive returns the loaded view derived from the definition's parent, building and loading it when absent or stale.
func (s *Registry) Derive(ctx context.Context, definition view.SubgraphDefinition) (*view.GraphView, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	key := definition.Key()

	if cached, found := s.cached(key, definition.Fingerprint()); found {
		return cached, nil
	}

	graphView, err := s.factory.CreateSubGraphView(definition)
	if err != nil {
		return nil, err
	}

	if err := s.populate(ctx, graphView); err != nil {
		return nil, fmt.Errorf("populating derived graph view %s: %w", key, err)
	}

	s.views.Put(key, graphView)
	return graphView, nil
}

// Invalidate drops the view stored under the key. The next Acquire or Derive rebuilds it.
func (s *Registry) Invalidate(key view.Key) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.views.Delete(key)
}

// Purge drops every cached view.
func (s *Registry) Purge() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.views.Purge()
}
