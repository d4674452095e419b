// Package memory implements the storage contracts over in-process slices. It backs embedded use and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/storage"
)

type Table struct {
	name   string
	schema storage.TupleSchema
	rows   []storage.Tuple
	lock   *sync.RWMutex
	scans  *atomic.Int64
}

func NewTable(name string, schema storage.TupleSchema) *Table {
	return &Table{
		name:   name,
		schema: schema,
		lock:   &sync.RWMutex{},
		scans:  &atomic.Int64{},
	}
}

func (s *Table) Name() string {
	return s.name
}

func (s *Table) Schema() storage.TupleSchema {
	return s.schema
}

// Insert appends a row and returns its row reference. The row must match the table's schema width.
func (s *Table) Insert(values ...any) (storage.RowID, error) {
	if len(values) != s.schema.Len() {
		return 0, fmt.Errorf("table %s expects %d values but received %d", s.name, s.schema.Len(), len(values))
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	row := storage.RowID(len(s.rows))
	s.rows = append(s.rows, storage.Tuple{
		Row:    row,
		Values: values,
	})

	return row, nil
}

// MustInsert is Insert for fixtures; it panics on a width mismatch.
func (s *Table) MustInsert(values ...any) storage.RowID {
	if row, err := s.Insert(values...); err != nil {
		panic(err)
	} else {
		return row
	}
}

func (s *Table) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.rows)
}

// Scans returns how many scans were started against this table.
func (s *Table) Scans() int64 {
	return s.scans.Load()
}

func (s *Table) Scan(ctx context.Context, delegate func(tuple storage.Tuple) (bool, error)) error {
	s.scans.Add(1)

	s.lock.RLock()
	rows := s.rows
	s.lock.RUnlock()

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		if shouldContinue, err := delegate(row); err != nil {
			return err
		} else if !shouldContinue {
			break
		}
	}

	return nil
}

func (s *Table) Fetch(_ context.Context, row storage.RowID) (storage.Tuple, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if uint64(row) >= uint64(len(s.rows)) {
		return storage.Tuple{}, fmt.Errorf("table %s row %s: %w", s.name, row, storage.ErrNoSuchRow)
	}

	return s.rows[row], nil
}

type PropertyTable struct {
	name       string
	properties map[graph.ID]map[string]any
	lock       *sync.RWMutex
}

func NewPropertyTable(name string) *PropertyTable {
	return &PropertyTable{
		name:       name,
		properties: map[graph.ID]map[string]any{},
		lock:       &sync.RWMutex{},
	}
}

func (s *PropertyTable) Name() string {
	return s.name
}

// Put merges the given properties into the bag stored under key.
func (s *PropertyTable) Put(key graph.ID, properties map[string]any) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if existing, exists := s.properties[key]; exists {
		maps.Copy(existing, properties)
	} else {
		s.properties[key] = maps.Clone(properties)
	}
}

func (s *PropertyTable) Lookup(_ context.Context, key graph.ID) (*graph.Properties, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if properties, exists := s.properties[key]; exists {
		return graph.NewPropertiesFrom(properties), nil
	}

	return nil, nil
}
