package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/specterops/relgraph/storage"
)

// Catalog is a named collection of in-memory tables.
type Catalog struct {
	tables         map[string]*Table
	propertyTables map[string]*PropertyTable
	lock           *sync.RWMutex
}

func NewCatalog() *Catalog {
	return &Catalog{
		tables:         map[string]*Table{},
		propertyTables: map[string]*PropertyTable{},
		lock:           &sync.RWMutex{},
	}
}

// AddTable registers the table under its name, replacing any table of the same name.
func (s *Catalog) AddTable(table *Table) *Catalog {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.tables[table.Name()] = table
	return s
}

func (s *Catalog) AddPropertyTable(table *PropertyTable) *Catalog {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.propertyTables[table.Name()] = table
	return s
}

func (s *Catalog) Table(_ context.Context, name string) (storage.Table, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if table, found := s.tables[name]; found {
		return table, nil
	}

	return nil, fmt.Errorf("%w: %s", storage.ErrNoSuchTable, name)
}

func (s *Catalog) PropertyTable(_ context.Context, name string) (storage.PropertyTable, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if table, found := s.propertyTables[name]; found {
		return table, nil
	}

	return nil, fmt.Errorf("%w: %s", storage.ErrNoSuchTable, name)
}

func (s *Catalog) Close(_ context.Context) error {
	return nil
}
