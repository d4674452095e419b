package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/specterops/relgraph/storage"
)

const (
	DefaultSchema            = "public"
	DefaultPropertyKeyColumn = "id"
	DefaultPropertyColumn    = "properties"
)

// Querier contains the methods we actually use from pgxpool. Keeping them behind an interface lets pgxmock stand in
// for a live pool in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Conn interface {
	Querier
	Close()
}

type CatalogOption func(catalog *Catalog)

// WithSchema sets the schema that unqualified table names resolve against.
func WithSchema(schema string) CatalogOption {
	return func(catalog *Catalog) {
		catalog.schema = schema
	}
}

// WithPropertyColumns sets the key and jsonb columns read by property tables.
func WithPropertyColumns(keyColumn, propertiesColumn string) CatalogOption {
	return func(catalog *Catalog) {
		catalog.propertyKeyColumn = keyColumn
		catalog.propertyColumn = propertiesColumn
	}
}

// Catalog resolves relational tables of one PostgreSQL database. Table names may be schema qualified as
// "schema.table".
type Catalog struct {
	conn              Conn
	schema            string
	propertyKeyColumn string
	propertyColumn    string
}

func NewCatalog(conn Conn, options ...CatalogOption) *Catalog {
	catalog := &Catalog{
		conn:              conn,
		schema:            DefaultSchema,
		propertyKeyColumn: DefaultPropertyKeyColumn,
		propertyColumn:    DefaultPropertyColumn,
	}

	for _, option := range options {
		option(catalog)
	}

	return catalog
}

func (s *Catalog) identifier(name string) pgx.Identifier {
	if schema, table, qualified := strings.Cut(name, "."); qualified {
		return pgx.Identifier{schema, table}
	}

	return pgx.Identifier{s.schema, name}
}

func (s *Catalog) Table(ctx context.Context, name string) (storage.Table, error) {
	return NewTable(ctx, s.conn, s.identifier(name))
}

func (s *Catalog) PropertyTable(ctx context.Context, name string) (storage.PropertyTable, error) {
	identifier := s.identifier(name)

	// Describe confirms the table exists before any lookup is issued against it
	if columns, err := describeColumns(ctx, s.conn, identifier); err != nil {
		return nil, err
	} else if columns.IndexOf(s.propertyKeyColumn) < 0 || columns.IndexOf(s.propertyColumn) < 0 {
		return nil, fmt.Errorf("%w: property table %s requires columns %s and %s", storage.ErrNoSuchColumn, identifier.Sanitize(), s.propertyKeyColumn, s.propertyColumn)
	}

	return NewPropertyTable(s.conn, identifier, s.propertyKeyColumn, s.propertyColumn), nil
}

func (s *Catalog) Close(_ context.Context) error {
	s.conn.Close()
	return nil
}
