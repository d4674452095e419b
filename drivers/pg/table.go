package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/storage"
)

const (
	describeColumnsSQL = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position;
	`

	describePrimaryKeySQL = `
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = $1::regclass AND i.indisprimary;
	`
)

func fieldType(dataType string) storage.FieldType {
	switch dataType {
	case "smallint", "integer", "bigint":
		return storage.FieldTypeInt64
	case "real", "double precision", "numeric":
		return storage.FieldTypeFloat64
	case "text", "character varying", "character", "uuid", "name":
		return storage.FieldTypeString
	case "boolean":
		return storage.FieldTypeBool
	case "date", "timestamp with time zone", "timestamp without time zone":
		return storage.FieldTypeTime
	default:
		return storage.FieldTypeAny
	}
}

func describeColumns(ctx context.Context, conn Querier, identifier pgx.Identifier) (storage.TupleSchema, error) {
	rows, err := conn.Query(ctx, describeColumnsSQL, identifier[0], identifier[1])
	if err != nil {
		return storage.TupleSchema{}, err
	}

	defer rows.Close()

	var fields []storage.Field

	for rows.Next() {
		var columnName, dataType string

		if err := rows.Scan(&columnName, &dataType); err != nil {
			return storage.TupleSchema{}, err
		}

		fields = append(fields, storage.Field{
			Name: columnName,
			Type: fieldType(dataType),
		})
	}

	if err := rows.Err(); err != nil {
		return storage.TupleSchema{}, err
	}

	// information_schema hides missing tables behind an empty result
	if len(fields) == 0 {
		return storage.TupleSchema{}, fmt.Errorf("%w: %s", storage.ErrNoSuchTable, identifier.Sanitize())
	}

	return storage.NewTupleSchema(fields...), nil
}

func describePrimaryKey(ctx context.Context, conn Querier, identifier pgx.Identifier) (string, error) {
	rows, err := conn.Query(ctx, describePrimaryKeySQL, identifier.Sanitize())
	if err != nil {
		return "", translateError(err, identifier.Sanitize())
	}

	defer rows.Close()

	var keyColumns []string

	for rows.Next() {
		var columnName string

		if err := rows.Scan(&columnName); err != nil {
			return "", err
		}

		keyColumns = append(keyColumns, columnName)
	}

	if err := rows.Err(); err != nil {
		return "", err
	}

	if len(keyColumns) != 1 {
		return "", fmt.Errorf("table %s must have a single column primary key but has %d key columns", identifier.Sanitize(), len(keyColumns))
	}

	return keyColumns[0], nil
}

// Table reads one PostgreSQL table. Row references are the values of the table's single column integer primary key,
// which keeps them stable across vacuums and updates.
type Table struct {
	conn       Querier
	identifier pgx.Identifier
	schema     storage.TupleSchema
	keyColumn  int
	scanSQL    string
	fetchSQL   string
}

// NewTable describes the table and prepares its scan and fetch statements.
func NewTable(ctx context.Context, conn Querier, identifier pgx.Identifier) (*Table, error) {
	schema, err := describeColumns(ctx, conn, identifier)
	if err != nil {
		return nil, err
	}

	keyColumnName, err := describePrimaryKey(ctx, conn, identifier)
	if err != nil {
		return nil, err
	}

	keyColumn := schema.IndexOf(keyColumnName)
	if keyColumn < 0 {
		return nil, fmt.Errorf("%w: primary key %s of table %s", storage.ErrNoSuchColumn, keyColumnName, identifier.Sanitize())
	} else if schema.Fields[keyColumn].Type != storage.FieldTypeInt64 {
		return nil, fmt.Errorf("primary key %s of table %s must be an integer column", keyColumnName, identifier.Sanitize())
	}

	var (
		columns    = make([]string, schema.Len())
		keyLiteral = pgx.Identifier{keyColumnName}.Sanitize()
	)

	for idx, field := range schema.Fields {
		columns[idx] = pgx.Identifier{field.Name}.Sanitize()
	}

	selectClause := "SELECT " + strings.Join(columns, ", ") + " FROM " + identifier.Sanitize()

	return &Table{
		conn:       conn,
		identifier: identifier,
		schema:     schema,
		keyColumn:  keyColumn,
		scanSQL:    selectClause + " ORDER BY " + keyLiteral + ";",
		fetchSQL:   selectClause + " WHERE " + keyLiteral + " = $1;",
	}, nil
}

func (s *Table) Name() string {
	return s.identifier.Sanitize()
}

func (s *Table) Schema() storage.TupleSchema {
	return s.schema
}

func (s *Table) tuple(values []any) (storage.Tuple, error) {
	for idx, value := range values {
		values[idx] = normalizeValue(value)
	}

	if key, err := graph.NewPropertyValue(values[s.keyColumn]).Int64(); err != nil {
		return storage.Tuple{}, fmt.Errorf("reading primary key of table %s: %w", s.Name(), err)
	} else if key < 0 {
		return storage.Tuple{}, fmt.Errorf("table %s holds negative primary key %d", s.Name(), key)
	} else {
		return storage.Tuple{
			Row:    storage.RowID(key),
			Values: values,
		}, nil
	}
}

func (s *Table) Scan(ctx context.Context, delegate func(tuple storage.Tuple) (bool, error)) error {
	rows, err := s.conn.Query(ctx, s.scanSQL)
	if err != nil {
		return translateError(err, s.Name())
	}

	defer rows.Close()

	for rows.Next() {
		if values, err := rows.Values(); err != nil {
			return err
		} else if tuple, err := s.tuple(values); err != nil {
			return err
		} else if proceed, err := delegate(tuple); err != nil {
			return err
		} else if !proceed {
			return nil
		}
	}

	return translateError(rows.Err(), s.Name())
}

func (s *Table) Fetch(ctx context.Context, row storage.RowID) (storage.Tuple, error) {
	rows, err := s.conn.Query(ctx, s.fetchSQL, int64(row))
	if err != nil {
		return storage.Tuple{}, translateError(err, s.Name())
	}

	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return storage.Tuple{}, translateError(err, s.Name())
		}

		return storage.Tuple{}, fmt.Errorf("%w: %s row %s", storage.ErrNoSuchRow, s.Name(), row)
	}

	if values, err := rows.Values(); err != nil {
		return storage.Tuple{}, err
	} else {
		return s.tuple(values)
	}
}

// normalizeValue narrows pgx's decoded values to the types graph views negotiate on.
func normalizeValue(value any) any {
	switch typed := value.(type) {
	case int16:
		return int64(typed)
	case int32:
		return int64(typed)
	case int:
		return int64(typed)
	case float32:
		return float64(typed)
	case pgtype.Numeric:
		if floatValue, err := typed.Float64Value(); err != nil || !floatValue.Valid {
			return nil
		} else {
			return floatValue.Float64
		}
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", typed[0:4], typed[4:6], typed[6:8], typed[8:10], typed[10:16])
	default:
		return value
	}
}
