package pg

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/specterops/relgraph/graph"
	"github.com/specterops/relgraph/storage"
	"github.com/stretchr/testify/require"
)

const (
	peopleScanSQL  = `SELECT "person_id", "full_name", "age", "score" FROM "public"."people" ORDER BY "person_id";`
	peopleFetchSQL = `SELECT "person_id", "full_name", "age", "score" FROM "public"."people" WHERE "person_id" = $1;`
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	mockDB, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	return mockDB
}

func expectDescribePeople(mockDB pgxmock.PgxPoolIface) {
	mockDB.ExpectQuery(describeColumnsSQL).
		WithArgs("public", "people").
		WillReturnRows(pgxmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("person_id", "bigint").
			AddRow("full_name", "text").
			AddRow("age", "integer").
			AddRow("score", "numeric"))

	mockDB.ExpectQuery(describePrimaryKeySQL).
		WithArgs(`"public"."people"`).
		WillReturnRows(pgxmock.NewRows([]string{"attname"}).AddRow("person_id"))
}

func TestCatalog_Table(t *testing.T) {
	var (
		ctx     = context.Background()
		mockDB  = newMockPool(t)
		catalog = NewCatalog(mockDB)
	)

	expectDescribePeople(mockDB)

	table, err := catalog.Table(ctx, "people")
	require.NoError(t, err)
	require.Equal(t, `"public"."people"`, table.Name())
	require.Equal(t, storage.NewTupleSchema(
		storage.Field{Name: "person_id", Type: storage.FieldTypeInt64},
		storage.Field{Name: "full_name", Type: storage.FieldTypeString},
		storage.Field{Name: "age", Type: storage.FieldTypeInt64},
		storage.Field{Name: "score", Type: storage.FieldTypeFloat64},
	), table.Schema())

	mockDB.ExpectQuery(peopleScanSQL).
		WillReturnRows(pgxmock.NewRows([]string{"person_id", "full_name", "age", "score"}).
			AddRow(int64(1), "alice", int32(25), float32(0.5)).
			AddRow(int64(2), "bob", int32(35), float32(1.5)).
			AddRow(int64(3), "carol", int32(28), float32(2)))

	var scanned []storage.Tuple

	require.NoError(t, table.Scan(ctx, func(tuple storage.Tuple) (bool, error) {
		scanned = append(scanned, tuple)
		return tuple.Row < 2, nil
	}))

	require.Equal(t, []storage.Tuple{
		{Row: 1, Values: []any{int64(1), "alice", int64(25), float64(0.5)}},
		{Row: 2, Values: []any{int64(2), "bob", int64(35), float64(1.5)}},
	}, scanned)

	mockDB.ExpectQuery(peopleFetchSQL).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"person_id", "full_name", "age", "score"}).
			AddRow(int64(3), "carol", int32(29), float32(2)))

	tuple, err := table.Fetch(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []any{int64(3), "carol", int64(29), float64(2)}, tuple.Values)

	mockDB.ExpectQuery(peopleFetchSQL).
		WithArgs(int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"person_id", "full_name", "age", "score"}))

	_, err = table.Fetch(ctx, 4)
	require.ErrorIs(t, err, storage.ErrNoSuchRow)
}

func TestCatalog_TableErrors(t *testing.T) {
	var (
		ctx     = context.Background()
		mockDB  = newMockPool(t)
		catalog = NewCatalog(mockDB, WithSchema("graph"))
	)

	mockDB.ExpectQuery(describeColumnsSQL).
		WithArgs("graph", "missing").
		WillReturnRows(pgxmock.NewRows([]string{"column_name", "data_type"}))

	_, err := catalog.Table(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNoSuchTable)

	mockDB.ExpectQuery(describeColumnsSQL).
		WithArgs("audit", "events").
		WillReturnRows(pgxmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("tenant", "bigint").
			AddRow("event_id", "bigint"))

	mockDB.ExpectQuery(describePrimaryKeySQL).
		WithArgs(`"audit"."events"`).
		WillReturnRows(pgxmock.NewRows([]string{"attname"}).AddRow("tenant").AddRow("event_id"))

	_, err = catalog.Table(ctx, "audit.events")
	require.ErrorContains(t, err, "single column primary key")

	expectDescribePeople(mockDB)

	table, err := NewCatalog(mockDB).Table(ctx, "people")
	require.NoError(t, err)

	mockDB.ExpectQuery(peopleScanSQL).
		WillReturnError(&pgconn.PgError{Code: string(StateUndefinedTable)})

	require.ErrorIs(t, table.Scan(ctx, func(tuple storage.Tuple) (bool, error) {
		return true, nil
	}), storage.ErrNoSuchTable)
}

func TestPropertyTable_Lookup(t *testing.T) {
	var (
		ctx       = context.Background()
		mockDB    = newMockPool(t)
		catalog   = NewCatalog(mockDB, WithPropertyColumns("person_id", "props"))
		lookupSQL = `SELECT "props" FROM "public"."person_properties" WHERE "person_id" = $1;`
	)

	mockDB.ExpectQuery(describeColumnsSQL).
		WithArgs("public", "person_properties").
		WillReturnRows(pgxmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("person_id", "bigint").
			AddRow("props", "jsonb"))

	propertyTable, err := catalog.PropertyTable(ctx, "person_properties")
	require.NoError(t, err)

	mockDB.ExpectQuery(lookupSQL).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"props"}).AddRow([]byte(`{"nickname": "al", "logins": 3}`)))

	properties, err := propertyTable.Lookup(ctx, graph.ID(1))
	require.NoError(t, err)
	require.Equal(t, "al", properties.Get("nickname").Any())

	logins, err := properties.Get("logins").Int64()
	require.NoError(t, err)
	require.Equal(t, int64(3), logins)

	mockDB.ExpectQuery(lookupSQL).
		WithArgs(int64(2)).
		WillReturnError(pgx.ErrNoRows)

	properties, err = propertyTable.Lookup(ctx, graph.ID(2))
	require.NoError(t, err)
	require.Nil(t, properties)

	mockDB.ExpectQuery(lookupSQL).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"props"}).AddRow([]byte(`{"nickname":`)))

	_, err = propertyTable.Lookup(ctx, graph.ID(3))
	require.Error(t, err)
}

func TestPropertyTable_MissingColumns(t *testing.T) {
	var (
		ctx     = context.Background()
		mockDB  = newMockPool(t)
		catalog = NewCatalog(mockDB)
	)

	mockDB.ExpectQuery(describeColumnsSQL).
		WithArgs("public", "person_properties").
		WillReturnRows(pgxmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("person_id", "bigint").
			AddRow("props", "jsonb"))

	_, err := catalog.PropertyTable(ctx, "person_properties")
	require.ErrorIs(t, err, storage.ErrNoSuchColumn)
}

func TestCatalog_Close(t *testing.T) {
	mockDB := newMockPool(t)
	mockDB.ExpectClose()

	require.NoError(t, NewCatalog(mockDB).Close(context.Background()))
}

func TestNormalizeValue(t *testing.T) {
	require.Equal(t, int64(7), normalizeValue(int16(7)))
	require.Equal(t, "01020304-0506-0708-090a-0b0c0d0e0f10", normalizeValue([16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}))
	require.Nil(t, normalizeValue(pgtype.Numeric{}))
	require.Equal(t, "text", normalizeValue("text"))
}
