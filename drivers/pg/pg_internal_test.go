package pg

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/specterops/relgraph"
	"github.com/specterops/relgraph/drivers"
	"github.com/stretchr/testify/require"
)

func TestDatabaseConfiguration(t *testing.T) {
	dbCfg, err := databaseConfiguration(relgraph.Config{
		ConnectionString: "postgresql://relgraph@localhost/relgraph",
	})
	require.NoError(t, err)
	require.Equal(t, "postgresql://relgraph@localhost/relgraph", dbCfg.Connection)

	expected := drivers.DatabaseConfiguration{
		Address:  "localhost",
		Username: "relgraph",
	}

	dbCfg, err = databaseConfiguration(relgraph.Config{DriverConfig: expected})
	require.NoError(t, err)
	require.Equal(t, expected.Address, dbCfg.Address)

	dbCfg, err = databaseConfiguration(relgraph.Config{DriverConfig: &expected})
	require.NoError(t, err)
	require.Equal(t, expected.Username, dbCfg.Username)

	_, err = databaseConfiguration(relgraph.Config{DriverConfig: 42})
	require.Error(t, err)
}

func TestSQLState_ErrorMatches(t *testing.T) {
	require.True(t, StateUndefinedTable.ErrorMatches(&pgconn.PgError{Code: "42P01"}))
	require.False(t, StateUndefinedTable.ErrorMatches(&pgconn.PgError{Code: "42703"}))
	require.False(t, StateUndefinedColumn.ErrorMatches(nil))
}
