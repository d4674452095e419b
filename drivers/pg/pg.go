// Package pg implements the storage catalog over PostgreSQL tables using pgx.
package pg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/specterops/relgraph"
	"github.com/specterops/relgraph/drivers"
	"github.com/specterops/relgraph/storage"
)

const (
	DriverName = "pg"

	poolInitConnectionTimeout = time.Second * 10
	defaultMaxConnections     = 50
)

// SQLState is a PostgreSQL error code.
type SQLState string

const (
	StateUndefinedTable  SQLState = "42P01"
	StateUndefinedColumn SQLState = "42703"
)

func (s SQLState) ErrorMatches(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == string(s)
}

// translateError maps PostgreSQL failures onto the storage error contract.
func translateError(err error, table string) error {
	switch {
	case err == nil:
		return nil
	case StateUndefinedTable.ErrorMatches(err):
		return fmt.Errorf("%w: %s", storage.ErrNoSuchTable, table)
	case StateUndefinedColumn.ErrorMatches(err):
		return fmt.Errorf("%w: %s: %w", storage.ErrNoSuchColumn, table, err)
	default:
		return err
	}
}

func NewPool(ctx context.Context, cfg drivers.DatabaseConfiguration) (*pgxpool.Pool, error) {
	poolCtx, done := context.WithTimeout(ctx, poolInitConnectionTimeout)
	defer done()

	connectionString, err := cfg.PostgreSQLConnectionString(poolCtx)
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = defaultMaxConnections
	if cfg.MaxConcurrentSessions > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConcurrentSessions)
	}

	if cfg.IamAuth {
		// RDS auth tokens expire, every new connection needs a fresh one
		poolCfg.BeforeConnect = func(ctx context.Context, connCfg *pgx.ConnConfig) error {
			slog.Info("RDS credential beforeConnect(), creating new IAM credentials")

			if refreshConnectionString, err := cfg.PostgreSQLConnectionString(ctx); err != nil {
				return err
			} else if refreshedCfg, err := pgxpool.ParseConfig(refreshConnectionString); err != nil {
				return err
			} else {
				connCfg.Password = refreshedCfg.ConnConfig.Password
			}

			return nil
		}
	}

	return pgxpool.NewWithConfig(poolCtx, poolCfg)
}

func databaseConfiguration(cfg relgraph.Config) (drivers.DatabaseConfiguration, error) {
	switch typed := cfg.DriverConfig.(type) {
	case drivers.DatabaseConfiguration:
		return typed, nil
	case *drivers.DatabaseConfiguration:
		return *typed, nil
	case nil:
		return drivers.DatabaseConfiguration{
			Connection: cfg.ConnectionString,
		}, nil
	default:
		return drivers.DatabaseConfiguration{}, fmt.Errorf("%s driver does not accept driver configuration of type %T", DriverName, cfg.DriverConfig)
	}
}

func init() {
	relgraph.Register(DriverName, func(ctx context.Context, cfg relgraph.Config) (storage.Catalog, error) {
		if dbCfg, err := databaseConfiguration(cfg); err != nil {
			return nil, err
		} else if pool, err := NewPool(ctx, dbCfg); err != nil {
			return nil, err
		} else {
			return NewCatalog(pool), nil
		}
	})
}
