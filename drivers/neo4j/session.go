package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/specterops/relgraph/util"
)

// Runner executes a read query and returns the value of the named column from the first record. found is false when
// the query produced no records.
type Runner interface {
	ReadSingle(ctx context.Context, cypher string, parameters map[string]any, column string) (value any, found bool, err error)
	Close(ctx context.Context) error
}

type sessionRunner struct {
	driver             neo4j.DriverWithContext
	database           string
	transactionTimeout time.Duration
}

func newSessionRunner(driver neo4j.DriverWithContext, database string, transactionTimeout time.Duration) Runner {
	return sessionRunner{
		driver:             driver,
		database:           database,
		transactionTimeout: transactionTimeout,
	}
}

func (s sessionRunner) ReadSingle(ctx context.Context, cypher string, parameters map[string]any, column string) (any, bool, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})

	defer session.Close(ctx)

	var found bool

	value, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, parameters)
		if err != nil {
			return nil, err
		}

		if result.Next(ctx) {
			found = true

			value, _ := result.Record().Get(column)
			return value, nil
		}

		return nil, result.Err()
	}, neo4j.WithTxTimeout(s.transactionTimeout))

	if err != nil {
		if util.IsNeoTimeoutError(err) {
			return nil, false, fmt.Errorf("read timed out after %s: %w", s.transactionTimeout, err)
		}

		return nil, false, err
	}

	return value, found, nil
}

func (s sessionRunner) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
