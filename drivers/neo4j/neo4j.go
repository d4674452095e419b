// Package neo4j serves property tables from node properties held in a Neo4j database. Neo4j has no positional tuple
// storage, so catalogs opened through this driver only resolve property tables.
package neo4j

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/specterops/relgraph"
	"github.com/specterops/relgraph/drivers"
	"github.com/specterops/relgraph/storage"
)

const (
	DriverName = "neo4j"

	DefaultConcurrentConnections = 50
	DefaultKeyProperty           = "id"
	DefaultTransactionTimeout    = time.Second * 30
)

type connectionTarget struct {
	boltURL  string
	username string
	password string
	database string
}

func parseConnectionString(connectionString string) (connectionTarget, error) {
	if connectionURL, err := url.Parse(connectionString); err != nil {
		return connectionTarget{}, err
	} else if connectionURL.Scheme != DriverName {
		return connectionTarget{}, fmt.Errorf("expected connection URL scheme %s for Neo4J but got %s", DriverName, connectionURL.Scheme)
	} else if password, isSet := connectionURL.User.Password(); !isSet {
		return connectionTarget{}, fmt.Errorf("no password provided in connection URL")
	} else {
		return connectionTarget{
			boltURL:  fmt.Sprintf("bolt://%s:%s", connectionURL.Hostname(), connectionURL.Port()),
			username: connectionURL.User.Username(),
			password: password,
			database: strings.TrimPrefix(connectionURL.Path, "/"),
		}, nil
	}
}

func connectionString(cfg relgraph.Config) (string, int, error) {
	switch typed := cfg.DriverConfig.(type) {
	case nil:
		return cfg.ConnectionString, DefaultConcurrentConnections, nil
	case drivers.DatabaseConfiguration:
		connection, err := typed.Neo4jConnectionString()
		return connection, typed.MaxConcurrentSessions, err
	default:
		return "", 0, fmt.Errorf("%s driver does not accept driver configuration of type %T", DriverName, cfg.DriverConfig)
	}
}

func newCatalog(ctx context.Context, cfg relgraph.Config) (storage.Catalog, error) {
	connection, maxSessions, err := connectionString(cfg)
	if err != nil {
		return nil, err
	}

	target, err := parseConnectionString(connection)
	if err != nil {
		return nil, err
	}

	internalDriver, err := neo4j.NewDriverWithContext(target.boltURL, neo4j.BasicAuth(target.username, target.password, ""))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to Neo4J: %w", err)
	}

	if err := internalDriver.VerifyConnectivity(ctx); err != nil {
		internalDriver.Close(ctx)
		return nil, fmt.Errorf("unable to connect to Neo4J: %w", err)
	}

	return NewCatalog(newSessionRunner(internalDriver, target.database, DefaultTransactionTimeout), maxSessions), nil
}

func init() {
	relgraph.Register(DriverName, newCatalog)
}
