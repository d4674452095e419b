// Package drivers holds the connection configuration shared by the storage drivers.
package drivers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

const (
	DefaultRegion       = "us-east-1"
	DefaultPostgresPort = "5432"
)

var ErrIncompleteConfiguration = errors.New("incomplete database configuration")

// CredentialsLoader resolves the AWS credentials used to sign RDS IAM authentication tokens.
type CredentialsLoader func(ctx context.Context) (aws.CredentialsProvider, error)

func DefaultCredentialsLoader(ctx context.Context) (aws.CredentialsProvider, error) {
	if cfg, err := config.LoadDefaultConfig(ctx); err != nil {
		return nil, err
	} else {
		return cfg.Credentials, nil
	}
}

type DatabaseConfiguration struct {
	Connection            string `json:"connection"`
	Address               string `json:"addr"`
	Database              string `json:"database"`
	Username              string `json:"username"`
	Secret                string `json:"secret"`
	Region                string `json:"region"`
	MaxConcurrentSessions int    `json:"max_concurrent_sessions"`
	IamAuth               bool   `json:"iam_auth"`

	// Credentials overrides DefaultCredentialsLoader when IamAuth is set.
	Credentials CredentialsLoader `json:"-"`
}

func (s DatabaseConfiguration) region() string {
	if s.Region == "" {
		return DefaultRegion
	}

	return s.Region
}

func (s DatabaseConfiguration) iamEndpoint() string {
	cname, err := net.LookupCNAME(s.Address)
	if err != nil {
		slog.Warn("Unable to resolve CNAME for database address, using the original address",
			slog.String("address", s.Address),
			slog.String("err", err.Error()),
		)

		cname = s.Address
	}

	return strings.TrimSuffix(cname, ".") + ":" + DefaultPostgresPort
}

// PostgreSQLConnectionString renders the connection string for the PostgreSQL driver. With IamAuth set a fresh RDS
// authentication token is requested on every call and used as the password.
func (s DatabaseConfiguration) PostgreSQLConnectionString(ctx context.Context) (string, error) {
	if s.IamAuth {
		if s.Address == "" || s.Username == "" {
			return "", fmt.Errorf("%w: iam auth requires an address and a username", ErrIncompleteConfiguration)
		}

		loadCredentials := s.Credentials
		if loadCredentials == nil {
			loadCredentials = DefaultCredentialsLoader
		}

		credentials, err := loadCredentials(ctx)
		if err != nil {
			return "", fmt.Errorf("loading aws credentials: %w", err)
		}

		endpoint := s.iamEndpoint()

		slog.Info("Requesting RDS auth token", slog.String("endpoint", endpoint), slog.String("region", s.region()))

		authenticationToken, err := auth.BuildAuthToken(ctx, endpoint, s.region(), s.Username, credentials)
		if err != nil {
			return "", fmt.Errorf("creating rds authentication token: %w", err)
		}

		return fmt.Sprintf("postgresql://%s:%s@%s/%s", s.Username, url.QueryEscape(authenticationToken), endpoint, s.Database), nil
	} else if s.Connection != "" {
		return s.Connection, nil
	} else if s.Address == "" {
		return "", fmt.Errorf("%w: either a connection string or an address is required", ErrIncompleteConfiguration)
	} else {
		return fmt.Sprintf("postgresql://%s:%s@%s/%s", s.Username, url.QueryEscape(s.Secret), s.Address, s.Database), nil
	}
}

func (s DatabaseConfiguration) Neo4jConnectionString() (string, error) {
	if s.Connection != "" {
		return s.Connection, nil
	} else if s.Address == "" {
		return "", fmt.Errorf("%w: either a connection string or an address is required", ErrIncompleteConfiguration)
	}

	return fmt.Sprintf("neo4j://%s:%s@%s/%s", s.Username, url.QueryEscape(s.Secret), s.Address, s.Database), nil
}
