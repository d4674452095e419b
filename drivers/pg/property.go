package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/specterops/relgraph/graph"
)

// PropertyTable looks properties up from a jsonb column keyed by an integer column.
type PropertyTable struct {
	conn       Querier
	identifier pgx.Identifier
	lookupSQL  string
}

func NewPropertyTable(conn Querier, identifier pgx.Identifier, keyColumn, propertiesColumn string) *PropertyTable {
	return &PropertyTable{
		conn:       conn,
		identifier: identifier,
		lookupSQL: "SELECT " + pgx.Identifier{propertiesColumn}.Sanitize() +
			" FROM " + identifier.Sanitize() +
			" WHERE " + pgx.Identifier{keyColumn}.Sanitize() + " = $1;",
	}
}

func (s *PropertyTable) Name() string {
	return s.identifier.Sanitize()
}

func (s *PropertyTable) Lookup(ctx context.Context, key graph.ID) (*graph.Properties, error) {
	var rawProperties []byte

	if err := s.conn.QueryRow(ctx, s.lookupSQL, key.Int64()).Scan(&rawProperties); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, translateError(err, s.Name())
	}

	if rawProperties == nil {
		return nil, nil
	}

	var values map[string]any
	if err := json.Unmarshal(rawProperties, &values); err != nil {
		return nil, fmt.Errorf("decoding properties of %s key %s: %w", s.Name(), key, err)
	}

	return graph.NewPropertiesFrom(values), nil
}
