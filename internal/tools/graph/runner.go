package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/argos-research/argos/config"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Record is one result row keyed by column name.
type Record map[string]interface{}

// Runner executes a read-only parameterized query.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]interface{}) ([]Record, error)
}

var ErrNotConfigured = errors.New("graph.uri not configured")

// Neo4j runs queries through a shared driver. The driver connects lazily, so
// an unreachable database fails the individual tool call rather than startup.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
}

func Open(cfg config.GraphConfig) (*Neo4j, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, ErrNotConfigured
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	return &Neo4j{driver: driver, database: cfg.Database}, nil
}

func (n *Neo4j) Run(ctx context.Context, query string, params map[string]interface{}) ([]Record, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithReadersRouting()}
	if n.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(n.database))
	}
	res, err := neo4j.ExecuteQuery(ctx, n.driver, query, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, fmt.Errorf("neo4j query: %w", err)
	}
	out := make([]Record, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, rec.AsMap())
	}
	return out, nil
}

func (n *Neo4j) Close(ctx context.Context) error {
	return n.driver.Close(ctx)
}

// unavailable stands in for the database when it is not configured.
type unavailable struct{ err error }

func (u unavailable) Run(context.Context, string, map[string]interface{}) ([]Record, error) {
	return nil, u.err
}

// Unavailable returns a Runner whose every query fails with err.
func Unavailable(err error) Runner { return unavailable{err: err} }
