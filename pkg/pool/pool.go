package pool

//go:generate mockgen -source=pkg/pool/pool.go -destination=pkg/mock/pool/pool_mock.go -package=mock_pool

import (
	"context"

	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
)

// Result is what a write reports back: affected rows and the last generated id.
type Result struct {
	AffectedCount int64
	InsertID      int64
}

// Connector is one leased database connection.
type Connector interface {
	DBAlias() string

	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	QueryAll(ctx context.Context, stmt statement.Statement) ([]tupleslot.Row, error)
	// QueryOne returns nil when the statement matched nothing.
	QueryOne(ctx context.Context, stmt statement.Statement) (tupleslot.Row, error)
	QueryColumn(ctx context.Context, stmt statement.Statement) ([]any, error)
	Execute(ctx context.Context, stmt statement.Statement) (Result, error)
}

// Pool hands out connectors of one database. Fetch may block while the pool is
// exhausted; no timeout is applied on top of ctx.
type Pool interface {
	Fetch(ctx context.Context) (Connector, error)
	Put(conn Connector) error
}

// PoolView resolves the pool serving reads or writes of one database alias.
type PoolView interface {
	PoolFor(dbAlias string, isWrite bool) (Pool, error)
}
