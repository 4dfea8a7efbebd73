package sqlpool

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pg-sharding/shardgate/pkg/config"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/pool"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	retry "github.com/sethvargo/go-retry"
)

const defaultRetryBase = 50 * time.Millisecond

// Pool leases dedicated connections out of a database/sql handle.
type Pool struct {
	dbAlias string
	db      *sqlx.DB
	retries uint64
}

var _ pool.Pool = &Pool{}

// New wraps an already opened handle.
func New(dbAlias string, db *sqlx.DB, retries uint64) *Pool {
	return &Pool{
		dbAlias: dbAlias,
		db:      db,
		retries: retries,
	}
}

// Open opens the write pool and, when a replica DSN is configured, the read pool of one database.
func Open(dbAlias string, cfg *config.DBCfg) (*Pool, *Pool, error) {
	w, err := open(dbAlias, cfg, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	if cfg.ReadDSN == "" {
		return w, w, nil
	}
	r, err := open(dbAlias, cfg, cfg.ReadDSN)
	if err != nil {
		_ = w.Close()
		return nil, nil, err
	}
	return w, r, nil
}

func open(dbAlias string, cfg *config.DBCfg, dsn string) (*Pool, error) {
	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, sgerror.Wrap(sgerror.SG_CONNECTION_ERROR, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	shardlog.Zero.Debug().
		Str("db", dbAlias).
		Str("driver", cfg.Driver).
		Int("max open", cfg.MaxOpenConns).
		Msg("opened database pool")
	return New(dbAlias, db, uint64(cfg.ConnectRetries)), nil
}

// Fetch blocks until the underlying pool has a free connection. Transient
// acquisition failures are retried with a Fibonacci backoff.
func (p *Pool) Fetch(ctx context.Context) (pool.Connector, error) {
	var conn *sqlx.Conn
	err := retry.Do(ctx, retry.WithMaxRetries(p.retries, retry.NewFibonacci(defaultRetryBase)), func(ctx context.Context) error {
		c, err := p.db.Connx(ctx)
		if err != nil {
			shardlog.Zero.Debug().
				Err(err).
				Str("db", p.dbAlias).
				Msg("failed to acquire connection, retrying")
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, sgerror.Wrap(sgerror.SG_CONNECTION_ERROR, err)
	}
	return &Conn{dbAlias: p.dbAlias, conn: conn}, nil
}

// Put returns the connection to database/sql. An open transaction is rolled back.
func (p *Pool) Put(c pool.Connector) error {
	conn, ok := c.(*Conn)
	if !ok {
		return sgerror.Newf(sgerror.SG_UNEXPECTED, "foreign connector %T returned to pool %q", c, p.dbAlias)
	}
	if conn.tx != nil {
		if err := conn.tx.Rollback(); err != nil && err != sql.ErrTxDone {
			shardlog.Zero.Error().Err(err).Str("db", p.dbAlias).Msg("rollback on put failed")
		}
		conn.tx = nil
	}
	return conn.conn.Close()
}

func (p *Pool) Close() error {
	return p.db.Close()
}
