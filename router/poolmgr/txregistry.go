package poolmgr

import (
	"context"
	"sync"

	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/pool"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	"go.uber.org/atomic"
)

// NoShardingAlias scopes transactions of tables that are not sharded.
const NoShardingAlias = "__no_sharding__"

// ShardTx is the transaction of one logical request on one sharding alias. It
// binds to a database alias on first use and keeps its connector until Commit
// or Rollback.
type ShardTx struct {
	RequestID     string
	ShardingAlias string

	mu       sync.Mutex
	dbAlias  string
	conn     pool.Connector
	pool     pool.Pool
	useCount atomic.Int64

	reg *TxRegistry
}

func (tx *ShardTx) DBAlias() string {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.dbAlias
}

func (tx *ShardTx) UseCount() int64 {
	return tx.useCount.Load()
}

func (tx *ShardTx) Commit(ctx context.Context) error {
	return tx.finish(ctx, true)
}

func (tx *ShardTx) Rollback(ctx context.Context) error {
	return tx.finish(ctx, false)
}

// finish ends the transaction, then unconditionally returns the connector and unregisters.
func (tx *ShardTx) finish(ctx context.Context, commit bool) error {
	tx.mu.Lock()
	conn, p := tx.conn, tx.pool
	tx.conn, tx.pool = nil, nil
	tx.mu.Unlock()

	defer tx.reg.unregister(tx)

	if conn == nil {
		return nil
	}

	var err error
	if commit {
		err = conn.Commit(ctx)
	} else {
		err = conn.Rollback(ctx)
	}
	if perr := p.Put(conn); perr != nil {
		shardlog.Zero.Error().
			Err(perr).
			Str("db", tx.dbAlias).
			Msg("failed to return connector to pool")
		if err == nil {
			err = perr
		}
	}

	shardlog.Zero.Debug().
		Str("request", tx.RequestID).
		Str("sharding alias", tx.ShardingAlias).
		Str("db", tx.dbAlias).
		Bool("commit", commit).
		Int64("uses", tx.useCount.Load()).
		Msg("shard transaction finished")
	return err
}

// Lease is a connector handed out for one operation.
type Lease struct {
	Conn pool.Connector

	tx   *ShardTx
	pool pool.Pool
}

// InTx reports whether the connector belongs to an open shard transaction.
func (l *Lease) InTx() bool {
	return l.tx != nil
}

// Release returns a non-transactional connector to its pool. Transactional
// connectors stay with their ShardTx.
func (l *Lease) Release() error {
	if l.tx != nil || l.Conn == nil {
		return nil
	}
	conn := l.Conn
	l.Conn = nil
	return l.pool.Put(conn)
}

// TxRegistry holds every open shard transaction of the process.
type TxRegistry struct {
	mu  sync.Mutex
	txs []*ShardTx
}

func NewTxRegistry() *TxRegistry {
	return &TxRegistry{}
}

func (r *TxRegistry) lookup(requestID, shardingAlias string) *ShardTx {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.RequestID == requestID && tx.ShardingAlias == shardingAlias {
			return tx
		}
	}
	return nil
}

func (r *TxRegistry) unregister(tx *ShardTx) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.txs {
		if t == tx {
			r.txs = append(r.txs[:i], r.txs[i+1:]...)
			return
		}
	}
}

// Register opens a shard transaction scope. It stays unbound until the first TryBegin.
func (r *TxRegistry) Register(requestID, shardingAlias string) (*ShardTx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.RequestID == requestID && tx.ShardingAlias == shardingAlias {
			return nil, sgerror.Newf(sgerror.SG_INVALID_REQUEST,
				"transaction on %q is already open in request %s", shardingAlias, requestID)
		}
	}
	tx := &ShardTx{
		RequestID:     requestID,
		ShardingAlias: shardingAlias,
		reg:           r,
	}
	r.txs = append(r.txs, tx)
	return tx, nil
}

// Lookup returns the open transaction of the pair, nil when there is none.
func (r *TxRegistry) Lookup(requestID, shardingAlias string) *ShardTx {
	return r.lookup(requestID, shardingAlias)
}

func (r *TxRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.txs)
}

func errCrossShardTx(shardingAlias, bound, requested string) error {
	return sgerror.Newf(sgerror.SG_UNSUPPORTED,
		"cross-shard transactions are not supported: %q is bound to %q, requested %q", shardingAlias, bound, requested)
}

// CheckTargets rejects a fan-out that would leave the shard of an open
// transaction. The transaction is rolled back before the error is returned.
func (r *TxRegistry) CheckTargets(ctx context.Context, requestID, shardingAlias string, dbAliases []string) error {
	tx := r.lookup(requestID, shardingAlias)
	if tx == nil || len(dbAliases) == 0 {
		return nil
	}
	bound := tx.DBAlias()
	for _, a := range dbAliases {
		if bound == "" {
			bound = a
		}
		if a != bound {
			if err := tx.Rollback(ctx); err != nil {
				shardlog.Zero.Error().Err(err).Msg("rollback of rejected shard transaction failed")
			}
			return errCrossShardTx(shardingAlias, bound, a)
		}
	}
	return nil
}

// TryBegin leases a connector for dbAlias within the scope of (requestID, shardingAlias).
//
// Without a registered transaction the connector is leased directly. An unbound
// transaction leases, binds and begins. A transaction bound to dbAlias is
// reused. A transaction bound elsewhere is rolled back and the call fails.
func (r *TxRegistry) TryBegin(ctx context.Context, requestID, shardingAlias, dbAlias string, p pool.Pool) (*Lease, error) {
	tx := r.lookup(requestID, shardingAlias)
	if tx == nil {
		conn, err := p.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		return &Lease{Conn: conn, pool: p}, nil
	}

	tx.mu.Lock()
	switch {
	case tx.conn == nil:
		defer tx.mu.Unlock()
		conn, err := p.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := conn.Begin(ctx); err != nil {
			_ = p.Put(conn)
			return nil, err
		}
		tx.conn, tx.pool, tx.dbAlias = conn, p, dbAlias
		tx.useCount.Inc()

		shardlog.Zero.Debug().
			Str("request", requestID).
			Str("sharding alias", shardingAlias).
			Str("db", dbAlias).
			Msg("shard transaction bound")
		return &Lease{Conn: conn, tx: tx}, nil
	case tx.dbAlias != dbAlias:
		bound := tx.dbAlias
		tx.mu.Unlock()
		if err := tx.Rollback(ctx); err != nil {
			shardlog.Zero.Error().Err(err).Msg("rollback of rejected shard transaction failed")
		}
		return nil, errCrossShardTx(shardingAlias, bound, dbAlias)
	default:
		defer tx.mu.Unlock()
		tx.useCount.Inc()
		return &Lease{Conn: tx.conn, tx: tx}, nil
	}
}
