package sqlpool

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/pool"
	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
)

type queryer interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

// Conn is a connection leased from Pool, optionally inside a transaction.
type Conn struct {
	dbAlias string
	conn    *sqlx.Conn
	tx      *sqlx.Tx
}

var _ pool.Connector = &Conn{}

func (c *Conn) DBAlias() string {
	return c.dbAlias
}

func (c *Conn) q() queryer {
	if c.tx != nil {
		return c.tx
	}
	return c.conn
}

func (c *Conn) Begin(ctx context.Context) error {
	if c.tx != nil {
		return sgerror.Newf(sgerror.SG_EXECUTION, "transaction already open on %q", c.dbAlias)
	}
	tx, err := c.conn.BeginTxx(ctx, nil)
	if err != nil {
		return sgerror.Wrap(sgerror.SG_EXECUTION, err)
	}
	c.tx = tx
	return nil
}

func (c *Conn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	err := c.tx.Commit()
	c.tx = nil
	return sgerror.Wrap(sgerror.SG_EXECUTION, err)
}

func (c *Conn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	err := c.tx.Rollback()
	c.tx = nil
	return sgerror.Wrap(sgerror.SG_EXECUTION, err)
}

func (c *Conn) render(stmt statement.Statement) (string, []any, error) {
	query, args, err := statement.Render(stmt)
	if err != nil {
		return "", nil, err
	}
	return c.q().Rebind(query), args, nil
}

func (c *Conn) QueryAll(ctx context.Context, stmt statement.Statement) ([]tupleslot.Row, error) {
	query, args, err := c.render(stmt)
	if err != nil {
		return nil, err
	}
	rows, err := c.q().QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, sgerror.Wrap(sgerror.SG_EXECUTION, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]tupleslot.Row, 0)
	for rows.Next() {
		rowmap := make(map[string]any)
		if err := rows.MapScan(rowmap); err != nil {
			return nil, sgerror.Wrap(sgerror.SG_EXECUTION, err)
		}
		for k, v := range rowmap {
			if v2, ok := v.([]byte); ok {
				rowmap[k] = string(v2)
			}
		}
		result = append(result, rowmap)
	}
	if err := rows.Err(); err != nil {
		return nil, sgerror.Wrap(sgerror.SG_EXECUTION, err)
	}
	return result, nil
}

func (c *Conn) QueryOne(ctx context.Context, stmt statement.Statement) (tupleslot.Row, error) {
	rows, err := c.QueryAll(ctx, stmt)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (c *Conn) QueryColumn(ctx context.Context, stmt statement.Statement) ([]any, error) {
	query, args, err := c.render(stmt)
	if err != nil {
		return nil, err
	}
	rows, err := c.q().QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, sgerror.Wrap(sgerror.SG_EXECUTION, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]any, 0)
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, sgerror.Wrap(sgerror.SG_EXECUTION, err)
		}
		if len(vals) == 0 {
			continue
		}
		v := vals[0]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, sgerror.Wrap(sgerror.SG_EXECUTION, err)
	}
	return result, nil
}

func (c *Conn) Execute(ctx context.Context, stmt statement.Statement) (pool.Result, error) {
	query, args, err := c.render(stmt)
	if err != nil {
		return pool.Result{}, err
	}
	res, err := c.q().ExecContext(ctx, query, args...)
	if err != nil {
		return pool.Result{}, sgerror.Wrap(sgerror.SG_EXECUTION, err)
	}
	var out pool.Result
	if n, err := res.RowsAffected(); err == nil {
		out.AffectedCount = n
	}
	/* postgres drivers do not report last insert ids */
	if id, err := res.LastInsertId(); err == nil {
		out.InsertID = id
	}
	return out, nil
}
