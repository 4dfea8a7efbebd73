package idgen

import (
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/pg-sharding/shardgate/pkg/shardlog"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
)

const sequenceSpace = "/sequences/"

// EtcdSequence keeps the high-water mark of every tag in etcd so that several
// router processes never hand out overlapping ranges.
type EtcdSequence struct {
	cli    *clientv3.Client
	prefix string
}

var _ Sequence = &EtcdSequence{}

func NewEtcdSequence(cli *clientv3.Client, prefix string) *EtcdSequence {
	return &EtcdSequence{cli: cli, prefix: prefix}
}

func (q *EtcdSequence) nodePath(tag string) string {
	return path.Join(q.prefix, sequenceSpace, tag)
}

func closeSession(sess *concurrency.Session) {
	if err := sess.Close(); err != nil {
		shardlog.Zero.Error().Err(err).Msg("error closing etcd session")
	}
}

func unlockMutex(mu *concurrency.Mutex, ctx context.Context) {
	if err := mu.Unlock(ctx); err != nil {
		shardlog.Zero.Error().Err(err).Msg("error unlocking etcd mutex")
	}
}

func (q *EtcdSequence) NextRange(ctx context.Context, tag string, size uint64) (*IDRange, error) {
	shardlog.Zero.Debug().
		Str("tag", tag).
		Uint64("size", size).
		Msg("etcd sequence: next range")

	id := q.nodePath(tag)
	sess, err := concurrency.NewSession(q.cli)
	if err != nil {
		return nil, err
	}
	defer closeSession(sess)

	mu := concurrency.NewMutex(sess, path.Join(q.prefix, sequenceSpace))
	if err = mu.Lock(ctx); err != nil {
		return nil, err
	}
	defer unlockMutex(mu, ctx)

	resp, err := q.cli.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var current int64 = 0
	switch resp.Count {
	case 1:
		current, err = strconv.ParseInt(string(resp.Kvs[0].Value), 10, 64)
		if err != nil {
			return nil, err
		}
	default:
	}

	rng, err := NewRangeBySize(current+1, size)
	if err != nil {
		return nil, err
	}
	if _, err = q.cli.Put(ctx, id, fmt.Sprintf("%d", rng.Right)); err != nil {
		return nil, err
	}
	return rng, nil
}
