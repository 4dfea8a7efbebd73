package shrule

import (
	"context"
	"encoding/json"

	"github.com/pg-sharding/shardgate/pkg/config"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdSource reads table rules stored as one JSON document under a key. The
// resharding tool publishes a new document, the watcher installs it wholesale.
type EtcdSource struct {
	kv       clientv3.KV
	watcher  clientv3.Watcher
	key      string
	geneBits uint
}

func NewEtcdSource(kv clientv3.KV, watcher clientv3.Watcher, key string, geneBits uint) *EtcdSource {
	return &EtcdSource{
		kv:       kv,
		watcher:  watcher,
		key:      key,
		geneBits: geneBits,
	}
}

func (s *EtcdSource) decode(value []byte) (map[string]*ShardingConfig, error) {
	tables := map[string]*config.TableCfg{}
	if err := json.Unmarshal(value, &tables); err != nil {
		return nil, sgerror.Newf(sgerror.SG_CONFIGURATION, "decode rules under %q: %v", s.key, err)
	}
	return Load(tables, s.geneBits)
}

// Fetch returns the current rules and the revision they were read at.
func (s *EtcdSource) Fetch(ctx context.Context) (map[string]*ShardingConfig, int64, error) {
	resp, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, 0, err
	}
	if len(resp.Kvs) == 0 {
		return nil, 0, sgerror.Newf(sgerror.SG_CONFIGURATION, "no sharding rules under %q", s.key)
	}

	rules, err := s.decode(resp.Kvs[0].Value)
	if err != nil {
		return nil, 0, err
	}
	return rules, resp.Header.GetRevision(), nil
}

// Watch installs every valid revision published after rev into reg until ctx is done.
// Invalid documents are logged and skipped, the registry keeps serving the last good set.
func (s *EtcdSource) Watch(ctx context.Context, reg *Registry, rev int64) error {
	opts := []clientv3.OpOption{}
	if rev > 0 {
		opts = append(opts, clientv3.WithRev(rev+1))
	}
	wch := s.watcher.Watch(ctx, s.key, opts...)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case resp, ok := <-wch:
			if !ok {
				return ctx.Err()
			}
			if err := resp.Err(); err != nil {
				return err
			}
			for _, ev := range resp.Events {
				if ev.Type != clientv3.EventTypePut {
					shardlog.Zero.Warn().
						Str("key", s.key).
						Msg("sharding rules deleted from etcd, keeping the installed set")
					continue
				}
				rules, err := s.decode(ev.Kv.Value)
				if err != nil {
					shardlog.Zero.Error().
						Err(err).
						Int64("revision", ev.Kv.ModRevision).
						Msg("skip invalid sharding rules revision")
					continue
				}
				reg.Install(rules)
				shardlog.Zero.Info().
					Int64("revision", ev.Kv.ModRevision).
					Int("tables", len(rules)).
					Msg("installed sharding rules")
			}
		}
	}
}
