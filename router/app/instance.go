package app

import (
	"context"
	"io"

	"github.com/pg-sharding/shardgate/pkg/config"
	"github.com/pg-sharding/shardgate/pkg/idgen"
	"github.com/pg-sharding/shardgate/pkg/models/shrule"
	"github.com/pg-sharding/shardgate/pkg/pool"
	"github.com/pg-sharding/shardgate/pkg/pool/sqlpool"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	"github.com/pg-sharding/shardgate/router/merge"
	"github.com/pg-sharding/shardgate/router/poolmgr"
	"github.com/pg-sharding/shardgate/router/qrouter"
	"github.com/pg-sharding/shardgate/router/relay"
	"github.com/pg-sharding/shardgate/router/statistics"
	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Instance is a fully wired shardgate: rules, id generation, pools and the executor.
type Instance struct {
	Cfg      *config.Config
	Rules    *shrule.Registry
	IDGen    *idgen.Service
	Router   *qrouter.QueryRouter
	Executor *relay.Executor
	Stats    *statistics.Statistics

	Etcd   *clientv3.Client
	Source *shrule.EtcdSource
	// Rev is the etcd revision the installed rules were read at.
	Rev int64

	closers []io.Closer
}

// NewEtcdClient dials the configured etcd cluster.
func NewEtcdClient(cfg *config.EtcdCfg) (*clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		DialOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to etcd")
	}

	shardlog.Zero.Debug().
		Strs("endpoints", cfg.Endpoints).
		Uint("client", shardlog.GetPointer(cli)).
		Msg("connected to etcd")
	return cli, nil
}

// NewRoutingInstance wires everything but database pools. It is enough to
// route and explain statements.
func NewRoutingInstance(ctx context.Context, cfg *config.Config) (*Instance, error) {
	if err := shardlog.UpdateZeroLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	shardlog.ReloadLogger(cfg.LogFile)

	in := &Instance{Cfg: cfg}

	if len(cfg.Etcd.Endpoints) > 0 {
		cli, err := NewEtcdClient(&cfg.Etcd)
		if err != nil {
			return nil, err
		}
		in.Etcd = cli
		in.closers = append(in.closers, cli)
	}

	var seq idgen.Sequence = idgen.NewMemSequence()
	if cfg.IDGen.Backend == "etcd" {
		seq = idgen.NewEtcdSequence(in.Etcd, "/shardgate")
	}
	in.IDGen = idgen.NewService(seq, cfg.IDGen.GeneBits, cfg.IDGen.RangeSize)

	rules, err := shrule.Load(cfg.Tables, cfg.IDGen.GeneBits)
	if err != nil {
		in.Close()
		return nil, err
	}
	if in.Etcd != nil && cfg.Etcd.RulesKey != "" {
		in.Source = shrule.NewEtcdSource(in.Etcd, in.Etcd, cfg.Etcd.RulesKey, cfg.IDGen.GeneBits)
		fetched, rev, err := in.Source.Fetch(ctx)
		if err != nil {
			in.Close()
			return nil, err
		}
		if fetched != nil {
			rules = fetched
		}
		in.Rev = rev
	}

	in.Rules = shrule.NewRegistry(rules)
	in.Rules.OnInstall(in.IDGen.RegisterRules)
	in.Router = qrouter.NewQueryRouter(in.Rules, in.IDGen, cfg.PlainDB)

	quantiles, err := statistics.ParseQuantiles(cfg.Executor.TimeQuantiles)
	if err != nil {
		in.Close()
		return nil, err
	}
	in.Stats = statistics.NewStatistics(quantiles)

	shardlog.Zero.Info().
		Strs("tables", in.Rules.Tables()).
		Str("idgen", cfg.IDGen.Backend).
		Msg("routing instance initialized")
	return in, nil
}

// NewInstance wires a routing instance to the configured databases.
func NewInstance(ctx context.Context, cfg *config.Config) (*Instance, error) {
	in, err := NewRoutingInstance(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pools := pool.NewPoolSet()
	for alias, dbCfg := range cfg.DBs {
		w, r, err := sqlpool.Open(alias, dbCfg)
		if err != nil {
			in.Close()
			return nil, errors.Wrapf(err, "db %q", alias)
		}
		pools.Add(alias, true, w)
		in.closers = append(in.closers, w)
		if r != w {
			pools.Add(alias, false, r)
			in.closers = append(in.closers, r)
		}
	}

	in.Executor = relay.NewExecutor(in.Router, pools, poolmgr.NewTxRegistry(), merge.DefaultFactory{}, in.Stats, cfg.Executor.MaxConcurrency)
	return in, nil
}

// WatchRules keeps the registry in sync with etcd until ctx is done.
func (in *Instance) WatchRules(ctx context.Context) error {
	if in.Source == nil {
		return errors.New("rules are not stored in etcd")
	}
	return in.Source.Watch(ctx, in.Rules, in.Rev)
}

func (in *Instance) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i].Close(); err != nil {
			shardlog.Zero.Error().Err(err).Msg("failed to close instance resource")
		}
	}
	in.closers = nil
}
