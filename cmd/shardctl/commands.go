package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pg-sharding/shardgate/pkg/config"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/models/shrule"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
	"github.com/pg-sharding/shardgate/router/app"
	"github.com/pg-sharding/shardgate/router/poolmgr"
	"github.com/pg-sharding/shardgate/router/statistics"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// readStatement decodes the statement given as a file argument, or stdin.
func readStatement(args []string) (statement.Statement, error) {
	var r io.Reader = os.Stdin
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = f.Close()
		}()
		r = f
	}
	return statement.Decode(r)
}

func output(w io.Writer, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return sgerror.Newf(sgerror.SG_INVALID_REQUEST, "unknown output format %q", format)
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "check the config file and every sharding rule in it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rules, err := shrule.Load(cfg.Tables, cfg.IDGen.GeneBits)
		if err != nil {
			return err
		}
		reg := shrule.NewRegistry(rules)
		return output(cmd.OutOrStdout(), map[string]any{
			"tables": reg.Tables(),
			"dbs":    len(cfg.DBs),
		})
	},
}

// emptySource stands in for the database when explaining offline: an update
// of the routing column is explained as if no row had to move.
type emptySource struct{}

func (emptySource) QueryAll(context.Context, statement.Statement) ([]tupleslot.Row, error) {
	shardlog.Zero.Warn().Msg("offline explain: assuming no row matches the update")
	return nil, nil
}

var routeCmd = &cobra.Command{
	Use:   "route [statement.json]",
	Short: "explain the routing plan of a statement without touching any database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		stmt, err := readStatement(args)
		if err != nil {
			return err
		}

		/* offline: ids come from a process-local sequence */
		cfg.IDGen.Backend = "memory"
		in, err := app.NewRoutingInstance(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer in.Close()

		p, err := in.Router.Route(cmd.Context(), stmt, emptySource{})
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), map[string]any{
			"table":          p.Table,
			"sharding_alias": p.ShardingAlias,
			"sharded":        p.Sharded,
			"phases":         p.Explain(),
		})
	},
}

var (
	execOp        string
	indexColumn   string
	extractColumn string
)

var execCmd = &cobra.Command{
	Use:   "exec [statement.json]",
	Short: "run a statement against the configured databases",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		stmt, err := readStatement(args)
		if err != nil {
			return err
		}

		closer, err := app.InitJaegerTracer(&cfg.Jaeger)
		if err != nil {
			return err
		}
		defer func() {
			_ = closer.Close()
		}()

		ctx, _ := poolmgr.NewRequestContext(cmd.Context())
		in, err := app.NewInstance(ctx, cfg)
		if err != nil {
			return err
		}
		defer in.Close()

		var res any
		switch execOp {
		case "all":
			res, err = in.Executor.QueryAll(ctx, stmt)
		case "one":
			res, err = in.Executor.QueryOne(ctx, stmt)
		case "column":
			res, err = in.Executor.QueryColumn(ctx, stmt)
		case "each":
			res, err = in.Executor.QueryEach(ctx, stmt, indexColumn, extractColumn)
		case "execute":
			res, err = in.Executor.Execute(ctx, stmt)
		default:
			return sgerror.Newf(sgerror.SG_INVALID_REQUEST, "unknown operation %q", execOp)
		}
		if err != nil {
			return errors.Wrap(err, "statement failed")
		}

		for _, q := range in.Stats.Quantiles {
			shardlog.Zero.Info().
				Float64("quantile", q).
				Float64("router ms", in.Stats.GetTimeQuantile(statistics.StatisticsTypeRouter, q, "")).
				Msg("statement latency")
			for _, sh := range in.Stats.Shards() {
				shardlog.Zero.Info().
					Float64("quantile", q).
					Str("shard", sh).
					Float64("ms", in.Stats.GetTimeQuantile(statistics.StatisticsTypeShard, q, sh)).
					Msg("shard latency")
			}
		}
		return output(cmd.OutOrStdout(), res)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "follow sharding rule updates published to etcd",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		in, err := app.NewRoutingInstance(ctx, cfg)
		if err != nil {
			return err
		}
		defer in.Close()

		in.Rules.OnInstall(func(rules map[string]*shrule.ShardingConfig) {
			tables := make([]string, 0, len(rules))
			for t := range rules {
				tables = append(tables, t)
			}
			shardlog.Zero.Info().
				Strs("tables", tables).
				Msg("sharding rules installed")
		})

		err = in.WatchRules(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	execCmd.Flags().StringVar(&execOp, "op", "all", "operation: all, one, column, each or execute")
	execCmd.Flags().StringVar(&indexColumn, "index", "", "index column of --op each")
	execCmd.Flags().StringVar(&extractColumn, "extract", "", "extracted column of --op each")
}
