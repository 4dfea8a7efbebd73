package config

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/pg-sharding/shardgate/pkg/shardlog"
	"golang.org/x/xerrors"
)

const (
	defaultGeneBits       = 10
	defaultIDRangeSize    = 100
	defaultConnectRetries = 3
)

type Config struct {
	LogLevel string `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFile  string `json:"log_file" toml:"log_file" yaml:"log_file"`

	// DefaultDB serves every table that has no sharding rule.
	DefaultDB   string            `json:"default_db" toml:"default_db" yaml:"default_db"`
	PlainTables map[string]string `json:"plain_tables" toml:"plain_tables" yaml:"plain_tables"`

	DBs    map[string]*DBCfg    `json:"dbs" toml:"dbs" yaml:"dbs"`
	Tables map[string]*TableCfg `json:"tables" toml:"tables" yaml:"tables"`

	IDGen    IDGenCfg    `json:"idgen" toml:"idgen" yaml:"idgen"`
	Executor ExecutorCfg `json:"executor" toml:"executor" yaml:"executor"`
	Etcd     EtcdCfg     `json:"etcd" toml:"etcd" yaml:"etcd"`
	Jaeger   JaegerCfg   `json:"jaeger" toml:"jaeger" yaml:"jaeger"`
}

type DBCfg struct {
	Driver string `json:"driver" toml:"driver" yaml:"driver"`
	DSN    string `json:"dsn" toml:"dsn" yaml:"dsn"`
	// ReadDSN points reads to a replica; empty means reads use DSN.
	ReadDSN string `json:"read_dsn" toml:"read_dsn" yaml:"read_dsn"`

	MaxOpenConns   int           `json:"max_open_conns" toml:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns   int           `json:"max_idle_conns" toml:"max_idle_conns" yaml:"max_idle_conns"`
	ConnectRetries int           `json:"connect_retries" toml:"connect_retries" yaml:"connect_retries"`
	ConnectTimeout time.Duration `json:"connect_timeout" toml:"connect_timeout" yaml:"connect_timeout"`
}

type IDGenCfg struct {
	// Backend is "memory" or "etcd".
	Backend   string `json:"backend" toml:"backend" yaml:"backend"`
	GeneBits  uint   `json:"gene_bits" toml:"gene_bits" yaml:"gene_bits"`
	RangeSize uint64 `json:"range_size" toml:"range_size" yaml:"range_size"`
}

type ExecutorCfg struct {
	// MaxConcurrency bounds per-statement shard fan-out, 0 means one goroutine per shard.
	MaxConcurrency int `json:"max_concurrency" toml:"max_concurrency" yaml:"max_concurrency"`
	// TimeQuantiles are the latency quantiles reported by shardctl, e.g. "0.5", "0.99".
	TimeQuantiles []string `json:"time_quantiles" toml:"time_quantiles" yaml:"time_quantiles"`
}

type EtcdCfg struct {
	Endpoints   []string      `json:"endpoints" toml:"endpoints" yaml:"endpoints"`
	RulesKey    string        `json:"rules_key" toml:"rules_key" yaml:"rules_key"`
	DialTimeout time.Duration `json:"dial_timeout" toml:"dial_timeout" yaml:"dial_timeout"`
}

type JaegerCfg struct {
	JaegerUrl   string `json:"jaeger_url" toml:"jaeger_url" yaml:"jaeger_url"`
	ServiceName string `json:"service_name" toml:"service_name" yaml:"service_name"`
}

// Load reads the configuration file at cfgPath.
func Load(cfgPath string) (*Config, error) {
	file, err := os.Open(cfgPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return Decode(file, cfgPath)
}

// Decode is Load for an already opened stream; name selects the format.
func Decode(r io.Reader, name string) (*Config, error) {
	cfg := &Config{}
	if err := initConfig(r, name, cfg); err != nil {
		return nil, xerrors.Errorf("decode %s: %w", name, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configBytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	shardlog.Zero.Debug().RawJSON("config", configBytes).Msg("running config")
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.IDGen.Backend == "" {
		c.IDGen.Backend = "memory"
	}
	if c.IDGen.GeneBits == 0 {
		c.IDGen.GeneBits = defaultGeneBits
	}
	if c.IDGen.RangeSize == 0 {
		c.IDGen.RangeSize = defaultIDRangeSize
	}
	for _, db := range c.DBs {
		if db.ConnectRetries == 0 {
			db.ConnectRetries = defaultConnectRetries
		}
	}
	if c.Etcd.DialTimeout == 0 {
		c.Etcd.DialTimeout = 5 * time.Second
	}
}

// Validate checks cross references between sections. Rule level checks belong to shrule.Load.
func (c *Config) Validate() error {
	if c.IDGen.Backend != "memory" && c.IDGen.Backend != "etcd" {
		return xerrors.Errorf("unknown idgen backend %q", c.IDGen.Backend)
	}
	if c.IDGen.Backend == "etcd" && len(c.Etcd.Endpoints) == 0 {
		return xerrors.New("idgen backend etcd requires etcd endpoints")
	}
	if c.IDGen.GeneBits > 20 {
		return xerrors.Errorf("gene_bits %d is too wide, at most 20 bits are supported", c.IDGen.GeneBits)
	}
	if c.Executor.MaxConcurrency < 0 {
		return xerrors.Errorf("executor max_concurrency must be >= 0, got %d", c.Executor.MaxConcurrency)
	}
	if len(c.DBs) == 0 {
		/* routing-only setup, nothing to cross check */
		return nil
	}
	if c.DefaultDB != "" {
		if _, ok := c.DBs[c.DefaultDB]; !ok {
			return xerrors.Errorf("default_db %q is not declared in dbs", c.DefaultDB)
		}
	}
	for table, alias := range c.PlainTables {
		if _, ok := c.DBs[alias]; !ok {
			return xerrors.Errorf("table %q refers to undeclared db %q", table, alias)
		}
	}
	for table, t := range c.Tables {
		if t == nil {
			return xerrors.Errorf("table %q has an empty rule", table)
		}
		for key, alias := range t.Mapping {
			if _, ok := c.DBs[alias]; !ok {
				return xerrors.Errorf("table %q mapping %s refers to undeclared db %q", table, key, alias)
			}
		}
		for _, ext := range t.ExtendMapping {
			if ext == nil {
				continue
			}
			for key, alias := range ext.Targets {
				if _, ok := c.DBs[alias]; !ok {
					return xerrors.Errorf("table %q extend target %s refers to undeclared db %q", table, key, alias)
				}
			}
		}
	}
	return nil
}

// PlainDB returns the db alias serving a table without sharding rule.
func (c *Config) PlainDB(table string) string {
	if alias, ok := c.PlainTables[table]; ok {
		return alias
	}
	return c.DefaultDB
}
