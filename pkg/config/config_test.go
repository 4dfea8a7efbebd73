package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pg-sharding/shardgate/pkg/config"
	"github.com/stretchr/testify/assert"
)

const yamlCfg = `
log_level: debug
default_db: main
dbs:
  main:
    driver: pgx
    dsn: postgres://main
  db0:
    driver: pgx
    dsn: postgres://db0
    connect_timeout: 2s
  db1:
    driver: pgx
    dsn: postgres://db1
tables:
  orders:
    db_type: postgres
    sharding_type: modulo
    id_column:
      name: id
      generator: orders
    shard_column:
      name: user_id
    gene: true
    mapping:
      "0": db0
      "1": db1
`

const tomlCfg = `
log_level = "info"

[tables.accounts]
sharding_type = "range"
cross_update = true

[tables.accounts.id_column]
name = "id"

[tables.accounts.mapping]
"0" = "dbA"
"1000000" = "dbB"
`

const jsonCfg = `{
  "tables": {
    "users": {
      "sharding_type": "modulo",
      "shard_column": {"name": "uid"},
      "mapping": {"0": "db0", "1": "db1", "2": "db2"}
    }
  },
  "executor": {"max_concurrency": 4}
}`

func TestDecodeFormats(t *testing.T) {
	assert := assert.New(t)

	cfg, err := config.Decode(strings.NewReader(yamlCfg), "shardgate.yaml")
	assert.NoError(err)
	assert.Equal("debug", cfg.LogLevel)
	assert.Equal(config.ShardingModulo, cfg.Tables["orders"].ShardingType)
	assert.Equal("user_id", cfg.Tables["orders"].ShardColumn.Name)
	assert.Equal("orders", cfg.Tables["orders"].IDColumn.Generator)
	assert.True(cfg.Tables["orders"].Gene)
	assert.Equal("db1", cfg.Tables["orders"].Mapping["1"])
	assert.Equal(2*time.Second, cfg.DBs["db0"].ConnectTimeout)
	assert.Equal(3, cfg.DBs["db0"].ConnectRetries)
	assert.Equal("main", cfg.PlainDB("anything"))

	cfg, err = config.Decode(strings.NewReader(tomlCfg), "shardgate.toml")
	assert.NoError(err)
	assert.Equal(config.ShardingRange, cfg.Tables["accounts"].ShardingType)
	assert.True(cfg.Tables["accounts"].CrossUpdate)
	assert.Equal("dbB", cfg.Tables["accounts"].Mapping["1000000"])
	assert.Equal("memory", cfg.IDGen.Backend)
	assert.Equal(uint(10), cfg.IDGen.GeneBits)

	cfg, err = config.Decode(strings.NewReader(jsonCfg), "shardgate.json")
	assert.NoError(err)
	assert.Equal(4, cfg.Executor.MaxConcurrency)
	assert.Len(cfg.Tables["users"].Mapping, 3)

	_, err = config.Decode(strings.NewReader(jsonCfg), "shardgate.ini")
	assert.Error(err)
}

func TestValidate(t *testing.T) {
	assert := assert.New(t)

	type tcase struct {
		name string
		cfg  string
	}

	for _, tt := range []tcase{
		{
			name: "undeclared default db",
			cfg:  `{"default_db": "nope", "dbs": {"db0": {"dsn": "x"}}}`,
		},
		{
			name: "mapping to undeclared db",
			cfg:  `{"dbs": {"db0": {"dsn": "x"}}, "tables": {"t": {"sharding_type": "modulo", "mapping": {"0": "db9"}}}}`,
		},
		{
			name: "unknown idgen backend",
			cfg:  `{"idgen": {"backend": "redis"}}`,
		},
		{
			name: "etcd backend without endpoints",
			cfg:  `{"idgen": {"backend": "etcd"}}`,
		},
		{
			name: "negative concurrency",
			cfg:  `{"executor": {"max_concurrency": -1}}`,
		},
	} {
		_, err := config.Decode(strings.NewReader(tt.cfg), "c.json")
		assert.Error(err, tt.name)
	}
}

func TestLoadFile(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "shardgate.yaml")
	assert.NoError(os.WriteFile(path, []byte(yamlCfg), 0600))

	cfg, err := config.Load(path)
	assert.NoError(err)
	assert.Len(cfg.DBs, 3)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(err)
}
