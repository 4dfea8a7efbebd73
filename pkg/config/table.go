package config

type ShardingType string

const (
	ShardingModulo = ShardingType("modulo")
	ShardingRange  = ShardingType("range")
)

type ColumnCfg struct {
	Name string `json:"name" toml:"name" yaml:"name"`
	// Generator is the id generator tag (sequence name) for this column.
	Generator string `json:"generator" toml:"generator" yaml:"generator"`
}

// TableCfg is the raw sharding rule of one table as written by an operator or
// produced by the resharding tool.
type TableCfg struct {
	DBType        string       `json:"db_type" toml:"db_type" yaml:"db_type"`
	ShardingType  ShardingType `json:"sharding_type" toml:"sharding_type" yaml:"sharding_type"`
	ShardingAlias string       `json:"sharding_alias" toml:"sharding_alias" yaml:"sharding_alias"`

	IDColumn    *ColumnCfg `json:"id_column" toml:"id_column" yaml:"id_column"`
	ShardColumn *ColumnCfg `json:"shard_column" toml:"shard_column" yaml:"shard_column"`

	HashFunction string `json:"hash_function" toml:"hash_function" yaml:"hash_function"`
	Gene         bool   `json:"gene" toml:"gene" yaml:"gene"`

	CrossUpdate         bool `json:"cross_update" toml:"cross_update" yaml:"cross_update"`
	AllowCrossShardJoin bool `json:"allow_cross_shard_join" toml:"allow_cross_shard_join" yaml:"allow_cross_shard_join"`

	// Mapping keys are remainders (modulo) or lower thresholds (range).
	Mapping map[string]string `json:"mapping" toml:"mapping" yaml:"mapping"`

	ExtendModulus int64                 `json:"extend_modulus" toml:"extend_modulus" yaml:"extend_modulus"`
	ExtendMapping map[string]*ExtendCfg `json:"extend_mapping" toml:"extend_mapping" yaml:"extend_mapping"`
}

type ExtendCfg struct {
	Current int64             `json:"current" toml:"current" yaml:"current"`
	Targets map[string]string `json:"targets" toml:"targets" yaml:"targets"`
}
