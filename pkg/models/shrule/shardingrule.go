package shrule

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pg-sharding/shardgate/pkg/config"
	"github.com/pg-sharding/shardgate/pkg/models/hashfunction"
	"github.com/pg-sharding/shardgate/pkg/models/kr"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
)

// Entry is one routing key (remainder or range threshold) and the shard it maps to.
type Entry struct {
	Key   int64
	Alias string
}

type RoutingColumn struct {
	Name         string
	GeneratorTag string
}

// Extend describes a shard being split by an online resharding pass.
type Extend struct {
	Current int64
	Targets map[int64]string
}

// ShardingConfig is the validated, immutable rule of one sharded table.
type ShardingConfig struct {
	DBType        string
	ShardingType  config.ShardingType
	TableName     string
	ShardingAlias string

	// Modulus is the number of mapping entries for modulo tables, 0 for range tables.
	Modulus int64
	// Mapping is sorted by ascending key.
	Mapping []Entry
	// FlipMapping maps a shard alias to every key routed to it.
	FlipMapping map[string][]int64
	// Ranges is the range flip mapping: thresholds sorted descending.
	Ranges kr.KeyRangeList

	RoutingColumn RoutingColumn
	IDColumn      RoutingColumn

	HashFunction hashfunction.HashFunctionType
	GeneEncoded  bool

	CrossUpdateAllowed  bool
	AllowCrossShardJoin bool

	ExtendModulus int64
	ExtendMapping map[string]*Extend

	byKey  map[int64]string
	shards []string
}

func errConfigf(table string, format string, a ...any) error {
	return sgerror.Newf(sgerror.SG_CONFIGURATION, "table %q: %s", table, fmt.Sprintf(format, a...))
}

func parseKeys(table string, raw map[string]string) (map[int64]string, error) {
	res := make(map[int64]string, len(raw))
	for k, alias := range raw {
		key, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, errConfigf(table, "mapping key %q is not an integer", k)
		}
		if alias == "" {
			return nil, errConfigf(table, "mapping key %d has an empty shard alias", key)
		}
		res[key] = alias
	}
	return res, nil
}

// NewShardingConfig validates one raw table rule.
func NewShardingConfig(table string, raw *config.TableCfg, geneBits uint) (*ShardingConfig, error) {
	if raw == nil {
		return nil, errConfigf(table, "empty rule")
	}
	sc := &ShardingConfig{
		DBType:              raw.DBType,
		ShardingType:        raw.ShardingType,
		TableName:           table,
		ShardingAlias:       raw.ShardingAlias,
		GeneEncoded:         raw.Gene,
		CrossUpdateAllowed:  raw.CrossUpdate,
		AllowCrossShardJoin: raw.AllowCrossShardJoin,
		FlipMapping:         map[string][]int64{},
	}
	if sc.ShardingAlias == "" {
		sc.ShardingAlias = table
	}

	switch {
	case raw.ShardColumn != nil && raw.ShardColumn.Name != "":
		sc.RoutingColumn = RoutingColumn{Name: raw.ShardColumn.Name, GeneratorTag: raw.ShardColumn.Generator}
	case raw.IDColumn != nil && raw.IDColumn.Name != "":
		sc.RoutingColumn = RoutingColumn{Name: raw.IDColumn.Name, GeneratorTag: raw.IDColumn.Generator}
	default:
		return nil, errConfigf(table, "neither id_column nor shard_column is configured")
	}
	if raw.IDColumn != nil && raw.IDColumn.Name != "" {
		sc.IDColumn = RoutingColumn{Name: raw.IDColumn.Name, GeneratorTag: raw.IDColumn.Generator}
		if sc.IDColumn.GeneratorTag == "" {
			sc.IDColumn.GeneratorTag = table
		}
	}
	if sc.RoutingColumn.GeneratorTag == "" {
		sc.RoutingColumn.GeneratorTag = table
		if sc.IDColumn.Name != "" {
			sc.RoutingColumn.GeneratorTag = sc.IDColumn.GeneratorTag
		}
	}

	hf, err := hashfunction.HashFunctionByName(raw.HashFunction)
	if err != nil {
		return nil, errConfigf(table, "%v", err)
	}
	sc.HashFunction = hf

	keys, err := parseKeys(table, raw.Mapping)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, errConfigf(table, "mapping is empty")
	}
	sc.byKey = keys
	for k, alias := range keys {
		sc.Mapping = append(sc.Mapping, Entry{Key: k, Alias: alias})
		sc.FlipMapping[alias] = append(sc.FlipMapping[alias], k)
	}
	sort.Slice(sc.Mapping, func(i, j int) bool { return sc.Mapping[i].Key < sc.Mapping[j].Key })
	for _, ks := range sc.FlipMapping {
		sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	}
	seen := map[string]struct{}{}
	for _, e := range sc.Mapping {
		if _, ok := seen[e.Alias]; !ok {
			seen[e.Alias] = struct{}{}
			sc.shards = append(sc.shards, e.Alias)
		}
	}

	switch sc.ShardingType {
	case config.ShardingModulo:
		sc.Modulus = int64(len(keys))
		for r := int64(0); r < sc.Modulus; r++ {
			if _, ok := keys[r]; !ok {
				return nil, errConfigf(table, "modulus %d but remainder %d has no mapping", sc.Modulus, r)
			}
		}
		if sc.GeneEncoded {
			if sc.IDColumn.Name == "" {
				return nil, errConfigf(table, "gene encoding requires id_column")
			}
			if geneBits == 0 || (int64(1)<<geneBits)%sc.Modulus != 0 {
				return nil, errConfigf(table, "gene encoding requires modulus %d to divide 2^%d", sc.Modulus, geneBits)
			}
		}
	case config.ShardingRange:
		if sc.GeneEncoded {
			return nil, errConfigf(table, "gene encoding is only supported for modulo sharding")
		}
		sc.Ranges = kr.NewKeyRangeList(keys)
		if err := sc.Ranges.Validate(); err != nil {
			return nil, errConfigf(table, "%v", err)
		}
	default:
		return nil, errConfigf(table, "unknown sharding type %q", raw.ShardingType)
	}

	if err := sc.loadExtend(raw, geneBits); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *ShardingConfig) loadExtend(raw *config.TableCfg, geneBits uint) error {
	if len(raw.ExtendMapping) == 0 {
		return nil
	}
	if sc.ShardingType != config.ShardingModulo {
		return errConfigf(sc.TableName, "extend_mapping is only supported for modulo sharding")
	}
	if raw.ExtendModulus <= sc.Modulus || raw.ExtendModulus%sc.Modulus != 0 {
		return errConfigf(sc.TableName, "extend_modulus %d must be a multiple of modulus %d", raw.ExtendModulus, sc.Modulus)
	}
	if sc.GeneEncoded && (int64(1)<<geneBits)%raw.ExtendModulus != 0 {
		return errConfigf(sc.TableName, "gene encoding requires extend_modulus %d to divide 2^%d", raw.ExtendModulus, geneBits)
	}
	sc.ExtendModulus = raw.ExtendModulus
	sc.ExtendMapping = make(map[string]*Extend, len(raw.ExtendMapping))
	for oldAlias, ext := range raw.ExtendMapping {
		if ext == nil {
			return errConfigf(sc.TableName, "extend_mapping for %q is empty", oldAlias)
		}
		if sc.byKey[ext.Current] != oldAlias {
			return errConfigf(sc.TableName, "extend_mapping: remainder %d is not served by %q", ext.Current, oldAlias)
		}
		targets, err := parseKeys(sc.TableName, ext.Targets)
		if err != nil {
			return err
		}
		for r := range targets {
			if r < 0 || r >= sc.ExtendModulus || r%sc.Modulus != ext.Current {
				return errConfigf(sc.TableName, "extend target remainder %d does not split remainder %d", r, ext.Current)
			}
		}
		sc.ExtendMapping[oldAlias] = &Extend{Current: ext.Current, Targets: targets}
	}
	return nil
}

// Load validates every table rule. It is the only place configuration errors are raised.
func Load(tables map[string]*config.TableCfg, geneBits uint) (map[string]*ShardingConfig, error) {
	res := make(map[string]*ShardingConfig, len(tables))
	for table, raw := range tables {
		sc, err := NewShardingConfig(table, raw, geneBits)
		if err != nil {
			return nil, err
		}
		res[table] = sc
	}
	return res, nil
}

func (sc *ShardingConfig) IsModulo() bool {
	return sc.ShardingType == config.ShardingModulo
}

// AllShards returns every distinct shard alias in mapping order.
func (sc *ShardingConfig) AllShards() []string {
	res := make([]string, len(sc.shards))
	copy(res, sc.shards)
	return res
}

// ShardForRemainder looks a modulo remainder up in the mapping.
func (sc *ShardingConfig) ShardForRemainder(r int64) (string, bool) {
	alias, ok := sc.byKey[r]
	return alias, ok
}

// ShardForValue locates the range holding v.
func (sc *ShardingConfig) ShardForValue(v int64) (string, bool) {
	r, ok := sc.Ranges.Locate(v)
	if !ok {
		return "", false
	}
	return r.ShardID, true
}

// ExtendTarget returns the shard a gene lands on while alias is being split.
func (sc *ShardingConfig) ExtendTarget(alias string, gene int64) (string, bool, error) {
	ext, ok := sc.ExtendMapping[alias]
	if !ok {
		return "", false, nil
	}
	r := gene % sc.ExtendModulus
	if r < 0 {
		r += sc.ExtendModulus
	}
	target, ok := ext.Targets[r]
	if !ok {
		return "", true, sgerror.Newf(sgerror.SG_ROUTING_ERROR,
			"table %q: extend remainder %d of shard %q has no target", sc.TableName, r, alias)
	}
	return target, true, nil
}

// ExtendTargets lists the shards a split alias is being migrated to.
func (sc *ShardingConfig) ExtendTargets(alias string) []string {
	ext, ok := sc.ExtendMapping[alias]
	if !ok {
		return nil
	}
	keys := make([]int64, 0, len(ext.Targets))
	for k := range ext.Targets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	res := make([]string, 0, len(keys))
	for _, k := range keys {
		res = append(res, ext.Targets[k])
	}
	return res
}

// IsRoutingColumn reports whether col decides the shard of a row.
func (sc *ShardingConfig) IsRoutingColumn(col string) bool {
	return col == sc.RoutingColumn.Name
}

// IsIDColumn reports whether col is the id column.
func (sc *ShardingConfig) IsIDColumn(col string) bool {
	return sc.IDColumn.Name != "" && col == sc.IDColumn.Name
}
