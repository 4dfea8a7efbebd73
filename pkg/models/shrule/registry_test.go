package shrule_test

import (
	"testing"

	"github.com/pg-sharding/shardgate/pkg/config"
	"github.com/pg-sharding/shardgate/pkg/models/shrule"
	"github.com/stretchr/testify/assert"
)

func TestRegistryInstall(t *testing.T) {
	assert := assert.New(t)

	rules, err := shrule.Load(map[string]*config.TableCfg{
		"orders": moduloCfg(),
	}, 10)
	assert.NoError(err)

	reg := shrule.NewRegistry(rules)

	sc, ok := reg.GetConfig("orders")
	assert.True(ok)
	assert.Equal("orders", sc.TableName)

	_, ok = reg.GetConfig("users")
	assert.False(ok)

	/* mutating the source map must not leak into the installed set */
	delete(rules, "orders")
	_, ok = reg.GetConfig("orders")
	assert.True(ok)

	reg.Install(map[string]*shrule.ShardingConfig{"b": sc, "a": sc})
	assert.Equal([]string{"a", "b"}, reg.Tables())

	_, ok = reg.GetConfig("orders")
	assert.False(ok)
}

func TestEmptyRegistry(t *testing.T) {
	assert := assert.New(t)

	reg := &shrule.Registry{}
	_, ok := reg.GetConfig("orders")
	assert.False(ok)
	assert.Empty(reg.Tables())
}

func TestRegistryHooks(t *testing.T) {
	assert := assert.New(t)

	rules, err := shrule.Load(map[string]*config.TableCfg{
		"orders": moduloCfg(),
	}, 10)
	assert.NoError(err)

	reg := shrule.NewRegistry(rules)

	var seen []int
	reg.OnInstall(func(m map[string]*shrule.ShardingConfig) {
		seen = append(seen, len(m))
	})
	reg.Install(map[string]*shrule.ShardingConfig{})

	assert.Equal([]int{1, 0}, seen)
}
