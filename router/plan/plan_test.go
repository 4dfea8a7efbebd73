package plan_test

import (
	"testing"

	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/router/plan"
	"github.com/stretchr/testify/assert"
)

func TestRoutingDecisionOrder(t *testing.T) {
	assert := assert.New(t)

	a := &statement.Delete{Table: "a"}
	b := &statement.Delete{Table: "b"}
	c := &statement.Delete{Table: "c"}

	rd := plan.NewRoutingDecision()
	rd.Add("db2", a)
	rd.Add("db0", b)
	rd.Add("db2", c)

	assert.Equal([]string{"db2", "db0"}, rd.Shards())
	assert.Equal([]statement.Statement{a, c}, rd.Statements("db2"))
	assert.Equal(2, rd.Len())
}

func TestPlanPhases(t *testing.T) {
	assert := assert.New(t)

	ins := &statement.Insert{Table: "t"}
	del := &statement.Delete{Table: "t"}

	first := plan.NewRoutingDecision()
	first.Add("db1", ins)
	second := plan.NewRoutingDecision()
	second.Add("db0", del)
	second.Add("db1", &statement.Update{Table: "t"})

	p := &plan.Plan{Table: "t"}
	p.AddPhase(first)
	p.AddPhase(plan.NewRoutingDecision())
	p.AddPhase(second)
	p.MarkAuxiliary(del)

	assert.Len(p.Phases, 2)
	assert.Equal([]string{"db1", "db0"}, p.Shards())
	assert.True(p.IsAuxiliary(del))
	assert.False(p.IsAuxiliary(ins))

	explain := p.Explain()
	assert.Len(explain, 2)
	assert.Equal("db0", explain[1][0].Shard)
	assert.True(explain[1][0].Auxiliary)
}
