package plan

import (
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	"github.com/pg-sharding/shardgate/pkg/statement"
)

// RoutingDecision maps shard aliases to the statements run on them, in order.
type RoutingDecision struct {
	order   []string
	byShard map[string][]statement.Statement
}

func NewRoutingDecision() *RoutingDecision {
	return &RoutingDecision{byShard: map[string][]statement.Statement{}}
}

// Add appends statements to the queue of shard, keeping first-touch shard order.
func (rd *RoutingDecision) Add(shard string, stmts ...statement.Statement) {
	if _, ok := rd.byShard[shard]; !ok {
		rd.order = append(rd.order, shard)
	}
	rd.byShard[shard] = append(rd.byShard[shard], stmts...)
}

func (rd *RoutingDecision) Shards() []string {
	res := make([]string, len(rd.order))
	copy(res, rd.order)
	return res
}

func (rd *RoutingDecision) Statements(shard string) []statement.Statement {
	return rd.byShard[shard]
}

func (rd *RoutingDecision) Len() int {
	return len(rd.order)
}

// Plan is the ordered list of routing decisions of one statement. Phases run
// one after another, each phase fans out over its shards.
type Plan struct {
	Table         string
	ShardingAlias string
	Sharded       bool
	IsWrite       bool

	// Original is the statement submitted by the caller, Merge is the per-shard
	// statement whose results are merged. Both are nil for writes.
	Original *statement.Select
	Merge    *statement.Select

	Phases []*RoutingDecision

	// InsertIDs are the ids generated for the rows of an insert, in row order.
	InsertIDs []int64

	auxiliary map[statement.Statement]struct{}
}

func (p *Plan) AddPhase(rd *RoutingDecision) {
	if rd == nil || rd.Len() == 0 {
		return
	}
	p.Phases = append(p.Phases, rd)
}

// MarkAuxiliary excludes the results of stmt from what the caller sees, as for
// the deletes of a key migration.
func (p *Plan) MarkAuxiliary(stmt statement.Statement) {
	if p.auxiliary == nil {
		p.auxiliary = map[statement.Statement]struct{}{}
	}
	p.auxiliary[stmt] = struct{}{}
}

func (p *Plan) IsAuxiliary(stmt statement.Statement) bool {
	_, ok := p.auxiliary[stmt]
	return ok
}

// Shards lists every shard touched by any phase, in first-touch order.
func (p *Plan) Shards() []string {
	seen := map[string]struct{}{}
	var res []string
	for _, ph := range p.Phases {
		for _, sh := range ph.order {
			if _, ok := seen[sh]; !ok {
				seen[sh] = struct{}{}
				res = append(res, sh)
			}
		}
	}
	return res
}

// Explain renders the plan as phase -> shard -> statements for logs and the CLI.
func (p *Plan) Explain() [][]ExplainStep {
	res := make([][]ExplainStep, 0, len(p.Phases))
	for _, ph := range p.Phases {
		var steps []ExplainStep
		for _, sh := range ph.order {
			for _, st := range ph.byShard[sh] {
				steps = append(steps, ExplainStep{
					Shard:     sh,
					Statement: statement.String(st),
					Auxiliary: p.IsAuxiliary(st),
				})
			}
		}
		res = append(res, steps)
	}
	return res
}

type ExplainStep struct {
	Shard     string `json:"shard" yaml:"shard"`
	Statement string `json:"statement" yaml:"statement"`
	Auxiliary bool   `json:"auxiliary,omitempty" yaml:"auxiliary,omitempty"`
}

func (p *Plan) Log() {
	shardlog.Zero.Debug().
		Str("table", p.Table).
		Str("sharding alias", p.ShardingAlias).
		Bool("sharded", p.Sharded).
		Int("phases", len(p.Phases)).
		Strs("shards", p.Shards()).
		Msg("routing plan")
}
