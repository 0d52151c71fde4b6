package evo

// Intent is the structural mutation chosen for the current training cycle.
type Intent string

const (
	IntentAddNode         Intent = "ADD_NODE"
	IntentAddConnection   Intent = "ADD_CONNECTION"
	IntentPruneNode       Intent = "PRUNE_NODE"
	IntentPruneConnection Intent = "PRUNE_CONNECTION"
	IntentMutateWeight    Intent = "MUTATE_WEIGHT"
	IntentNoOp            Intent = "NO_OP"

	// Extended intents from the legacy rule set. The loss-driven policy
	// never selects these; they exist for callers driving mutations
	// directly.
	IntentAddLayer   Intent = "ADD_LAYER"
	IntentPruneLayer Intent = "PRUNE_LAYER"
	IntentMutateBias Intent = "MUTATE_BIAS"
)

const (
	MaxNodes       = 100
	MaxConnections = 500
	// MinNodes is declared by the legacy rule set but is not consulted
	// anywhere in the pruning path.
	MinNodes = 10

	// MinObservations gates the policy: with fewer loss samples on
	// record every decision is NO_OP.
	MinObservations = 10

	addNodeCeiling = 50
)

// Context carries the policy's decision inputs for one checkpoint.
type Context struct {
	Loss      float64
	LossTrend float64
	// RecentAvg is the 10-sample rolling loss average. The current
	// decision table does not branch on it; it is kept as a decision
	// input for rule sets that do.
	RecentAvg          float64
	Nodes              int
	EnabledConnections int
	Observations       int
}

// Policy is the loss-trend decision procedure. The zero value is not
// usable; construct with NewPolicy.
type Policy struct {
	MaxNodes       int
	MaxConnections int
}

func NewPolicy() Policy {
	return Policy{
		MaxNodes:       MaxNodes,
		MaxConnections: MaxConnections,
	}
}

// Decide evaluates the decision points in priority order:
// capacity pruning first, growth on a worsening trend, weight exploration
// on a high plateau, NO_OP when improving or already good, exploration
// otherwise.
func (p Policy) Decide(ctx Context) Intent {
	if ctx.Observations < MinObservations {
		return IntentNoOp
	}

	if ctx.Nodes > p.MaxNodes {
		return IntentPruneNode
	}
	if ctx.EnabledConnections > p.MaxConnections {
		return IntentPruneConnection
	}

	if ctx.LossTrend > 0.05 && ctx.Nodes < addNodeCeiling {
		return IntentAddNode
	}
	if ctx.LossTrend > 0.1 {
		return IntentAddConnection
	}

	if ctx.LossTrend < 0.01 && ctx.LossTrend > -0.01 && ctx.Loss > 0.1 {
		return IntentMutateWeight
	}

	if ctx.LossTrend < -0.01 {
		return IntentNoOp
	}
	if ctx.Loss < 0.05 {
		return IntentNoOp
	}

	return IntentMutateWeight
}
