package evaluator

// DefaultMaxDepth bounds nested applications when no budget is configured.
const DefaultMaxDepth = 100000

// Budget holds the resource limits for an evaluator. A zero MaxDepth
// selects DefaultMaxDepth; a negative one disables the check.
type Budget struct {
	MaxDepth int64
}

// BudgetTracker tracks resource consumption during evaluation.
type BudgetTracker struct {
	Depth   int64
	MaxSeen int64
	Applies int64
}
