package optimizer

// RuleType identifies a rule. Values index the per-expression explored
// bitmask, so they must stay below 64.
type RuleType int

const (
	// Transformation rules (logical -> logical).
	RulePushImplicitFilterThroughJoin RuleType = iota
	RulePushExplicitFilterThroughJoin
	RulePushFilterThroughAggregation
	RuleCombineConsecutiveFilter
	RuleEmbedFilterIntoGet
	RulePullFilterThroughMarkJoin
	RulePullFilterThroughAggregation
	RuleInnerJoinCommutativity
	RuleInnerJoinAssociativity

	// Implementation rules (logical -> physical).
	RuleGetToSeqScan
	RuleGetToIndexScan
	RuleQueryDerivedGetToScan
	RuleJoinToInnerNLJoin
	RuleJoinToInnerHashJoin
	RuleAggregateToHashGroupBy
	RuleAggregateToSortGroupBy
	RuleAggregateToPlainAggregate
	RuleLimitToLimit
	RuleInsertToPhysical
	RuleInsertSelectToPhysical
	RuleUpdateToPhysical
	RuleDeleteToPhysical
	RuleExternalFileScanToPhysical
	RuleExportExternalFileToPhysical

	numRuleTypes
)

// RulePromise biases exploration order: higher promises fire first.
// Decorrelation rules outrank ordinary transformations so filters are pulled
// above mark joins before the push rules run again.
type RulePromise int

const (
	// PromisePhysical is the promise of implementation rules.
	PromisePhysical RulePromise = 1
	// PromiseLogical is the promise of ordinary transformations.
	PromiseLogical RulePromise = 2
	// PromiseUnnestHigh is the promise of decorrelation rules.
	PromiseUnnestHigh RulePromise = 3
)

// Rule transforms bound sub-plans. Pattern matching yields an OperatorNode
// binding with LeafOperators at the horizon; Check filters; Transform emits
// zero or more replacements, each re-ingested into the memo.
type Rule interface {
	Type() RuleType
	Pattern() *Pattern
	Promise(gexpr *GroupExpression) RulePromise
	Check(node *OperatorNode, ctx *OptimizationContext) bool
	Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode
}

// baseRule carries the shared rule state.
type baseRule struct {
	typ     RuleType
	pattern *Pattern
}

func (r *baseRule) Type() RuleType    { return r.typ }
func (r *baseRule) Pattern() *Pattern { return r.pattern }

// RuleSet is the full rule catalog, split by family.
type RuleSet struct {
	transformation []Rule
	implementation []Rule
}

// NewRuleSet builds the catalog. The index-scan rule is included only when
// enabled in the optimizer settings.
func NewRuleSet(enableIndexScan bool) *RuleSet {
	rs := &RuleSet{
		transformation: []Rule{
			NewPullFilterThroughMarkJoin(),
			NewPullFilterThroughAggregation(),
			NewPushImplicitFilterThroughJoin(),
			NewPushExplicitFilterThroughJoin(),
			NewPushFilterThroughAggregation(),
			NewCombineConsecutiveFilter(),
			NewEmbedFilterIntoGet(),
			NewInnerJoinCommutativity(),
			NewInnerJoinAssociativity(),
		},
		implementation: []Rule{
			NewGetToSeqScan(),
			NewQueryDerivedGetToScan(),
			NewJoinToInnerNLJoin(),
			NewJoinToInnerHashJoin(),
			NewAggregateToHashGroupBy(),
			NewAggregateToSortGroupBy(),
			NewAggregateToPlainAggregate(),
			NewLimitToLimit(),
			NewInsertToPhysical(),
			NewInsertSelectToPhysical(),
			NewUpdateToPhysical(),
			NewDeleteToPhysical(),
			NewExternalFileScanToPhysical(),
			NewExportExternalFileToPhysical(),
		},
	}
	if enableIndexScan {
		rs.implementation = append(rs.implementation, NewGetToIndexScan())
	}
	return rs
}

// TransformationRules returns the logical rewrite rules.
func (rs *RuleSet) TransformationRules() []Rule { return rs.transformation }

// ImplementationRules returns the logical-to-physical rules.
func (rs *RuleSet) ImplementationRules() []Rule { return rs.implementation }
