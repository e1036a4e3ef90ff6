package optimizer

import (
	"github.com/dshills/CascadeDB/internal/sql/expression"
)

// leafOrigin returns the origin group of a bound leaf node.
func leafOrigin(node *OperatorNode) GroupID {
	return node.Op.(LeafOperator).OriginGroup
}

// partitionPredicates splits predicates into left-only, right-only, and
// remaining join predicates by alias-set containment.
func partitionPredicates(preds []AnnotatedExpression, left, right AliasSet) (leftPreds, rightPreds, joinPreds []AnnotatedExpression) {
	for _, p := range preds {
		switch {
		case p.Aliases.IsSubsetOf(left):
			leftPreds = append(leftPreds, p)
		case p.Aliases.IsSubsetOf(right):
			rightPreds = append(rightPreds, p)
		default:
			joinPreds = append(joinPreds, p)
		}
	}
	return leftPreds, rightPreds, joinPreds
}

// maybeFilter wraps child in a Filter when preds is non-empty.
func maybeFilter(preds []AnnotatedExpression, child *OperatorNode) *OperatorNode {
	if len(preds) == 0 {
		return child
	}
	return NewOperatorNode(LogicalFilter{Predicates: preds}, child)
}

// PushImplicitFilterThroughJoin pushes an inner join's own single-side
// predicates into child filters. Emits only when a predicate moved.
type PushImplicitFilterThroughJoin struct {
	baseRule
}

func NewPushImplicitFilterThroughJoin() *PushImplicitFilterThroughJoin {
	return &PushImplicitFilterThroughJoin{baseRule{
		typ:     RulePushImplicitFilterThroughJoin,
		pattern: NewPattern(OpLogicalJoin, LeafPattern(), LeafPattern()),
	}}
}

func (*PushImplicitFilterThroughJoin) Promise(*GroupExpression) RulePromise { return PromiseLogical }

func (*PushImplicitFilterThroughJoin) Check(node *OperatorNode, _ *OptimizationContext) bool {
	return node.Op.(LogicalJoin).JoinType == InnerJoinType
}

func (r *PushImplicitFilterThroughJoin) Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode {
	ctx.Logger.Debug("rule transform", "rule", "PushImplicitFilterThroughJoin")
	join := node.Op.(LogicalJoin)
	leftAliases := ctx.Memo.GetGroup(leafOrigin(node.Child(0))).TableAliases()
	rightAliases := ctx.Memo.GetGroup(leafOrigin(node.Child(1))).TableAliases()

	leftPreds, rightPreds, joinPreds := partitionPredicates(join.Predicates, leftAliases, rightAliases)
	if len(leftPreds) == 0 && len(rightPreds) == 0 {
		return nil
	}

	out := NewOperatorNode(
		LogicalJoin{JoinType: InnerJoinType, Predicates: joinPreds},
		maybeFilter(leftPreds, node.Child(0).Copy()),
		maybeFilter(rightPreds, node.Child(1).Copy()),
	)
	return []*OperatorNode{out}
}

// PushExplicitFilterThroughJoin merges a filter above an inner join with the
// join's predicates and pushes single-side predicates down. Always emits.
type PushExplicitFilterThroughJoin struct {
	baseRule
}

func NewPushExplicitFilterThroughJoin() *PushExplicitFilterThroughJoin {
	return &PushExplicitFilterThroughJoin{baseRule{
		typ: RulePushExplicitFilterThroughJoin,
		pattern: NewPattern(OpLogicalFilter,
			NewPattern(OpLogicalJoin, LeafPattern(), LeafPattern())),
	}}
}

func (*PushExplicitFilterThroughJoin) Promise(*GroupExpression) RulePromise { return PromiseLogical }

func (*PushExplicitFilterThroughJoin) Check(node *OperatorNode, _ *OptimizationContext) bool {
	return node.Child(0).Op.(LogicalJoin).JoinType == InnerJoinType
}

func (r *PushExplicitFilterThroughJoin) Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode {
	ctx.Logger.Debug("rule transform", "rule", "PushExplicitFilterThroughJoin")
	joinNode := node.Child(0)
	join := joinNode.Op.(LogicalJoin)
	filter := node.Op.(LogicalFilter)

	leftAliases := ctx.Memo.GetGroup(leafOrigin(joinNode.Child(0))).TableAliases()
	rightAliases := ctx.Memo.GetGroup(leafOrigin(joinNode.Child(1))).TableAliases()

	all := make([]AnnotatedExpression, 0, len(join.Predicates)+len(filter.Predicates))
	all = append(all, join.Predicates...)
	all = append(all, filter.Predicates...)
	leftPreds, rightPreds, joinPreds := partitionPredicates(all, leftAliases, rightAliases)

	out := NewOperatorNode(
		LogicalJoin{JoinType: InnerJoinType, Predicates: joinPreds},
		maybeFilter(leftPreds, joinNode.Child(0).Copy()),
		maybeFilter(rightPreds, joinNode.Child(1).Copy()),
	)
	return []*OperatorNode{out}
}

// PushFilterThroughAggregation moves non-aggregate predicates below the
// aggregation; predicates over aggregate expressions join the HAVING list.
type PushFilterThroughAggregation struct {
	baseRule
}

func NewPushFilterThroughAggregation() *PushFilterThroughAggregation {
	return &PushFilterThroughAggregation{baseRule{
		typ: RulePushFilterThroughAggregation,
		pattern: NewPattern(OpLogicalFilter,
			NewPattern(OpLogicalAggregateAndGroupBy, LeafPattern())),
	}}
}

func (*PushFilterThroughAggregation) Promise(*GroupExpression) RulePromise { return PromiseLogical }

func (*PushFilterThroughAggregation) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *PushFilterThroughAggregation) Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode {
	ctx.Logger.Debug("rule transform", "rule", "PushFilterThroughAggregation")
	agg := node.Child(0).Op.(LogicalAggregateAndGroupBy)
	filter := node.Op.(LogicalFilter)

	var embedded, pushdown []AnnotatedExpression
	for _, p := range filter.Predicates {
		if expression.ContainsAggregate(p.Expr) {
			embedded = append(embedded, p)
		} else {
			pushdown = append(pushdown, p)
		}
	}
	embedded = append(embedded, agg.Having...)

	leaf := node.Child(0).Child(0).Copy()
	out := NewOperatorNode(
		LogicalAggregateAndGroupBy{Columns: agg.Columns, Having: embedded},
		maybeFilter(pushdown, leaf),
	)
	return []*OperatorNode{out}
}

// CombineConsecutiveFilter concatenates the predicate lists of two stacked
// filters.
type CombineConsecutiveFilter struct {
	baseRule
}

func NewCombineConsecutiveFilter() *CombineConsecutiveFilter {
	return &CombineConsecutiveFilter{baseRule{
		typ: RuleCombineConsecutiveFilter,
		pattern: NewPattern(OpLogicalFilter,
			NewPattern(OpLogicalFilter, LeafPattern())),
	}}
}

func (*CombineConsecutiveFilter) Promise(*GroupExpression) RulePromise { return PromiseLogical }

func (*CombineConsecutiveFilter) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *CombineConsecutiveFilter) Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode {
	root := node.Op.(LogicalFilter)
	child := node.Child(0).Op.(LogicalFilter)

	merged := make([]AnnotatedExpression, 0, len(root.Predicates)+len(child.Predicates))
	merged = append(merged, root.Predicates...)
	merged = append(merged, child.Predicates...)

	out := NewOperatorNode(LogicalFilter{Predicates: merged}, node.Child(0).Child(0).Copy())
	return []*OperatorNode{out}
}

// EmbedFilterIntoGet fuses filter predicates into the scanned Get.
type EmbedFilterIntoGet struct {
	baseRule
}

func NewEmbedFilterIntoGet() *EmbedFilterIntoGet {
	return &EmbedFilterIntoGet{baseRule{
		typ:     RuleEmbedFilterIntoGet,
		pattern: NewPattern(OpLogicalFilter, NewPattern(OpLogicalGet)),
	}}
}

func (*EmbedFilterIntoGet) Promise(*GroupExpression) RulePromise { return PromiseLogical }

func (*EmbedFilterIntoGet) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *EmbedFilterIntoGet) Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode {
	get := node.Child(0).Op.(LogicalGet)
	filter := node.Op.(LogicalFilter)

	merged := make([]AnnotatedExpression, 0, len(get.Predicates)+len(filter.Predicates))
	merged = append(merged, get.Predicates...)
	merged = append(merged, filter.Predicates...)

	out := NewOperatorNode(LogicalGet{
		Database:    get.Database,
		Namespace:   get.Namespace,
		Table:       get.Table,
		Predicates:  merged,
		TableAlias:  get.TableAlias,
		IsForUpdate: get.IsForUpdate,
	})
	return []*OperatorNode{out}
}

// PullFilterThroughMarkJoin lifts a filter on the mark join's right input
// above the join. Fires before the push rules via its unnest promise.
type PullFilterThroughMarkJoin struct {
	baseRule
}

func NewPullFilterThroughMarkJoin() *PullFilterThroughMarkJoin {
	return &PullFilterThroughMarkJoin{baseRule{
		typ: RulePullFilterThroughMarkJoin,
		pattern: NewPattern(OpLogicalJoin,
			LeafPattern(),
			NewPattern(OpLogicalFilter, LeafPattern())),
	}}
}

func (*PullFilterThroughMarkJoin) Promise(*GroupExpression) RulePromise { return PromiseUnnestHigh }

func (*PullFilterThroughMarkJoin) Check(node *OperatorNode, _ *OptimizationContext) bool {
	join := node.Op.(LogicalJoin)
	return join.JoinType == MarkJoinType && len(join.Predicates) == 0
}

func (r *PullFilterThroughMarkJoin) Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode {
	ctx.Logger.Debug("rule transform", "rule", "PullFilterThroughMarkJoin")
	filterNode := node.Child(1)

	join := NewOperatorNode(node.Op, node.Child(0).Copy(), filterNode.Child(0).Copy())
	out := NewOperatorNode(filterNode.Op, join)
	return []*OperatorNode{out}
}

// PullFilterThroughAggregation pulls correlated predicates above the
// aggregation, adding each predicate's inner-side expression to the group-by
// columns. Produces nothing when every predicate is local.
type PullFilterThroughAggregation struct {
	baseRule
}

func NewPullFilterThroughAggregation() *PullFilterThroughAggregation {
	return &PullFilterThroughAggregation{baseRule{
		typ: RulePullFilterThroughAggregation,
		pattern: NewPattern(OpLogicalAggregateAndGroupBy,
			NewPattern(OpLogicalFilter, LeafPattern())),
	}}
}

func (*PullFilterThroughAggregation) Promise(*GroupExpression) RulePromise { return PromiseUnnestHigh }

func (*PullFilterThroughAggregation) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *PullFilterThroughAggregation) Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode {
	ctx.Logger.Debug("rule transform", "rule", "PullFilterThroughAggregation")
	filterNode := node.Child(0)
	childAliases := ctx.Memo.GetGroup(leafOrigin(filterNode.Child(0))).TableAliases()
	preds := filterNode.Op.(LogicalFilter).Predicates

	var correlated, normal []AnnotatedExpression
	var newGroupBy []*expression.AbstractExpression
	for _, p := range preds {
		if p.Aliases.IsSubsetOf(childAliases) || p.Expr.ChildCount() != 2 {
			normal = append(normal, p)
			continue
		}
		// Correlated predicate in the form (outer.a = (expr)). The child
		// at the outer depth stays above; the other side joins the
		// group-by columns.
		correlated = append(correlated, p)
		root := p.Expr
		if root.Child(0).Depth() < root.Depth() {
			newGroupBy = append(newGroupBy, root.Child(1))
		} else {
			newGroupBy = append(newGroupBy, root.Child(0))
		}
	}

	if len(correlated) == 0 {
		return nil
	}

	agg := node.Op.(LogicalAggregateAndGroupBy)
	newGroupBy = append(newGroupBy, agg.Columns...)

	aggChild := maybeFilter(normal, filterNode.Child(0).Copy())
	newAgg := NewOperatorNode(
		LogicalAggregateAndGroupBy{Columns: newGroupBy, Having: agg.Having},
		aggChild,
	)
	out := NewOperatorNode(LogicalFilter{Predicates: correlated}, newAgg)
	return []*OperatorNode{out}
}
