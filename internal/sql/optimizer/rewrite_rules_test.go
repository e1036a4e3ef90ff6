package optimizer

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/CascadeDB/internal/catalog"
	"github.com/dshills/CascadeDB/internal/config"
	"github.com/dshills/CascadeDB/internal/log"
	"github.com/dshills/CascadeDB/internal/sql/expression"
	"github.com/dshills/CascadeDB/internal/sql/stats"
	"github.com/dshills/CascadeDB/internal/sql/types"
)

func newTestContext(t *testing.T) *OptimizationContext {
	t.Helper()
	return newOptimizationContext(context.Background(),
		catalog.NewMemoryAccessor(), stats.NewStatsStorage(),
		config.DefaultConfig(), log.Discard())
}

// applyRuleOnce enumerates the rule's bindings against gexpr and collects
// every transform output.
func applyRuleOnce(ctx *OptimizationContext, r Rule, gexpr *GroupExpression) []*OperatorNode {
	var outs []*OperatorNode
	for _, binding := range bindExpression(ctx.Memo, gexpr, r.Pattern()) {
		if r.Check(binding, ctx) {
			outs = append(outs, r.Transform(binding, ctx)...)
		}
	}
	return outs
}

func eqPred(leftAlias, leftCol, rightAlias, rightCol string) *expression.AbstractExpression {
	return expression.NewComparison(expression.CompareEqual,
		expression.NewColumnValue(leftAlias, leftCol),
		expression.NewColumnValue(rightAlias, rightCol))
}

func constPred(alias, col string, v int64) *expression.AbstractExpression {
	return expression.NewComparison(expression.CompareEqual,
		expression.NewColumnValue(alias, col),
		expression.NewConstant(types.NewValue(v)))
}

// collectPredicates gathers the atomic predicates of a plan fragment,
// resolving leaves through the memo so rewrites can be compared against
// their inputs.
func collectPredicates(node *OperatorNode, out *[]string) {
	switch op := node.Op.(type) {
	case LogicalFilter:
		for _, p := range op.Predicates {
			*out = append(*out, p.Expr.String())
		}
	case LogicalJoin:
		for _, p := range op.Predicates {
			*out = append(*out, p.Expr.String())
		}
	case LogicalGet:
		for _, p := range op.Predicates {
			*out = append(*out, p.Expr.String())
		}
	case LogicalAggregateAndGroupBy:
		for _, p := range op.Having {
			*out = append(*out, p.Expr.String())
		}
	}
	for _, c := range node.Children {
		collectPredicates(c, out)
	}
}

func predicateMultiset(node *OperatorNode) []string {
	var out []string
	collectPredicates(node, &out)
	sort.Strings(out)
	return out
}

func TestCombineConsecutiveFilter(t *testing.T) {
	ctx := newTestContext(t)
	p1 := constPred("t", "a", 1)
	p2 := constPred("t", "b", 2)

	tree := NewOperatorNode(LogicalFilter{Predicates: Annotate(p1)},
		NewOperatorNode(LogicalFilter{Predicates: Annotate(p2)},
			testGet("t")))
	root := ctx.Memo.Insert(tree)

	rule := NewCombineConsecutiveFilter()
	outs := applyRuleOnce(ctx, rule, root)
	require.Len(t, outs, 1)

	merged := outs[0].Op.(LogicalFilter)
	require.Len(t, merged.Predicates, 2)
	assert.True(t, merged.Predicates[0].Expr.Equals(p1))
	assert.True(t, merged.Predicates[1].Expr.Equals(p2))
	assert.Equal(t, OpLeaf, outs[0].Child(0).Op.Type())
}

func TestCombineConsecutiveFilterNoFixpointBinding(t *testing.T) {
	ctx := newTestContext(t)
	tree := NewOperatorNode(LogicalFilter{Predicates: Annotate(constPred("t", "a", 1))},
		testGet("t"))
	root := ctx.Memo.Insert(tree)

	// A single filter over a scan offers no Filter(Filter(..)) binding.
	outs := applyRuleOnce(ctx, NewCombineConsecutiveFilter(), root)
	assert.Empty(t, outs)
}

func TestPushImplicitFilterThroughJoin(t *testing.T) {
	ctx := newTestContext(t)
	leftOnly := constPred("l", "a", 1)
	rightOnly := constPred("r", "b", 2)
	joining := eqPred("l", "a", "r", "b")

	tree := testJoinTree("l", "r", leftOnly, rightOnly, joining)
	root := ctx.Memo.Insert(tree)

	outs := applyRuleOnce(ctx, NewPushImplicitFilterThroughJoin(), root)
	require.Len(t, outs, 1)
	out := outs[0]

	join := out.Op.(LogicalJoin)
	require.Len(t, join.Predicates, 1)
	assert.True(t, join.Predicates[0].Expr.Equals(joining))

	leftFilter := out.Child(0).Op.(LogicalFilter)
	require.Len(t, leftFilter.Predicates, 1)
	assert.True(t, leftFilter.Predicates[0].Expr.Equals(leftOnly))

	rightFilter := out.Child(1).Op.(LogicalFilter)
	require.Len(t, rightFilter.Predicates, 1)
	assert.True(t, rightFilter.Predicates[0].Expr.Equals(rightOnly))

	// The atomic predicate multiset is conserved.
	assert.Equal(t, predicateMultiset(tree), predicateMultiset(out))

	// Pushed predicates reference only the covered aliases of their child.
	leftAliases := ctx.Memo.GetGroup(leafOrigin(out.Child(0).Child(0))).TableAliases()
	for _, p := range leftFilter.Predicates {
		assert.True(t, p.Aliases.IsSubsetOf(leftAliases))
	}
}

func TestPushImplicitFilterThroughJoinNothingToPush(t *testing.T) {
	ctx := newTestContext(t)
	root := ctx.Memo.Insert(testJoinTree("l", "r", eqPred("l", "a", "r", "b")))

	outs := applyRuleOnce(ctx, NewPushImplicitFilterThroughJoin(), root)
	assert.Empty(t, outs, "emits only if at least one predicate moved")
}

func TestPushImplicitFilterRejectsNonInnerJoin(t *testing.T) {
	ctx := newTestContext(t)
	tree := NewOperatorNode(
		LogicalJoin{JoinType: LeftJoinType, Predicates: Annotate(constPred("l", "a", 1))},
		testGet("l"), testGet("r"))
	root := ctx.Memo.Insert(tree)

	outs := applyRuleOnce(ctx, NewPushImplicitFilterThroughJoin(), root)
	assert.Empty(t, outs)
}

func TestPushExplicitFilterThroughJoinAlwaysEmits(t *testing.T) {
	ctx := newTestContext(t)
	joining := eqPred("l", "a", "r", "b")
	filtering := constPred("l", "c", 3)

	tree := NewOperatorNode(LogicalFilter{Predicates: Annotate(filtering)},
		testJoinTree("l", "r", joining))
	root := ctx.Memo.Insert(tree)

	outs := applyRuleOnce(ctx, NewPushExplicitFilterThroughJoin(), root)
	require.Len(t, outs, 1)
	out := outs[0]

	join := out.Op.(LogicalJoin)
	require.Len(t, join.Predicates, 1)
	assert.True(t, join.Predicates[0].Expr.Equals(joining))

	leftFilter := out.Child(0).Op.(LogicalFilter)
	require.Len(t, leftFilter.Predicates, 1)
	assert.True(t, leftFilter.Predicates[0].Expr.Equals(filtering))
	assert.Equal(t, OpLeaf, out.Child(1).Op.Type())

	assert.Equal(t, predicateMultiset(tree), predicateMultiset(out))
}

func TestPushFilterThroughAggregation(t *testing.T) {
	ctx := newTestContext(t)
	havingPred := expression.NewComparison(expression.CompareGreater,
		expression.NewAggregate(expression.AggregateSum, expression.NewColumnValue("t", "amount")),
		expression.NewConstant(types.NewValue(int64(100))))
	plainPred := constPred("t", "a", 1)
	existingHaving := expression.NewComparison(expression.CompareLess,
		expression.NewAggregate(expression.AggregateCount, nil),
		expression.NewConstant(types.NewValue(int64(10))))

	agg := NewOperatorNode(
		LogicalAggregateAndGroupBy{
			Columns: []*expression.AbstractExpression{expression.NewColumnValue("t", "a")},
			Having:  Annotate(existingHaving),
		},
		testGet("t"))
	tree := NewOperatorNode(LogicalFilter{Predicates: Annotate(havingPred, plainPred)}, agg)
	root := ctx.Memo.Insert(tree)

	outs := applyRuleOnce(ctx, NewPushFilterThroughAggregation(), root)
	require.Len(t, outs, 1)
	out := outs[0]

	newAgg := out.Op.(LogicalAggregateAndGroupBy)
	require.Len(t, newAgg.Having, 2)
	assert.True(t, newAgg.Having[0].Expr.Equals(havingPred))
	assert.True(t, newAgg.Having[1].Expr.Equals(existingHaving))

	pushed := out.Child(0).Op.(LogicalFilter)
	require.Len(t, pushed.Predicates, 1)
	assert.True(t, pushed.Predicates[0].Expr.Equals(plainPred))

	assert.Equal(t, predicateMultiset(tree), predicateMultiset(out))
}

func TestEmbedFilterIntoGet(t *testing.T) {
	ctx := newTestContext(t)
	pred := constPred("t", "a", 1)
	tree := NewOperatorNode(LogicalFilter{Predicates: Annotate(pred)}, testGet("t"))
	root := ctx.Memo.Insert(tree)

	outs := applyRuleOnce(ctx, NewEmbedFilterIntoGet(), root)
	require.Len(t, outs, 1)

	get := outs[0].Op.(LogicalGet)
	require.Len(t, get.Predicates, 1)
	assert.True(t, get.Predicates[0].Expr.Equals(pred))
	assert.Equal(t, "t", get.TableAlias)
	assert.False(t, get.IsForUpdate)
	assert.Zero(t, outs[0].ChildCount())
}

func TestPullFilterThroughMarkJoin(t *testing.T) {
	ctx := newTestContext(t)
	pred := eqPred("o", "a", "i", "b")

	tree := NewOperatorNode(
		LogicalJoin{JoinType: MarkJoinType},
		testGet("o"),
		NewOperatorNode(LogicalFilter{Predicates: Annotate(pred)}, testGet("i")),
	)
	root := ctx.Memo.Insert(tree)

	rule := NewPullFilterThroughMarkJoin()
	assert.Equal(t, PromiseUnnestHigh, rule.Promise(root))

	outs := applyRuleOnce(ctx, rule, root)
	require.Len(t, outs, 1)
	out := outs[0]

	filter := out.Op.(LogicalFilter)
	require.Len(t, filter.Predicates, 1)
	assert.True(t, filter.Predicates[0].Expr.Equals(pred))

	join := out.Child(0).Op.(LogicalJoin)
	assert.Equal(t, MarkJoinType, join.JoinType)
	assert.Equal(t, OpLeaf, out.Child(0).Child(0).Op.Type())
	assert.Equal(t, OpLeaf, out.Child(0).Child(1).Op.Type())
}

func TestPullFilterThroughMarkJoinRejectsPredicatedJoin(t *testing.T) {
	ctx := newTestContext(t)
	tree := NewOperatorNode(
		LogicalJoin{JoinType: MarkJoinType, Predicates: Annotate(eqPred("o", "a", "i", "b"))},
		testGet("o"),
		NewOperatorNode(LogicalFilter{Predicates: Annotate(constPred("i", "b", 1))}, testGet("i")),
	)
	root := ctx.Memo.Insert(tree)

	outs := applyRuleOnce(ctx, NewPullFilterThroughMarkJoin(), root)
	assert.Empty(t, outs)
}

func TestPullFilterThroughAggregation(t *testing.T) {
	ctx := newTestContext(t)

	// Correlated predicate written inside the subquery (depth 1): the
	// outer reference sits at depth 0, the inner at depth 1.
	outerRef := expression.NewColumnValueAtDepth("outer", "x", 0)
	innerRef := expression.NewColumnValueAtDepth("inner", "y", 1)
	correlated := expression.NewComparison(expression.CompareEqual, outerRef, innerRef).WithDepth(1)
	normal := constPred("inner", "z", 7).WithDepth(1)

	groupCol := expression.NewColumnValue("inner", "g")
	tree := NewOperatorNode(
		LogicalAggregateAndGroupBy{Columns: []*expression.AbstractExpression{groupCol}},
		NewOperatorNode(LogicalFilter{Predicates: Annotate(correlated, normal)},
			testGet("inner")),
	)
	root := ctx.Memo.Insert(tree)

	rule := NewPullFilterThroughAggregation()
	assert.Equal(t, PromiseUnnestHigh, rule.Promise(root))

	outs := applyRuleOnce(ctx, rule, root)
	require.Len(t, outs, 1)
	out := outs[0]

	// Correlated predicates surface above the aggregation.
	topFilter := out.Op.(LogicalFilter)
	require.Len(t, topFilter.Predicates, 1)
	assert.True(t, topFilter.Predicates[0].Expr.Equals(correlated))

	// The inner side of the correlated comparison joins the group-by
	// columns, ahead of the existing ones.
	agg := out.Child(0).Op.(LogicalAggregateAndGroupBy)
	require.Len(t, agg.Columns, 2)
	assert.True(t, agg.Columns[0].Equals(innerRef))
	assert.True(t, agg.Columns[1].Equals(groupCol))

	// Local predicates stay beneath the aggregation.
	below := out.Child(0).Child(0).Op.(LogicalFilter)
	require.Len(t, below.Predicates, 1)
	assert.True(t, below.Predicates[0].Expr.Equals(normal))
}

func TestPullFilterThroughAggregationNoCorrelation(t *testing.T) {
	ctx := newTestContext(t)
	tree := NewOperatorNode(
		LogicalAggregateAndGroupBy{},
		NewOperatorNode(LogicalFilter{Predicates: Annotate(constPred("t", "a", 1))},
			testGet("t")),
	)
	root := ctx.Memo.Insert(tree)

	outs := applyRuleOnce(ctx, NewPullFilterThroughAggregation(), root)
	assert.Empty(t, outs, "nothing to pull when every predicate is local")
}
