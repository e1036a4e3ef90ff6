package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/CascadeDB/internal/sql/expression"
)

func TestStatsDeriverRoutesJoinColumns(t *testing.T) {
	ctx := newTestContext(t)
	joinPred := eqPred("l", "jk", "r", "jk")
	join := ctx.Memo.Insert(testJoinTree("l", "r", joinPred))

	required := expression.NewExprSet(
		expression.NewColumnValue("l", "a"),
		expression.NewColumnValue("r", "b"),
	)
	sets := ChildStatsDeriver{}.DeriveInputStats(join, required, ctx.Memo)
	require.Len(t, sets, 2)

	// Required columns route to the covering child.
	assert.True(t, sets[0].Contains(expression.NewColumnValue("l", "a")))
	assert.False(t, sets[0].Contains(expression.NewColumnValue("r", "b")))
	assert.True(t, sets[1].Contains(expression.NewColumnValue("r", "b")))

	// Join predicate columns propagate to their owners.
	assert.True(t, sets[0].Contains(expression.NewColumnValue("l", "jk")))
	assert.True(t, sets[1].Contains(expression.NewColumnValue("r", "jk")))
}

func TestStatsDeriverAggregateTranslatesArguments(t *testing.T) {
	ctx := newTestContext(t)
	agg := ctx.Memo.Insert(NewOperatorNode(
		LogicalAggregateAndGroupBy{
			Columns: []*expression.AbstractExpression{expression.NewColumnValue("t", "g")},
		},
		testGet("t"),
	))

	required := expression.NewExprSet(
		expression.NewColumnValue("t", "g"),
		expression.NewAggregate(expression.AggregateSum, expression.NewColumnValue("t", "amount")),
	)
	sets := ChildStatsDeriver{}.DeriveInputStats(agg, required, ctx.Memo)
	require.Len(t, sets, 1)

	assert.True(t, sets[0].Contains(expression.NewColumnValue("t", "g")),
		"group-by columns pass down unchanged")
	assert.True(t, sets[0].Contains(expression.NewColumnValue("t", "amount")),
		"aggregate requirements translate to their arguments")
	assert.Equal(t, 2, sets[0].Len())
}

func TestStatsDeriverQueryDerivedGetMapsUnderlying(t *testing.T) {
	ctx := newTestContext(t)
	underlying := expression.NewColumnValue("inner", "x")
	derived := ctx.Memo.Insert(NewOperatorNode(
		LogicalQueryDerivedGet{
			TableAlias:  "d",
			AliasToExpr: map[string]*expression.AbstractExpression{"dx": underlying},
		},
		testGet("inner"),
	))

	required := expression.NewExprSet(
		expression.NewColumnValue("d", "dx"),
		expression.NewColumnValue("d", "unknown"),
	)
	sets := ChildStatsDeriver{}.DeriveInputStats(derived, required, ctx.Memo)
	require.Len(t, sets, 1)

	assert.True(t, sets[0].Contains(underlying))
	assert.Equal(t, 1, sets[0].Len(), "columns the derived query does not produce are dropped")
}

func TestStatsDeriverDefaultPassesThrough(t *testing.T) {
	ctx := newTestContext(t)
	filter := ctx.Memo.Insert(NewOperatorNode(
		LogicalFilter{Predicates: Annotate(constPred("t", "a", 1))},
		testGet("t"),
	))

	required := expression.NewExprSet(
		expression.NewColumnValue("t", "a"),
		expression.NewColumnValue("t", "b"),
	)
	sets := ChildStatsDeriver{}.DeriveInputStats(filter, required, ctx.Memo)
	require.Len(t, sets, 1)
	assert.Equal(t, 2, sets[0].Len())
	assert.True(t, sets[0].Contains(expression.NewColumnValue("t", "b")))
}
