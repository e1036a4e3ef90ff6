package optimizer

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/CascadeDB/internal/config"
	"github.com/dshills/CascadeDB/internal/log"
	"github.com/dshills/CascadeDB/internal/sql/expression"
)

// runSearch drives the task engine over a bound tree and returns the
// context and root group for white-box inspection.
func runSearch(t *testing.T, env *tpccEnv, root *OperatorNode, required *PropertySet) (*OptimizationContext, *Group) {
	t.Helper()
	if required == nil {
		required = NewPropertySet()
	}
	octx := newOptimizationContext(context.Background(), env.fixture.Accessor, env.storage, env.cfg, log.Discard())
	octx.relationCount = countRelations(root)

	rootExpr := octx.Memo.Insert(root)
	rootGroup := octx.Memo.GetGroup(rootExpr.Group())
	octx.push(&optimizeGroupTask{ctx: octx, group: rootGroup, required: required})
	require.NoError(t, octx.run())
	return octx, rootGroup
}

func forEachWinner(octx *OptimizationContext, fn func(g *Group, w *Winner)) {
	for id := 0; id < octx.Memo.GroupCount(); id++ {
		g := octx.Memo.GetGroup(GroupID(id))
		seen := map[*Winner]bool{}
		for _, req := range winnerRequirements(g) {
			w := g.GetWinner(req)
			if w != nil && !seen[w] {
				seen[w] = true
				fn(g, w)
			}
		}
	}
}

func winnerRequirements(g *Group) []*PropertySet {
	var out []*PropertySet
	for _, bucket := range g.winners {
		for _, w := range bucket {
			out = append(out, w.Required)
		}
	}
	return out
}

func TestWinnerCostsAreMonotone(t *testing.T) {
	env := newTpccEnv(t)
	sortCols := []*expression.AbstractExpression{expression.NewColumnValue("order", "o_ol_cnt")}
	root := NewOperatorNode(
		LogicalLimit{Limit: 5, Offset: 0, SortExprs: sortCols, SortAscending: []bool{false}},
		env.carrierFilter(env.getNode(env.fixture.Order, "order")))

	octx, rootGroup := runSearch(t, env, root, NewPropertySet(NewSortProperty(sortCols, []bool{false})))
	require.True(t, rootGroup.HasWinners())

	// Every recorded winner's cost equals its local cost plus the sum of
	// its chosen child winners' costs.
	forEachWinner(octx, func(g *Group, w *Winner) {
		expected := octx.costModel.LocalCost(w.Expr, octx.Memo)
		for i := 0; i < w.Expr.ChildCount(); i++ {
			child := octx.Memo.GetGroup(w.Expr.ChildGroup(i))
			childWinner := child.GetWinner(w.ChildRequired[i])
			require.NotNil(t, childWinner,
				"winner child assignments must themselves be winnable")
			expected += childWinner.Cost
		}
		assert.InDelta(t, expected, w.Cost, 1e-9,
			"group %d op %s", g.ID(), w.Expr.Op.Name())
	})
}

func TestWinnersFulfillTheirRequirement(t *testing.T) {
	env := newTpccEnv(t)
	sortCols := []*expression.AbstractExpression{expression.NewColumnValue("order", "o_ol_cnt")}
	root := env.carrierFilter(env.getNode(env.fixture.Order, "order"))

	octx, rootGroup := runSearch(t, env, root, NewPropertySet(NewSortProperty(sortCols, []bool{false})))
	require.True(t, rootGroup.HasWinners())

	forEachWinner(octx, func(g *Group, w *Winner) {
		assert.True(t, w.Provided.Fulfills(w.Required),
			"group %d op %s provides %s but requires %s",
			g.ID(), w.Expr.Op.Name(), w.Provided, w.Required)
	})
}

func TestCommutedJoinsCostTheSame(t *testing.T) {
	env := newTpccEnv(t)
	pred := expression.NewComparison(expression.CompareEqual,
		expression.NewColumnValue("order", "o_id"),
		expression.NewColumnValue("order_line", "ol_o_id"))

	forward := NewOperatorNode(
		LogicalJoin{JoinType: InnerJoinType, Predicates: Annotate(pred)},
		env.getNode(env.fixture.Order, "order"),
		env.getNode(env.fixture.OrderLn, "order_line"))
	backward := NewOperatorNode(
		LogicalJoin{JoinType: InnerJoinType, Predicates: Annotate(pred)},
		env.getNode(env.fixture.OrderLn, "order_line"),
		env.getNode(env.fixture.Order, "order"))

	_, g1 := runSearch(t, env, forward, nil)
	_, g2 := runSearch(t, env, backward, nil)

	w1 := g1.GetWinner(NewPropertySet())
	w2 := g2.GetWinner(NewPropertySet())
	require.NotNil(t, w1)
	require.NotNil(t, w2)
	assert.InDelta(t, w1.Cost, w2.Cost, 1e-9,
		"commuted join inputs converge on the same winner cost")
}

func TestJoinOrderThresholdShortCircuits(t *testing.T) {
	env := newTpccEnv(t)
	env.cfg = config.DefaultConfig()
	env.cfg.JoinOrderThreshold = 1

	root := NewOperatorNode(
		LogicalJoin{JoinType: InnerJoinType},
		env.getNode(env.fixture.Order, "order"),
		env.getNode(env.fixture.OrderLn, "order_line"))

	_, rootGroup := runSearch(t, env, root, nil)

	// With reordering short-circuited the commuted variant never appears.
	assert.Len(t, rootGroup.LogicalExpressions(), 1)
	require.True(t, rootGroup.HasWinners())
}

func TestExplorationReachesFixpoint(t *testing.T) {
	env := newTpccEnv(t)
	root := NewOperatorNode(
		LogicalJoin{JoinType: InnerJoinType},
		env.getNode(env.fixture.Order, "order"),
		env.getNode(env.fixture.OrderLn, "order_line"))

	octx, rootGroup := runSearch(t, env, root, nil)

	// Commutativity adds exactly one variant; firing it again deduplicates.
	assert.Len(t, rootGroup.LogicalExpressions(), 2)
	assert.True(t, rootGroup.Explored())
	assert.True(t, rootGroup.Implemented())
	for id := 0; id < octx.Memo.GroupCount(); id++ {
		assert.True(t, octx.Memo.GetGroup(GroupID(id)).Explored())
	}
}

// toy executor for the associativity property: tables are alias-keyed row
// sets, joins evaluate equality predicates by nested loops.

type toyRow map[string]int64

func toyEval(ctx *OptimizationContext, node *OperatorNode, tables map[string][]toyRow) []toyRow {
	switch op := node.Op.(type) {
	case LeafOperator:
		aliases := ctx.Memo.GetGroup(op.OriginGroup).TableAliases().Sorted()
		if len(aliases) != 1 {
			panic("toy executor expects single-alias leaves")
		}
		return tables[aliases[0]]

	case LogicalJoin:
		left := toyEval(ctx, node.Child(0), tables)
		right := toyEval(ctx, node.Child(1), tables)
		var out []toyRow
		for _, l := range left {
			for _, r := range right {
				merged := toyRow{}
				for k, v := range l {
					merged[k] = v
				}
				for k, v := range r {
					merged[k] = v
				}
				ok := true
				for _, p := range op.Predicates {
					if !toyPredicate(merged, p.Expr) {
						ok = false
						break
					}
				}
				if ok {
					out = append(out, merged)
				}
			}
		}
		return out

	default:
		panic(fmt.Sprintf("toy executor cannot evaluate %s", node.Op.Name()))
	}
}

func toyPredicate(row toyRow, e *expression.AbstractExpression) bool {
	left := toyValue(row, e.Child(0))
	right := toyValue(row, e.Child(1))
	switch e.Type() {
	case expression.CompareEqual:
		return left == right
	case expression.CompareNotEqual:
		return left != right
	case expression.CompareLess:
		return left < right
	case expression.CompareGreater:
		return left > right
	default:
		panic(fmt.Sprintf("toy executor cannot evaluate %s", e.Type()))
	}
}

func toyValue(row toyRow, e *expression.AbstractExpression) int64 {
	switch e.Type() {
	case expression.ColumnValue:
		return row[e.TableAlias()+"."+e.ColumnName()]
	case expression.Constant:
		v, err := e.Value().AsInt()
		if err != nil {
			panic(err)
		}
		return v
	default:
		panic(fmt.Sprintf("toy executor cannot evaluate %s", e.Type()))
	}
}

func toyFingerprints(rows []toyRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := ""
		for _, k := range keys {
			s += fmt.Sprintf("%s=%d;", k, r[k])
		}
		out[i] = s
	}
	sort.Strings(out)
	return out
}

func TestAssociativityPreservesRows(t *testing.T) {
	ctx := newTestContext(t)

	abPred := eqPred("a", "x", "b", "x")
	bcPred := eqPred("b", "z", "c", "z")
	inner := NewOperatorNode(
		LogicalJoin{JoinType: InnerJoinType, Predicates: Annotate(abPred)},
		testGet("a"), testGet("b"))
	tree := NewOperatorNode(
		LogicalJoin{JoinType: InnerJoinType, Predicates: Annotate(bcPred)},
		inner, testGet("c"))
	root := ctx.Memo.Insert(tree)

	outs := applyRuleOnce(ctx, NewInnerJoinAssociativity(), root)
	require.Len(t, outs, 1)

	// Bind the original as well so both sides evaluate over leaves.
	originals := bindExpression(ctx.Memo, root, NewInnerJoinAssociativity().Pattern())
	require.Len(t, originals, 1)

	tables := map[string][]toyRow{
		"a": {
			{"a.x": 1, "a.w": 10},
			{"a.x": 2, "a.w": 20},
		},
		"b": {
			{"b.x": 1, "b.z": 7},
			{"b.x": 2, "b.z": 8},
			{"b.x": 3, "b.z": 7},
		},
		"c": {
			{"c.z": 7, "c.v": 100},
			{"c.z": 8, "c.v": 200},
		},
	}

	leftRows := toyEval(ctx, originals[0], tables)
	rightRows := toyEval(ctx, outs[0], tables)
	require.NotEmpty(t, leftRows)
	assert.Equal(t, toyFingerprints(leftRows), toyFingerprints(rightRows),
		"both associations produce the same output rows")
	assert.Equal(t, predicateMultiset(originals[0]), predicateMultiset(outs[0]))
}
