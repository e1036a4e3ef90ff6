package optimizer

import (
	"github.com/dshills/CascadeDB/internal/sql/expression"
	"github.com/dshills/CascadeDB/internal/sql/stats"
)

const defaultRowEstimate = 1000

// deriveStatsForGroup computes group statistics bottom-up: the child stats
// deriver announces which columns each child must cover, children derive
// first, then this group's stats follow from simple cardinality formulas.
// Derivation runs on the group's first logical member and is cached for the
// duration of the optimization call.
func deriveStatsForGroup(ctx *OptimizationContext, g *Group, requiredCols *expression.ExprSet) {
	if g.HasStats() {
		return
	}
	logicals := g.LogicalExpressions()
	if len(logicals) == 0 {
		g.SetStats(&GroupStats{RowCount: defaultRowEstimate, Columns: map[string]*stats.ColumnStats{}})
		return
	}
	gexpr := logicals[0]

	childSets := ctx.statsDeriver.DeriveInputStats(gexpr, requiredCols, ctx.Memo)
	for i := 0; i < gexpr.ChildCount(); i++ {
		deriveStatsForGroup(ctx, ctx.Memo.GetGroup(gexpr.ChildGroup(i)), childSets[i])
	}
	g.SetStats(computeGroupStats(ctx, gexpr))
}

func computeGroupStats(ctx *OptimizationContext, gexpr *GroupExpression) *GroupStats {
	switch op := gexpr.Op.(type) {
	case LogicalGet:
		return baseTableStats(ctx, op)

	case LogicalFilter:
		child := childStats(ctx, gexpr, 0)
		return &GroupStats{
			RowCount: child.RowCount * predicatesSelectivity(child, op.Predicates),
			Columns:  child.Columns,
		}

	case LogicalJoin:
		left := childStats(ctx, gexpr, 0)
		right := childStats(ctx, gexpr, 1)
		columns := make(map[string]*stats.ColumnStats, len(left.Columns)+len(right.Columns))
		for k, v := range left.Columns {
			columns[k] = v
		}
		for k, v := range right.Columns {
			columns[k] = v
		}
		combined := &GroupStats{RowCount: left.RowCount * right.RowCount, Columns: columns}
		return &GroupStats{
			RowCount: combined.RowCount * predicatesSelectivity(combined, op.Predicates),
			Columns:  columns,
		}

	case LogicalAggregateAndGroupBy:
		child := childStats(ctx, gexpr, 0)
		rows := child.RowCount
		if len(op.Columns) > 0 {
			distinct := 1.0
			for _, col := range op.Columns {
				if cs := lookupColumn(child, col); cs != nil && cs.Cardinality > 0 {
					distinct *= cs.Cardinality
				} else {
					distinct *= 10
				}
			}
			if distinct < rows {
				rows = distinct
			}
		} else {
			rows = 1
		}
		return &GroupStats{RowCount: rows, Columns: child.Columns}

	case LogicalLimit:
		child := childStats(ctx, gexpr, 0)
		rows := child.RowCount
		if float64(op.Limit) < rows {
			rows = float64(op.Limit)
		}
		return &GroupStats{RowCount: rows, Columns: child.Columns}

	case LogicalQueryDerivedGet:
		child := childStats(ctx, gexpr, 0)
		return &GroupStats{RowCount: child.RowCount, Columns: child.Columns}

	case LogicalInsert:
		return &GroupStats{RowCount: float64(len(op.Values)), Columns: map[string]*stats.ColumnStats{}}

	default:
		if gexpr.ChildCount() > 0 {
			child := childStats(ctx, gexpr, 0)
			return &GroupStats{RowCount: child.RowCount, Columns: child.Columns}
		}
		return &GroupStats{RowCount: defaultRowEstimate, Columns: map[string]*stats.ColumnStats{}}
	}
}

func childStats(ctx *OptimizationContext, gexpr *GroupExpression, i int) *GroupStats {
	g := ctx.Memo.GetGroup(gexpr.ChildGroup(i))
	if !g.HasStats() {
		deriveStatsForGroup(ctx, g, expression.NewExprSet())
	}
	return g.Stats()
}

// baseTableStats seeds a scan group from StatsStorage, applying the embedded
// scan predicates' selectivity.
func baseTableStats(ctx *OptimizationContext, op LogicalGet) *GroupStats {
	columns := make(map[string]*stats.ColumnStats)
	rows := float64(defaultRowEstimate)

	if ctx.Stats != nil {
		if ts := ctx.Stats.Get(op.Database, op.Table); ts != nil {
			rows = float64(ts.NumRows)
			for _, cs := range ts.Columns {
				columns[op.TableAlias+"."+cs.ColumnName] = cs
			}
		}
	}

	gs := &GroupStats{RowCount: rows, Columns: columns}
	gs.RowCount = rows * predicatesSelectivity(gs, op.Predicates)
	return gs
}

// predicatesSelectivity multiplies per-predicate selectivities, assuming
// independence the way the original cost model does.
func predicatesSelectivity(gs *GroupStats, preds []AnnotatedExpression) float64 {
	sel := 1.0
	for _, p := range preds {
		sel *= predicateSelectivity(gs, p.Expr)
	}
	return sel
}

func predicateSelectivity(gs *GroupStats, e *expression.AbstractExpression) float64 {
	switch e.Type() {
	case expression.ConjunctionAnd:
		sel := 1.0
		for _, c := range e.Children() {
			sel *= predicateSelectivity(gs, c)
		}
		return sel
	case expression.ConjunctionOr:
		sel := 0.0
		for _, c := range e.Children() {
			s := predicateSelectivity(gs, c)
			sel = sel + s - sel*s
		}
		return sel
	case expression.CompareEqual:
		if cs, val, ok := columnConstSides(gs, e); ok {
			return cs.SelectivityEquals(val)
		}
		if eqCard := equiJoinCardinality(gs, e); eqCard > 0 {
			return 1 / eqCard
		}
		return 0.1
	case expression.CompareNotEqual:
		return 0.9
	case expression.CompareLess, expression.CompareLessEqual,
		expression.CompareGreater, expression.CompareGreaterEqual:
		return 0.3
	default:
		return 0.5
	}
}

// columnConstSides extracts (column stats, constant) from a comparison when
// one side is a tracked column and the other a numeric literal.
func columnConstSides(gs *GroupStats, e *expression.AbstractExpression) (*stats.ColumnStats, float64, bool) {
	if e.ChildCount() != 2 {
		return nil, 0, false
	}
	for _, ord := range [2][2]int{{0, 1}, {1, 0}} {
		col, val := e.Child(ord[0]), e.Child(ord[1])
		if col.Type() != expression.ColumnValue || val.Type() != expression.Constant {
			continue
		}
		f, err := val.Value().AsFloat()
		if err != nil {
			continue
		}
		if cs := lookupColumn(gs, col); cs != nil {
			return cs, f, true
		}
	}
	return nil, 0, false
}

// equiJoinCardinality returns the larger side's cardinality for a
// column-to-column equality, or 0 when unavailable.
func equiJoinCardinality(gs *GroupStats, e *expression.AbstractExpression) float64 {
	if e.ChildCount() != 2 {
		return 0
	}
	l, r := lookupColumn(gs, e.Child(0)), lookupColumn(gs, e.Child(1))
	if l == nil || r == nil {
		return 0
	}
	if l.Cardinality > r.Cardinality {
		return l.Cardinality
	}
	return r.Cardinality
}

func lookupColumn(gs *GroupStats, col *expression.AbstractExpression) *stats.ColumnStats {
	if col.Type() != expression.ColumnValue {
		return nil
	}
	if cs, ok := gs.Columns[col.TableAlias()+"."+col.ColumnName()]; ok {
		return cs
	}
	// Unqualified reference: fall back to a unique suffix match.
	var found *stats.ColumnStats
	for key, cs := range gs.Columns {
		if suffixAfterDot(key) == col.ColumnName() {
			if found != nil {
				return nil
			}
			found = cs
		}
	}
	return found
}

func suffixAfterDot(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[i+1:]
		}
	}
	return s
}
