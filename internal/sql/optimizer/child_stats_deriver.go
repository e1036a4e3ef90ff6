package optimizer

import (
	"github.com/dshills/CascadeDB/internal/sql/expression"
)

// ChildStatsDeriver announces, per child group of a logical expression, the
// columns whose statistics must be derived before this expression's stats
// can be computed.
type ChildStatsDeriver struct{}

// DeriveInputStats returns one column set per child group, in child order.
func (d ChildStatsDeriver) DeriveInputStats(gexpr *GroupExpression, requiredCols *expression.ExprSet,
	memo *Memo) []*expression.ExprSet {
	switch op := gexpr.Op.(type) {
	case LogicalQueryDerivedGet:
		return d.deriveForQueryDerivedGet(op, requiredCols, gexpr)

	case LogicalJoin:
		return d.deriveForJoin(op, requiredCols, gexpr, memo)

	case LogicalAggregateAndGroupBy:
		return d.deriveForAggregate(requiredCols, gexpr)

	default:
		// Pass the required column set down unchanged to every child.
		out := make([]*expression.ExprSet, gexpr.ChildCount())
		for i := range out {
			out[i] = requiredCols.Copy()
		}
		return out
	}
}

// deriveForQueryDerivedGet rewrites each required output column of the
// derived query into the underlying expression producing it. Columns not
// produced by the derived query are dropped.
func (d ChildStatsDeriver) deriveForQueryDerivedGet(op LogicalQueryDerivedGet,
	requiredCols *expression.ExprSet, gexpr *GroupExpression) []*expression.ExprSet {
	child := expression.NewExprSet()
	for _, col := range requiredCols.Slice() {
		if col.Type() != expression.ColumnValue {
			continue
		}
		if underlying, ok := op.AliasToExpr[col.ColumnName()]; ok {
			child.Add(underlying)
		}
	}
	return childSetsFor(gexpr, child)
}

// deriveForJoin routes each required column to the single child whose
// covered aliases contain it, and propagates the columns referenced by the
// join's own predicates to their owning children.
func (d ChildStatsDeriver) deriveForJoin(op LogicalJoin, requiredCols *expression.ExprSet,
	gexpr *GroupExpression, memo *Memo) []*expression.ExprSet {
	out := make([]*expression.ExprSet, gexpr.ChildCount())
	for i := range out {
		out[i] = expression.NewExprSet()
	}

	route := func(col *expression.AbstractExpression) {
		for i := 0; i < gexpr.ChildCount(); i++ {
			aliases := memo.GetGroup(gexpr.ChildGroup(i)).TableAliases()
			if aliases.Contains(col.TableAlias()) {
				out[i].Add(col)
				return
			}
		}
	}

	for _, col := range requiredCols.Slice() {
		if col.Type() == expression.ColumnValue {
			route(col)
		}
	}
	for _, pred := range op.Predicates {
		for _, ref := range expression.ColumnValuesOf(pred.Expr) {
			route(ref)
		}
	}
	return out
}

// deriveForAggregate passes group-by columns through unchanged and
// translates aggregated-column requirements into their argument columns.
func (d ChildStatsDeriver) deriveForAggregate(requiredCols *expression.ExprSet,
	gexpr *GroupExpression) []*expression.ExprSet {
	child := expression.NewExprSet()
	for _, col := range requiredCols.Slice() {
		if col.Type().IsAggregate() {
			for _, ref := range expression.ColumnValuesOf(col) {
				child.Add(ref)
			}
			continue
		}
		child.Add(col)
	}
	return childSetsFor(gexpr, child)
}

func childSetsFor(gexpr *GroupExpression, set *expression.ExprSet) []*expression.ExprSet {
	out := make([]*expression.ExprSet, gexpr.ChildCount())
	for i := range out {
		if i == 0 {
			out[i] = set
		} else {
			out[i] = set.Copy()
		}
	}
	return out
}
