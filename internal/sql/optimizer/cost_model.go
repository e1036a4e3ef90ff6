package optimizer

import (
	"math"

	"github.com/dshills/CascadeDB/internal/config"
)

// CostParams defines the per-unit costs the default model charges.
type CostParams struct {
	SequentialPageCost float64
	RandomPageCost     float64
	CPUTupleCost       float64
	CPUIndexTupleCost  float64
	CPUOperatorCost    float64
}

// DefaultCostParams returns standard cost parameters.
func DefaultCostParams() *CostParams {
	return &CostParams{
		SequentialPageCost: 1.0,
		RandomPageCost:     4.0,
		CPUTupleCost:       0.01,
		CPUIndexTupleCost:  0.005,
		CPUOperatorCost:    0.0025,
	}
}

// CostModel charges a nonnegative local cost per physical expression. The
// total cost of a candidate is its local cost plus the sum of its chosen
// child winners' costs; lower is better.
type CostModel interface {
	LocalCost(gexpr *GroupExpression, memo *Memo) float64
	// EnforcerCost is the local cost of an order-by enforcer placed on the
	// group.
	EnforcerCost(g *Group) float64
}

// NewCostModel builds the model selected by the settings.
func NewCostModel(variant config.CostModelVariant) CostModel {
	if variant == config.CostModelTrivial {
		return trivialCostModel{}
	}
	return &defaultCostModel{params: DefaultCostParams()}
}

// trivialCostModel charges a flat unit per operator, so plan choice falls
// back to insertion order. Used by plan-shape tests.
type trivialCostModel struct{}

func (trivialCostModel) LocalCost(*GroupExpression, *Memo) float64 { return 1 }
func (trivialCostModel) EnforcerCost(*Group) float64               { return 1 }

// defaultCostModel estimates from derived group statistics.
type defaultCostModel struct {
	params *CostParams
}

func (m *defaultCostModel) rowsOf(g *Group) float64 {
	if g.HasStats() && g.Stats().RowCount > 0 {
		return g.Stats().RowCount
	}
	return defaultRowEstimate
}

func (m *defaultCostModel) LocalCost(gexpr *GroupExpression, memo *Memo) float64 {
	p := m.params
	rows := m.rowsOf(memo.GetGroup(gexpr.Group()))

	childRows := func(i int) float64 {
		return m.rowsOf(memo.GetGroup(gexpr.ChildGroup(i)))
	}

	switch gexpr.Op.Type() {
	case OpSeqScan:
		pages := rows/100 + 1
		return rows*p.CPUTupleCost + pages*p.SequentialPageCost

	case OpIndexScan:
		pages := rows/200 + 1
		return rows*(p.CPUIndexTupleCost+p.CPUTupleCost) + pages*p.RandomPageCost

	case OpQueryDerivedScan:
		return childRows(0) * p.CPUOperatorCost

	case OpOrderBy:
		in := childRows(0)
		return in*math.Log2(in+2)*p.CPUOperatorCost + in*p.CPUTupleCost

	case OpLimit:
		return rows * p.CPUTupleCost

	case OpDistinct:
		return childRows(0) * p.CPUTupleCost * 2

	case OpHashGroupBy:
		return childRows(0) * p.CPUTupleCost * 2

	case OpSortGroupBy:
		return childRows(0) * p.CPUTupleCost

	case OpAggregate:
		return childRows(0) * p.CPUTupleCost

	case OpInnerNLJoin, OpLeftNLJoin, OpRightNLJoin, OpOuterNLJoin:
		return childRows(0)*childRows(1)*p.CPUOperatorCost + rows*p.CPUTupleCost

	case OpInnerHashJoin, OpLeftHashJoin, OpRightHashJoin, OpOuterHashJoin:
		return (childRows(0)+childRows(1))*p.CPUTupleCost*2 + rows*p.CPUTupleCost

	case OpInsert:
		return rows * p.CPUTupleCost

	case OpInsertSelect, OpUpdate, OpDelete:
		return childRows(0) * p.CPUTupleCost

	case OpTableFreeScan:
		return p.CPUTupleCost

	case OpExternalFileScan:
		pages := rows/100 + 1
		return rows*p.CPUTupleCost + pages*p.SequentialPageCost

	case OpExportExternalFile:
		return childRows(0) * p.CPUTupleCost

	default:
		return rows * p.CPUOperatorCost
	}
}

func (m *defaultCostModel) EnforcerCost(g *Group) float64 {
	p := m.params
	rows := m.rowsOf(g)
	return rows*math.Log2(rows+2)*p.CPUOperatorCost + rows*p.CPUTupleCost
}
