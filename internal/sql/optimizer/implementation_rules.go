package optimizer

import (
	"github.com/dshills/CascadeDB/internal/sql/expression"
)

// GetToSeqScan implements a logical Get as a sequential scan.
type GetToSeqScan struct {
	baseRule
}

func NewGetToSeqScan() *GetToSeqScan {
	return &GetToSeqScan{baseRule{
		typ:     RuleGetToSeqScan,
		pattern: NewPattern(OpLogicalGet),
	}}
}

func (*GetToSeqScan) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*GetToSeqScan) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *GetToSeqScan) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	get := node.Op.(LogicalGet)
	out := NewOperatorNode(SeqScan{
		Database:    get.Database,
		Namespace:   get.Namespace,
		Table:       get.Table,
		Predicates:  get.Predicates,
		TableAlias:  get.TableAlias,
		IsForUpdate: get.IsForUpdate,
	})
	return []*OperatorNode{out}
}

// GetToIndexScan implements a logical Get as an index scan, one candidate
// per index on the table. Whether a candidate provides a required sort is
// decided later by the child property deriver.
type GetToIndexScan struct {
	baseRule
}

func NewGetToIndexScan() *GetToIndexScan {
	return &GetToIndexScan{baseRule{
		typ:     RuleGetToIndexScan,
		pattern: NewPattern(OpLogicalGet),
	}}
}

func (*GetToIndexScan) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*GetToIndexScan) Check(node *OperatorNode, ctx *OptimizationContext) bool {
	get := node.Op.(LogicalGet)
	return get.Table != 0 && ctx.Accessor != nil
}

func (r *GetToIndexScan) Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode {
	get := node.Op.(LogicalGet)
	indexes, err := ctx.Accessor.GetIndexes(get.Table)
	if err != nil {
		ctx.Logger.Warn("index lookup failed", "table", uint32(get.Table), "error", err)
		return nil
	}

	var out []*OperatorNode
	for _, idx := range indexes {
		out = append(out, NewOperatorNode(IndexScan{
			Database:    get.Database,
			Namespace:   get.Namespace,
			Table:       get.Table,
			Index:       idx,
			Predicates:  get.Predicates,
			TableAlias:  get.TableAlias,
			IsForUpdate: get.IsForUpdate,
		}))
	}
	return out
}

// QueryDerivedGetToScan implements a derived-table get as a derived scan.
type QueryDerivedGetToScan struct {
	baseRule
}

func NewQueryDerivedGetToScan() *QueryDerivedGetToScan {
	return &QueryDerivedGetToScan{baseRule{
		typ:     RuleQueryDerivedGetToScan,
		pattern: NewPattern(OpLogicalQueryDerivedGet, LeafPattern()),
	}}
}

func (*QueryDerivedGetToScan) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*QueryDerivedGetToScan) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *QueryDerivedGetToScan) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	get := node.Op.(LogicalQueryDerivedGet)
	out := NewOperatorNode(QueryDerivedScan{
		TableAlias:  get.TableAlias,
		AliasToExpr: get.AliasToExpr,
	}, node.Child(0).Copy())
	return []*OperatorNode{out}
}

// JoinToInnerNLJoin implements an inner join by nested iteration.
type JoinToInnerNLJoin struct {
	baseRule
}

func NewJoinToInnerNLJoin() *JoinToInnerNLJoin {
	return &JoinToInnerNLJoin{baseRule{
		typ:     RuleJoinToInnerNLJoin,
		pattern: NewPattern(OpLogicalJoin, LeafPattern(), LeafPattern()),
	}}
}

func (*JoinToInnerNLJoin) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*JoinToInnerNLJoin) Check(node *OperatorNode, _ *OptimizationContext) bool {
	return node.Op.(LogicalJoin).JoinType == InnerJoinType
}

func (r *JoinToInnerNLJoin) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	join := node.Op.(LogicalJoin)
	out := NewOperatorNode(
		InnerNLJoin{PhysicalJoin{JoinType: InnerJoinType, Predicates: join.Predicates}},
		node.Child(0).Copy(),
		node.Child(1).Copy(),
	)
	return []*OperatorNode{out}
}

// JoinToInnerHashJoin implements an inner join as a hash join when at least
// one equality predicate pairs the two sides.
type JoinToInnerHashJoin struct {
	baseRule
}

func NewJoinToInnerHashJoin() *JoinToInnerHashJoin {
	return &JoinToInnerHashJoin{baseRule{
		typ:     RuleJoinToInnerHashJoin,
		pattern: NewPattern(OpLogicalJoin, LeafPattern(), LeafPattern()),
	}}
}

func (*JoinToInnerHashJoin) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*JoinToInnerHashJoin) Check(node *OperatorNode, _ *OptimizationContext) bool {
	return node.Op.(LogicalJoin).JoinType == InnerJoinType
}

func (r *JoinToInnerHashJoin) Transform(node *OperatorNode, ctx *OptimizationContext) []*OperatorNode {
	join := node.Op.(LogicalJoin)
	leftAliases := ctx.Memo.GetGroup(leafOrigin(node.Child(0))).TableAliases()
	rightAliases := ctx.Memo.GetGroup(leafOrigin(node.Child(1))).TableAliases()

	var leftKeys, rightKeys []*expression.AbstractExpression
	for _, p := range join.Predicates {
		if p.Expr.Type() != expression.CompareEqual || p.Expr.ChildCount() != 2 {
			continue
		}
		lhs, rhs := p.Expr.Child(0), p.Expr.Child(1)
		lhsAliases := AliasSet(expression.ReferencedAliases(lhs))
		rhsAliases := AliasSet(expression.ReferencedAliases(rhs))
		switch {
		case lhsAliases.IsSubsetOf(leftAliases) && rhsAliases.IsSubsetOf(rightAliases):
			leftKeys = append(leftKeys, lhs)
			rightKeys = append(rightKeys, rhs)
		case rhsAliases.IsSubsetOf(leftAliases) && lhsAliases.IsSubsetOf(rightAliases):
			leftKeys = append(leftKeys, rhs)
			rightKeys = append(rightKeys, lhs)
		}
	}
	if len(leftKeys) == 0 {
		return nil
	}

	out := NewOperatorNode(
		InnerHashJoin{
			PhysicalJoin: PhysicalJoin{JoinType: InnerJoinType, Predicates: join.Predicates},
			LeftKeys:     leftKeys,
			RightKeys:    rightKeys,
		},
		node.Child(0).Copy(),
		node.Child(1).Copy(),
	)
	return []*OperatorNode{out}
}

// AggregateToHashGroupBy implements grouped aggregation via a hash table.
type AggregateToHashGroupBy struct {
	baseRule
}

func NewAggregateToHashGroupBy() *AggregateToHashGroupBy {
	return &AggregateToHashGroupBy{baseRule{
		typ:     RuleAggregateToHashGroupBy,
		pattern: NewPattern(OpLogicalAggregateAndGroupBy, LeafPattern()),
	}}
}

func (*AggregateToHashGroupBy) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*AggregateToHashGroupBy) Check(node *OperatorNode, _ *OptimizationContext) bool {
	return len(node.Op.(LogicalAggregateAndGroupBy).Columns) > 0
}

func (r *AggregateToHashGroupBy) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	agg := node.Op.(LogicalAggregateAndGroupBy)
	out := NewOperatorNode(
		HashGroupBy{Columns: agg.Columns, Having: agg.Having},
		node.Child(0).Copy(),
	)
	return []*OperatorNode{out}
}

// AggregateToSortGroupBy implements grouped aggregation over sorted input.
type AggregateToSortGroupBy struct {
	baseRule
}

func NewAggregateToSortGroupBy() *AggregateToSortGroupBy {
	return &AggregateToSortGroupBy{baseRule{
		typ:     RuleAggregateToSortGroupBy,
		pattern: NewPattern(OpLogicalAggregateAndGroupBy, LeafPattern()),
	}}
}

func (*AggregateToSortGroupBy) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*AggregateToSortGroupBy) Check(node *OperatorNode, _ *OptimizationContext) bool {
	return len(node.Op.(LogicalAggregateAndGroupBy).Columns) > 0
}

func (r *AggregateToSortGroupBy) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	agg := node.Op.(LogicalAggregateAndGroupBy)
	out := NewOperatorNode(
		SortGroupBy{Columns: agg.Columns, Having: agg.Having},
		node.Child(0).Copy(),
	)
	return []*OperatorNode{out}
}

// AggregateToPlainAggregate implements ungrouped aggregation.
type AggregateToPlainAggregate struct {
	baseRule
}

func NewAggregateToPlainAggregate() *AggregateToPlainAggregate {
	return &AggregateToPlainAggregate{baseRule{
		typ:     RuleAggregateToPlainAggregate,
		pattern: NewPattern(OpLogicalAggregateAndGroupBy, LeafPattern()),
	}}
}

func (*AggregateToPlainAggregate) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*AggregateToPlainAggregate) Check(node *OperatorNode, _ *OptimizationContext) bool {
	return len(node.Op.(LogicalAggregateAndGroupBy).Columns) == 0
}

func (r *AggregateToPlainAggregate) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	agg := node.Op.(LogicalAggregateAndGroupBy)
	out := NewOperatorNode(Aggregate{Having: agg.Having}, node.Child(0).Copy())
	return []*OperatorNode{out}
}

// LimitToLimit implements a logical limit.
type LimitToLimit struct {
	baseRule
}

func NewLimitToLimit() *LimitToLimit {
	return &LimitToLimit{baseRule{
		typ:     RuleLimitToLimit,
		pattern: NewPattern(OpLogicalLimit, LeafPattern()),
	}}
}

func (*LimitToLimit) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*LimitToLimit) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *LimitToLimit) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	limit := node.Op.(LogicalLimit)
	out := NewOperatorNode(Limit{
		Limit:         limit.Limit,
		Offset:        limit.Offset,
		SortExprs:     limit.SortExprs,
		SortAscending: limit.SortAscending,
	}, node.Child(0).Copy())
	return []*OperatorNode{out}
}

// InsertToPhysical implements a literal-row insert.
type InsertToPhysical struct {
	baseRule
}

func NewInsertToPhysical() *InsertToPhysical {
	return &InsertToPhysical{baseRule{
		typ:     RuleInsertToPhysical,
		pattern: NewPattern(OpLogicalInsert),
	}}
}

func (*InsertToPhysical) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*InsertToPhysical) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *InsertToPhysical) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	ins := node.Op.(LogicalInsert)
	out := NewOperatorNode(Insert{
		Database: ins.Database,
		Table:    ins.Table,
		Columns:  ins.Columns,
		Values:   ins.Values,
	})
	return []*OperatorNode{out}
}

// InsertSelectToPhysical implements insert-from-select.
type InsertSelectToPhysical struct {
	baseRule
}

func NewInsertSelectToPhysical() *InsertSelectToPhysical {
	return &InsertSelectToPhysical{baseRule{
		typ:     RuleInsertSelectToPhysical,
		pattern: NewPattern(OpLogicalInsertSelect, LeafPattern()),
	}}
}

func (*InsertSelectToPhysical) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*InsertSelectToPhysical) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *InsertSelectToPhysical) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	ins := node.Op.(LogicalInsertSelect)
	out := NewOperatorNode(InsertSelect{Database: ins.Database, Table: ins.Table}, node.Child(0).Copy())
	return []*OperatorNode{out}
}

// UpdateToPhysical implements an update.
type UpdateToPhysical struct {
	baseRule
}

func NewUpdateToPhysical() *UpdateToPhysical {
	return &UpdateToPhysical{baseRule{
		typ:     RuleUpdateToPhysical,
		pattern: NewPattern(OpLogicalUpdate, LeafPattern()),
	}}
}

func (*UpdateToPhysical) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*UpdateToPhysical) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *UpdateToPhysical) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	upd := node.Op.(LogicalUpdate)
	out := NewOperatorNode(Update{
		Database:   upd.Database,
		Table:      upd.Table,
		SetColumns: upd.SetColumns,
		SetExprs:   upd.SetExprs,
	}, node.Child(0).Copy())
	return []*OperatorNode{out}
}

// DeleteToPhysical implements a delete.
type DeleteToPhysical struct {
	baseRule
}

func NewDeleteToPhysical() *DeleteToPhysical {
	return &DeleteToPhysical{baseRule{
		typ:     RuleDeleteToPhysical,
		pattern: NewPattern(OpLogicalDelete, LeafPattern()),
	}}
}

func (*DeleteToPhysical) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*DeleteToPhysical) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *DeleteToPhysical) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	del := node.Op.(LogicalDelete)
	out := NewOperatorNode(Delete{Database: del.Database, Table: del.Table}, node.Child(0).Copy())
	return []*OperatorNode{out}
}

// ExternalFileScanToPhysical implements an external file scan.
type ExternalFileScanToPhysical struct {
	baseRule
}

func NewExternalFileScanToPhysical() *ExternalFileScanToPhysical {
	return &ExternalFileScanToPhysical{baseRule{
		typ:     RuleExternalFileScanToPhysical,
		pattern: NewPattern(OpLogicalExternalFileScan),
	}}
}

func (*ExternalFileScanToPhysical) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*ExternalFileScanToPhysical) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *ExternalFileScanToPhysical) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	scan := node.Op.(LogicalExternalFileScan)
	out := NewOperatorNode(ExternalFileScan{Spec: scan.Spec})
	return []*OperatorNode{out}
}

// ExportExternalFileToPhysical implements an external file export.
type ExportExternalFileToPhysical struct {
	baseRule
}

func NewExportExternalFileToPhysical() *ExportExternalFileToPhysical {
	return &ExportExternalFileToPhysical{baseRule{
		typ:     RuleExportExternalFileToPhysical,
		pattern: NewPattern(OpLogicalExportExternalFile, LeafPattern()),
	}}
}

func (*ExportExternalFileToPhysical) Promise(*GroupExpression) RulePromise { return PromisePhysical }

func (*ExportExternalFileToPhysical) Check(*OperatorNode, *OptimizationContext) bool { return true }

func (r *ExportExternalFileToPhysical) Transform(node *OperatorNode, _ *OptimizationContext) []*OperatorNode {
	exp := node.Op.(LogicalExportExternalFile)
	out := NewOperatorNode(ExportExternalFile{Spec: exp.Spec}, node.Child(0).Copy())
	return []*OperatorNode{out}
}
