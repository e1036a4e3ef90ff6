package plan

import (
	"github.com/dshills/CascadeDB/internal/catalog"
	"github.com/dshills/CascadeDB/internal/sql/expression"
	"github.com/dshills/CascadeDB/internal/sql/types"
)

// SeqScanPlanNode scans a base table sequentially.
type SeqScanPlanNode struct {
	basePlan
	Database      catalog.DBOID
	Namespace     catalog.NamespaceOID
	Table         catalog.TableOID
	ColumnOids    []catalog.ColumnOID
	ScanPredicate *expression.AbstractExpression
	IsForUpdate   bool
	IsParallel    bool
}

func (*SeqScanPlanNode) Type() NodeType { return SeqScanNode }

// IndexScanPlanNode scans a table through an index.
type IndexScanPlanNode struct {
	basePlan
	Database      catalog.DBOID
	Namespace     catalog.NamespaceOID
	Table         catalog.TableOID
	Index         catalog.IndexOID
	ColumnOids    []catalog.ColumnOID
	ScanPredicate *expression.AbstractExpression
	IsForUpdate   bool
	IsParallel    bool
}

func (*IndexScanPlanNode) Type() NodeType { return IndexScanNode }

// QueryDerivedScanPlanNode scans the output of a derived subquery.
type QueryDerivedScanPlanNode struct {
	basePlan
	TableAlias  string
	AliasToExpr map[string]*expression.AbstractExpression
}

func NewQueryDerivedScanPlanNode(child PlanNode, alias string, aliasToExpr map[string]*expression.AbstractExpression) *QueryDerivedScanPlanNode {
	return &QueryDerivedScanPlanNode{basePlan: basePlan{children: []PlanNode{child}}, TableAlias: alias, AliasToExpr: aliasToExpr}
}

func (*QueryDerivedScanPlanNode) Type() NodeType { return QueryDerivedScanNode }

// SortKey pairs a sort expression with its direction.
type SortKey struct {
	Expr      *expression.AbstractExpression
	Ascending bool
}

// OrderByPlanNode materializes a sort order, optionally fused with a limit.
type OrderByPlanNode struct {
	basePlan
	SortKeys []SortKey
	HasLimit bool
	Limit    uint64
	Offset   uint64
}

func NewOrderByPlanNode(child PlanNode, keys []SortKey) *OrderByPlanNode {
	return &OrderByPlanNode{basePlan: basePlan{children: []PlanNode{child}}, SortKeys: keys}
}

func (*OrderByPlanNode) Type() NodeType { return OrderByNode }

// LimitPlanNode truncates its input.
type LimitPlanNode struct {
	basePlan
	Limit  uint64
	Offset uint64
}

func NewLimitPlanNode(child PlanNode, limit, offset uint64) *LimitPlanNode {
	return &LimitPlanNode{basePlan: basePlan{children: []PlanNode{child}}, Limit: limit, Offset: offset}
}

func (*LimitPlanNode) Type() NodeType { return LimitNode }

// ProjectionPlanNode computes the output row shape.
type ProjectionPlanNode struct {
	basePlan
	Expressions []*expression.AbstractExpression
}

func NewProjectionPlanNode(child PlanNode, exprs []*expression.AbstractExpression) *ProjectionPlanNode {
	return &ProjectionPlanNode{basePlan: basePlan{children: []PlanNode{child}}, Expressions: exprs}
}

func (*ProjectionPlanNode) Type() NodeType { return ProjectionNode }

// AggregateTerm pairs an aggregate invocation with its output alias.
type AggregateTerm struct {
	Expr  *expression.AbstractExpression
	Alias string
}

// HashGroupByPlanNode groups via a hash table.
type HashGroupByPlanNode struct {
	basePlan
	GroupByColumns []*expression.AbstractExpression
	Having         *expression.AbstractExpression
}

func NewHashGroupByPlanNode(child PlanNode, cols []*expression.AbstractExpression, having *expression.AbstractExpression) *HashGroupByPlanNode {
	return &HashGroupByPlanNode{basePlan: basePlan{children: []PlanNode{child}}, GroupByColumns: cols, Having: having}
}

func (*HashGroupByPlanNode) Type() NodeType { return HashGroupByNode }

// SortGroupByPlanNode groups over sorted input.
type SortGroupByPlanNode struct {
	basePlan
	GroupByColumns []*expression.AbstractExpression
	Having         *expression.AbstractExpression
}

func NewSortGroupByPlanNode(child PlanNode, cols []*expression.AbstractExpression, having *expression.AbstractExpression) *SortGroupByPlanNode {
	return &SortGroupByPlanNode{basePlan: basePlan{children: []PlanNode{child}}, GroupByColumns: cols, Having: having}
}

func (*SortGroupByPlanNode) Type() NodeType { return SortGroupByNode }

// AggregatePlanNode computes aggregates without grouping.
type AggregatePlanNode struct {
	basePlan
	Having *expression.AbstractExpression
}

func NewAggregatePlanNode(child PlanNode, having *expression.AbstractExpression) *AggregatePlanNode {
	return &AggregatePlanNode{basePlan: basePlan{children: []PlanNode{child}}, Having: having}
}

func (*AggregatePlanNode) Type() NodeType { return AggregateNode }

// JoinKind mirrors the logical join variant on the physical node.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	OuterJoin
	SemiJoin
	AntiJoin
	MarkJoin
)

// NestedLoopJoinPlanNode joins by nested iteration.
type NestedLoopJoinPlanNode struct {
	basePlan
	Kind      JoinKind
	Predicate *expression.AbstractExpression
}

func NewNestedLoopJoinPlanNode(left, right PlanNode, kind JoinKind, predicate *expression.AbstractExpression) *NestedLoopJoinPlanNode {
	return &NestedLoopJoinPlanNode{basePlan: basePlan{children: []PlanNode{left, right}}, Kind: kind, Predicate: predicate}
}

func (*NestedLoopJoinPlanNode) Type() NodeType { return NestedLoopJoinNode }

// HashJoinPlanNode joins by building a hash table on the left input.
type HashJoinPlanNode struct {
	basePlan
	Kind      JoinKind
	LeftKeys  []*expression.AbstractExpression
	RightKeys []*expression.AbstractExpression
	Predicate *expression.AbstractExpression
}

func NewHashJoinPlanNode(left, right PlanNode, kind JoinKind, leftKeys, rightKeys []*expression.AbstractExpression, predicate *expression.AbstractExpression) *HashJoinPlanNode {
	return &HashJoinPlanNode{
		basePlan:  basePlan{children: []PlanNode{left, right}},
		Kind:      kind,
		LeftKeys:  leftKeys,
		RightKeys: rightKeys,
		Predicate: predicate,
	}
}

func (*HashJoinPlanNode) Type() NodeType { return HashJoinNode }

// DistinctPlanNode removes duplicate rows.
type DistinctPlanNode struct {
	basePlan
}

func NewDistinctPlanNode(child PlanNode) *DistinctPlanNode {
	return &DistinctPlanNode{basePlan: basePlan{children: []PlanNode{child}}}
}

func (*DistinctPlanNode) Type() NodeType { return DistinctNode }

// InsertPlanNode inserts literal rows.
type InsertPlanNode struct {
	basePlan
	Database catalog.DBOID
	Table    catalog.TableOID
	Columns  []catalog.ColumnOID
	Values   [][]types.Value
}

func (*InsertPlanNode) Type() NodeType { return InsertNode }

// InsertSelectPlanNode inserts the output of a child plan.
type InsertSelectPlanNode struct {
	basePlan
	Database catalog.DBOID
	Table    catalog.TableOID
}

func NewInsertSelectPlanNode(child PlanNode, db catalog.DBOID, table catalog.TableOID) *InsertSelectPlanNode {
	return &InsertSelectPlanNode{basePlan: basePlan{children: []PlanNode{child}}, Database: db, Table: table}
}

func (*InsertSelectPlanNode) Type() NodeType { return InsertSelectNode }

// UpdatePlanNode applies set clauses to rows produced by its child.
type UpdatePlanNode struct {
	basePlan
	Database   catalog.DBOID
	Table      catalog.TableOID
	SetClauses []SetClause
}

// SetClause assigns an expression to a column.
type SetClause struct {
	Column catalog.ColumnOID
	Value  *expression.AbstractExpression
}

func NewUpdatePlanNode(child PlanNode, db catalog.DBOID, table catalog.TableOID, clauses []SetClause) *UpdatePlanNode {
	return &UpdatePlanNode{basePlan: basePlan{children: []PlanNode{child}}, Database: db, Table: table, SetClauses: clauses}
}

func (*UpdatePlanNode) Type() NodeType { return UpdateNode }

// DeletePlanNode deletes rows produced by its child.
type DeletePlanNode struct {
	basePlan
	Database catalog.DBOID
	Table    catalog.TableOID
}

func NewDeletePlanNode(child PlanNode, db catalog.DBOID, table catalog.TableOID) *DeletePlanNode {
	return &DeletePlanNode{basePlan: basePlan{children: []PlanNode{child}}, Database: db, Table: table}
}

func (*DeletePlanNode) Type() NodeType { return DeleteNode }

// TableFreeScanPlanNode produces a single empty tuple.
type TableFreeScanPlanNode struct {
	basePlan
}

func (*TableFreeScanPlanNode) Type() NodeType { return TableFreeScanNode }

// ExternalFileScanPlanNode reads rows from an external file.
type ExternalFileScanPlanNode struct {
	basePlan
	Format    ExternalFileFormat
	FileName  string
	Delimiter byte
	Quote     byte
	Escape    byte
}

func (*ExternalFileScanPlanNode) Type() NodeType { return ExternalFileScanNode }

// ExportExternalFilePlanNode writes its child's rows to an external file.
type ExportExternalFilePlanNode struct {
	basePlan
	Format    ExternalFileFormat
	FileName  string
	Delimiter byte
	Quote     byte
	Escape    byte
}

func NewExportExternalFilePlanNode(child PlanNode, format ExternalFileFormat, fileName string, delimiter, quote, escape byte) *ExportExternalFilePlanNode {
	return &ExportExternalFilePlanNode{
		basePlan:  basePlan{children: []PlanNode{child}},
		Format:    format,
		FileName:  fileName,
		Delimiter: delimiter,
		Quote:     quote,
		Escape:    escape,
	}
}

func (*ExportExternalFilePlanNode) Type() NodeType { return ExportExternalFileNode }

// ExternalFileFormat identifies the external file encoding.
type ExternalFileFormat int

const (
	// CSVFormat is comma separated values.
	CSVFormat ExternalFileFormat = iota
	// BinaryFormat is the engine's native binary row format.
	BinaryFormat
)
