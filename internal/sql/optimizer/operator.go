package optimizer

import "fmt"

// OpType tags an operator variant. Logical kinds come first, physical kinds
// after physicalStart; Leaf is the pattern sentinel.
type OpType int

const (
	// OpUndefined is the zero OpType.
	OpUndefined OpType = iota

	// OpLeaf is the pattern sentinel matching any group.
	OpLeaf

	// Logical operators.
	OpLogicalGet
	OpLogicalQueryDerivedGet
	OpLogicalFilter
	OpLogicalJoin
	OpLogicalAggregateAndGroupBy
	OpLogicalLimit
	OpLogicalInsert
	OpLogicalInsertSelect
	OpLogicalUpdate
	OpLogicalDelete
	OpLogicalExternalFileScan
	OpLogicalExportExternalFile

	physicalStart

	// Physical operators.
	OpSeqScan
	OpIndexScan
	OpQueryDerivedScan
	OpOrderBy
	OpLimit
	OpDistinct
	OpHashGroupBy
	OpSortGroupBy
	OpAggregate
	OpInnerNLJoin
	OpLeftNLJoin
	OpRightNLJoin
	OpOuterNLJoin
	OpInnerHashJoin
	OpLeftHashJoin
	OpRightHashJoin
	OpOuterHashJoin
	OpInsert
	OpInsertSelect
	OpUpdate
	OpDelete
	OpTableFreeScan
	OpExternalFileScan
	OpExportExternalFile
)

var opNames = map[OpType]string{
	OpLeaf:                       "Leaf",
	OpLogicalGet:                 "LogicalGet",
	OpLogicalQueryDerivedGet:     "LogicalQueryDerivedGet",
	OpLogicalFilter:              "LogicalFilter",
	OpLogicalJoin:                "LogicalJoin",
	OpLogicalAggregateAndGroupBy: "LogicalAggregateAndGroupBy",
	OpLogicalLimit:               "LogicalLimit",
	OpLogicalInsert:              "LogicalInsert",
	OpLogicalInsertSelect:        "LogicalInsertSelect",
	OpLogicalUpdate:              "LogicalUpdate",
	OpLogicalDelete:              "LogicalDelete",
	OpLogicalExternalFileScan:    "LogicalExternalFileScan",
	OpLogicalExportExternalFile:  "LogicalExportExternalFile",
	OpSeqScan:                    "SeqScan",
	OpIndexScan:                  "IndexScan",
	OpQueryDerivedScan:           "QueryDerivedScan",
	OpOrderBy:                    "OrderBy",
	OpLimit:                      "Limit",
	OpDistinct:                   "Distinct",
	OpHashGroupBy:                "HashGroupBy",
	OpSortGroupBy:                "SortGroupBy",
	OpAggregate:                  "Aggregate",
	OpInnerNLJoin:                "InnerNLJoin",
	OpLeftNLJoin:                 "LeftNLJoin",
	OpRightNLJoin:                "RightNLJoin",
	OpOuterNLJoin:                "OuterNLJoin",
	OpInnerHashJoin:              "InnerHashJoin",
	OpLeftHashJoin:               "LeftHashJoin",
	OpRightHashJoin:              "RightHashJoin",
	OpOuterHashJoin:              "OuterHashJoin",
	OpInsert:                     "Insert",
	OpInsertSelect:               "InsertSelect",
	OpUpdate:                     "Update",
	OpDelete:                     "Delete",
	OpTableFreeScan:              "TableFreeScan",
	OpExternalFileScan:           "ExternalFileScan",
	OpExportExternalFile:         "ExportExternalFile",
}

func (t OpType) String() string {
	if n, ok := opNames[t]; ok {
		return n
	}
	return fmt.Sprintf("OpType(%d)", int(t))
}

// IsLogical reports whether t is a logical operator kind.
func (t OpType) IsLogical() bool {
	return t > OpLeaf && t < physicalStart
}

// IsPhysical reports whether t is a physical operator kind.
func (t OpType) IsPhysical() bool {
	return t > physicalStart
}

// Operator is a closed tagged variant: one immutable payload struct per
// OpType. Dispatch is by Type(); there is no open inheritance.
type Operator interface {
	Type() OpType
	Name() string
	Hash() uint64
	Equals(Operator) bool
}

// JoinType distinguishes the logical join variants.
type JoinType int

const (
	InnerJoinType JoinType = iota
	LeftJoinType
	RightJoinType
	OuterJoinType
	SemiJoinType
	AntiJoinType
	MarkJoinType
)

func (t JoinType) String() string {
	switch t {
	case InnerJoinType:
		return "INNER"
	case LeftJoinType:
		return "LEFT"
	case RightJoinType:
		return "RIGHT"
	case OuterJoinType:
		return "OUTER"
	case SemiJoinType:
		return "SEMI"
	case AntiJoinType:
		return "ANTI"
	case MarkJoinType:
		return "MARK"
	default:
		return fmt.Sprintf("JoinType(%d)", int(t))
	}
}

// LeafOperator is the binding sentinel referencing a memo group. It appears
// only inside rule bindings and transform outputs, never in an emitted plan.
type LeafOperator struct {
	OriginGroup GroupID
}

func (LeafOperator) Type() OpType { return OpLeaf }
func (LeafOperator) Name() string { return "Leaf" }

func (op LeafOperator) Hash() uint64 {
	return hashCombine(newOperatorHash(op.Name()), uint64(op.OriginGroup))
}

func (op LeafOperator) Equals(other Operator) bool {
	o, ok := other.(LeafOperator)
	return ok && op.OriginGroup == o.OriginGroup
}
