package optimizer

import (
	"github.com/dshills/CascadeDB/internal/catalog"
	"github.com/dshills/CascadeDB/internal/sql/expression"
	"github.com/dshills/CascadeDB/internal/sql/types"
)

// SeqScan reads a base table sequentially.
type SeqScan struct {
	Database    catalog.DBOID
	Namespace   catalog.NamespaceOID
	Table       catalog.TableOID
	Predicates  []AnnotatedExpression
	TableAlias  string
	IsForUpdate bool
}

func (SeqScan) Type() OpType { return OpSeqScan }
func (SeqScan) Name() string { return "SeqScan" }

func (op SeqScan) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, uint64(op.Database))
	h = hashCombine(h, uint64(op.Namespace))
	h = hashCombine(h, uint64(op.Table))
	h = hashAnnotated(h, op.Predicates)
	h = hashString(h, op.TableAlias)
	return hashBool(h, op.IsForUpdate)
}

func (op SeqScan) Equals(other Operator) bool {
	o, ok := other.(SeqScan)
	return ok && op.Database == o.Database && op.Namespace == o.Namespace && op.Table == o.Table &&
		op.TableAlias == o.TableAlias && op.IsForUpdate == o.IsForUpdate &&
		annotatedEqual(op.Predicates, o.Predicates)
}

// IndexScan reads a base table through an index.
type IndexScan struct {
	Database    catalog.DBOID
	Namespace   catalog.NamespaceOID
	Table       catalog.TableOID
	Index       catalog.IndexOID
	Predicates  []AnnotatedExpression
	TableAlias  string
	IsForUpdate bool
}

func (IndexScan) Type() OpType { return OpIndexScan }
func (IndexScan) Name() string { return "IndexScan" }

func (op IndexScan) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, uint64(op.Database))
	h = hashCombine(h, uint64(op.Namespace))
	h = hashCombine(h, uint64(op.Table))
	h = hashCombine(h, uint64(op.Index))
	h = hashAnnotated(h, op.Predicates)
	h = hashString(h, op.TableAlias)
	return hashBool(h, op.IsForUpdate)
}

func (op IndexScan) Equals(other Operator) bool {
	o, ok := other.(IndexScan)
	return ok && op.Database == o.Database && op.Namespace == o.Namespace && op.Table == o.Table &&
		op.Index == o.Index && op.TableAlias == o.TableAlias && op.IsForUpdate == o.IsForUpdate &&
		annotatedEqual(op.Predicates, o.Predicates)
}

// QueryDerivedScan scans a derived subquery's output.
type QueryDerivedScan struct {
	TableAlias  string
	AliasToExpr map[string]*expression.AbstractExpression
}

func (QueryDerivedScan) Type() OpType { return OpQueryDerivedScan }
func (QueryDerivedScan) Name() string { return "QueryDerivedScan" }

func (op QueryDerivedScan) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashString(h, op.TableAlias)
	h = hashCombine(h, uint64(len(op.AliasToExpr)))
	for _, name := range sortedAliasKeys(op.AliasToExpr) {
		h = hashString(h, name)
		h = hashCombine(h, op.AliasToExpr[name].Hash())
	}
	return h
}

func (op QueryDerivedScan) Equals(other Operator) bool {
	o, ok := other.(QueryDerivedScan)
	if !ok || op.TableAlias != o.TableAlias || len(op.AliasToExpr) != len(o.AliasToExpr) {
		return false
	}
	for name, e := range op.AliasToExpr {
		oe, ok := o.AliasToExpr[name]
		if !ok || !e.Equals(oe) {
			return false
		}
	}
	return true
}

// OrderBy materializes a sort order. Emitted only as an enforcer by the
// search driver, never by an implementation rule.
type OrderBy struct {
	SortExprs     []*expression.AbstractExpression
	SortAscending []bool
}

func (OrderBy) Type() OpType { return OpOrderBy }
func (OrderBy) Name() string { return "OrderBy" }

func (op OrderBy) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashExprs(h, op.SortExprs)
	return hashBools(h, op.SortAscending)
}

func (op OrderBy) Equals(other Operator) bool {
	o, ok := other.(OrderBy)
	return ok && exprsEqual(op.SortExprs, o.SortExprs) && boolsEqual(op.SortAscending, o.SortAscending)
}

// Limit truncates its input, materializing its own sort order if the logical
// limit carried one.
type Limit struct {
	Limit         uint64
	Offset        uint64
	SortExprs     []*expression.AbstractExpression
	SortAscending []bool
}

func (Limit) Type() OpType { return OpLimit }
func (Limit) Name() string { return "Limit" }

func (op Limit) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, op.Limit)
	h = hashCombine(h, op.Offset)
	h = hashExprs(h, op.SortExprs)
	return hashBools(h, op.SortAscending)
}

func (op Limit) Equals(other Operator) bool {
	o, ok := other.(Limit)
	return ok && op.Limit == o.Limit && op.Offset == o.Offset &&
		exprsEqual(op.SortExprs, o.SortExprs) && boolsEqual(op.SortAscending, o.SortAscending)
}

// Distinct removes duplicate rows.
type Distinct struct{}

func (Distinct) Type() OpType { return OpDistinct }
func (Distinct) Name() string { return "Distinct" }
func (Distinct) Hash() uint64 { return newOperatorHash("Distinct") }

func (Distinct) Equals(other Operator) bool {
	_, ok := other.(Distinct)
	return ok
}

// HashGroupBy groups via a hash table.
type HashGroupBy struct {
	Columns []*expression.AbstractExpression
	Having  []AnnotatedExpression
}

func (HashGroupBy) Type() OpType { return OpHashGroupBy }
func (HashGroupBy) Name() string { return "HashGroupBy" }

func (op HashGroupBy) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashExprs(h, op.Columns)
	return hashAnnotated(h, op.Having)
}

func (op HashGroupBy) Equals(other Operator) bool {
	o, ok := other.(HashGroupBy)
	return ok && exprsEqual(op.Columns, o.Columns) && annotatedEqual(op.Having, o.Having)
}

// SortGroupBy groups over sorted input.
type SortGroupBy struct {
	Columns []*expression.AbstractExpression
	Having  []AnnotatedExpression
}

func (SortGroupBy) Type() OpType { return OpSortGroupBy }
func (SortGroupBy) Name() string { return "SortGroupBy" }

func (op SortGroupBy) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashExprs(h, op.Columns)
	return hashAnnotated(h, op.Having)
}

func (op SortGroupBy) Equals(other Operator) bool {
	o, ok := other.(SortGroupBy)
	return ok && exprsEqual(op.Columns, o.Columns) && annotatedEqual(op.Having, o.Having)
}

// Aggregate computes aggregates without grouping.
type Aggregate struct {
	Having []AnnotatedExpression
}

func (Aggregate) Type() OpType { return OpAggregate }
func (Aggregate) Name() string { return "Aggregate" }

func (op Aggregate) Hash() uint64 {
	return hashAnnotated(newOperatorHash(op.Name()), op.Having)
}

func (op Aggregate) Equals(other Operator) bool {
	o, ok := other.(Aggregate)
	return ok && annotatedEqual(op.Having, o.Having)
}

// PhysicalJoin is the shared payload of the join implementations.
type PhysicalJoin struct {
	JoinType   JoinType
	Predicates []AnnotatedExpression
}

func (op PhysicalJoin) hash(name string) uint64 {
	h := newOperatorHash(name)
	h = hashCombine(h, uint64(op.JoinType))
	return hashAnnotated(h, op.Predicates)
}

func (op PhysicalJoin) equals(o PhysicalJoin) bool {
	return op.JoinType == o.JoinType && annotatedEqual(op.Predicates, o.Predicates)
}

// InnerNLJoin joins by nested iteration.
type InnerNLJoin struct{ PhysicalJoin }

func (InnerNLJoin) Type() OpType    { return OpInnerNLJoin }
func (InnerNLJoin) Name() string    { return "InnerNLJoin" }
func (op InnerNLJoin) Hash() uint64 { return op.hash(op.Name()) }
func (op InnerNLJoin) Equals(other Operator) bool {
	o, ok := other.(InnerNLJoin)
	return ok && op.equals(o.PhysicalJoin)
}

// LeftNLJoin is the left outer nested-loop join.
type LeftNLJoin struct{ PhysicalJoin }

func (LeftNLJoin) Type() OpType    { return OpLeftNLJoin }
func (LeftNLJoin) Name() string    { return "LeftNLJoin" }
func (op LeftNLJoin) Hash() uint64 { return op.hash(op.Name()) }
func (op LeftNLJoin) Equals(other Operator) bool {
	o, ok := other.(LeftNLJoin)
	return ok && op.equals(o.PhysicalJoin)
}

// RightNLJoin is the right outer nested-loop join.
type RightNLJoin struct{ PhysicalJoin }

func (RightNLJoin) Type() OpType    { return OpRightNLJoin }
func (RightNLJoin) Name() string    { return "RightNLJoin" }
func (op RightNLJoin) Hash() uint64 { return op.hash(op.Name()) }
func (op RightNLJoin) Equals(other Operator) bool {
	o, ok := other.(RightNLJoin)
	return ok && op.equals(o.PhysicalJoin)
}

// OuterNLJoin is the full outer nested-loop join.
type OuterNLJoin struct{ PhysicalJoin }

func (OuterNLJoin) Type() OpType    { return OpOuterNLJoin }
func (OuterNLJoin) Name() string    { return "OuterNLJoin" }
func (op OuterNLJoin) Hash() uint64 { return op.hash(op.Name()) }
func (op OuterNLJoin) Equals(other Operator) bool {
	o, ok := other.(OuterNLJoin)
	return ok && op.equals(o.PhysicalJoin)
}

// InnerHashJoin joins by building a hash table on the left input. LeftKeys
// and RightKeys are the equality key pairs extracted from the predicates.
type InnerHashJoin struct {
	PhysicalJoin
	LeftKeys  []*expression.AbstractExpression
	RightKeys []*expression.AbstractExpression
}

func (InnerHashJoin) Type() OpType { return OpInnerHashJoin }
func (InnerHashJoin) Name() string { return "InnerHashJoin" }

func (op InnerHashJoin) Hash() uint64 {
	h := op.hash(op.Name())
	h = hashExprs(h, op.LeftKeys)
	return hashExprs(h, op.RightKeys)
}

func (op InnerHashJoin) Equals(other Operator) bool {
	o, ok := other.(InnerHashJoin)
	return ok && op.equals(o.PhysicalJoin) &&
		exprsEqual(op.LeftKeys, o.LeftKeys) && exprsEqual(op.RightKeys, o.RightKeys)
}

// LeftHashJoin is the left outer hash join.
type LeftHashJoin struct{ PhysicalJoin }

func (LeftHashJoin) Type() OpType    { return OpLeftHashJoin }
func (LeftHashJoin) Name() string    { return "LeftHashJoin" }
func (op LeftHashJoin) Hash() uint64 { return op.hash(op.Name()) }
func (op LeftHashJoin) Equals(other Operator) bool {
	o, ok := other.(LeftHashJoin)
	return ok && op.equals(o.PhysicalJoin)
}

// RightHashJoin is the right outer hash join.
type RightHashJoin struct{ PhysicalJoin }

func (RightHashJoin) Type() OpType    { return OpRightHashJoin }
func (RightHashJoin) Name() string    { return "RightHashJoin" }
func (op RightHashJoin) Hash() uint64 { return op.hash(op.Name()) }
func (op RightHashJoin) Equals(other Operator) bool {
	o, ok := other.(RightHashJoin)
	return ok && op.equals(o.PhysicalJoin)
}

// OuterHashJoin is the full outer hash join.
type OuterHashJoin struct{ PhysicalJoin }

func (OuterHashJoin) Type() OpType    { return OpOuterHashJoin }
func (OuterHashJoin) Name() string    { return "OuterHashJoin" }
func (op OuterHashJoin) Hash() uint64 { return op.hash(op.Name()) }
func (op OuterHashJoin) Equals(other Operator) bool {
	o, ok := other.(OuterHashJoin)
	return ok && op.equals(o.PhysicalJoin)
}

// Insert inserts literal rows.
type Insert struct {
	Database catalog.DBOID
	Table    catalog.TableOID
	Columns  []catalog.ColumnOID
	Values   [][]types.Value
}

func (Insert) Type() OpType { return OpInsert }
func (Insert) Name() string { return "Insert" }

func (op Insert) Hash() uint64 {
	return LogicalInsert(op).Hash() ^ newOperatorHash(op.Name())
}

func (op Insert) Equals(other Operator) bool {
	o, ok := other.(Insert)
	return ok && LogicalInsert(op).Equals(LogicalInsert(o))
}

// InsertSelect inserts its child's output.
type InsertSelect struct {
	Database catalog.DBOID
	Table    catalog.TableOID
}

func (InsertSelect) Type() OpType { return OpInsertSelect }
func (InsertSelect) Name() string { return "InsertSelect" }

func (op InsertSelect) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, uint64(op.Database))
	return hashCombine(h, uint64(op.Table))
}

func (op InsertSelect) Equals(other Operator) bool {
	o, ok := other.(InsertSelect)
	return ok && op == o
}

// Update applies set clauses to its child's rows.
type Update struct {
	Database   catalog.DBOID
	Table      catalog.TableOID
	SetColumns []catalog.ColumnOID
	SetExprs   []*expression.AbstractExpression
}

func (Update) Type() OpType { return OpUpdate }
func (Update) Name() string { return "Update" }

func (op Update) Hash() uint64 {
	return LogicalUpdate(op).Hash() ^ newOperatorHash(op.Name())
}

func (op Update) Equals(other Operator) bool {
	o, ok := other.(Update)
	return ok && LogicalUpdate(op).Equals(LogicalUpdate(o))
}

// Delete deletes its child's rows.
type Delete struct {
	Database catalog.DBOID
	Table    catalog.TableOID
}

func (Delete) Type() OpType { return OpDelete }
func (Delete) Name() string { return "Delete" }

func (op Delete) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, uint64(op.Database))
	return hashCombine(h, uint64(op.Table))
}

func (op Delete) Equals(other Operator) bool {
	o, ok := other.(Delete)
	return ok && op == o
}

// TableFreeScan produces a single empty tuple for table-free selects.
type TableFreeScan struct{}

func (TableFreeScan) Type() OpType { return OpTableFreeScan }
func (TableFreeScan) Name() string { return "TableFreeScan" }
func (TableFreeScan) Hash() uint64 { return newOperatorHash("TableFreeScan") }

func (TableFreeScan) Equals(other Operator) bool {
	_, ok := other.(TableFreeScan)
	return ok
}

// ExternalFileScan reads rows from an external file.
type ExternalFileScan struct {
	Spec ExternalFileSpec
}

func (ExternalFileScan) Type() OpType { return OpExternalFileScan }
func (ExternalFileScan) Name() string { return "ExternalFileScan" }

func (op ExternalFileScan) Hash() uint64 {
	return op.Spec.hash(newOperatorHash(op.Name()))
}

func (op ExternalFileScan) Equals(other Operator) bool {
	o, ok := other.(ExternalFileScan)
	return ok && op == o
}

// ExportExternalFile writes its child's rows to an external file.
type ExportExternalFile struct {
	Spec ExternalFileSpec
}

func (ExportExternalFile) Type() OpType { return OpExportExternalFile }
func (ExportExternalFile) Name() string { return "ExportExternalFile" }

func (op ExportExternalFile) Hash() uint64 {
	return op.Spec.hash(newOperatorHash(op.Name()))
}

func (op ExportExternalFile) Equals(other Operator) bool {
	o, ok := other.(ExportExternalFile)
	return ok && op == o
}
