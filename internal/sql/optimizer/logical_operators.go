package optimizer

import (
	"sort"

	"github.com/dshills/CascadeDB/internal/catalog"
	"github.com/dshills/CascadeDB/internal/sql/expression"
	"github.com/dshills/CascadeDB/internal/sql/types"
)

// LogicalGet reads a base table, optionally with embedded scan predicates.
type LogicalGet struct {
	Database    catalog.DBOID
	Namespace   catalog.NamespaceOID
	Table       catalog.TableOID
	Predicates  []AnnotatedExpression
	TableAlias  string
	IsForUpdate bool
}

func (LogicalGet) Type() OpType { return OpLogicalGet }
func (LogicalGet) Name() string { return "LogicalGet" }

func (op LogicalGet) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, uint64(op.Database))
	h = hashCombine(h, uint64(op.Namespace))
	h = hashCombine(h, uint64(op.Table))
	h = hashAnnotated(h, op.Predicates)
	h = hashString(h, op.TableAlias)
	return hashBool(h, op.IsForUpdate)
}

func (op LogicalGet) Equals(other Operator) bool {
	o, ok := other.(LogicalGet)
	return ok && op.Database == o.Database && op.Namespace == o.Namespace && op.Table == o.Table &&
		op.TableAlias == o.TableAlias && op.IsForUpdate == o.IsForUpdate &&
		annotatedEqual(op.Predicates, o.Predicates)
}

// LogicalQueryDerivedGet reads the output of a derived subquery under an
// alias. AliasToExpr maps each visible output name to the underlying
// expression producing it.
type LogicalQueryDerivedGet struct {
	TableAlias  string
	AliasToExpr map[string]*expression.AbstractExpression
}

func (LogicalQueryDerivedGet) Type() OpType { return OpLogicalQueryDerivedGet }
func (LogicalQueryDerivedGet) Name() string { return "LogicalQueryDerivedGet" }

func (op LogicalQueryDerivedGet) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashString(h, op.TableAlias)
	h = hashCombine(h, uint64(len(op.AliasToExpr)))
	for _, name := range sortedAliasKeys(op.AliasToExpr) {
		h = hashString(h, name)
		h = hashCombine(h, op.AliasToExpr[name].Hash())
	}
	return h
}

func (op LogicalQueryDerivedGet) Equals(other Operator) bool {
	o, ok := other.(LogicalQueryDerivedGet)
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

// LogicalFilter applies a conjunction of predicates.
type LogicalFilter struct {
	Predicates []AnnotatedExpression
}

func (LogicalFilter) Type() OpType { return OpLogicalFilter }
func (LogicalFilter) Name() string { return "LogicalFilter" }

func (op LogicalFilter) Hash() uint64 {
	return hashAnnotated(newOperatorHash(op.Name()), op.Predicates)
}

func (op LogicalFilter) Equals(other Operator) bool {
	o, ok := other.(LogicalFilter)
	return ok && annotatedEqual(op.Predicates, o.Predicates)
}

// LogicalJoin joins two inputs under a join type. Mark joins carry no
// predicates until decorrelation installs them.
type LogicalJoin struct {
	JoinType   JoinType
	Predicates []AnnotatedExpression
}

func (LogicalJoin) Type() OpType { return OpLogicalJoin }
func (LogicalJoin) Name() string { return "LogicalJoin" }

func (op LogicalJoin) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, uint64(op.JoinType))
	return hashAnnotated(h, op.Predicates)
}

func (op LogicalJoin) Equals(other Operator) bool {
	o, ok := other.(LogicalJoin)
	return ok && op.JoinType == o.JoinType && annotatedEqual(op.Predicates, o.Predicates)
}

// LogicalAggregateAndGroupBy groups its input by Columns and filters groups
// with Having.
type LogicalAggregateAndGroupBy struct {
	Columns []*expression.AbstractExpression
	Having  []AnnotatedExpression
}

func (LogicalAggregateAndGroupBy) Type() OpType { return OpLogicalAggregateAndGroupBy }
func (LogicalAggregateAndGroupBy) Name() string { return "LogicalAggregateAndGroupBy" }

func (op LogicalAggregateAndGroupBy) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashExprs(h, op.Columns)
	return hashAnnotated(h, op.Having)
}

func (op LogicalAggregateAndGroupBy) Equals(other Operator) bool {
	o, ok := other.(LogicalAggregateAndGroupBy)
	return ok && exprsEqual(op.Columns, o.Columns) && annotatedEqual(op.Having, o.Having)
}

// LogicalLimit truncates its input. When the query carries ORDER BY ...
// LIMIT, the binder fuses the sort keys into the limit.
type LogicalLimit struct {
	Limit         uint64
	Offset        uint64
	SortExprs     []*expression.AbstractExpression
	SortAscending []bool
}

func (LogicalLimit) Type() OpType { return OpLogicalLimit }
func (LogicalLimit) Name() string { return "LogicalLimit" }

func (op LogicalLimit) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, op.Limit)
	h = hashCombine(h, op.Offset)
	h = hashExprs(h, op.SortExprs)
	return hashBools(h, op.SortAscending)
}

func (op LogicalLimit) Equals(other Operator) bool {
	o, ok := other.(LogicalLimit)
	return ok && op.Limit == o.Limit && op.Offset == o.Offset &&
		exprsEqual(op.SortExprs, o.SortExprs) && boolsEqual(op.SortAscending, o.SortAscending)
}

// LogicalInsert inserts literal rows into a table.
type LogicalInsert struct {
	Database catalog.DBOID
	Table    catalog.TableOID
	Columns  []catalog.ColumnOID
	Values   [][]types.Value
}

func (LogicalInsert) Type() OpType { return OpLogicalInsert }
func (LogicalInsert) Name() string { return "LogicalInsert" }

func (op LogicalInsert) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, uint64(op.Database))
	h = hashCombine(h, uint64(op.Table))
	h = hashCombine(h, uint64(len(op.Columns)))
	for _, c := range op.Columns {
		h = hashCombine(h, uint64(c))
	}
	h = hashCombine(h, uint64(len(op.Values)))
	for _, row := range op.Values {
		for _, v := range row {
			h = hashString(h, v.String())
		}
	}
	return h
}

func (op LogicalInsert) Equals(other Operator) bool {
	o, ok := other.(LogicalInsert)
	if !ok || op.Database != o.Database || op.Table != o.Table ||
		len(op.Columns) != len(o.Columns) || len(op.Values) != len(o.Values) {
		return false
	}
	for i := range op.Columns {
		if op.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range op.Values {
		if len(op.Values[i]) != len(o.Values[i]) {
			return false
		}
		for j := range op.Values[i] {
			if !op.Values[i][j].Equal(o.Values[i][j]) {
				return false
			}
		}
	}
	return true
}

// LogicalInsertSelect inserts the output of a child plan into a table.
type LogicalInsertSelect struct {
	Database catalog.DBOID
	Table    catalog.TableOID
}

func (LogicalInsertSelect) Type() OpType { return OpLogicalInsertSelect }
func (LogicalInsertSelect) Name() string { return "LogicalInsertSelect" }

func (op LogicalInsertSelect) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, uint64(op.Database))
	return hashCombine(h, uint64(op.Table))
}

func (op LogicalInsertSelect) Equals(other Operator) bool {
	o, ok := other.(LogicalInsertSelect)
	return ok && op == o
}

// LogicalUpdate applies set clauses to the rows its child produces.
type LogicalUpdate struct {
	Database   catalog.DBOID
	Table      catalog.TableOID
	SetColumns []catalog.ColumnOID
	SetExprs   []*expression.AbstractExpression
}

func (LogicalUpdate) Type() OpType { return OpLogicalUpdate }
func (LogicalUpdate) Name() string { return "LogicalUpdate" }

func (op LogicalUpdate) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, uint64(op.Database))
	h = hashCombine(h, uint64(op.Table))
	h = hashCombine(h, uint64(len(op.SetColumns)))
	for _, c := range op.SetColumns {
		h = hashCombine(h, uint64(c))
	}
	return hashExprs(h, op.SetExprs)
}

func (op LogicalUpdate) Equals(other Operator) bool {
	o, ok := other.(LogicalUpdate)
	if !ok || op.Database != o.Database || op.Table != o.Table || len(op.SetColumns) != len(o.SetColumns) {
		return false
	}
	for i := range op.SetColumns {
		if op.SetColumns[i] != o.SetColumns[i] {
			return false
		}
	}
	return exprsEqual(op.SetExprs, o.SetExprs)
}

// LogicalDelete deletes the rows its child produces.
type LogicalDelete struct {
	Database catalog.DBOID
	Table    catalog.TableOID
}

func (LogicalDelete) Type() OpType { return OpLogicalDelete }
func (LogicalDelete) Name() string { return "LogicalDelete" }

func (op LogicalDelete) Hash() uint64 {
	h := newOperatorHash(op.Name())
	h = hashCombine(h, uint64(op.Database))
	return hashCombine(h, uint64(op.Table))
}

func (op LogicalDelete) Equals(other Operator) bool {
	o, ok := other.(LogicalDelete)
	return ok && op == o
}

// ExternalFileSpec is the shared payload of the external file operators.
type ExternalFileSpec struct {
	Format    int
	FileName  string
	Delimiter byte
	Quote     byte
	Escape    byte
}

func (s ExternalFileSpec) hash(h uint64) uint64 {
	h = hashCombine(h, uint64(s.Format))
	h = hashString(h, s.FileName)
	h = hashCombine(h, uint64(s.Delimiter))
	h = hashCombine(h, uint64(s.Quote))
	return hashCombine(h, uint64(s.Escape))
}

// LogicalExternalFileScan reads rows from an external file.
type LogicalExternalFileScan struct {
	Spec ExternalFileSpec
}

func (LogicalExternalFileScan) Type() OpType { return OpLogicalExternalFileScan }
func (LogicalExternalFileScan) Name() string { return "LogicalExternalFileScan" }

func (op LogicalExternalFileScan) Hash() uint64 {
	return op.Spec.hash(newOperatorHash(op.Name()))
}

func (op LogicalExternalFileScan) Equals(other Operator) bool {
	o, ok := other.(LogicalExternalFileScan)
	return ok && op == o
}

// LogicalExportExternalFile writes its child's rows to an external file.
type LogicalExportExternalFile struct {
	Spec ExternalFileSpec
}

func (LogicalExportExternalFile) Type() OpType { return OpLogicalExportExternalFile }
func (LogicalExportExternalFile) Name() string { return "LogicalExportExternalFile" }

func (op LogicalExportExternalFile) Hash() uint64 {
	return op.Spec.hash(newOperatorHash(op.Name()))
}

func (op LogicalExportExternalFile) Equals(other Operator) bool {
	o, ok := other.(LogicalExportExternalFile)
	return ok && op == o
}

func sortedAliasKeys(m map[string]*expression.AbstractExpression) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
