package expression

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/dshills/CascadeDB/internal/sql/types"
)

// ExprType tags an AbstractExpression variant.
type ExprType int

const (
	// Invalid is the zero ExprType.
	Invalid ExprType = iota

	// ColumnValue references a named column of an aliased table.
	ColumnValue
	// DerivedValue references a (tuple_idx, value_idx) slot of a child's
	// output row. Produced by the plan generator, never by the binder.
	DerivedValue
	// Constant is a literal value.
	Constant
	// Star is the unexpanded `*` projection.
	Star

	// CompareEqual through CompareGreaterEqual are binary comparisons.
	CompareEqual
	CompareNotEqual
	CompareLess
	CompareLessEqual
	CompareGreater
	CompareGreaterEqual

	// ConjunctionAnd and ConjunctionOr combine boolean children.
	ConjunctionAnd
	ConjunctionOr

	// AggregateCount through AggregateAvg are aggregate invocations.
	AggregateCount
	AggregateSum
	AggregateMin
	AggregateMax
	AggregateAvg
)

func (t ExprType) String() string {
	switch t {
	case ColumnValue:
		return "ColumnValue"
	case DerivedValue:
		return "DerivedValue"
	case Constant:
		return "Constant"
	case Star:
		return "Star"
	case CompareEqual:
		return "CompareEqual"
	case CompareNotEqual:
		return "CompareNotEqual"
	case CompareLess:
		return "CompareLess"
	case CompareLessEqual:
		return "CompareLessEqual"
	case CompareGreater:
		return "CompareGreater"
	case CompareGreaterEqual:
		return "CompareGreaterEqual"
	case ConjunctionAnd:
		return "ConjunctionAnd"
	case ConjunctionOr:
		return "ConjunctionOr"
	case AggregateCount:
		return "AggregateCount"
	case AggregateSum:
		return "AggregateSum"
	case AggregateMin:
		return "AggregateMin"
	case AggregateMax:
		return "AggregateMax"
	case AggregateAvg:
		return "AggregateAvg"
	default:
		return fmt.Sprintf("ExprType(%d)", int(t))
	}
}

// IsComparison reports whether t is a binary comparison type.
func (t ExprType) IsComparison() bool {
	return t >= CompareEqual && t <= CompareGreaterEqual
}

// IsAggregate reports whether t is an aggregate invocation type.
func (t ExprType) IsAggregate() bool {
	return t >= AggregateCount && t <= AggregateAvg
}

// AbstractExpression is an immutable scalar expression tree. Expressions
// carry an alias (projection name) and a depth used for correlated-subquery
// detection: an expression at depth d references the d-th enclosing query
// scope, outermost being 0. Depth -1 means "not derived".
type AbstractExpression struct {
	typ      ExprType
	children []*AbstractExpression
	alias    string
	depth    int

	tableAlias string // ColumnValue
	columnName string // ColumnValue
	tupleIdx   int    // DerivedValue
	valueIdx   int    // DerivedValue
	value      types.Value
}

// NewColumnValue creates a column reference at depth -1.
func NewColumnValue(tableAlias, columnName string) *AbstractExpression {
	return &AbstractExpression{
		typ:        ColumnValue,
		depth:      -1,
		tableAlias: strings.ToLower(tableAlias),
		columnName: strings.ToLower(columnName),
	}
}

// NewColumnValueAtDepth creates a column reference bound to a query scope.
func NewColumnValueAtDepth(tableAlias, columnName string, depth int) *AbstractExpression {
	e := NewColumnValue(tableAlias, columnName)
	e.depth = depth
	return e
}

// NewDerivedValue creates a (tuple_idx, value_idx) slot reference.
func NewDerivedValue(tupleIdx, valueIdx int) *AbstractExpression {
	return &AbstractExpression{typ: DerivedValue, depth: -1, tupleIdx: tupleIdx, valueIdx: valueIdx}
}

// NewConstant creates a literal.
func NewConstant(v types.Value) *AbstractExpression {
	return &AbstractExpression{typ: Constant, depth: -1, value: v}
}

// NewStar creates the `*` projection marker.
func NewStar() *AbstractExpression {
	return &AbstractExpression{typ: Star, depth: -1}
}

// NewComparison creates a binary comparison.
func NewComparison(typ ExprType, left, right *AbstractExpression) *AbstractExpression {
	if !typ.IsComparison() {
		panic(fmt.Sprintf("expression type %v is not a comparison", typ))
	}
	return &AbstractExpression{typ: typ, depth: -1, children: []*AbstractExpression{left, right}}
}

// NewConjunction creates an AND/OR over two or more children.
func NewConjunction(typ ExprType, children ...*AbstractExpression) *AbstractExpression {
	if typ != ConjunctionAnd && typ != ConjunctionOr {
		panic(fmt.Sprintf("expression type %v is not a conjunction", typ))
	}
	return &AbstractExpression{typ: typ, depth: -1, children: children}
}

// NewAggregate creates an aggregate invocation over its argument.
func NewAggregate(typ ExprType, arg *AbstractExpression) *AbstractExpression {
	if !typ.IsAggregate() {
		panic(fmt.Sprintf("expression type %v is not an aggregate", typ))
	}
	var children []*AbstractExpression
	if arg != nil {
		children = []*AbstractExpression{arg}
	}
	return &AbstractExpression{typ: typ, depth: -1, children: children}
}

// Type returns the variant tag.
func (e *AbstractExpression) Type() ExprType { return e.typ }

// Children returns the child expressions. Callers must not mutate.
func (e *AbstractExpression) Children() []*AbstractExpression { return e.children }

// Child returns the i-th child.
func (e *AbstractExpression) Child(i int) *AbstractExpression { return e.children[i] }

// ChildCount returns the number of children.
func (e *AbstractExpression) ChildCount() int { return len(e.children) }

// Alias returns the projection alias, or "".
func (e *AbstractExpression) Alias() string { return e.alias }

// Depth returns the query-scope depth, -1 if unset.
func (e *AbstractExpression) Depth() int { return e.depth }

// TableAlias returns the referenced table alias of a ColumnValue.
func (e *AbstractExpression) TableAlias() string { return e.tableAlias }

// ColumnName returns the referenced column name of a ColumnValue.
func (e *AbstractExpression) ColumnName() string { return e.columnName }

// TupleIdx returns the tuple index of a DerivedValue.
func (e *AbstractExpression) TupleIdx() int { return e.tupleIdx }

// ValueIdx returns the value index of a DerivedValue.
func (e *AbstractExpression) ValueIdx() int { return e.valueIdx }

// Value returns the literal of a Constant.
func (e *AbstractExpression) Value() types.Value { return e.value }

// WithAlias returns a copy carrying the given projection alias.
func (e *AbstractExpression) WithAlias(alias string) *AbstractExpression {
	out := *e
	out.alias = alias
	return &out
}

// WithDepth returns a copy at the given query-scope depth.
func (e *AbstractExpression) WithDepth(depth int) *AbstractExpression {
	out := *e
	out.depth = depth
	return &out
}

// CopyWithChildren returns a copy of this node over replacement children.
func (e *AbstractExpression) CopyWithChildren(children []*AbstractExpression) *AbstractExpression {
	out := *e
	out.children = children
	return &out
}

// Hash returns a stable structural hash.
func (e *AbstractExpression) Hash() uint64 {
	h := fnv.New64a()
	e.hashInto(h)
	return h.Sum64()
}

func (e *AbstractExpression) hashInto(h interface{ Write([]byte) (int, error) }) {
	fmt.Fprintf(h, "%d|", int(e.typ))
	switch e.typ {
	case ColumnValue:
		fmt.Fprintf(h, "%s.%s|", e.tableAlias, e.columnName)
	case DerivedValue:
		fmt.Fprintf(h, "%d.%d|", e.tupleIdx, e.valueIdx)
	case Constant:
		fmt.Fprintf(h, "%s:%s|", e.value.Type(), e.value.String())
	}
	for _, c := range e.children {
		c.hashInto(h)
	}
}

// Equals reports structural equality. Alias and depth do not participate:
// two references to the same column are the same expression regardless of
// the scope they were written in.
func (e *AbstractExpression) Equals(other *AbstractExpression) bool {
	if e == other {
		return true
	}
	if e == nil || other == nil {
		return false
	}
	if e.typ != other.typ || len(e.children) != len(other.children) {
		return false
	}
	switch e.typ {
	case ColumnValue:
		if e.tableAlias != other.tableAlias || e.columnName != other.columnName {
			return false
		}
	case DerivedValue:
		if e.tupleIdx != other.tupleIdx || e.valueIdx != other.valueIdx {
			return false
		}
	case Constant:
		if !e.value.Equal(other.value) {
			return false
		}
	}
	for i, c := range e.children {
		if !c.Equals(other.children[i]) {
			return false
		}
	}
	return true
}

func (e *AbstractExpression) String() string {
	switch e.typ {
	case ColumnValue:
		if e.tableAlias == "" {
			return e.columnName
		}
		return e.tableAlias + "." + e.columnName
	case DerivedValue:
		return fmt.Sprintf("tuple(%d,%d)", e.tupleIdx, e.valueIdx)
	case Constant:
		return e.value.String()
	case Star:
		return "*"
	default:
		parts := make([]string, len(e.children))
		for i, c := range e.children {
			parts[i] = c.String()
		}
		return fmt.Sprintf("%s(%s)", e.typ, strings.Join(parts, ", "))
	}
}
