package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/CascadeDB/internal/sql/types"
)

func TestStructuralEquality(t *testing.T) {
	a := NewComparison(CompareEqual,
		NewColumnValue("o", "o_id"),
		NewConstant(types.NewValue(int64(5))))
	b := NewComparison(CompareEqual,
		NewColumnValue("O", "O_ID"),
		NewConstant(types.NewValue(int64(5))))
	c := NewComparison(CompareEqual,
		NewColumnValue("o", "o_id"),
		NewConstant(types.NewValue(int64(6))))

	assert.True(t, a.Equals(b), "identifiers normalize to lower case")
	assert.False(t, a.Equals(c))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestEqualityIgnoresAliasAndDepth(t *testing.T) {
	a := NewColumnValue("o", "o_id")
	b := a.WithAlias("order_id").WithDepth(1)

	assert.True(t, a.Equals(b))
	assert.Equal(t, "order_id", b.Alias())
	assert.Equal(t, 1, b.Depth())
	assert.Equal(t, -1, a.Depth())
}

func TestCopyWithChildren(t *testing.T) {
	cmp := NewComparison(CompareLess,
		NewColumnValue("t", "a"),
		NewConstant(types.NewValue(int64(1))))

	swapped := cmp.CopyWithChildren([]*AbstractExpression{cmp.Child(1), cmp.Child(0)})
	assert.Equal(t, CompareLess, swapped.Type())
	assert.Equal(t, Constant, swapped.Child(0).Type())
	assert.False(t, cmp.Equals(swapped))
	// The original is untouched.
	assert.Equal(t, ColumnValue, cmp.Child(0).Type())
}

func TestCollectColumnValues(t *testing.T) {
	pred := NewConjunction(ConjunctionAnd,
		NewComparison(CompareEqual, NewColumnValue("a", "x"), NewColumnValue("b", "y")),
		NewComparison(CompareGreater, NewColumnValue("a", "z"), NewConstant(types.NewValue(int64(0)))),
	)

	refs := ColumnValuesOf(pred)
	require.Len(t, refs, 3)

	aliases := ReferencedAliases(pred)
	assert.Len(t, aliases, 2)
	assert.Contains(t, aliases, "a")
	assert.Contains(t, aliases, "b")
}

func TestAggregateDetection(t *testing.T) {
	sum := NewAggregate(AggregateSum, NewColumnValue("t", "amount"))
	pred := NewComparison(CompareGreater, sum, NewConstant(types.NewValue(int64(100))))

	assert.True(t, ContainsAggregate(pred))
	assert.False(t, ContainsAggregate(pred.Child(1)))

	var aggs []*AbstractExpression
	CollectAggregates(pred, &aggs)
	require.Len(t, aggs, 1)
	assert.Equal(t, AggregateSum, aggs[0].Type())

	// Aggregate arguments still surface through column collection.
	refs := ColumnValuesOf(sum)
	require.Len(t, refs, 1)
	assert.Equal(t, "amount", refs[0].ColumnName())
}

func TestDeriveDepth(t *testing.T) {
	outer := NewColumnValueAtDepth("o", "o_id", 0)
	inner := NewColumnValueAtDepth("i", "i_id", 1)
	cmp := NewComparison(CompareEqual, outer, inner)

	assert.Equal(t, 0, DeriveDepth(cmp))
	assert.Equal(t, -1, DeriveDepth(NewConstant(types.NewValue(int64(1)))))
}

func TestExprSetDeduplicates(t *testing.T) {
	s := NewExprSet()
	a := NewColumnValue("t", "a")

	assert.True(t, s.Add(a))
	assert.False(t, s.Add(NewColumnValue("t", "a")))
	assert.True(t, s.Add(NewColumnValue("t", "b")))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(a))

	cp := s.Copy()
	cp.Add(NewColumnValue("t", "c"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, cp.Len())
}

func TestDerivedValueString(t *testing.T) {
	dv := NewDerivedValue(0, 5)
	assert.Equal(t, 0, dv.TupleIdx())
	assert.Equal(t, 5, dv.ValueIdx())
	assert.Equal(t, "tuple(0,5)", dv.String())
}
