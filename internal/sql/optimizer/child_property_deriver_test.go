package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/CascadeDB/internal/catalog"
	"github.com/dshills/CascadeDB/internal/sql/expression"
	"github.com/dshills/CascadeDB/internal/sql/types"
)

func physicalInGroup(t *testing.T, ctx *OptimizationContext, node *OperatorNode, target GroupID) *GroupExpression {
	t.Helper()
	gexpr, _ := ctx.Memo.InsertToGroup(node, target)
	return gexpr
}

func TestSeqScanProvidesNothing(t *testing.T) {
	ctx := newTestContext(t)
	base := ctx.Memo.Insert(testGet("t"))
	scan := physicalInGroup(t, ctx,
		NewOperatorNode(SeqScan{Database: 1, Namespace: 1, Table: 100, TableAlias: "t"}), base.Group())

	required := NewPropertySet(sortOn([]string{"a"}, []bool{true}))
	entries := ChildPropertyDeriver{}.GetProperties(scan, required, ctx.Memo, ctx.Accessor)

	require.Len(t, entries, 1)
	assert.True(t, entries[0].Provided.IsEmpty())
	assert.Empty(t, entries[0].ChildRequired)
}

func TestIndexScanProvidesMatchingSort(t *testing.T) {
	ctx := newTestContext(t)
	acc := ctx.Accessor.(*catalog.MemoryAccessor)
	tbl, err := acc.CreateTable("t", []catalog.ColumnDef{
		{Name: "a", DataType: types.Integer},
		{Name: "b", DataType: types.Integer},
	})
	require.NoError(t, err)
	idx, err := acc.CreateIndex(tbl, "t_a_idx", false, []catalog.IndexKeyColumn{
		{ColumnName: "a", Order: catalog.Ascending},
	})
	require.NoError(t, err)

	base := ctx.Memo.Insert(NewOperatorNode(LogicalGet{Database: 1, Namespace: 1, Table: tbl, TableAlias: "t"}))
	scan := physicalInGroup(t, ctx,
		NewOperatorNode(IndexScan{Database: 1, Namespace: 1, Table: tbl, Index: idx, TableAlias: "t"}),
		base.Group())

	matching := NewPropertySet(sortOn([]string{"a"}, []bool{true}))
	entries := ChildPropertyDeriver{}.GetProperties(scan, matching, ctx.Memo, ctx.Accessor)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Provided.Fulfills(matching))

	// Wrong direction: no index help, empty provided set.
	descending := NewPropertySet(sortOn([]string{"a"}, []bool{false}))
	entries = ChildPropertyDeriver{}.GetProperties(scan, descending, ctx.Memo, ctx.Accessor)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Provided.IsEmpty())

	// Column not in the index: same.
	other := NewPropertySet(sortOn([]string{"b"}, []bool{true}))
	entries = ChildPropertyDeriver{}.GetProperties(scan, other, ctx.Memo, ctx.Accessor)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Provided.IsEmpty())
}

func TestQueryDerivedScanForwardsRequirement(t *testing.T) {
	ctx := newTestContext(t)
	child := ctx.Memo.Insert(testGet("inner"))
	derived := physicalInGroup(t, ctx, NewOperatorNode(
		QueryDerivedScan{TableAlias: "d"},
		NewOperatorNode(LeafOperator{OriginGroup: child.Group()}),
	), UndefinedGroup)

	required := NewPropertySet(sortOn([]string{"a"}, []bool{true}))
	entries := ChildPropertyDeriver{}.GetProperties(derived, required, ctx.Memo, ctx.Accessor)

	require.Len(t, entries, 1)
	assert.True(t, entries[0].Provided.Equals(required))
	require.Len(t, entries[0].ChildRequired, 1)
	assert.True(t, entries[0].ChildRequired[0].Equals(required))
}

func TestAggregationErasesOrder(t *testing.T) {
	ctx := newTestContext(t)
	child := ctx.Memo.Insert(testGet("t"))

	for _, op := range []Operator{
		HashGroupBy{Columns: []*expression.AbstractExpression{expression.NewColumnValue("t", "g")}},
		Aggregate{},
	} {
		gexpr := physicalInGroup(t, ctx, NewOperatorNode(op,
			NewOperatorNode(LeafOperator{OriginGroup: child.Group()})), UndefinedGroup)

		required := NewPropertySet(sortOn([]string{"g"}, []bool{true}))
		entries := ChildPropertyDeriver{}.GetProperties(gexpr, required, ctx.Memo, ctx.Accessor)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Provided.IsEmpty())
		require.Len(t, entries[0].ChildRequired, 1)
		assert.True(t, entries[0].ChildRequired[0].IsEmpty())
	}
}

func TestSortGroupByRequiresGroupColumnSort(t *testing.T) {
	ctx := newTestContext(t)
	child := ctx.Memo.Insert(testGet("t"))
	groupCols := []*expression.AbstractExpression{
		expression.NewColumnValue("t", "g1"),
		expression.NewColumnValue("t", "g2"),
	}
	gexpr := physicalInGroup(t, ctx, NewOperatorNode(SortGroupBy{Columns: groupCols},
		NewOperatorNode(LeafOperator{OriginGroup: child.Group()})), UndefinedGroup)

	entries := ChildPropertyDeriver{}.GetProperties(gexpr, NewPropertySet(), ctx.Memo, ctx.Accessor)
	require.Len(t, entries, 1)

	provided := entries[0].Provided.SortProperty()
	require.NotNil(t, provided)
	require.Len(t, provided.Columns, 2)
	assert.True(t, provided.Ascending[0])
	assert.True(t, provided.Ascending[1])

	require.Len(t, entries[0].ChildRequired, 1)
	childSort := entries[0].ChildRequired[0].SortProperty()
	require.NotNil(t, childSort)
	assert.True(t, childSort.Columns[0].Equals(groupCols[0]))
}

func TestLimitMaterializesOwnSort(t *testing.T) {
	ctx := newTestContext(t)
	child := ctx.Memo.Insert(testGet("t"))

	sorted := physicalInGroup(t, ctx, NewOperatorNode(
		Limit{Limit: 1, Offset: 2,
			SortExprs:     []*expression.AbstractExpression{expression.NewColumnValue("t", "a")},
			SortAscending: []bool{false}},
		NewOperatorNode(LeafOperator{OriginGroup: child.Group()})), UndefinedGroup)

	required := NewPropertySet(sortOn([]string{"a"}, []bool{false}))
	entries := ChildPropertyDeriver{}.GetProperties(sorted, required, ctx.Memo, ctx.Accessor)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Provided.Fulfills(required), "limit provides its own sort")
	require.Len(t, entries[0].ChildRequired, 1)
	assert.True(t, entries[0].ChildRequired[0].IsEmpty(), "child owes nothing")

	plain := physicalInGroup(t, ctx, NewOperatorNode(
		Limit{Limit: 1, Offset: 2},
		NewOperatorNode(LeafOperator{OriginGroup: child.Group()})), UndefinedGroup)
	entries = ChildPropertyDeriver{}.GetProperties(plain, NewPropertySet(), ctx.Memo, ctx.Accessor)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Provided.IsEmpty())
}

func TestPassthroughOperators(t *testing.T) {
	ctx := newTestContext(t)
	child := ctx.Memo.Insert(testGet("t"))
	leaf := func() *OperatorNode { return NewOperatorNode(LeafOperator{OriginGroup: child.Group()}) }

	required := NewPropertySet(sortOn([]string{"a"}, []bool{true}))
	for _, op := range []Operator{
		Distinct{},
		Update{Database: 1, Table: 100},
		Delete{Database: 1, Table: 100},
		InsertSelect{Database: 1, Table: 100},
		ExportExternalFile{},
	} {
		gexpr := physicalInGroup(t, ctx, NewOperatorNode(op, leaf()), UndefinedGroup)
		entries := ChildPropertyDeriver{}.GetProperties(gexpr, required, ctx.Memo, ctx.Accessor)
		require.Len(t, entries, 1, op.Name())
		assert.True(t, entries[0].Provided.Equals(required), op.Name())
		require.Len(t, entries[0].ChildRequired, 1, op.Name())
		assert.True(t, entries[0].ChildRequired[0].Equals(required), op.Name())
	}
}

func TestInsertProvidesRequirementWithoutChildren(t *testing.T) {
	ctx := newTestContext(t)
	gexpr := physicalInGroup(t, ctx,
		NewOperatorNode(Insert{Database: 1, Table: 100}), UndefinedGroup)

	required := NewPropertySet(sortOn([]string{"a"}, []bool{true}))
	entries := ChildPropertyDeriver{}.GetProperties(gexpr, required, ctx.Memo, ctx.Accessor)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Provided.Equals(required))
	assert.Empty(t, entries[0].ChildRequired)
}

func TestJoinPushesProbeSideSort(t *testing.T) {
	ctx := newTestContext(t)
	join := ctx.Memo.Insert(testJoinTree("l", "r"))
	nl := physicalInGroup(t, ctx, NewOperatorNode(
		InnerNLJoin{PhysicalJoin{JoinType: InnerJoinType}},
		NewOperatorNode(LeafOperator{OriginGroup: join.ChildGroup(0)}),
		NewOperatorNode(LeafOperator{OriginGroup: join.ChildGroup(1)}),
	), join.Group())

	// Sort columns all on the probe (right) side: base entry plus a
	// push-down entry.
	probeSort := NewPropertySet(NewSortProperty(
		[]*expression.AbstractExpression{expression.NewColumnValue("r", "b")}, []bool{true}))
	entries := ChildPropertyDeriver{}.GetProperties(nl, probeSort, ctx.Memo, ctx.Accessor)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Provided.IsEmpty())
	assert.True(t, entries[1].Provided.Equals(probeSort))
	assert.True(t, entries[1].ChildRequired[0].IsEmpty())
	assert.True(t, entries[1].ChildRequired[1].Equals(probeSort))

	// Sort touching the build side cannot be pushed.
	buildSort := NewPropertySet(NewSortProperty(
		[]*expression.AbstractExpression{expression.NewColumnValue("l", "a")}, []bool{true}))
	entries = ChildPropertyDeriver{}.GetProperties(nl, buildSort, ctx.Memo, ctx.Accessor)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Provided.IsEmpty())
	require.Len(t, entries[0].ChildRequired, 2)
}

func TestOuterJoinPlaceholder(t *testing.T) {
	ctx := newTestContext(t)
	join := ctx.Memo.Insert(testJoinTree("l", "r"))
	left := physicalInGroup(t, ctx, NewOperatorNode(
		LeftNLJoin{PhysicalJoin{JoinType: LeftJoinType}},
		NewOperatorNode(LeafOperator{OriginGroup: join.ChildGroup(0)}),
		NewOperatorNode(LeafOperator{OriginGroup: join.ChildGroup(1)}),
	), join.Group())

	entries := ChildPropertyDeriver{}.GetProperties(left,
		NewPropertySet(sortOn([]string{"a"}, []bool{true})), ctx.Memo, ctx.Accessor)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Provided.IsEmpty())
	require.Len(t, entries[0].ChildRequired, 2)
}
