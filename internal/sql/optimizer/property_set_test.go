package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/CascadeDB/internal/sql/expression"
)

func sortOn(cols []string, asc []bool) *SortProperty {
	exprs := make([]*expression.AbstractExpression, len(cols))
	for i, c := range cols {
		exprs[i] = expression.NewColumnValue("t", c)
	}
	return NewSortProperty(exprs, asc)
}

func TestSortFulfillmentIsPrefixWithDirection(t *testing.T) {
	abAsc := sortOn([]string{"a", "b"}, []bool{true, true})
	aAsc := sortOn([]string{"a"}, []bool{true})
	aDesc := sortOn([]string{"a"}, []bool{false})
	bAsc := sortOn([]string{"b"}, []bool{true})

	assert.True(t, abAsc.Fulfills(aAsc), "longer sort fulfills its prefix")
	assert.False(t, aAsc.Fulfills(abAsc), "prefix does not fulfill the longer sort")
	assert.False(t, abAsc.Fulfills(aDesc), "direction participates")
	assert.False(t, abAsc.Fulfills(bAsc), "order of columns participates")
	assert.True(t, aAsc.Fulfills(aAsc))
}

func TestPropertySetFulfills(t *testing.T) {
	empty := NewPropertySet()
	sorted := NewPropertySet(sortOn([]string{"a"}, []bool{true}))

	assert.True(t, empty.Fulfills(empty))
	assert.True(t, sorted.Fulfills(empty), "anything fulfills the empty requirement")
	assert.False(t, empty.Fulfills(sorted))
	assert.True(t, sorted.Fulfills(sorted))
}

func TestPropertySetEqualityAndHash(t *testing.T) {
	a := NewPropertySet(sortOn([]string{"a", "b"}, []bool{true, false}))
	b := NewPropertySet(sortOn([]string{"a", "b"}, []bool{true, false}))
	c := NewPropertySet(sortOn([]string{"a", "b"}, []bool{true, true}))

	assert.True(t, a.Equals(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equals(c))
	assert.True(t, NewPropertySet().Equals(NewPropertySet()))
}

func TestPropertySetCopyIsIndependent(t *testing.T) {
	a := NewPropertySet(sortOn([]string{"a"}, []bool{true}))
	b := a.Copy()
	b.Add(sortOn([]string{"b"}, []bool{true}))

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 2, b.Len())
}

func TestPropertySetSortAccessor(t *testing.T) {
	s := NewPropertySet()
	assert.Nil(t, s.SortProperty())

	sp := sortOn([]string{"a"}, []bool{false})
	s.Add(sp)
	assert.Same(t, sp, s.SortProperty())
}
