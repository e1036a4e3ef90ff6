package optimizer

import (
	"github.com/dshills/CascadeDB/internal/catalog"
	"github.com/dshills/CascadeDB/internal/sql/expression"
)

// PropertyEntry is one candidate property assignment for a physical
// expression: the output properties it would provide and the properties each
// child input must then deliver.
type PropertyEntry struct {
	Provided      *PropertySet
	ChildRequired []*PropertySet
}

// ChildPropertyDeriver computes, per physical operator, the candidate
// (provided, per-child-required) entries under a required output property
// set. Deterministic; tie-breaking among entries is the cost comparator's
// job.
type ChildPropertyDeriver struct{}

// GetProperties derives the candidate entries for gexpr under requirements.
func (d ChildPropertyDeriver) GetProperties(gexpr *GroupExpression, requirements *PropertySet,
	memo *Memo, accessor catalog.Accessor) []PropertyEntry {
	switch op := gexpr.Op.(type) {
	case SeqScan, ExternalFileScan, TableFreeScan:
		// Scans provide no property.
		return []PropertyEntry{{Provided: NewPropertySet()}}

	case IndexScan:
		return d.deriveForIndexScan(op, requirements, accessor)

	case QueryDerivedScan:
		// Output requirements are forwarded to the single child unchanged.
		return []PropertyEntry{{
			Provided:      requirements.Copy(),
			ChildRequired: []*PropertySet{requirements.Copy()},
		}}

	case HashGroupBy, Aggregate:
		// Aggregation erases order.
		return []PropertyEntry{{
			Provided:      NewPropertySet(),
			ChildRequired: []*PropertySet{NewPropertySet()},
		}}

	case SortGroupBy:
		// Child must provide the group-column sort; the operator preserves
		// it.
		ascending := make([]bool, len(op.Columns))
		for i := range ascending {
			ascending[i] = true
		}
		sort := NewSortProperty(op.Columns, ascending)
		return []PropertyEntry{{
			Provided:      NewPropertySet(sort),
			ChildRequired: []*PropertySet{NewPropertySet(sort)},
		}}

	case Limit:
		// Limit materializes its own sort order, if any.
		provided := NewPropertySet()
		if len(op.SortExprs) > 0 {
			provided.Add(NewSortProperty(op.SortExprs, op.SortAscending))
		}
		return []PropertyEntry{{
			Provided:      provided,
			ChildRequired: []*PropertySet{NewPropertySet()},
		}}

	case Distinct, Update, Delete, InsertSelect, ExportExternalFile:
		// Let the child fulfill the entire requirement.
		return []PropertyEntry{{
			Provided:      requirements.Copy(),
			ChildRequired: []*PropertySet{requirements.Copy()},
		}}

	case Insert:
		// Literal rows have no children to require anything of.
		return []PropertyEntry{{Provided: requirements.Copy()}}

	case InnerNLJoin, InnerHashJoin:
		return d.deriveForJoin(gexpr, requirements, memo)

	case LeftNLJoin, RightNLJoin, OuterNLJoin, LeftHashJoin, RightHashJoin, OuterHashJoin:
		// Outer variants await their cost-model contract; the placeholder
		// provides nothing.
		return []PropertyEntry{{
			Provided:      NewPropertySet(),
			ChildRequired: []*PropertySet{NewPropertySet(), NewPropertySet()},
		}}

	default:
		return []PropertyEntry{{
			Provided:      NewPropertySet(),
			ChildRequired: emptyChildSets(gexpr.ChildCount()),
		}}
	}
}

// deriveForIndexScan provides the requirement when the scanned index can
// deliver a required sort, the empty set otherwise.
func (d ChildPropertyDeriver) deriveForIndexScan(op IndexScan, requirements *PropertySet,
	accessor catalog.Accessor) []PropertyEntry {
	var out []PropertyEntry
	for _, prop := range requirements.Properties() {
		sort, ok := prop.(*SortProperty)
		if !ok || !checkSortProperty(sort) {
			continue
		}
		index, err := accessor.GetIndexSchema(op.Index)
		if err != nil {
			continue
		}
		if indexSatisfiesSort(index, sort, op.TableAlias) {
			out = append(out, PropertyEntry{Provided: requirements.Copy()})
			break
		}
	}
	if len(out) == 0 {
		out = append(out, PropertyEntry{Provided: NewPropertySet()})
	}
	return out
}

// deriveForJoin always yields the no-property entry, plus a sort push-down
// entry into the probe (right) side for each required sort whose columns all
// come from probe aliases.
func (d ChildPropertyDeriver) deriveForJoin(gexpr *GroupExpression, requirements *PropertySet,
	memo *Memo) []PropertyEntry {
	out := []PropertyEntry{{
		Provided:      NewPropertySet(),
		ChildRequired: []*PropertySet{NewPropertySet(), NewPropertySet()},
	}}

	probeAliases := memo.GetGroup(gexpr.ChildGroup(1)).TableAliases()
	for _, prop := range requirements.Properties() {
		sort, ok := prop.(*SortProperty)
		if !ok {
			continue
		}
		canPassDown := true
		for _, col := range sort.Columns {
			for _, ref := range expression.ColumnValuesOf(col) {
				if !probeAliases.Contains(ref.TableAlias()) {
					canPassDown = false
					break
				}
			}
			if !canPassDown {
				break
			}
		}
		if canPassDown {
			out = append(out, PropertyEntry{
				Provided:      requirements.Copy(),
				ChildRequired: []*PropertySet{NewPropertySet(), requirements.Copy()},
			})
		}
	}
	return out
}

func emptyChildSets(n int) []*PropertySet {
	out := make([]*PropertySet, n)
	for i := range out {
		out[i] = NewPropertySet()
	}
	return out
}
