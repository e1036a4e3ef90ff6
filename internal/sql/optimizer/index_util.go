package optimizer

import (
	"github.com/dshills/CascadeDB/internal/catalog"
	"github.com/dshills/CascadeDB/internal/sql/expression"
)

// checkSortProperty reports whether every sort column is a plain column
// reference. Sorts over computed expressions cannot be served by an index.
func checkSortProperty(sort *SortProperty) bool {
	for _, col := range sort.Columns {
		if col.Type() != expression.ColumnValue {
			return false
		}
	}
	return true
}

// indexSatisfiesSort reports whether the index delivers rows in the required
// order: the sort columns must be a prefix of the index keys with matching
// directions, and every sort column must belong to the scanned alias.
func indexSatisfiesSort(index *catalog.Index, sort *SortProperty, tableAlias string) bool {
	if len(sort.Columns) > len(index.Keys) {
		return false
	}
	for i, col := range sort.Columns {
		if col.TableAlias() != "" && col.TableAlias() != tableAlias {
			return false
		}
		key := index.Keys[i]
		if key.ColumnName != col.ColumnName() {
			return false
		}
		ascending := key.Order == catalog.Ascending
		if ascending != sort.Ascending[i] {
			return false
		}
	}
	return true
}
