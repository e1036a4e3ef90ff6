package stats

import (
	"fmt"

	"github.com/dshills/CascadeDB/internal/catalog"
)

// TableStats aggregates the column statistics of a single table.
type TableStats struct {
	DatabaseID  catalog.DBOID    `json:"database_id"`
	TableID     catalog.TableOID `json:"table_id"`
	NumRows     uint64           `json:"num_rows"`
	IsBaseTable bool             `json:"is_basetable"`
	Columns     []*ColumnStats   `json:"column_stats"`
}

// NewTableStats constructs a validated TableStats record.
func NewTableStats(db catalog.DBOID, table catalog.TableOID, numRows uint64, isBaseTable bool,
	columns []*ColumnStats) (*TableStats, error) {
	ts := &TableStats{
		DatabaseID:  db,
		TableID:     table,
		NumRows:     numRows,
		IsBaseTable: isBaseTable,
		Columns:     columns,
	}
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	return ts, nil
}

// Validate checks the record and each column record.
func (t *TableStats) Validate() error {
	for _, c := range t.Columns {
		if c.TableID != t.TableID {
			return fmt.Errorf("column %q belongs to table %d, not %d", c.ColumnName, c.TableID, t.TableID)
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetColumnStats returns the stats of the named column, or nil.
func (t *TableStats) GetColumnStats(name string) *ColumnStats {
	for _, c := range t.Columns {
		if c.ColumnName == name {
			return c
		}
	}
	return nil
}

// ColumnCount returns the number of column records.
func (t *TableStats) ColumnCount() int { return len(t.Columns) }

// Copy returns a deep copy of the record.
func (t *TableStats) Copy() *TableStats {
	out := *t
	out.Columns = make([]*ColumnStats, len(t.Columns))
	for i, c := range t.Columns {
		out.Columns[i] = c.Copy()
	}
	return &out
}
