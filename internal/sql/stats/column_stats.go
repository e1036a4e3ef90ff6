package stats

import (
	"fmt"
	"sort"

	"github.com/dshills/CascadeDB/internal/catalog"
)

// ColumnStats holds the per-column statistics the optimizer costs plans with.
// The JSON form is the persisted shape written by the stats collector; the
// optimizer itself only reads these records out of StatsStorage.
type ColumnStats struct {
	NamespaceID     catalog.NamespaceOID `json:"namespace_id"`
	DatabaseID      catalog.DBOID        `json:"database_id"`
	TableID         catalog.TableOID     `json:"table_id"`
	ColumnID        catalog.ColumnOID    `json:"column_id"`
	ColumnName      string               `json:"column_name"`
	NumRows         uint64               `json:"num_rows"`
	Cardinality     float64              `json:"cardinality"`
	FracNull        float64              `json:"frac_null"`
	MostCommonVals  []float64            `json:"most_common_vals"`
	MostCommonFreqs []float64            `json:"most_common_freqs"`
	HistogramBounds []float64            `json:"histogram_bounds"`
	IsBaseTable     bool                 `json:"is_basetable"`
}

// NewColumnStats constructs a validated ColumnStats record.
func NewColumnStats(ns catalog.NamespaceOID, db catalog.DBOID, table catalog.TableOID, column catalog.ColumnOID,
	name string, numRows uint64, cardinality, fracNull float64,
	mostCommonVals, mostCommonFreqs, histogramBounds []float64, isBaseTable bool) (*ColumnStats, error) {
	cs := &ColumnStats{
		NamespaceID:     ns,
		DatabaseID:      db,
		TableID:         table,
		ColumnID:        column,
		ColumnName:      name,
		NumRows:         numRows,
		Cardinality:     cardinality,
		FracNull:        fracNull,
		MostCommonVals:  mostCommonVals,
		MostCommonFreqs: mostCommonFreqs,
		HistogramBounds: histogramBounds,
		IsBaseTable:     isBaseTable,
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	return cs, nil
}

// Validate checks the record invariants.
func (c *ColumnStats) Validate() error {
	if c.FracNull < 0 || c.FracNull > 1 {
		return fmt.Errorf("column %q: frac_null %v out of [0,1]", c.ColumnName, c.FracNull)
	}
	if len(c.MostCommonVals) != len(c.MostCommonFreqs) {
		return fmt.Errorf("column %q: %d most common values but %d frequencies",
			c.ColumnName, len(c.MostCommonVals), len(c.MostCommonFreqs))
	}
	var sum float64
	for _, f := range c.MostCommonFreqs {
		if f < 0 {
			return fmt.Errorf("column %q: negative most common frequency %v", c.ColumnName, f)
		}
		sum += f
	}
	if sum > 1 {
		return fmt.Errorf("column %q: most common frequencies sum to %v, above 1", c.ColumnName, sum)
	}
	if !sort.Float64sAreSorted(c.HistogramBounds) {
		return fmt.Errorf("column %q: histogram bounds not sorted", c.ColumnName)
	}
	return nil
}

// UpdateJoinStats refreshes the record after a join sample: num_rows becomes
// the table's row count and cardinality is capped by the scaled sample
// cardinality.
func (c *ColumnStats) UpdateJoinStats(tableNumRows, sampleSize, sampleCard uint64) {
	c.NumRows = tableNumRows
	if sampleSize == 0 {
		return
	}
	estimated := float64(sampleCard) * float64(tableNumRows) / float64(sampleSize)
	if estimated < c.Cardinality {
		c.Cardinality = estimated
	}
}

// SelectivityEquals estimates the fraction of rows equal to val, using the
// most-common-value list when the value appears there and falling back to a
// uniform spread over the remaining cardinality. Frequencies are fractions of
// the table.
func (c *ColumnStats) SelectivityEquals(val float64) float64 {
	if c.NumRows == 0 {
		return 0
	}
	var mcvTotal float64
	for i, v := range c.MostCommonVals {
		if v == val {
			return c.MostCommonFreqs[i]
		}
		mcvTotal += c.MostCommonFreqs[i]
	}
	remaining := c.Cardinality - float64(len(c.MostCommonVals))
	if remaining <= 0 {
		return 1 / float64(c.NumRows)
	}
	rest := (1 - c.FracNull - mcvTotal) / remaining
	if rest < 0 {
		rest = 0
	}
	return rest
}

// Copy returns a deep copy of the record.
func (c *ColumnStats) Copy() *ColumnStats {
	out := *c
	out.MostCommonVals = append([]float64(nil), c.MostCommonVals...)
	out.MostCommonFreqs = append([]float64(nil), c.MostCommonFreqs...)
	out.HistogramBounds = append([]float64(nil), c.HistogramBounds...)
	return &out
}
