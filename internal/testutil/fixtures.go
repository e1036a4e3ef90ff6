// Package testutil provides shared fixtures for optimizer tests: a TPCC-style
// catalog and matching table statistics.
package testutil

import (
	"testing"

	"github.com/dshills/CascadeDB/internal/catalog"
	"github.com/dshills/CascadeDB/internal/sql/stats"
	"github.com/dshills/CascadeDB/internal/sql/types"
)

// TpccFixture bundles the test catalog with the oids tests assert against.
type TpccFixture struct {
	Accessor *catalog.MemoryAccessor
	DB       catalog.DBOID
	NewOrder catalog.TableOID
	Order    catalog.TableOID
	OrderLn  catalog.TableOID
	Customer catalog.TableOID
}

// NewTpccFixture builds an in-memory catalog holding a subset of the TPCC
// schema.
func NewTpccFixture(t *testing.T) *TpccFixture {
	t.Helper()
	acc := catalog.NewMemoryAccessor()

	newOrder, err := acc.CreateTable("new_order", []catalog.ColumnDef{
		{Name: "no_o_id", DataType: types.Integer},
		{Name: "no_d_id", DataType: types.Integer},
		{Name: "no_w_id", DataType: types.Integer},
	})
	if err != nil {
		t.Fatalf("create new_order: %v", err)
	}

	order, err := acc.CreateTable("order", []catalog.ColumnDef{
		{Name: "o_id", DataType: types.Integer},
		{Name: "o_d_id", DataType: types.Integer},
		{Name: "o_w_id", DataType: types.Integer},
		{Name: "o_c_id", DataType: types.Integer},
		{Name: "o_entry_d", DataType: types.Timestamp},
		{Name: "o_carrier_id", DataType: types.Integer, Nullable: true},
		{Name: "o_ol_cnt", DataType: types.Integer},
		{Name: "o_all_local", DataType: types.Integer},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	orderLine, err := acc.CreateTable("order_line", []catalog.ColumnDef{
		{Name: "ol_o_id", DataType: types.Integer},
		{Name: "ol_d_id", DataType: types.Integer},
		{Name: "ol_number", DataType: types.Integer},
		{Name: "ol_amount", DataType: types.Double},
	})
	if err != nil {
		t.Fatalf("create order_line: %v", err)
	}

	customer, err := acc.CreateTable("customer", []catalog.ColumnDef{
		{Name: "c_id", DataType: types.Integer},
		{Name: "c_d_id", DataType: types.Integer},
		{Name: "c_balance", DataType: types.Double},
		{Name: "c_last", DataType: types.Text},
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}

	return &TpccFixture{
		Accessor: acc,
		DB:       catalog.DBOID(1),
		NewOrder: newOrder,
		Order:    order,
		OrderLn:  orderLine,
		Customer: customer,
	}
}

// SeedStats registers plain table statistics for every fixture table.
func (f *TpccFixture) SeedStats(t *testing.T, storage *stats.StatsStorage) {
	t.Helper()
	for _, tbl := range []struct {
		oid  catalog.TableOID
		rows uint64
	}{
		{f.NewOrder, 900},
		{f.Order, 3000},
		{f.OrderLn, 30000},
		{f.Customer, 3000},
	} {
		ts := f.tableStats(t, tbl.oid, tbl.rows)
		if !storage.Insert(f.DB, tbl.oid, ts) {
			t.Fatalf("stats for table %d already present", tbl.oid)
		}
	}
}

func (f *TpccFixture) tableStats(t *testing.T, table catalog.TableOID, rows uint64) *stats.TableStats {
	t.Helper()
	schema, err := f.Accessor.GetSchema(table)
	if err != nil {
		t.Fatalf("schema for table %d: %v", table, err)
	}

	cols := make([]*stats.ColumnStats, 0, len(schema.Columns))
	for _, col := range schema.Columns {
		cs, err := stats.NewColumnStats(
			f.Accessor.GetDefaultNamespace(), f.DB, table, col.Oid, col.Name,
			rows, float64(rows)/10, 0, nil, nil, nil, true)
		if err != nil {
			t.Fatalf("column stats for %s: %v", col.Name, err)
		}
		cols = append(cols, cs)
	}

	ts, err := stats.NewTableStats(f.DB, table, rows, true, cols)
	if err != nil {
		t.Fatalf("table stats for %d: %v", table, err)
	}
	return ts
}
