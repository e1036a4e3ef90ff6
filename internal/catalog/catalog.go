package catalog

import (
	"fmt"

	"github.com/lib/pq/oid"

	"github.com/dshills/CascadeDB/internal/sql/types"
)

// Accessor is the read-only catalog capability consumed by the optimizer.
// Implementations must be safe for synchronous in-memory calls; the optimizer
// never mutates the catalog.
type Accessor interface {
	// GetTableOid resolves a table alias within a namespace.
	GetTableOid(ns NamespaceOID, alias string) (TableOID, error)
	// GetIndexes returns the oids of all indexes on a table.
	GetIndexes(table TableOID) ([]IndexOID, error)
	// GetIndexSchema returns the definition of an index.
	GetIndexSchema(index IndexOID) (*Index, error)
	// GetSchema returns the schema of a table.
	GetSchema(table TableOID) (*Schema, error)
	// GetDefaultNamespace returns the session default namespace.
	GetDefaultNamespace() NamespaceOID
}

// Schema describes the columns of a table in storage order.
type Schema struct {
	Table   TableOID
	Name    string
	Columns []Column
}

// Column describes a single table column.
type Column struct {
	Oid      ColumnOID
	Name     string
	DataType types.DataType
	TypeOid  oid.Oid
	Nullable bool
}

// GetColumn returns the column with the given name.
func (s *Schema) GetColumn(name string) (*Column, error) {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i], nil
		}
	}
	return nil, fmt.Errorf("column %q not found in table %q", name, s.Name)
}

// ColumnOffset returns the ordinal position of the named column in the
// underlying tuple layout.
func (s *Schema) ColumnOffset(name string) (int, error) {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q not found in table %q", name, s.Name)
}

// SortOrder is the direction of an index key column.
type SortOrder int

const (
	// Ascending sort order.
	Ascending SortOrder = iota
	// Descending sort order.
	Descending
)

func (s SortOrder) String() string {
	if s == Descending {
		return "DESC"
	}
	return "ASC"
}

// IndexKeyColumn is one key column of an index.
type IndexKeyColumn struct {
	ColumnName string
	Order      SortOrder
}

// Index describes an index over a table.
type Index struct {
	Oid      IndexOID
	Table    TableOID
	Name     string
	IsUnique bool
	Keys     []IndexKeyColumn
}
