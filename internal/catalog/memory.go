package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq/oid"

	"github.com/dshills/CascadeDB/internal/sql/types"
)

// MemoryAccessor is an in-memory Accessor implementation. It doubles as the
// test fixture catalog: CreateTable and CreateIndex register definitions, the
// Accessor methods serve lookups. Lookups are case-insensitive on names, the
// way the binder normalizes identifiers.
type MemoryAccessor struct {
	mu sync.RWMutex

	defaultNS NamespaceOID
	nextOid   uint32

	tables  map[NamespaceOID]map[string]TableOID
	schemas map[TableOID]*Schema
	indexes map[TableOID][]IndexOID
	indexSc map[IndexOID]*Index
}

// NewMemoryAccessor creates an empty in-memory catalog with a single default
// namespace.
func NewMemoryAccessor() *MemoryAccessor {
	m := &MemoryAccessor{
		defaultNS: NamespaceOID(1),
		nextOid:   100,
		tables:    make(map[NamespaceOID]map[string]TableOID),
		schemas:   make(map[TableOID]*Schema),
		indexes:   make(map[TableOID][]IndexOID),
		indexSc:   make(map[IndexOID]*Index),
	}
	m.tables[m.defaultNS] = make(map[string]TableOID)
	return m
}

// ColumnDef defines a column when creating a table.
type ColumnDef struct {
	Name     string
	DataType types.DataType
	Nullable bool
}

// CreateTable registers a table in the default namespace and returns its oid.
func (m *MemoryAccessor) CreateTable(name string, cols []ColumnDef) (TableOID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(name)
	if _, ok := m.tables[m.defaultNS][key]; ok {
		return InvalidTableOID, fmt.Errorf("table %q already exists", name)
	}

	m.nextOid++
	tbl := TableOID(m.nextOid)
	schema := &Schema{Table: tbl, Name: key, Columns: make([]Column, len(cols))}
	for i, c := range cols {
		m.nextOid++
		schema.Columns[i] = Column{
			Oid:      ColumnOID(m.nextOid),
			Name:     strings.ToLower(c.Name),
			DataType: c.DataType,
			TypeOid:  typeOidFor(c.DataType),
			Nullable: c.Nullable,
		}
	}

	m.tables[m.defaultNS][key] = tbl
	m.schemas[tbl] = schema
	return tbl, nil
}

// CreateIndex registers an index on a previously created table.
func (m *MemoryAccessor) CreateIndex(table TableOID, name string, unique bool, keys []IndexKeyColumn) (IndexOID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schema, ok := m.schemas[table]
	if !ok {
		return 0, fmt.Errorf("table oid %d not found", table)
	}
	for i := range keys {
		keys[i].ColumnName = strings.ToLower(keys[i].ColumnName)
		found := false
		for _, c := range schema.Columns {
			if c.Name == keys[i].ColumnName {
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("index %q references unknown column %q", name, keys[i].ColumnName)
		}
	}

	m.nextOid++
	idx := IndexOID(m.nextOid)
	m.indexSc[idx] = &Index{Oid: idx, Table: table, Name: strings.ToLower(name), IsUnique: unique, Keys: keys}
	m.indexes[table] = append(m.indexes[table], idx)
	return idx, nil
}

// GetTableOid resolves a table alias within a namespace.
func (m *MemoryAccessor) GetTableOid(ns NamespaceOID, alias string) (TableOID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byName, ok := m.tables[ns]
	if !ok {
		return InvalidTableOID, fmt.Errorf("namespace oid %d not found", ns)
	}
	tbl, ok := byName[strings.ToLower(alias)]
	if !ok {
		return InvalidTableOID, fmt.Errorf("table %q not found in namespace %d", alias, ns)
	}
	return tbl, nil
}

// GetIndexes returns the oids of all indexes on a table.
func (m *MemoryAccessor) GetIndexes(table TableOID) ([]IndexOID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.schemas[table]; !ok {
		return nil, fmt.Errorf("table oid %d not found", table)
	}
	out := make([]IndexOID, len(m.indexes[table]))
	copy(out, m.indexes[table])
	return out, nil
}

// GetIndexSchema returns the definition of an index.
func (m *MemoryAccessor) GetIndexSchema(index IndexOID) (*Index, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sc, ok := m.indexSc[index]
	if !ok {
		return nil, fmt.Errorf("index oid %d not found", index)
	}
	return sc, nil
}

// GetSchema returns the schema of a table.
func (m *MemoryAccessor) GetSchema(table TableOID) (*Schema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sc, ok := m.schemas[table]
	if !ok {
		return nil, fmt.Errorf("table oid %d not found", table)
	}
	return sc, nil
}

// GetDefaultNamespace returns the session default namespace.
func (m *MemoryAccessor) GetDefaultNamespace() NamespaceOID {
	return m.defaultNS
}

func typeOidFor(t types.DataType) oid.Oid {
	switch t {
	case types.Boolean:
		return oid.T_bool
	case types.Integer:
		return oid.T_int4
	case types.BigInt:
		return oid.T_int8
	case types.Double:
		return oid.T_float8
	case types.Text:
		return oid.T_text
	case types.Timestamp:
		return oid.T_timestamp
	default:
		return oid.T_unknown
	}
}
