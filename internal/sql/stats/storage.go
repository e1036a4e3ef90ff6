package stats

import (
	"sync"

	"github.com/google/btree"

	"github.com/dshills/CascadeDB/internal/catalog"
)

// StatsStorage maps (db, table) to TableStats. Reads are concurrent; writers
// are exclusive. An ordered index backs deterministic Range iteration for
// diagnostics.
type StatsStorage struct {
	mu    sync.RWMutex
	table map[statsKey]*TableStats
	index *btree.BTreeG[statsKey]
}

type statsKey struct {
	db  catalog.DBOID
	tbl catalog.TableOID
}

func statsKeyLess(a, b statsKey) bool {
	if a.db != b.db {
		return a.db < b.db
	}
	return a.tbl < b.tbl
}

// NewStatsStorage creates an empty storage.
func NewStatsStorage() *StatsStorage {
	return &StatsStorage{
		table: make(map[statsKey]*TableStats),
		index: btree.NewG(8, statsKeyLess),
	}
}

// Insert registers stats for (db, table). Returns false if stats for the key
// are already present; the existing record is kept.
func (s *StatsStorage) Insert(db catalog.DBOID, table catalog.TableOID, stats *TableStats) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := statsKey{db: db, tbl: table}
	if _, ok := s.table[key]; ok {
		return false
	}
	s.table[key] = stats
	s.index.ReplaceOrInsert(key)
	return true
}

// Get returns the stats for (db, table), or nil if absent.
func (s *StatsStorage) Get(db catalog.DBOID, table catalog.TableOID) *TableStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table[statsKey{db: db, tbl: table}]
}

// Contains reports whether stats for (db, table) are present.
func (s *StatsStorage) Contains(db catalog.DBOID, table catalog.TableOID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.table[statsKey{db: db, tbl: table}]
	return ok
}

// Delete removes the stats for (db, table). Returns false if absent.
func (s *StatsStorage) Delete(db catalog.DBOID, table catalog.TableOID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := statsKey{db: db, tbl: table}
	if _, ok := s.table[key]; !ok {
		return false
	}
	delete(s.table, key)
	s.index.Delete(key)
	return true
}

// Len returns the number of stored table records.
func (s *StatsStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

// Range calls fn for every record in (db, table) order until fn returns
// false.
func (s *StatsStorage) Range(fn func(db catalog.DBOID, table catalog.TableOID, stats *TableStats) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.index.Ascend(func(key statsKey) bool {
		return fn(key.db, key.tbl, s.table[key])
	})
}
