package catalog

// Strongly typed object identifiers. Zero is never a valid oid.

// DBOID identifies a database.
type DBOID uint32

// NamespaceOID identifies a namespace (schema).
type NamespaceOID uint32

// TableOID identifies a table.
type TableOID uint32

// ColumnOID identifies a column within a table.
type ColumnOID uint32

// IndexOID identifies an index.
type IndexOID uint32

// InvalidTableOID is returned by lookups that fail to resolve a table.
const InvalidTableOID = TableOID(0)
