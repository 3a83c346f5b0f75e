package metadata

import "context"

// Provider answers point queries about one table's metadata. The postgres
// and mysql drivers implement it over information_schema; tests implement
// it in memory.
//
// All lookups are keyed by (schema, table). Callers pass the resolved
// schema — use DefaultSchema() for unqualified identifiers. Providers only
// ever read; a failed call is reported through the errs taxonomy and is
// safe to retry at the caller's discretion.
type Provider interface {
	// DefaultSchema returns the schema assumed for unqualified table names
	// ("public" for Postgres, the connected database for MySQL).
	DefaultSchema() string

	// ListTables returns all base-table names in the given schema, sorted.
	ListTables(ctx context.Context, schema string) ([]string, error)

	// TableExists reports whether the table exists in the given schema.
	TableExists(ctx context.Context, schema, table string) (bool, error)

	// Columns returns the table's columns in declaration order.
	Columns(ctx context.Context, schema, table string) ([]Column, error)

	// PrimaryKey returns the ordered primary-key column names.
	// An empty slice means the table has no primary key.
	PrimaryKey(ctx context.Context, schema, table string) ([]string, error)

	// OutgoingForeignKeys returns every foreign-key edge whose source is
	// the given table.
	OutgoingForeignKeys(ctx context.Context, schema, table string) ([]ForeignKeyEdge, error)

	// IncomingForeignKeys returns every foreign-key edge whose target is
	// the given table.
	IncomingForeignKeys(ctx context.Context, schema, table string) ([]ForeignKeyEdge, error)

	// Indexes returns the table's index descriptors.
	Indexes(ctx context.Context, schema, table string) ([]IndexDescriptor, error)
}
