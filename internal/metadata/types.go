// Package metadata models the relational schema of the backing store:
// tables, columns, keys, foreign-key edges, and indexes. Everything here is
// assembled fresh per call from a Provider and discarded when the call ends —
// there is no cache, no background refresh, and no cross-request identity.
package metadata

// TableRef identifies a table as used in a query: an optionally
// schema-qualified name plus the alias the query assigns to it.
type TableRef struct {
	Schema string // empty means the provider's default schema
	Table  string
	Alias  string
}

// Qualified returns "schema.table", or just the table name when no schema
// is set.
func (r TableRef) Qualified() string {
	if r.Schema == "" {
		return r.Table
	}
	return r.Schema + "." + r.Table
}

// TypeClass is the coarse classification of a column's declared type,
// used by the row-sampling path to decide value truncation.
type TypeClass int

const (
	ClassOther TypeClass = iota
	ClassTextual
	ClassBinary
)

func (c TypeClass) String() string {
	switch c {
	case ClassTextual:
		return "textual"
	case ClassBinary:
		return "binary"
	default:
		return "other"
	}
}

// Column describes a single column of a table.
type Column struct {
	Name     string
	DataType string    // declared type as reported by the store (text, int4, …)
	Class    TypeClass // coarse classification of DataType
	Nullable bool
	Default  *string // nil if no default
	MaxLen   *int    // nil for non-character types
	Comment  string
}

// ForeignKeyEdge is a single-column reference from a source table/column to
// a target table/column. Edges are directional (source → target). Columns of
// a composite key arrive as separate edges sharing one constraint name.
type ForeignKeyEdge struct {
	Constraint   string
	SourceSchema string
	SourceTable  string
	SourceColumn string
	TargetSchema string
	TargetTable  string
	TargetColumn string
}

// TargetsSame reports whether two edges reference the same schema, table,
// and column — the condition for a shared-reference join.
func (e ForeignKeyEdge) TargetsSame(o ForeignKeyEdge) bool {
	return e.TargetSchema == o.TargetSchema &&
		e.TargetTable == o.TargetTable &&
		e.TargetColumn == o.TargetColumn
}

// IndexDescriptor describes one index on a table. Informational only —
// the join inference engine does not consume it.
type IndexDescriptor struct {
	Name    string
	Columns []string // in index order
	Unique  bool
	Method  string // access method (btree, hash, …); empty if unknown
}

// TableSnapshot is the full metadata for one table at one point in time.
// It is assembled atomically per call and owned exclusively by that call.
type TableSnapshot struct {
	Schema     string
	Table      string
	Columns    []Column
	PrimaryKey []string // ordered; empty means no primary key
	Outgoing   []ForeignKeyEdge
	Incoming   []ForeignKeyEdge
	Indexes    []IndexDescriptor
}
