// Package postgres implements the database.DB and metadata.Provider
// contracts for PostgreSQL, backed by a pgxpool connection pool.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koustreak/JoinPilot/internal/database"
	"github.com/koustreak/JoinPilot/internal/errs"
	"github.com/koustreak/JoinPilot/internal/metadata"
)

const defaultSchema = "public"

// Driver is a PostgreSQL implementation of database.DB and
// metadata.Provider. It is safe for concurrent use by multiple goroutines;
// concurrency is bounded by the pool size.
type Driver struct {
	pool   *pgxpool.Pool
	schema string // default schema for unqualified identifiers
}

// New connects to PostgreSQL using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create connection pool", err)
	}

	schema := cfg.DefaultSchema
	if schema == "" {
		schema = defaultSchema
	}

	d := &Driver{pool: pool, schema: schema}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return d, nil
}

// --- database.DB implementation ---

// Ping verifies the database is reachable by acquiring and releasing a connection.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool. Call when the application shuts down.
func (d *Driver) Close() {
	d.pool.Close()
}

// Query executes a SQL statement that returns multiple rows.
func (d *Driver) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

// QueryRow executes a SQL statement expected to return at most one row.
func (d *Driver) QueryRow(ctx context.Context, sql string, args ...any) (database.Row, error) {
	row := d.pool.QueryRow(ctx, sql, args...)
	return &pgxRow{row: row}, nil
}

// --- metadata.Provider implementation ---

// DefaultSchema returns the schema assumed for unqualified table names.
func (d *Driver) DefaultSchema() string {
	return d.schema
}

// ListTables returns all base-table names in the given schema, sorted.
func (d *Driver) ListTables(ctx context.Context, schema string) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := d.pool.Query(ctx, q, schema)
	if err != nil {
		return nil, mapError(err, "failed to list tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err, "failed to scan table name")
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating tables")
	}
	return tables, nil
}

// TableExists reports whether the table exists in the given schema.
// More than one match for a fully qualified name should be impossible under
// normal catalog constraints, but is detected and reported rather than
// silently resolved to an arbitrary match.
func (d *Driver) TableExists(ctx context.Context, schema, table string) (bool, error) {
	const q = `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type   = 'BASE TABLE'
		  AND table_name   = $2`

	var n int
	if err := d.pool.QueryRow(ctx, q, schema, table).Scan(&n); err != nil {
		return false, mapError(err, "failed to check table existence")
	}
	if n > 1 {
		return false, errs.Newf(errs.ErrKindAmbiguous,
			"identifier %s.%s matches %d tables", schema, table, n)
	}
	return n == 1, nil
}

// Columns returns the table's columns in declaration order, including
// comments from pg_description.
func (d *Driver) Columns(ctx context.Context, schema, table string) ([]metadata.Column, error) {
	const q = `
		SELECT c.column_name,
		       c.data_type,
		       c.is_nullable = 'YES',
		       c.column_default,
		       c.character_maximum_length,
		       COALESCE(pgd.description, '')
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_statio_all_tables st
		  ON st.schemaname = c.table_schema
		 AND st.relname    = c.table_name
		LEFT JOIN pg_catalog.pg_description pgd
		  ON pgd.objoid   = st.relid
		 AND pgd.objsubid = c.ordinal_position
		WHERE c.table_schema = $1
		  AND c.table_name   = $2
		ORDER BY c.ordinal_position`

	rows, err := d.pool.Query(ctx, q, schema, table)
	if err != nil {
		return nil, mapError(err, "failed to fetch columns")
	}
	defer rows.Close()

	var cols []metadata.Column
	for rows.Next() {
		var c metadata.Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.Default, &c.MaxLen, &c.Comment); err != nil {
			return nil, mapError(err, "failed to scan column info")
		}
		c.Class = metadata.ClassifyType(c.DataType)
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating columns")
	}
	return cols, nil
}

// PrimaryKey returns the ordered primary-key column names.
func (d *Driver) PrimaryKey(ctx context.Context, schema, table string) ([]string, error) {
	const q = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema    = $1
		  AND tc.table_name      = $2
		ORDER BY kcu.ordinal_position`

	rows, err := d.pool.Query(ctx, q, schema, table)
	if err != nil {
		return nil, mapError(err, "failed to fetch primary key")
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, mapError(err, "failed to scan primary key column")
		}
		pk = append(pk, col)
	}
	return pk, rows.Err()
}

// OutgoingForeignKeys returns every foreign-key edge whose source is the table.
func (d *Driver) OutgoingForeignKeys(ctx context.Context, schema, table string) ([]metadata.ForeignKeyEdge, error) {
	const q = `
		SELECT tc.constraint_name,
		       kcu.table_schema,
		       kcu.table_name,
		       kcu.column_name,
		       ccu.table_schema AS ref_schema,
		       ccu.table_name   AS ref_table,
		       ccu.column_name  AS ref_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		 AND tc.table_schema    = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND kcu.table_schema   = $1
		  AND kcu.table_name     = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position`

	return d.fetchEdges(ctx, q, schema, table, "failed to fetch outgoing foreign keys")
}

// IncomingForeignKeys returns every foreign-key edge whose target is the table.
func (d *Driver) IncomingForeignKeys(ctx context.Context, schema, table string) ([]metadata.ForeignKeyEdge, error) {
	const q = `
		SELECT tc.constraint_name,
		       kcu.table_schema,
		       kcu.table_name,
		       kcu.column_name,
		       ccu.table_schema AS ref_schema,
		       ccu.table_name   AS ref_table,
		       ccu.column_name  AS ref_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		 AND tc.table_schema    = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND ccu.table_schema   = $1
		  AND ccu.table_name     = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position`

	return d.fetchEdges(ctx, q, schema, table, "failed to fetch incoming foreign keys")
}

func (d *Driver) fetchEdges(ctx context.Context, q, schema, table, errMsg string) ([]metadata.ForeignKeyEdge, error) {
	rows, err := d.pool.Query(ctx, q, schema, table)
	if err != nil {
		return nil, mapError(err, errMsg)
	}
	defer rows.Close()

	var edges []metadata.ForeignKeyEdge
	for rows.Next() {
		var e metadata.ForeignKeyEdge
		if err := rows.Scan(
			&e.Constraint,
			&e.SourceSchema, &e.SourceTable, &e.SourceColumn,
			&e.TargetSchema, &e.TargetTable, &e.TargetColumn,
		); err != nil {
			return nil, mapError(err, errMsg)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Indexes returns the table's index descriptors from pg_catalog.
func (d *Driver) Indexes(ctx context.Context, schema, table string) ([]metadata.IndexDescriptor, error) {
	const q = `
		SELECT i.relname,
		       am.amname,
		       ix.indisunique,
		       a.attname
		FROM pg_catalog.pg_class t
		JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_catalog.pg_index ix    ON ix.indrelid = t.oid
		JOIN pg_catalog.pg_class i     ON i.oid = ix.indexrelid
		JOIN pg_catalog.pg_am am       ON am.oid = i.relam
		JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid
		                              AND a.attnum = ANY (ix.indkey)
		WHERE n.nspname = $1
		  AND t.relname = $2
		ORDER BY i.relname, array_position(ix.indkey, a.attnum)`

	rows, err := d.pool.Query(ctx, q, schema, table)
	if err != nil {
		return nil, mapError(err, "failed to fetch indexes")
	}
	defer rows.Close()

	// Rows arrive one per (index, column); fold them into descriptors
	// preserving the column order within each index.
	var (
		result  []metadata.IndexDescriptor
		current *metadata.IndexDescriptor
	)
	for rows.Next() {
		var (
			name, method string
			unique       bool
			column       string
		)
		if err := rows.Scan(&name, &method, &unique, &column); err != nil {
			return nil, mapError(err, "failed to scan index row")
		}
		if current == nil || current.Name != name {
			result = append(result, metadata.IndexDescriptor{
				Name:   name,
				Unique: unique,
				Method: method,
			})
			current = &result[len(result)-1]
		}
		current.Columns = append(current.Columns, column)
	}
	return result, rows.Err()
}

// --- pgx type wrappers ---

// pgxRows wraps pgx.Rows to satisfy database.Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgxRows) Close()                 { r.rows.Close() }
func (r *pgxRows) Err() error             { return r.rows.Err() }

func (r *pgxRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}
	return cols, nil
}

// pgxRow wraps pgx.Row to satisfy database.Row.
type pgxRow struct {
	row pgx.Row
}

func (r *pgxRow) Scan(dest ...any) error { return r.row.Scan(dest...) }
