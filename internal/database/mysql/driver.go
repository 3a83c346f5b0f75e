// Package mysql implements the database.DB and metadata.Provider contracts
// for MySQL, backed by database/sql.
package mysql

import (
	"context"
	"database/sql"

	"github.com/koustreak/JoinPilot/internal/database"
	"github.com/koustreak/JoinPilot/internal/errs"
	"github.com/koustreak/JoinPilot/internal/metadata"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver
)

// Driver is a MySQL implementation of database.DB and metadata.Provider.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db     *sql.DB
	schema string // the connected database; MySQL has no schema/database split
}

// New opens a MySQL connection pool using the provided Config and returns a
// Driver. It pings the server and resolves the connected database name
// before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	d := &Driver{db: db, schema: cfg.DefaultSchema}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if d.schema == "" {
		var name sql.NullString
		if err := db.QueryRowContext(pingCtx, `SELECT DATABASE()`).Scan(&name); err != nil {
			_ = db.Close()
			return nil, mapError(err, "failed to resolve current database")
		}
		if !name.Valid || name.String == "" {
			_ = db.Close()
			return nil, errs.New(errs.ErrKindInvalidInput,
				"DSN selects no database and no default schema is configured")
		}
		d.schema = name.String
	}

	return d, nil
}

// --- database.DB implementation ---

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &mysqlRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) (database.Row, error) {
	row := d.db.QueryRowContext(ctx, query, args...)
	return &mysqlRow{row: row}, nil
}

// --- metadata.Provider implementation ---

// DefaultSchema returns the connected database name.
func (d *Driver) DefaultSchema() string {
	return d.schema
}

func (d *Driver) ListTables(ctx context.Context, schema string) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := d.db.QueryContext(ctx, q, schema)
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

func (d *Driver) TableExists(ctx context.Context, schema, table string) (bool, error) {
	const q = `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type   = 'BASE TABLE'
		  AND table_name   = ?`

	var n int
	if err := d.db.QueryRowContext(ctx, q, schema, table).Scan(&n); err != nil {
		return false, mapError(err, "failed to check table existence")
	}
	if n > 1 {
		return false, errs.Newf(errs.ErrKindAmbiguous,
			"identifier %s.%s matches %d tables", schema, table, n)
	}
	return n == 1, nil
}

func (d *Driver) Columns(ctx context.Context, schema, table string) ([]metadata.Column, error) {
	const q = `
		SELECT column_name,
		       data_type,
		       is_nullable = 'YES',
		       column_default,
		       character_maximum_length,
		       column_comment
		FROM information_schema.columns
		WHERE table_schema = ?
		  AND table_name   = ?
		ORDER BY ordinal_position`

	rows, err := d.db.QueryContext(ctx, q, schema, table)
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

func (d *Driver) PrimaryKey(ctx context.Context, schema, table string) ([]string, error) {
	const q = `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema    = ?
		  AND table_name      = ?
		  AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`

	rows, err := d.db.QueryContext(ctx, q, schema, table)
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

func (d *Driver) OutgoingForeignKeys(ctx context.Context, schema, table string) ([]metadata.ForeignKeyEdge, error) {
	const q = `
		SELECT constraint_name,
		       table_schema,
		       table_name,
		       column_name,
		       referenced_table_schema,
		       referenced_table_name,
		       referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema           = ?
		  AND table_name             = ?
		  AND referenced_table_name IS NOT NULL
		ORDER BY constraint_name, ordinal_position`

	return d.fetchEdges(ctx, q, schema, table, "failed to fetch outgoing foreign keys")
}

func (d *Driver) IncomingForeignKeys(ctx context.Context, schema, table string) ([]metadata.ForeignKeyEdge, error) {
	const q = `
		SELECT constraint_name,
		       table_schema,
		       table_name,
		       column_name,
		       referenced_table_schema,
		       referenced_table_name,
		       referenced_column_name
		FROM information_schema.key_column_usage
		WHERE referenced_table_schema = ?
		  AND referenced_table_name   = ?
		ORDER BY constraint_name, ordinal_position`

	return d.fetchEdges(ctx, q, schema, table, "failed to fetch incoming foreign keys")
}

func (d *Driver) fetchEdges(ctx context.Context, q, schema, table, errMsg string) ([]metadata.ForeignKeyEdge, error) {
	rows, err := d.db.QueryContext(ctx, q, schema, table)
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

func (d *Driver) Indexes(ctx context.Context, schema, table string) ([]metadata.IndexDescriptor, error) {
	const q = `
		SELECT index_name,
		       index_type,
		       non_unique = 0,
		       column_name
		FROM information_schema.statistics
		WHERE table_schema = ?
		  AND table_name   = ?
		ORDER BY index_name, seq_in_index`

	rows, err := d.db.QueryContext(ctx, q, schema, table)
	if err != nil {
		return nil, mapError(err, "failed to fetch indexes")
	}
	defer rows.Close()

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

// --- sql.DB type wrappers ---

type mysqlRows struct {
	rows *sql.Rows
}

func (r *mysqlRows) Next() bool                 { return r.rows.Next() }
func (r *mysqlRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *mysqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *mysqlRows) Close()                     { _ = r.rows.Close() }
func (r *mysqlRows) Err() error                 { return r.rows.Err() }

type mysqlRow struct {
	row *sql.Row
}

func (r *mysqlRow) Scan(dest ...any) error { return r.row.Scan(dest...) }
