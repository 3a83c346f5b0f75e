// Package metadatatest provides an in-memory metadata.Provider for tests.
// It lets the snapshot layer, the join engine, and the HTTP handlers run
// against a declared schema without a live database.
package metadatatest

import (
	"context"
	"sort"

	"github.com/koustreak/JoinPilot/internal/metadata"
)

// Table declares one table's metadata.
type Table struct {
	Columns    []metadata.Column
	PrimaryKey []string
	Outgoing   []metadata.ForeignKeyEdge
	Indexes    []metadata.IndexDescriptor
}

// Provider is an in-memory metadata.Provider. The zero value is unusable;
// construct with New. Not safe for concurrent mutation, but lookups are
// read-only and may run concurrently.
type Provider struct {
	Schema string
	Tables map[string]Table // keyed by "schema.table"

	// Err, when set, makes every lookup fail with it — for exercising
	// provider-failure propagation.
	Err error
}

// New creates a Provider with the given default schema.
func New(schema string) *Provider {
	return &Provider{Schema: schema, Tables: make(map[string]Table)}
}

// Add declares a table in the default schema.
func (p *Provider) Add(table string, t Table) {
	p.Tables[p.Schema+"."+table] = t
}

// AddIn declares a table in an explicit schema.
func (p *Provider) AddIn(schema, table string, t Table) {
	p.Tables[schema+"."+table] = t
}

func (p *Provider) DefaultSchema() string { return p.Schema }

func (p *Provider) ListTables(ctx context.Context, schema string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}
	var names []string
	for key := range p.Tables {
		if len(key) > len(schema) && key[:len(schema)+1] == schema+"." {
			names = append(names, key[len(schema)+1:])
		}
	}
	sort.Strings(names)
	return names, nil
}

func (p *Provider) TableExists(ctx context.Context, schema, table string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.Err != nil {
		return false, p.Err
	}
	_, ok := p.Tables[schema+"."+table]
	return ok, nil
}

func (p *Provider) Columns(ctx context.Context, schema, table string) ([]metadata.Column, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Tables[schema+"."+table].Columns, nil
}

func (p *Provider) PrimaryKey(ctx context.Context, schema, table string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Tables[schema+"."+table].PrimaryKey, nil
}

func (p *Provider) OutgoingForeignKeys(ctx context.Context, schema, table string) ([]metadata.ForeignKeyEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Tables[schema+"."+table].Outgoing, nil
}

func (p *Provider) IncomingForeignKeys(ctx context.Context, schema, table string) ([]metadata.ForeignKeyEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}
	var in []metadata.ForeignKeyEdge
	for _, t := range p.Tables {
		for _, e := range t.Outgoing {
			if e.TargetSchema == schema && e.TargetTable == table {
				in = append(in, e)
			}
		}
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Constraint < in[j].Constraint })
	return in, nil
}

func (p *Provider) Indexes(ctx context.Context, schema, table string) ([]metadata.IndexDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Tables[schema+"."+table].Indexes, nil
}

// Edge is a shorthand constructor for a foreign-key edge.
func Edge(constraint, srcSchema, srcTable, srcCol, tgtSchema, tgtTable, tgtCol string) metadata.ForeignKeyEdge {
	return metadata.ForeignKeyEdge{
		Constraint:   constraint,
		SourceSchema: srcSchema,
		SourceTable:  srcTable,
		SourceColumn: srcCol,
		TargetSchema: tgtSchema,
		TargetTable:  tgtTable,
		TargetColumn: tgtCol,
	}
}
