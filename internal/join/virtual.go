package join

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/JoinPilot/internal/errs"
	"github.com/koustreak/JoinPilot/internal/filestore"
	"github.com/koustreak/JoinPilot/internal/metadata"
)

// Virtual references let schemas without declared foreign-key constraints
// participate in join inference. A YAML document lists edges the DBA knows
// to exist; the engine merges them into the outgoing edge sets so the three
// inference rules treat them exactly like catalog-backed foreign keys.
//
// Document shape:
//
//	references:
//	  - name: orders_customer_virt
//	    source: {schema: public, table: orders, column: customer_id}
//	    target: {schema: public, table: customers, column: id}
//
// Schemas may be omitted; the engine fills in the provider's default.

type refEndpoint struct {
	Schema string `yaml:"schema"`
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

type virtualRef struct {
	Name   string      `yaml:"name"`
	Source refEndpoint `yaml:"source"`
	Target refEndpoint `yaml:"target"`
}

type virtualDoc struct {
	References []virtualRef `yaml:"references"`
}

// ParseVirtualRefs decodes a virtual-reference document and validates it.
func ParseVirtualRefs(r io.Reader) ([]metadata.ForeignKeyEdge, error) {
	var doc virtualDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "malformed virtual reference document", err)
	}

	edges := make([]metadata.ForeignKeyEdge, 0, len(doc.References))
	for i, ref := range doc.References {
		if ref.Source.Table == "" || ref.Source.Column == "" ||
			ref.Target.Table == "" || ref.Target.Column == "" {
			return nil, errs.Newf(errs.ErrKindInvalidInput,
				"virtual reference %d: source and target table/column are required", i)
		}
		name := ref.Name
		if name == "" {
			name = fmt.Sprintf("virt_%s_%s", ref.Source.Table, ref.Source.Column)
		}
		edges = append(edges, metadata.ForeignKeyEdge{
			Constraint:   name,
			SourceSchema: ref.Source.Schema,
			SourceTable:  ref.Source.Table,
			SourceColumn: ref.Source.Column,
			TargetSchema: ref.Target.Schema,
			TargetTable:  ref.Target.Table,
			TargetColumn: ref.Target.Column,
		})
	}
	return edges, nil
}

// LoadVirtualRefsFile reads a virtual-reference document from a local file.
func LoadVirtualRefsFile(path string) ([]metadata.ForeignKeyEdge, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "virtual reference file not found", err)
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "cannot open virtual reference file", err)
	}
	defer f.Close()
	return ParseVirtualRefs(f)
}

// LoadVirtualRefsObject fetches a virtual-reference document from an object
// store bucket. Teams that manage schema hints centrally publish one
// document per database and point every JoinPilot instance at it.
func LoadVirtualRefsObject(ctx context.Context, store filestore.Store, bucket, key string) ([]metadata.ForeignKeyEdge, error) {
	obj, err := store.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return ParseVirtualRefs(obj)
}
