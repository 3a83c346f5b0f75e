package metadata

import (
	"context"
	"strings"

	"github.com/koustreak/JoinPilot/internal/errs"
)

// ParseIdent splits a possibly schema-qualified identifier ("schema.table"
// or bare "table") into a TableRef with the given alias. The split happens
// on the first separator only; the schema is left empty for unqualified
// names so the provider's default applies.
func ParseIdent(ident, alias string) (TableRef, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return TableRef{}, errs.New(errs.ErrKindInvalidInput, "table identifier is empty")
	}

	ref := TableRef{Table: ident, Alias: alias}
	if i := strings.Index(ident, "."); i >= 0 {
		ref.Schema = ident[:i]
		ref.Table = ident[i+1:]
		if ref.Schema == "" || ref.Table == "" {
			return TableRef{}, errs.Newf(errs.ErrKindInvalidInput,
				"malformed table identifier %q", ident)
		}
	}
	if ref.Alias == "" {
		ref.Alias = ref.Table
	}
	return ref, nil
}

// Resolve assembles a full TableSnapshot for ref from the provider.
//
// A table that does not exist is a legitimate outcome, reported as
// found=false with a nil error — callers decide whether absence is a fault.
// Any provider failure aborts the assembly; a snapshot is never returned
// partially populated.
func Resolve(ctx context.Context, p Provider, ref TableRef) (*TableSnapshot, bool, error) {
	schema := ref.Schema
	if schema == "" {
		schema = p.DefaultSchema()
	}

	exists, err := p.TableExists(ctx, schema, ref.Table)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	cols, err := p.Columns(ctx, schema, ref.Table)
	if err != nil {
		return nil, false, err
	}
	pk, err := p.PrimaryKey(ctx, schema, ref.Table)
	if err != nil {
		return nil, false, err
	}
	out, err := p.OutgoingForeignKeys(ctx, schema, ref.Table)
	if err != nil {
		return nil, false, err
	}
	in, err := p.IncomingForeignKeys(ctx, schema, ref.Table)
	if err != nil {
		return nil, false, err
	}
	idx, err := p.Indexes(ctx, schema, ref.Table)
	if err != nil {
		return nil, false, err
	}

	return &TableSnapshot{
		Schema:     schema,
		Table:      ref.Table,
		Columns:    cols,
		PrimaryKey: pk,
		Outgoing:   out,
		Incoming:   in,
		Indexes:    idx,
	}, true, nil
}
