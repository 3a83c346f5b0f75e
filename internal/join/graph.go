package join

import (
	"context"

	"github.com/koustreak/JoinPilot/internal/errs"
	"github.com/koustreak/JoinPilot/internal/metadata"
)

// outgoingEdges returns ref's full outgoing foreign-key edge set: the real
// edges reported by the provider plus any virtual references declared for
// the table. The engine never sees the difference.
//
// The full set matters — shared-reference detection needs every edge the
// table holds, not only the ones pointing at the other table of the pair.
// One provider query per table keeps the cost independent of schema size.
func (e *Engine) outgoingEdges(ctx context.Context, ref metadata.TableRef) ([]metadata.ForeignKeyEdge, error) {
	edges, err := e.provider.OutgoingForeignKeys(ctx, ref.Schema, ref.Table)
	if err != nil {
		return nil, err
	}
	for _, v := range e.virtual {
		if v.SourceSchema == ref.Schema && v.SourceTable == ref.Table {
			edges = append(edges, v)
		}
	}
	return edges, nil
}

// resolveRef fills in the provider's default schema for unqualified refs
// and verifies the table exists. A missing table here is a caller mistake,
// distinct from the absence of a relationship, and is reported as an error.
func (e *Engine) resolveRef(ctx context.Context, ref metadata.TableRef) (metadata.TableRef, error) {
	if ref.Schema == "" {
		ref.Schema = e.provider.DefaultSchema()
	}
	exists, err := e.provider.TableExists(ctx, ref.Schema, ref.Table)
	if err != nil {
		return ref, err
	}
	if !exists {
		return ref, errs.Newf(errs.ErrKindNotFound, "table %q not found", ref.Qualified())
	}
	return ref, nil
}
