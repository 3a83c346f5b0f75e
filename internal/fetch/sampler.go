// Package fetch implements the readonly row-sampling path: bounded,
// paginated SELECTs whose oversized field values are truncated before
// leaving the process. Truncation decisions follow the column type
// classification from the metadata layer.
package fetch

import (
	"context"
	"fmt"

	"github.com/koustreak/JoinPilot/internal/database"
	"github.com/koustreak/JoinPilot/internal/errs"
	"github.com/koustreak/JoinPilot/internal/metadata"
)

const truncationMarker = "… [truncated]"

// Options bound a sampler's output.
type Options struct {
	MaxRows       int // hard cap on rows per request
	MaxFieldBytes int // textual values longer than this are truncated
}

// Sampler fetches sample rows from one table at a time.
type Sampler struct {
	db       database.DB
	provider metadata.Provider
	dialect  database.Dialect
	opts     Options
}

// NewSampler creates a Sampler over the given connection. The dialect must
// match the driver behind db.
func NewSampler(db database.DB, p metadata.Provider, dialect database.Dialect, opts Options) *Sampler {
	if opts.MaxRows <= 0 {
		opts.MaxRows = 100
	}
	if opts.MaxFieldBytes <= 0 {
		opts.MaxFieldBytes = 2048
	}
	return &Sampler{db: db, provider: p, dialect: dialect, opts: opts}
}

// SampleRows returns up to limit rows of ref's table starting at offset.
// limit is clamped to the configured maximum; a zero limit means "the
// maximum". The table must exist — absence is the caller's mistake here.
func (s *Sampler) SampleRows(ctx context.Context, ref metadata.TableRef, limit, offset int) ([]map[string]any, error) {
	if offset < 0 {
		return nil, errs.New(errs.ErrKindInvalidInput, "offset must not be negative")
	}
	if limit <= 0 || limit > s.opts.MaxRows {
		limit = s.opts.MaxRows
	}

	snap, found, err := metadata.Resolve(ctx, s.provider, ref)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %q not found", ref.Qualified())
	}

	sql, args, err := database.Select(snap.Table, s.dialect).
		Schema(snap.Schema).
		Limit(limit).
		Offset(offset).
		Build()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	result, err := database.ScanRows(rows)
	if err != nil {
		return nil, err
	}

	classes := make(map[string]metadata.TypeClass, len(snap.Columns))
	for _, c := range snap.Columns {
		classes[c.Name] = c.Class
	}
	for _, row := range result {
		for col, val := range row {
			row[col] = s.renderValue(classes[col], val)
		}
	}
	return result, nil
}

// renderValue applies the truncation policy to one field value. Binary
// columns never leave the process as raw bytes; textual columns are cut at
// the configured threshold with an explicit marker so clients can tell a
// short value from a shortened one.
func (s *Sampler) renderValue(class metadata.TypeClass, val any) any {
	if val == nil {
		return nil
	}
	switch class {
	case metadata.ClassBinary:
		if b, ok := val.([]byte); ok {
			return fmt.Sprintf("<%d bytes>", len(b))
		}
		if str, ok := val.(string); ok {
			return fmt.Sprintf("<%d bytes>", len(str))
		}
		return val
	case metadata.ClassTextual:
		str, ok := val.(string)
		if !ok {
			// MySQL's driver hands textual values back as []byte.
			if b, bok := val.([]byte); bok {
				str, ok = string(b), true
			}
		}
		if !ok {
			return val
		}
		if len(str) > s.opts.MaxFieldBytes {
			return str[:s.opts.MaxFieldBytes] + truncationMarker
		}
		return str
	default:
		return val
	}
}
