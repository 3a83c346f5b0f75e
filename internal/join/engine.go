package join

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/koustreak/JoinPilot/internal/errs"
	"github.com/koustreak/JoinPilot/internal/logger"
	"github.com/koustreak/JoinPilot/internal/metadata"
)

// Engine infers join clauses over the foreign-key graph exposed by a
// metadata.Provider. It holds no mutable state: every request assembles its
// own edge sets and discards them, so concurrent calls need no locking.
type Engine struct {
	provider metadata.Provider
	virtual  []metadata.ForeignKeyEdge
	log      *logger.Logger
}

// New creates an Engine over the given provider. virtual may be nil; when
// present, the declared edges participate in inference exactly like real
// foreign keys (see LoadVirtualRefs).
func New(p metadata.Provider, virtual []metadata.ForeignKeyEdge, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.New(nil)
	}
	// Virtual refs may omit schemas; default them once so the per-request
	// edge matching stays a plain field comparison.
	def := p.DefaultSchema()
	normalized := make([]metadata.ForeignKeyEdge, len(virtual))
	for i, v := range virtual {
		if v.SourceSchema == "" {
			v.SourceSchema = def
		}
		if v.TargetSchema == "" {
			v.TargetSchema = def
		}
		normalized[i] = v
	}
	return &Engine{provider: p, virtual: normalized, log: log}
}

// SuggestJoins proposes join clauses that connect newTable to the tables
// already referenced in a query. Existing tables are processed in input
// order, without deduplication; the merged result is sorted by descending
// score and contains no two suggestions with the same rendered expression.
//
// A newTable or existing table that does not resolve is an error. Two
// tables with no relationship at all produce an empty slice and a nil
// error — "no suggestions" is a legitimate answer, not a fault.
//
// Provider lookups for the individual pairs run concurrently; if any of
// them fails or ctx is cancelled the whole call fails. Partial results are
// never returned.
func (e *Engine) SuggestJoins(ctx context.Context, existing []metadata.TableRef, newTable metadata.TableRef) ([]Suggestion, error) {
	for _, ref := range existing {
		if ref.Alias == "" {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "table %q has no alias", ref.Table)
		}
	}
	if newTable.Alias == "" {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "table %q has no alias", newTable.Table)
	}

	right, err := e.resolveRef(ctx, newTable)
	if err != nil {
		return nil, err
	}
	rEdges, err := e.outgoingEdges(ctx, right)
	if err != nil {
		return nil, err
	}

	perPair := make([][]Suggestion, len(existing))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range existing {
		g.Go(func() error {
			left, err := e.resolveRef(gctx, ref)
			if err != nil {
				return err
			}
			lEdges, err := e.outgoingEdges(gctx, left)
			if err != nil {
				return err
			}
			perPair[i] = pairCandidates(left, right, lEdges, rEdges)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Suggestion
	for _, cands := range perPair {
		all = append(all, cands...)
	}

	ranked := rank(all)
	e.log.Debugf("suggest joins: table=%s candidates=%d returned=%d",
		right.Qualified(), len(all), len(ranked))
	return ranked, nil
}

// rank orders candidates by descending score (stable, so ties keep input
// order) and then drops duplicate expressions. Sorting happens first so
// that when the same clause emerges from several pairs the highest-scoring
// occurrence is the one kept.
func rank(cands []Suggestion) []Suggestion {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})

	seen := make(map[string]bool, len(cands))
	out := make([]Suggestion, 0, len(cands))
	for _, c := range cands {
		if seen[c.Expression] {
			continue
		}
		seen[c.Expression] = true
		out = append(out, c)
	}
	return out
}
