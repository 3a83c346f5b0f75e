package join

import (
	"fmt"
	"strings"

	"github.com/koustreak/JoinPilot/internal/metadata"
)

// pairCandidates enumerates every candidate join for one (left, right) pair.
// left is a table already present in the query, right is the table being
// introduced. lEdges and rEdges are the two tables' full outgoing edge sets.
//
// The three rules are mutually non-exclusive; the merge step deduplicates
// identical rendered expressions across rules and pairs.
func pairCandidates(left, right metadata.TableRef, lEdges, rEdges []metadata.ForeignKeyEdge) []Suggestion {
	var out []Suggestion

	// Rule 1 — direct reference: left holds a foreign key into right.
	for _, e := range lEdges {
		if !edgeTargets(e, right) {
			continue
		}
		score := scoreDirect
		if strings.Contains(e.SourceColumn, right.Alias) {
			score = scoreDirectAlias
		}
		out = appendWithInner(out, Suggestion{
			JoinType:   KindLeft,
			Expression: renderClause(KindLeft, right, left.Alias, e.SourceColumn, right.Alias, e.TargetColumn),
			Description: fmt.Sprintf(
				"Direct foreign key relationship from `%s` to `%s` (FK: `%s`)",
				left.Table, right.Table, e.Constraint),
			Score: score,
		})
	}

	// Rule 2 — reverse reference: right holds a foreign key into left.
	for _, e := range rEdges {
		if !edgeTargets(e, left) {
			continue
		}
		score := scoreDirect
		if strings.Contains(e.SourceColumn, left.Alias) {
			score = scoreDirectAlias
		}
		out = appendWithInner(out, Suggestion{
			JoinType:   KindLeft,
			Expression: renderClause(KindLeft, right, right.Alias, e.SourceColumn, left.Alias, e.TargetColumn),
			Description: fmt.Sprintf(
				"Reverse foreign key relationship from `%s` to `%s` (FK: `%s`)",
				right.Table, left.Table, e.Constraint),
			Score: score,
		})
	}

	// Rule 3 — shared reference: both tables reference the same third
	// table/column, so equality of the two referencing columns is a
	// plausible join condition.
	for _, le := range lEdges {
		for _, re := range rEdges {
			if !le.TargetsSame(re) {
				continue
			}
			score := scoreShared
			if strings.Contains(le.SourceColumn, left.Alias) ||
				strings.Contains(re.SourceColumn, right.Alias) {
				score = scoreSharedAlias
			}
			out = appendWithInner(out, Suggestion{
				JoinType:   KindLeft,
				Expression: renderClause(KindLeft, right, left.Alias, le.SourceColumn, right.Alias, re.SourceColumn),
				Description: fmt.Sprintf(
					"Join through shared reference to `%s` (FK: `%s`, `%s`)",
					le.TargetTable, le.Constraint, re.Constraint),
				Score: score,
			})
		}
	}

	return out
}

// appendWithInner appends s and, when s is confident enough, an INNER JOIN
// variant of it scored 5 higher. The variant is a textual keyword swap of
// the LEFT JOIN clause, not a semantic rewrite.
func appendWithInner(out []Suggestion, s Suggestion) []Suggestion {
	out = append(out, s)
	if s.Score >= innerThreshold {
		out = append(out, Suggestion{
			JoinType:    KindInner,
			Expression:  strings.Replace(s.Expression, KindLeft, KindInner, 1),
			Description: strings.ReplaceAll(s.Description, "Left join", "Inner join"),
			Score:       s.Score + innerBonus,
		})
	}
	return out
}

// renderClause renders a complete join clause introducing table. The alias
// is omitted when it matches the bare table name ("JOIN orders ON …" rather
// than "JOIN orders orders ON …").
func renderClause(kind string, table metadata.TableRef, lQual, lCol, rQual, rCol string) string {
	var sb strings.Builder
	sb.WriteString(kind)
	sb.WriteByte(' ')
	sb.WriteString(table.Table)
	if table.Alias != table.Table {
		sb.WriteByte(' ')
		sb.WriteString(table.Alias)
	}
	sb.WriteString(" ON ")
	sb.WriteString(lQual)
	sb.WriteByte('.')
	sb.WriteString(lCol)
	sb.WriteString(" = ")
	sb.WriteString(rQual)
	sb.WriteByte('.')
	sb.WriteString(rCol)
	return sb.String()
}

// edgeTargets reports whether e references ref's table. The comparison
// includes the schema so same-named tables in different schemas never match.
func edgeTargets(e metadata.ForeignKeyEdge, ref metadata.TableRef) bool {
	return e.TargetTable == ref.Table && e.TargetSchema == ref.Schema
}
