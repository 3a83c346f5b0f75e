// Package join implements the join-path inference engine: given a set of
// tables already referenced in a query and one candidate new table, it
// proposes ranked JOIN clauses derived from the schema's foreign-key graph.
package join

// Join keywords as they appear in rendered clauses.
const (
	KindLeft  = "LEFT JOIN"
	KindInner = "INNER JOIN"
)

// Confidence scores. Direct and reverse foreign-key matches score 95, or
// 100 when the referencing column name embeds the counterpart's alias.
// Shared references score 85, or 90 with an alias match. Candidates at 90
// or above gain an INNER JOIN variant worth 5 more, so the ceiling is 105.
const (
	scoreShared      = 85
	scoreSharedAlias = 90
	scoreDirect      = 95
	scoreDirectAlias = 100
	innerBonus       = 5
	innerThreshold   = 90
)

// Suggestion is one proposed join clause. Lists of suggestions are owned by
// the caller and immutable once returned.
type Suggestion struct {
	// JoinType is "LEFT JOIN" or "INNER JOIN".
	JoinType string `json:"join_type"`

	// Expression is a complete join clause, e.g.
	// "LEFT JOIN orders o ON oi.order_id = o.id".
	Expression string `json:"expression"`

	// Description is the human-readable rationale for the suggestion.
	Description string `json:"description"`

	// Score ranks plausibility; higher is more certain.
	Score int `json:"score"`
}
