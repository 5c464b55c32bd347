// Package query models a single observed SQL statement as it moves through
// the evaluation pipeline: raw text, fingerprint, parse tree, and the cost
// samples captured at each planning pass.
package query

import (
	"github.com/nethalo/pgidx/internal/pg"
)

// FingerprintUnknown marks a statement the parser rejected. Such queries are
// skipped by the evaluator but still surface in debug output.
const FingerprintUnknown = "unknown"

// Skip reasons recorded by the evaluator for queries that produced no
// suggestion.
const (
	ReasonUnparseable   = "unparseable"
	ReasonNoTables      = "no tables"
	ReasonMissingTables = "missing tables"
	ReasonExplainFailed = "explain failed"
	ReasonLowCost       = "low cost"
)

// Query is one fingerprint-unique statement within a batch. It is created by
// a source adapter, mutated only by the evaluator, and discarded at batch end.
type Query struct {
	Statement   string
	Fingerprint string
	Tree        map[string]any // nil when parsing failed

	// Present only when the query came from the statistics view.
	TotalTime float64 // accumulated ms
	Calls     int64

	Tables        []string
	MissingTables bool

	// Costs[k] and Plans[k] exist iff the query was explainable at pass k.
	Costs []float64
	Plans []map[string]any

	Explainable  bool
	SuggestIndex bool
	Indexes      []pg.Candidate // final chosen index list

	// Debug snapshots: hypothetical index names the planner picked per pass.
	Pass1Indexes []string
	Pass2Indexes []string

	SkipReason string
}

// New builds a Query from raw statement text, computing its fingerprint,
// parse tree, and referenced tables up front.
func New(statement string) *Query {
	q := &Query{
		Statement:   statement,
		Fingerprint: Fingerprint(statement),
	}
	if tree, err := Parse(statement); err == nil {
		q.Tree = tree
		q.Tables = TableNames(tree)
	}
	return q
}

// Parseable reports whether the statement produced a usable parse tree.
func (q *Query) Parseable() bool {
	return q.Tree != nil && q.Fingerprint != FingerprintUnknown
}

// HighCost reports whether the baseline planner cost meets the evaluation
// threshold.
func (q *Query) HighCost() bool {
	return len(q.Costs) > 0 && q.Costs[0] >= 100
}

// Dedupe keeps the first query per fingerprint, preserving order.
func Dedupe(queries []*Query) []*Query {
	seen := make(map[string]bool, len(queries))
	out := queries[:0]
	for _, q := range queries {
		if seen[q.Fingerprint] {
			continue
		}
		seen[q.Fingerprint] = true
		out = append(out, q)
	}
	return out
}
