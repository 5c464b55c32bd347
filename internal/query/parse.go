package query

import (
	"encoding/json"
	"fmt"

	pgquery "github.com/pganalyze/pg_query_go/v6"
)

// Parse produces the statement's parse tree in its generic JSON form: nested
// maps and sequences addressable by node-type key.
func Parse(statement string) (map[string]any, error) {
	js, err := pgquery.ParseToJSON(statement)
	if err != nil {
		return nil, fmt.Errorf("parsing statement: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal([]byte(js), &tree); err != nil {
		return nil, fmt.Errorf("decoding parse tree: %w", err)
	}
	return tree, nil
}

// Fingerprint computes the stable identifier for the statement's query shape,
// or the unknown sentinel if parsing fails.
func Fingerprint(statement string) string {
	fp, err := pgquery.Fingerprint(statement)
	if err != nil {
		return FingerprintUnknown
	}
	return fp
}

// Split breaks multi-statement SQL text into individual statements. On scanner
// failure the whole text is returned as a single statement so the evaluator
// can surface the parse error per query.
func Split(sql string) []string {
	stmts, err := pgquery.SplitWithScanner(sql, true)
	if err != nil || len(stmts) == 0 {
		return []string{sql}
	}
	return stmts
}
