package output

import (
	"encoding/json"
	"io"

	"github.com/nethalo/pgidx/internal/advisor"
)

// JSONRenderer emits the suggestion set as machine-readable JSON.
type JSONRenderer struct {
	w io.Writer
}

type jsonSuggestion struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Queries []string `json:"queries"`
}

func (r *JSONRenderer) RenderSuggestions(suggestions []advisor.Suggestion) {
	out := make([]jsonSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		js := jsonSuggestion{Table: s.Table, Columns: s.Columns}
		for _, q := range s.Queries {
			js.Queries = append(js.Queries, q.Fingerprint)
		}
		out = append(out, js)
	}

	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
