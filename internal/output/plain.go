package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/nethalo/pgidx/internal/advisor"
)

// PlainRenderer prints one CREATE INDEX statement per suggestion, suitable for
// piping into psql.
type PlainRenderer struct {
	w io.Writer
}

func (r *PlainRenderer) RenderSuggestions(suggestions []advisor.Suggestion) {
	for _, s := range suggestions {
		fmt.Fprintf(r.w, "CREATE INDEX CONCURRENTLY ON %s (%s);\n",
			s.Table, strings.Join(s.Columns, ", "))
	}
}
