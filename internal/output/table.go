package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/nethalo/pgidx/internal/advisor"
)

// TableRenderer prints the suggestion set as a grid.
type TableRenderer struct {
	w io.Writer
}

func (r *TableRenderer) RenderSuggestions(suggestions []advisor.Suggestion) {
	if len(suggestions) == 0 {
		return
	}
	table := tablewriter.NewWriter(r.w)
	table.Header("Table", "Columns", "Queries")
	for _, s := range suggestions {
		_ = table.Append(s.Table, strings.Join(s.Columns, ", "), strconv.Itoa(len(s.Queries)))
	}
	_ = table.Render()
}
