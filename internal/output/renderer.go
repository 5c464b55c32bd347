package output

import (
	"io"

	"github.com/nethalo/pgidx/internal/advisor"
)

// Renderer emits the final suggestion summary of a batch.
type Renderer interface {
	RenderSuggestions(suggestions []advisor.Suggestion)
}

// NewRenderer creates a renderer for the given format. The text renderer is
// silent: its content is already carried by the reporter's info lines.
func NewRenderer(format string, w io.Writer) Renderer {
	switch format {
	case "json":
		return &JSONRenderer{w: w}
	case "table":
		return &TableRenderer{w: w}
	case "plain":
		return &PlainRenderer{w: w}
	default:
		return &TextRenderer{}
	}
}
