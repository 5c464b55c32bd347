package output

import (
	"github.com/nethalo/pgidx/internal/advisor"
)

// TextRenderer is the default format. Suggestions already reach the terminal
// through the reporter's info lines, so there is nothing more to add.
type TextRenderer struct{}

func (r *TextRenderer) RenderSuggestions(suggestions []advisor.Suggestion) {}
