package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// executor is the slice of Conn the hypothetical index engine uses.
type executor interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Hypo wraps HypoPG's session-scoped hypothetical index state. The database
// assigns each created index an opaque name; Hypo keeps the reverse mapping
// from that name to the candidate that produced it, valid until the next Reset.
type Hypo struct {
	conn   executor
	byName map[string]Candidate
}

func NewHypo(conn *Conn) *Hypo {
	return &Hypo{conn: conn, byName: make(map[string]Candidate)}
}

// Reset drops all hypothetical indexes in the session and discards the
// name mapping.
func (h *Hypo) Reset(ctx context.Context) error {
	if err := h.conn.Exec(ctx, "SELECT hypopg_reset()"); err != nil {
		return fmt.Errorf("resetting hypothetical indexes: %w", err)
	}
	h.byName = make(map[string]Candidate)
	return nil
}

// Create materializes a hypothetical index on the ordered column list and
// returns the name the database assigned it.
func (h *Hypo) Create(ctx context.Context, table string, columns []string) (string, error) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = QuoteIdent(col)
	}
	ddl := fmt.Sprintf("CREATE INDEX ON %s (%s)", QuoteIdent(table), strings.Join(quoted, ", "))

	var name string
	err := h.conn.QueryRow(ctx, "SELECT indexname FROM hypopg_create_index($1)", ddl).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("creating hypothetical index on %s: %w", table, err)
	}
	h.byName[name] = Candidate{Table: table, Columns: columns}
	return name, nil
}

// Candidate maps a hypothetical index name back to the candidate it was
// created for. Names the engine did not create (real indexes) report false.
func (h *Hypo) Candidate(name string) (Candidate, bool) {
	c, ok := h.byName[name]
	return c, ok
}
