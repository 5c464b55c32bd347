package pg

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

// fakeExecutor scripts hypopg responses and records the DDL handed to
// hypopg_create_index.
type fakeExecutor struct {
	execs   []string
	created []string
	serial  int
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*string); ok {
		*p = r.value
	}
	return nil
}

func (f *fakeExecutor) Exec(ctx context.Context, sql string, args ...any) error {
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeExecutor) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if len(args) == 1 {
		if ddl, ok := args[0].(string); ok {
			f.created = append(f.created, ddl)
		}
	}
	f.serial++
	return fakeRow{value: fmt.Sprintf("<%d>btree_hypo", 13540+f.serial)}
}

func TestHypoCreateMapsNameToCandidate(t *testing.T) {
	exec := &fakeExecutor{}
	h := &Hypo{conn: exec, byName: make(map[string]Candidate)}
	ctx := context.Background()

	name, err := h.Create(ctx, "ratings", []string{"user_id", "movie_id"})
	if err != nil {
		t.Fatal(err)
	}

	cand, ok := h.Candidate(name)
	if !ok {
		t.Fatalf("no candidate mapped for %q", name)
	}
	if cand.Table != "ratings" || len(cand.Columns) != 2 || cand.Columns[0] != "user_id" || cand.Columns[1] != "movie_id" {
		t.Errorf("candidate = %+v", cand)
	}

	wantDDL := `CREATE INDEX ON "ratings" ("user_id", "movie_id")`
	if len(exec.created) != 1 || exec.created[0] != wantDDL {
		t.Errorf("ddl = %v, want %q", exec.created, wantDDL)
	}
}

func TestHypoResetDiscardsMapping(t *testing.T) {
	exec := &fakeExecutor{}
	h := &Hypo{conn: exec, byName: make(map[string]Candidate)}
	ctx := context.Background()

	name, err := h.Create(ctx, "ratings", []string{"user_id"})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	if _, ok := h.Candidate(name); ok {
		t.Error("mapping survived reset")
	}
	if len(exec.execs) != 1 || exec.execs[0] != "SELECT hypopg_reset()" {
		t.Errorf("execs = %v", exec.execs)
	}
}

func TestHypoUnknownName(t *testing.T) {
	h := &Hypo{conn: &fakeExecutor{}, byName: make(map[string]Candidate)}
	if _, ok := h.Candidate("ratings_user_id_idx"); ok {
		t.Error("real index name resolved to a hypothetical candidate")
	}
}
