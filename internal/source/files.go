package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nethalo/pgidx/internal/query"
)

// Files evaluates literal SQL files: each file's statements form one batch.
type Files struct {
	paths []string
	next  int
}

func NewFiles(paths []string) *Files {
	return &Files{paths: paths}
}

func (f *Files) NextBatch(ctx context.Context) ([]*query.Query, error) {
	if f.next >= len(f.paths) {
		return nil, io.EOF
	}
	path := f.paths[f.next]
	f.next++

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return statementBatch(string(content)), nil
}

// Statement evaluates a single literal statement, then ends.
type Statement struct {
	sql  string
	done bool
}

func NewStatement(sql string) *Statement {
	return &Statement{sql: sql}
}

func (s *Statement) NextBatch(ctx context.Context) ([]*query.Query, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return statementBatch(s.sql), nil
}

// statementBatch splits SQL text into statements and builds a deduplicated
// batch from them.
func statementBatch(sql string) []*query.Query {
	var batch []*query.Query
	for _, stmt := range query.Split(sql) {
		if stmt == "" {
			continue
		}
		batch = append(batch, query.New(stmt))
	}
	return query.Dedupe(batch)
}
