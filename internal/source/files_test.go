package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestStatementSource(t *testing.T) {
	s := NewStatement("SELECT * FROM ratings WHERE user_id = 1")

	batch, err := s.NextBatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 1 {
		t.Fatalf("batch = %d queries, want 1", len(batch))
	}

	if _, err := s.NextBatch(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("second batch err = %v, want io.EOF", err)
	}
}

func TestStatementSourceSplitsAndDedupes(t *testing.T) {
	s := NewStatement("SELECT * FROM ratings WHERE user_id = 1; SELECT * FROM ratings WHERE user_id = 2; SELECT * FROM movies WHERE id = 3")
	batch, err := s.NextBatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// The two ratings statements share a fingerprint.
	if len(batch) != 2 {
		t.Fatalf("batch = %d queries, want 2", len(batch))
	}
}

func TestFilesSourceOneBatchPerFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.sql")
	b := filepath.Join(dir, "b.sql")
	if err := os.WriteFile(a, []byte("SELECT * FROM ratings WHERE user_id = 1;\nSELECT * FROM movies WHERE id = 2;"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("SELECT * FROM ratings WHERE rating > 3"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewFiles([]string{a, b})

	first, err := s.NextBatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 {
		t.Fatalf("first batch = %d queries, want 2", len(first))
	}

	second, err := s.NextBatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 {
		t.Fatalf("second batch = %d queries, want 1", len(second))
	}

	if _, err := s.NextBatch(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("third batch err = %v, want io.EOF", err)
	}
}

func TestFilesSourceMissingFile(t *testing.T) {
	s := NewFiles([]string{"/does/not/exist.sql"})
	if _, err := s.NextBatch(context.Background()); err == nil {
		t.Fatal("missing file did not error")
	}
}
