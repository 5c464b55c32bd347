package source

import (
	"context"
	"strings"
	"testing"
	"time"
)

func collectEvents(t *testing.T, log string) []Event {
	t.Helper()
	var events []Event
	if err := ParseLogLines(strings.NewReader(log), func(ev Event) { events = append(events, ev) }); err != nil {
		t.Fatal(err)
	}
	return events
}

func TestParseLogLines(t *testing.T) {
	log := `2026-08-01 00:00:12 UTC [73] LOG:  duration: 231.5 ms  statement: SELECT * FROM ratings WHERE user_id = 1
2026-08-01 00:00:13 UTC [73] LOG:  duration: 12.0 ms  statement: SELECT 1
2026-08-01 00:00:14 UTC [74] LOG:  duration: 88.1 ms  execute s0: SELECT * FROM movies WHERE id = $1
`
	events := collectEvents(t, log)
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].DurationMS != 231.5 || events[0].Statement != "SELECT * FROM ratings WHERE user_id = 1" {
		t.Errorf("event 0 = %+v", events[0])
	}
	if events[2].Statement != "SELECT * FROM movies WHERE id = $1" {
		t.Errorf("event 2 = %+v", events[2])
	}
}

func TestParseLogLinesMultiline(t *testing.T) {
	log := `2026-08-01 00:00:12 UTC [73] LOG:  duration: 500.0 ms  statement: SELECT *
	FROM ratings
	WHERE user_id = 1
2026-08-01 00:00:13 UTC [73] LOG:  connection received: host=10.0.0.7
2026-08-01 00:00:14 UTC [73] LOG:  duration: 100.0 ms  statement: SELECT 1
`
	events := collectEvents(t, log)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	want := "SELECT *\n\tFROM ratings\n\tWHERE user_id = 1"
	if events[0].Statement != want {
		t.Errorf("statement = %q, want %q", events[0].Statement, want)
	}
	if events[1].DurationMS != 100.0 {
		t.Errorf("event 1 = %+v", events[1])
	}
}

func TestParseLogLinesIgnoresOtherEntries(t *testing.T) {
	log := `2026-08-01 00:00:12 UTC [73] LOG:  checkpoint starting: time
2026-08-01 00:00:13 UTC [73] ERROR:  relation "nope" does not exist
2026-08-01 00:00:14 UTC [73] STATEMENT:  SELECT * FROM nope
`
	if events := collectEvents(t, log); len(events) != 0 {
		t.Fatalf("events = %v, want none", events)
	}
}

func TestLogStreamNextBatch(t *testing.T) {
	log := `2026-08-01 00:00:12 UTC [73] LOG:  duration: 90000.0 ms  statement: SELECT * FROM ratings WHERE user_id = 1
2026-08-01 00:00:13 UTC [73] LOG:  duration: 95000.0 ms  statement: SELECT * FROM ratings WHERE user_id = 2
2026-08-01 00:00:14 UTC [73] LOG:  duration: 10.0 ms  statement: SELECT * FROM ratings WHERE movie_id = 3
`
	// min-time of 1 minute drops the 10 ms query; the 90 s and 95 s queries share
	// a fingerprint and collapse to one.
	s := NewLogStream(strings.NewReader(log), 50*time.Millisecond, 1)

	batch, err := s.NextBatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 1 {
		t.Fatalf("batch = %d queries, want 1", len(batch))
	}
	if batch[0].Statement != "SELECT * FROM ratings WHERE user_id = 1" {
		t.Errorf("kept %q, want the first occurrence", batch[0].Statement)
	}
}

func TestLogStreamEOF(t *testing.T) {
	s := NewLogStream(strings.NewReader(""), 10*time.Millisecond, 0)

	// The empty stream ends immediately; after any buffered batch is
	// delivered, NextBatch reports EOF.
	for i := 0; i < 3; i++ {
		batch, err := s.NextBatch(context.Background())
		if err != nil {
			return // io.EOF as expected
		}
		if len(batch) > 0 {
			t.Fatalf("unexpected batch %v from empty stream", batch)
		}
	}
	t.Fatal("NextBatch never reported end of stream")
}
