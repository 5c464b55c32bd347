package source

import (
	"bufio"
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nethalo/pgidx/internal/query"
)

// Event is one slow-query event recovered from the log stream.
type Event struct {
	Statement  string
	DurationMS float64
}

var (
	// duration: 123.456 ms  statement: SELECT ...
	// duration: 123.456 ms  execute <name>: SELECT ...
	reDuration = regexp.MustCompile(`duration: (\d+(?:\.\d+)?) ms\s+(?:statement|execute [^:]*):\s*(.*)`)
	// A fresh log entry carries a severity tag; anything else is a
	// continuation of the previous statement.
	reLogEntry = regexp.MustCompile(`(?:LOG|ERROR|FATAL|WARNING|DETAIL|HINT|STATEMENT|CONTEXT):`)
)

// ParseLogLines extracts slow-query events from log lines. Multi-line
// statements continue until the next log entry.
func ParseLogLines(r io.Reader, emit func(Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending *Event
	flush := func() {
		if pending != nil {
			emit(*pending)
			pending = nil
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if m := reDuration.FindStringSubmatch(line); m != nil {
			flush()
			ms, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			pending = &Event{Statement: m[2], DurationMS: ms}
			continue
		}
		if reLogEntry.MatchString(line) {
			flush()
			continue
		}
		if pending != nil {
			pending.Statement += "\n" + strings.TrimRight(line, " \t")
		}
	}
	flush()
	return scanner.Err()
}

// LogStream tails the server's slow-query log on standard input, accumulating
// events for interval seconds before emitting a deduplicated batch.
type LogStream struct {
	interval time.Duration
	minTime  float64 // minutes

	events chan Event
}

// NewLogStream starts tailing r. The reader runs until EOF; batches are cut
// every interval.
func NewLogStream(r io.Reader, interval time.Duration, minTimeMinutes float64) *LogStream {
	s := &LogStream{
		interval: interval,
		minTime:  minTimeMinutes,
		events:   make(chan Event, 256),
	}
	go func() {
		defer close(s.events)
		_ = ParseLogLines(r, func(ev Event) { s.events <- ev })
	}()
	return s
}

// NextBatch blocks for the configured interval (or until the stream ends),
// then returns the events above the minimum duration, fingerprint-deduplicated.
// Returns io.EOF once the stream is exhausted and drained.
func (s *LogStream) NextBatch(ctx context.Context) ([]*query.Query, error) {
	minMS := s.minTime * 60000
	var batch []*query.Query
	deadline := time.After(s.interval)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return query.Dedupe(batch), nil
		case ev, ok := <-s.events:
			if !ok {
				if len(batch) == 0 {
					return nil, io.EOF
				}
				return query.Dedupe(batch), nil
			}
			if ev.DurationMS < minMS {
				continue
			}
			batch = append(batch, query.New(ev.Statement))
		}
	}
}
