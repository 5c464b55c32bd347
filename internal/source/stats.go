package source

import (
	"context"
	"fmt"
	"time"

	"github.com/nethalo/pgidx/internal/pg"
	"github.com/nethalo/pgidx/internal/query"
)

// statsBatchLimit caps how many statements one poll of the statistics view
// contributes to a batch.
const statsBatchLimit = 100

// Stats polls the server's statement-statistics view for the most expensive
// query shapes.
type Stats struct {
	conn     *pg.Conn
	timeCol  string
	minTime  float64 // minutes of accumulated time
	interval time.Duration
	polled   bool
}

// NewStats builds the statistics-view source. The caller supplies the detected
// total-time column name, which differs across server versions.
func NewStats(conn *pg.Conn, caps *pg.Capabilities, minTimeMinutes float64, interval time.Duration) (*Stats, error) {
	if !caps.HasStatStatements {
		return nil, fmt.Errorf("pg_stat_statements is not installed: add it to shared_preload_libraries and run CREATE EXTENSION pg_stat_statements")
	}
	return &Stats{conn: conn, timeCol: caps.StatsTimeColumn, minTime: minTimeMinutes, interval: interval}, nil
}

// NextBatch reads the view, filters by accumulated time, and deduplicates by
// fingerprint keeping the first (most expensive) occurrence. Polls after the
// first call wait out the batch interval.
func (s *Stats) NextBatch(ctx context.Context) ([]*query.Query, error) {
	if s.polled {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.interval):
		}
	}
	s.polled = true

	// The time column name is detected from the catalog, not user input, so
	// interpolating it is safe; everything else is parameterized.
	sql := fmt.Sprintf(`
		SELECT query, calls, %[1]s
		FROM pg_stat_statements
		JOIN pg_database ON pg_database.oid = pg_stat_statements.dbid
		WHERE datname = current_database() AND %[1]s >= $1
		ORDER BY %[1]s DESC
		LIMIT %[2]d
	`, s.timeCol, statsBatchLimit)

	rows, err := s.conn.Query(ctx, sql, s.minTime*60000)
	if err != nil {
		return nil, fmt.Errorf("reading pg_stat_statements: %w", err)
	}
	defer rows.Close()

	var batch []*query.Query
	for rows.Next() {
		var stmt string
		var calls int64
		var totalTime float64
		if err := rows.Scan(&stmt, &calls, &totalTime); err != nil {
			return nil, err
		}
		q := query.New(stmt)
		q.Calls = calls
		q.TotalTime = totalTime
		batch = append(batch, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return query.Dedupe(batch), nil
}
