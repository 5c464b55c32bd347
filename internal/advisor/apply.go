package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nethalo/pgidx/internal/pg"
)

// Apply creates the accepted indexes. The whole operation runs under the
// process-wide advisory lock; existing indexes are re-read first because
// another instance may have built one of them in the meantime. A lost lock
// race on an individual index is logged and skipped; any other error aborts.
func (a *Advisor) Apply(ctx context.Context, suggestions []Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	tables := make(map[string]bool)
	for _, s := range suggestions {
		tables[s.Table] = true
	}

	return a.db.WithAdvisoryLock(ctx, func() error {
		existing, err := a.cat.Indexes(ctx, setToSlice(tables))
		if err != nil {
			return err
		}

		for _, s := range suggestions {
			cand := s.Candidate()
			if coveredByExisting(cand, existing) {
				a.log.Debug("Index already exists: %s", cand)
				continue
			}

			quoted := make([]string, len(s.Columns))
			for i, col := range s.Columns {
				quoted[i] = pg.QuoteIdent(col)
			}
			ddl := fmt.Sprintf("CREATE INDEX CONCURRENTLY ON %s (%s)",
				pg.QuoteIdent(s.Table), strings.Join(quoted, ", "))

			start := time.Now()
			if err := a.db.Exec(ctx, ddl); err != nil {
				if pg.IsLockNotAvailable(err) {
					a.log.Info("Could not acquire lock: %s", cand)
					continue
				}
				return fmt.Errorf("creating index on %s: %w", s.Table, err)
			}
			a.log.Info("Index created: %s (%d ms)", cand, time.Since(start).Milliseconds())
		}
		return nil
	})
}
