package advisor

import (
	"strconv"
	"strings"

	"github.com/nethalo/pgidx/internal/query"
)

func formatCost(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}

// report emits the per-batch diagnostics. Accepted suggestions log at info;
// their queries' cost traces at debug; every other query's trace at debug2.
func (a *Advisor) report(batch []*query.Query, suggestions []Suggestion) {
	if len(suggestions) == 0 {
		a.log.Info("No new indexes found")
	}
	suggested := make(map[*query.Query]bool)
	for _, s := range suggestions {
		a.log.Info("Index found: %s (%s)", s.Table, strings.Join(s.Columns, ", "))
		for _, q := range s.Queries {
			suggested[q] = true
		}
	}

	for _, q := range batch {
		if suggested[q] {
			a.logQuery(q, a.log.Debug)
		} else {
			a.logQuery(q, a.log.Debug2)
		}
	}
}

// logQuery prints one query's evaluation trace through the given level.
func (a *Advisor) logQuery(q *query.Query, logf func(format string, args ...any)) {
	logf("Query %s", q.Fingerprint)
	if q.TotalTime > 0 && q.Calls > 0 {
		logf("Total time: %.1f min, avg: %.0f ms, calls: %d",
			q.TotalTime/60000, q.TotalTime/float64(q.Calls), q.Calls)
	}
	if q.SkipReason != "" && !q.SuggestIndex {
		logf("Reason: %s", q.SkipReason)
	}
	labels := [3]string{"Start", "Pass1", "Pass2"}
	for i, cost := range q.Costs {
		line := labels[i] + ": " + formatCost(cost)
		switch i {
		case 1:
			if len(q.Pass1Indexes) > 0 {
				line += " : " + strings.Join(q.Pass1Indexes, ", ")
			}
		case 2:
			if len(q.Pass2Indexes) > 0 {
				line += " : " + strings.Join(q.Pass2Indexes, ", ")
			}
		}
		logf("%s", line)
	}
	if q.SuggestIndex {
		finals := make([]string, len(q.Indexes))
		for i, c := range q.Indexes {
			finals[i] = c.String()
		}
		logf("Final: %s", strings.Join(finals, ", "))
	}
	logf("%s", q.Statement)
}
