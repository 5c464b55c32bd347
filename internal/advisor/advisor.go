// Package advisor implements the index-candidate evaluation pipeline: column
// mining, hypothetical index creation, re-planning, and the cost-savings
// decision that turns a workload batch into a suggestion set.
package advisor

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/nethalo/pgidx/internal/pg"
	"github.com/nethalo/pgidx/internal/query"
)

// analyzeMaxAge is how stale a table's statistics may be before the evaluator
// refreshes them.
const analyzeMaxAge = time.Hour

// DB is the planning surface the evaluator needs.
type DB interface {
	Explain(ctx context.Context, stmt string) (map[string]any, float64, error)
	Exec(ctx context.Context, sql string, args ...any) error
	WithAdvisoryLock(ctx context.Context, fn func() error) error
}

// Catalog answers schema questions.
type Catalog interface {
	ListTables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, tables []string) ([]pg.Column, error)
	Indexes(ctx context.Context, tables []string) ([]pg.Index, error)
	LastAnalyzeTimes(ctx context.Context, tables []string) (map[string]time.Time, error)
	Analyze(ctx context.Context, table string) error
}

// Hypo manages session-scoped hypothetical indexes.
type Hypo interface {
	Reset(ctx context.Context) error
	Create(ctx context.Context, table string, columns []string) (string, error)
	Candidate(name string) (pg.Candidate, bool)
}

// Logger is the reporting surface, leveled per the tool's verbosity flags.
type Logger interface {
	Error(format string, args ...any)
	Info(format string, args ...any)
	Debug(format string, args ...any)
	Debug2(format string, args ...any)
	Debug3(format string, args ...any)
}

// Options tune the evaluation.
type Options struct {
	Include []string // if set, restrict candidates to these tables
	Exclude []string // tables never to index
}

// Suggestion is one accepted index candidate together with the queries that
// earned it.
type Suggestion struct {
	Table   string
	Columns []string
	Queries []*query.Query
}

func (s Suggestion) Candidate() pg.Candidate {
	return pg.Candidate{Table: s.Table, Columns: s.Columns}
}

// Advisor evaluates workload batches and optionally applies the results.
type Advisor struct {
	db   DB
	cat  Catalog
	hypo Hypo
	log  Logger
	opts Options

	now func() time.Time
}

func New(db DB, cat Catalog, hypo Hypo, log Logger, opts Options) *Advisor {
	return &Advisor{db: db, cat: cat, hypo: hypo, log: log, opts: opts, now: time.Now}
}

// Evaluate runs the full pipeline over a fingerprint-unique batch and returns
// the final suggestion set, sorted.
func (a *Advisor) Evaluate(ctx context.Context, batch []*query.Query) ([]Suggestion, error) {
	if err := a.hypo.Reset(ctx); err != nil {
		return nil, err
	}

	tables, err := a.tableUniverse(ctx, batch)
	if err != nil {
		return nil, err
	}

	if err := a.refreshStatistics(ctx, tables); err != nil {
		return nil, err
	}

	// Pass 0: baseline plans, no hypothetical indexes.
	a.explainPass(ctx, batch, 0)

	// Narrow to explainable high-cost queries and their tables.
	var candidates []*query.Query
	narrowed := make(map[string]bool)
	for _, q := range batch {
		if !q.Explainable {
			continue
		}
		if !q.HighCost() {
			q.SkipReason = query.ReasonLowCost
			continue
		}
		candidates = append(candidates, q)
		for _, t := range q.Tables {
			if tables[t] {
				narrowed[t] = true
			}
		}
	}

	byTable := a.candidateColumns(ctx, candidates, narrowed)

	// Pass 1: one hypothetical index per eligible column.
	for _, t := range sortedKeys(byTable) {
		for _, col := range byTable[t] {
			name, err := a.hypo.Create(ctx, t, []string{col.Name})
			if err != nil {
				return nil, err
			}
			a.log.Debug3("Hypothetical index %s: %s (%s)", name, t, col.Name)
		}
	}
	a.explainPass(ctx, candidates, 1)

	// Pass 2: every ordered pair of eligible columns per table.
	for _, t := range sortedKeys(byTable) {
		cols := byTable[t]
		for i := range cols {
			for j := range cols {
				if i == j {
					continue
				}
				name, err := a.hypo.Create(ctx, t, []string{cols[i].Name, cols[j].Name})
				if err != nil {
					return nil, err
				}
				a.log.Debug3("Hypothetical index %s: %s (%s, %s)", name, t, cols[i].Name, cols[j].Name)
			}
		}
	}
	a.explainPass(ctx, candidates, 2)

	existing, err := a.cat.Indexes(ctx, setToSlice(narrowed))
	if err != nil {
		return nil, err
	}

	suggestions := a.decide(candidates, existing)

	a.report(batch, suggestions)
	return suggestions, nil
}

// tableUniverse intersects the batch's referenced tables with the database's
// tables, flags queries referencing unknown tables, and applies the
// include/exclude filters.
func (a *Advisor) tableUniverse(ctx context.Context, batch []*query.Query) (map[string]bool, error) {
	known, err := a.cat.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	knownSet := make(map[string]bool, len(known))
	for _, t := range known {
		knownSet[t] = true
	}

	tables := make(map[string]bool)
	for _, q := range batch {
		missing := false
		for _, t := range q.Tables {
			if knownSet[t] {
				tables[t] = true
			} else {
				missing = true
			}
		}
		q.MissingTables = missing
	}

	if len(a.opts.Include) > 0 {
		included := make(map[string]bool, len(a.opts.Include))
		for _, t := range a.opts.Include {
			included[t] = true
		}
		for t := range tables {
			if !included[t] {
				delete(tables, t)
			}
		}
	}
	for _, t := range a.opts.Exclude {
		delete(tables, t)
	}
	return tables, nil
}

// refreshStatistics analyzes any table whose statistics are missing or older
// than the freshness window, so plan costs reflect current data.
func (a *Advisor) refreshStatistics(ctx context.Context, tables map[string]bool) error {
	if len(tables) == 0 {
		return nil
	}
	list := setToSlice(tables)
	times, err := a.cat.LastAnalyzeTimes(ctx, list)
	if err != nil {
		return err
	}
	for _, t := range list {
		if at, ok := times[t]; ok && a.now().Sub(at) < analyzeMaxAge {
			continue
		}
		a.log.Debug("Analyzing %s", t)
		if err := a.cat.Analyze(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// explainPass plans every eligible query in the batch and records the cost
// sample for pass k. An EXPLAIN failure marks the query non-explainable; it is
// silently excluded from subsequent passes.
func (a *Advisor) explainPass(ctx context.Context, queries []*query.Query, pass int) {
	for _, q := range queries {
		if pass == 0 {
			if !q.Parseable() {
				q.SkipReason = query.ReasonUnparseable
				continue
			}
			if len(q.Tables) == 0 {
				q.SkipReason = query.ReasonNoTables
				continue
			}
			if q.MissingTables {
				q.SkipReason = query.ReasonMissingTables
				continue
			}
		} else if !q.Explainable {
			continue
		}

		plan, cost, err := a.db.Explain(ctx, q.Statement)
		if err != nil {
			q.Explainable = false
			q.SkipReason = query.ReasonExplainFailed
			a.log.Debug2("Explain failed (pass %d): %v", pass, err)
			continue
		}
		q.Explainable = true
		q.Plans = append(q.Plans, plan)
		q.Costs = append(q.Costs, cost)
	}
}

// candidateColumns mines column names from the high-cost queries' parse trees,
// intersects them with the catalog, drops JSON-typed columns, and groups the
// survivors by table.
func (a *Advisor) candidateColumns(ctx context.Context, candidates []*query.Query, tables map[string]bool) map[string][]pg.Column {
	byTable := make(map[string][]pg.Column)
	if len(candidates) == 0 || len(tables) == 0 {
		return byTable
	}

	mined := make(map[string]bool)
	for _, q := range candidates {
		for _, name := range query.ColumnRefNames(q.Tree) {
			a.log.Debug3("Column reference: %s", name)
			mined[name] = true
		}
	}

	cols, err := a.cat.Columns(ctx, setToSlice(tables))
	if err != nil {
		a.log.Error("listing columns: %v", err)
		return byTable
	}
	for _, col := range cols {
		if !mined[col.Name] {
			continue
		}
		if col.DataType == "json" || col.DataType == "jsonb" {
			a.log.Debug3("Skipping json column: %s.%s", col.Table, col.Name)
			continue
		}
		a.log.Debug3("Candidate column: %s.%s (%s)", col.Table, col.Name, col.DataType)
		byTable[col.Table] = append(byTable[col.Table], col)
	}
	return byTable
}

// decide applies the cost-savings policy per query, then the global dedup, and
// assembles the suggestion set.
func (a *Advisor) decide(candidates []*query.Query, existing []pg.Index) []Suggestion {
	accepted := make(map[string]*Suggestion)

	for _, q := range candidates {
		if !q.Explainable || len(q.Costs) < 3 {
			continue
		}

		savings1 := q.Costs[1] < 0.5*q.Costs[0]
		// The multi-column pass must beat the single-column pass by half, and
		// the single-column residual must still be appreciable.
		savings2 := q.Costs[1] > 100 && q.Costs[2] < 0.5*q.Costs[1]

		q.Pass1Indexes = a.hypoNames(q.Plans[1])
		q.Pass2Indexes = a.hypoNames(q.Plans[2])

		pass := 1
		if savings2 {
			pass = 2
		}
		recovered := a.recover(q.Plans[pass], existing)

		// Bad-pair guard: a multi-column plan touching several hypothetical
		// indexes is not a single clear winner.
		if savings2 && len(recovered) > 1 {
			savings2 = false
			recovered = a.recover(q.Plans[1], existing)
		}

		q.SuggestIndex = (savings1 || savings2) && len(recovered) == 1
		if !q.SuggestIndex {
			if q.SkipReason == "" && !savings1 && !savings2 {
				q.SkipReason = query.ReasonLowCost
			}
			continue
		}

		cand := recovered[0]
		q.Indexes = recovered
		key := cand.Key()
		if s, ok := accepted[key]; ok {
			s.Queries = append(s.Queries, q)
		} else {
			accepted[key] = &Suggestion{Table: cand.Table, Columns: cand.Columns, Queries: []*query.Query{q}}
		}
	}

	// Global dedup: a suggested single-column index whose column leads a
	// suggested multi-column index on the same table is covered by it.
	covered := make(map[string]bool)
	for _, s := range accepted {
		if len(s.Columns) > 1 {
			covered[pg.Candidate{Table: s.Table, Columns: s.Columns[:1]}.Key()] = true
		}
	}

	var result []Suggestion
	for key, s := range accepted {
		if covered[key] {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Table != result[j].Table {
			return result[i].Table < result[j].Table
		}
		return strings.Join(result[i].Columns, ",") < strings.Join(result[j].Columns, ",")
	})
	return result
}

// recover maps the hypothetical indexes a plan used back to their candidates,
// dropping any covered by an existing index.
func (a *Advisor) recover(plan map[string]any, existing []pg.Index) []pg.Candidate {
	var out []pg.Candidate
	seen := make(map[string]bool)
	for _, name := range query.IndexNames(plan) {
		cand, ok := a.hypo.Candidate(name)
		if !ok {
			continue // a real index, not one of ours
		}
		if seen[cand.Key()] {
			continue
		}
		seen[cand.Key()] = true
		if coveredByExisting(cand, existing) {
			a.log.Debug2("Covered by existing index: %s", cand)
			continue
		}
		out = append(out, cand)
	}
	return out
}

// hypoNames filters a plan's index names down to hypothetical ones.
func (a *Advisor) hypoNames(plan map[string]any) []string {
	var names []string
	for _, name := range query.IndexNames(plan) {
		if _, ok := a.hypo.Candidate(name); ok {
			names = append(names, name)
		}
	}
	return names
}

// coveredByExisting reports whether a candidate's column list is a leading
// prefix of an existing valid B-tree index on the same table.
func coveredByExisting(cand pg.Candidate, existing []pg.Index) bool {
	for _, idx := range existing {
		if idx.Table != cand.Table || idx.AccessMethod != "btree" {
			continue
		}
		if len(cand.Columns) > len(idx.Columns) {
			continue
		}
		match := true
		for i, c := range cand.Columns {
			if idx.Columns[i] != c {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]pg.Column) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
