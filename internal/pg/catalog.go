package pg

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Column describes a table column eligible for index key positions.
type Column struct {
	Table    string
	Name     string
	DataType string
}

// Index describes an existing valid, non-expression, non-partial index.
type Index struct {
	Schema       string
	Table        string
	Name         string
	Columns      []string
	AccessMethod string
}

// Candidate identifies a proposed index by table and ordered column list.
type Candidate struct {
	Table   string
	Columns []string
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s (%s)", c.Table, strings.Join(c.Columns, ", "))
}

// Key returns the candidate's identity: order of columns is significant.
func (c Candidate) Key() string {
	return c.Table + ":" + strings.Join(c.Columns, ",")
}

// Catalog answers questions about the current database's tables, columns, and
// existing indexes.
type Catalog struct {
	conn *Conn
}

func NewCatalog(conn *Conn) *Catalog {
	return &Catalog{conn: conn}
}

// ListTables returns the base tables of the current database, excluding
// system schemas.
func (c *Catalog) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_catalog = current_database()
			AND table_type = 'BASE TABLE'
			AND table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Columns returns the columns of the given tables in the public schema, in
// ordinal order.
func (c *Catalog) Columns(ctx context.Context, tables []string) ([]Column, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = ANY($1)
		ORDER BY table_name, ordinal_position
	`, tables)
	if err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Table, &col.Name, &col.DataType); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// Indexes reconstructs the existing valid indexes on the given tables from the
// catalog. Expression and partial indexes are excluded; column lists are
// recovered from the index definition text.
func (c *Catalog) Indexes(ctx context.Context, tables []string) ([]Index, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT
			n.nspname,
			t.relname,
			ix.relname,
			regexp_replace(pg_get_indexdef(i.indexrelid), '^[^\(]*\((.*)\)$', '\1'),
			regexp_replace(pg_get_indexdef(i.indexrelid), '.* USING ([^ ]*) .*', '\1')
		FROM pg_index i
		JOIN pg_class t ON t.oid = i.indrelid
		JOIN pg_class ix ON ix.oid = i.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relname = ANY($1)
			AND n.nspname NOT IN ('pg_catalog', 'information_schema')
			AND i.indisvalid
			AND i.indexprs IS NULL
			AND i.indpred IS NULL
		ORDER BY 1, 2, 3
	`, tables)
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		var columnList string
		if err := rows.Scan(&idx.Schema, &idx.Table, &idx.Name, &columnList, &idx.AccessMethod); err != nil {
			return nil, err
		}
		idx.Columns = splitIndexColumns(columnList)
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

// splitIndexColumns splits the parenthesized column list stripped out of an
// index definition, unquoting identifiers wrapped in double quotes.
func splitIndexColumns(list string) []string {
	parts := strings.Split(list, ", ")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		cols = append(cols, UnquoteIdent(p))
	}
	return cols
}

// LastAnalyzeTimes returns the most recent analyze (manual or auto) per table.
// Tables never analyzed are absent from the map.
func (c *Catalog) LastAnalyzeTimes(ctx context.Context, tables []string) (map[string]time.Time, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT relname, GREATEST(last_analyze, last_autoanalyze)
		FROM pg_stat_user_tables
		WHERE relname = ANY($1)
	`, tables)
	if err != nil {
		return nil, fmt.Errorf("reading analyze times: %w", err)
	}
	defer rows.Close()

	times := make(map[string]time.Time)
	for rows.Next() {
		var name string
		var t *time.Time
		if err := rows.Scan(&name, &t); err != nil {
			return nil, err
		}
		if t != nil {
			times[name] = *t
		}
	}
	return times, rows.Err()
}

// Analyze refreshes planner statistics for a table.
func (c *Catalog) Analyze(ctx context.Context, table string) error {
	return c.conn.Exec(ctx, "ANALYZE "+QuoteIdent(table))
}
