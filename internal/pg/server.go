package pg

import (
	"context"
	"fmt"
)

// Capabilities describes what the connected server offers the advisor.
type Capabilities struct {
	VersionNum        int    // server_version_num, e.g. 160002
	Version           string // human-readable server_version
	HasStatStatements bool
	StatsTimeColumn   string // "total_exec_time" (13+) or "total_time"
}

// DetectCapabilities probes the server once per process: version, whether the
// statement-statistics view is installed, and which total-time column it
// carries (renamed in Postgres 13).
func DetectCapabilities(ctx context.Context, conn *Conn) (*Capabilities, error) {
	caps := &Capabilities{}

	err := conn.QueryRow(ctx, "SELECT current_setting('server_version_num')::int, current_setting('server_version')").
		Scan(&caps.VersionNum, &caps.Version)
	if err != nil {
		return nil, fmt.Errorf("detecting server version: %w", err)
	}

	err = conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_extension WHERE extname = 'pg_stat_statements'
		)
	`).Scan(&caps.HasStatStatements)
	if err != nil {
		return nil, fmt.Errorf("detecting pg_stat_statements: %w", err)
	}

	if caps.HasStatStatements {
		var hasExecTime bool
		err = conn.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'pg_stat_statements' AND column_name = 'total_exec_time'
			)
		`).Scan(&hasExecTime)
		if err != nil {
			return nil, fmt.Errorf("detecting pg_stat_statements columns: %w", err)
		}
		if hasExecTime {
			caps.StatsTimeColumn = "total_exec_time"
		} else {
			caps.StatsTimeColumn = "total_time"
		}
	}

	return caps, nil
}
