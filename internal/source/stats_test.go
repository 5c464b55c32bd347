package source

import (
	"strings"
	"testing"
	"time"

	"github.com/nethalo/pgidx/internal/pg"
)

func TestNewStatsRequiresExtension(t *testing.T) {
	_, err := NewStats(nil, &pg.Capabilities{HasStatStatements: false}, 0, time.Minute)
	if err == nil {
		t.Fatal("NewStats accepted a server without pg_stat_statements")
	}
	if !strings.Contains(err.Error(), "pg_stat_statements") {
		t.Errorf("error %q does not name the missing extension", err)
	}
}

func TestNewStatsUsesDetectedTimeColumn(t *testing.T) {
	for _, col := range []string{"total_exec_time", "total_time"} {
		s, err := NewStats(nil, &pg.Capabilities{HasStatStatements: true, StatsTimeColumn: col}, 1, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if s.timeCol != col {
			t.Errorf("timeCol = %q, want %q", s.timeCol, col)
		}
	}
}
