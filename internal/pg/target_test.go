package pg

import (
	"testing"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind TargetKind
	}{
		{"bare name", "movies", TargetDatabase},
		{"empty", "", TargetDatabase},
		{"uri", "postgres://localhost/movies", TargetURI},
		{"long uri", "postgresql://u:p@db.example.com:5433/movies?sslmode=require", TargetURI},
		{"conn string", "host=localhost dbname=movies", TargetConnString},
		{"conn string single key", "dbname=movies", TargetConnString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTarget(tt.in)
			if got.Kind != tt.kind {
				t.Errorf("ParseTarget(%q).Kind = %v, want %v", tt.in, got.Kind, tt.kind)
			}
			if got.Value != tt.in {
				t.Errorf("ParseTarget(%q).Value = %q", tt.in, got.Value)
			}
		})
	}
}

func TestTargetConnConfig(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		host     string
		port     int
		user     string
		wantDB   string
		wantHost string
		wantUser string
	}{
		{
			name:     "bare name with flags",
			target:   "movies",
			host:     "db.internal",
			port:     5433,
			user:     "advisor",
			wantDB:   "movies",
			wantHost: "db.internal",
			wantUser: "advisor",
		},
		{
			name:     "uri carries everything",
			target:   "postgres://scott@pg.example.com:5432/movies",
			wantDB:   "movies",
			wantHost: "pg.example.com",
			wantUser: "scott",
		},
		{
			name:     "flag overrides uri host",
			target:   "postgres://scott@pg.example.com/movies",
			host:     "127.0.0.1",
			wantDB:   "movies",
			wantHost: "127.0.0.1",
			wantUser: "scott",
		},
		{
			name:     "conn string",
			target:   "host=10.0.0.7 dbname=movies user=scott",
			wantDB:   "movies",
			wantHost: "10.0.0.7",
			wantUser: "scott",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseTarget(tt.target).ConnConfig(tt.host, tt.port, tt.user, "")
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Database != tt.wantDB {
				t.Errorf("Database = %q, want %q", cfg.Database, tt.wantDB)
			}
			if cfg.Host != tt.wantHost {
				t.Errorf("Host = %q, want %q", cfg.Host, tt.wantHost)
			}
			if cfg.User != tt.wantUser {
				t.Errorf("User = %q, want %q", cfg.User, tt.wantUser)
			}
			if tt.port != 0 && cfg.Port != uint16(tt.port) {
				t.Errorf("Port = %d, want %d", cfg.Port, tt.port)
			}
		})
	}
}

func TestQuoteConnValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"movies", "movies"},
		{"my movies", "'my movies'"},
		{`odd'name`, `'odd\'name'`},
	}
	for _, tt := range tests {
		if got := quoteConnValue(tt.in); got != tt.want {
			t.Errorf("quoteConnValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
