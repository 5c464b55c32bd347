package cmd

import (
	"testing"

	"github.com/nethalo/pgidx/internal/pg"
	"github.com/spf13/viper"
)

func TestFlagDefaults(t *testing.T) {
	tests := []struct {
		flag string
		want string
	}{
		{"port", "5432"},
		{"interval", "60"},
		{"min-time", "0"},
		{"log-level", "info"},
		{"format", "text"},
	}
	for _, tt := range tests {
		f := rootCmd.Flags().Lookup(tt.flag)
		if f == nil {
			f = rootCmd.PersistentFlags().Lookup(tt.flag)
		}
		if f == nil {
			t.Errorf("flag --%s not registered", tt.flag)
			continue
		}
		if f.DefValue != tt.want {
			t.Errorf("--%s default = %q, want %q", tt.flag, f.DefValue, tt.want)
		}
	}
}

func TestFlagShorthands(t *testing.T) {
	tests := []struct {
		flag      string
		shorthand string
	}{
		{"port", "p"},
		{"dbname", "d"},
		{"user", "U"},
		{"password", "W"},
		{"format", "f"},
	}
	for _, tt := range tests {
		f := rootCmd.PersistentFlags().Lookup(tt.flag)
		if f == nil {
			t.Errorf("flag --%s not registered", tt.flag)
			continue
		}
		if f.Shorthand != tt.shorthand {
			t.Errorf("--%s shorthand = %q, want %q", tt.flag, f.Shorthand, tt.shorthand)
		}
	}
	if f := rootCmd.Flags().Lookup("statement"); f == nil || f.Shorthand != "s" {
		t.Error("-s/--statement not registered")
	}
}

func TestConnectionConfigTargetKinds(t *testing.T) {
	defer viper.Reset()

	tests := []struct {
		dbname string
		kind   pg.TargetKind
	}{
		{"movies", pg.TargetDatabase},
		{"postgres://localhost/movies", pg.TargetURI},
		{"host=localhost dbname=movies", pg.TargetConnString},
	}
	for _, tt := range tests {
		viper.Set("dbname", tt.dbname)
		cfg := connectionConfig(false)
		if cfg.Target.Kind != tt.kind {
			t.Errorf("dbname %q: target kind = %v, want %v", tt.dbname, cfg.Target.Kind, tt.kind)
		}
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{"connect": false, "version": false, "config": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
