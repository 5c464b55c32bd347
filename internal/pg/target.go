package pg

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// TargetKind discriminates the three accepted forms of the --dbname argument.
type TargetKind int

const (
	// TargetDatabase is a bare database name.
	TargetDatabase TargetKind = iota
	// TargetURI is a postgres:// or postgresql:// connection URI.
	TargetURI
	// TargetConnString is a key=value libpq connection string.
	TargetConnString
)

// Target is the parsed form of the --dbname argument. It is resolved into one
// of the three kinds eagerly, before any driver call.
type Target struct {
	Kind  TargetKind
	Value string
}

// ParseTarget classifies a --dbname argument. A URI begins with postgres://
// or postgresql://; a conn-string contains '='; anything else is a database name.
func ParseTarget(s string) Target {
	switch {
	case strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://"):
		return Target{Kind: TargetURI, Value: s}
	case strings.Contains(s, "="):
		return Target{Kind: TargetConnString, Value: s}
	default:
		return Target{Kind: TargetDatabase, Value: s}
	}
}

// ConnConfig builds a pgx connection config from the target, overlaying any
// host/port/user/password given as separate flags. Flag values win over values
// carried inside a URI or conn-string.
func (t Target) ConnConfig(host string, port int, user, password string) (*pgx.ConnConfig, error) {
	var connString string
	switch t.Kind {
	case TargetURI, TargetConnString:
		connString = t.Value
	case TargetDatabase:
		var parts []string
		if t.Value != "" {
			parts = append(parts, "dbname="+quoteConnValue(t.Value))
		}
		connString = strings.Join(parts, " ")
	}

	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection target: %w", err)
	}

	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = uint16(port)
	}
	if user != "" {
		cfg.User = user
	}
	if password != "" {
		cfg.Password = password
	}

	return cfg, nil
}

// quoteConnValue quotes a libpq conn-string value if it needs it.
func quoteConnValue(s string) string {
	if s != "" && !strings.ContainsAny(s, " '\\") {
		return s
	}
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return "'" + escaped + "'"
}
