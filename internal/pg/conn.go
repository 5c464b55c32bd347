package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/term"
)

// Logger is the minimal logging surface the connection layer needs.
type Logger interface {
	Info(format string, args ...any)
	Debug(format string, args ...any)
}

// ConnectionConfig holds Postgres connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Target   Target
	LogSQL   bool
}

// Conn is a single serialized connection to the database. All SQL the tool
// issues flows through it; parameterized execution accepts one command per call.
type Conn struct {
	conn   *pgx.Conn
	log    Logger
	logSQL bool
}

// Connect establishes the connection and prepares the session: lock_timeout,
// client_min_messages, and the HypoPG extension.
func Connect(ctx context.Context, cfg ConnectionConfig, log Logger) (*Conn, error) {
	pgcfg, err := cfg.Target.ConnConfig(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if err != nil {
		return nil, err
	}

	raw, err := pgx.ConnectConfig(ctx, pgcfg)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	c := &Conn{conn: raw, log: log, logSQL: cfg.LogSQL}

	if err := c.Exec(ctx, "SET lock_timeout = '5s'"); err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("setting lock_timeout: %w", err)
	}
	if err := c.Exec(ctx, "SET client_min_messages = warning"); err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("setting client_min_messages: %w", err)
	}
	if err := c.ensureHypopg(ctx); err != nil {
		c.Close(ctx)
		return nil, err
	}

	return c, nil
}

// Close terminates the connection.
func (c *Conn) Close(ctx context.Context) {
	_ = c.conn.Close(ctx)
}

// Exec runs a single SQL command.
func (c *Conn) Exec(ctx context.Context, sql string, args ...any) error {
	c.echo(sql)
	_, err := c.conn.Exec(ctx, sql, args...)
	return err
}

// Query runs a single SQL command and returns its rows.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.echo(sql)
	return c.conn.Query(ctx, sql, args...)
}

// QueryRow runs a single SQL command expected to return at most one row.
func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	c.echo(sql)
	return c.conn.QueryRow(ctx, sql, args...)
}

func (c *Conn) echo(sql string) {
	if c.logSQL {
		c.log.Info("%s", sql)
	}
}

// Explain plans a statement with EXPLAIN (FORMAT JSON) and returns the root
// plan node and its total cost. The statement is stripped of semicolons first,
// so a crafted query text cannot smuggle a second command into the wrapper.
func (c *Conn) Explain(ctx context.Context, stmt string) (map[string]any, float64, error) {
	stmt = strings.ReplaceAll(stmt, ";", "")

	var raw []byte
	if err := c.QueryRow(ctx, "EXPLAIN (FORMAT JSON) "+stmt).Scan(&raw); err != nil {
		return nil, 0, err
	}

	var doc []any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, 0, fmt.Errorf("decoding explain output: %w", err)
	}
	if len(doc) == 0 {
		return nil, 0, errors.New("empty explain output")
	}
	root, ok := doc[0].(map[string]any)
	if !ok {
		return nil, 0, errors.New("unexpected explain output shape")
	}
	plan, ok := root["Plan"].(map[string]any)
	if !ok {
		return nil, 0, errors.New("explain output has no plan")
	}
	cost, ok := plan["Total Cost"].(float64)
	if !ok {
		return nil, 0, errors.New("plan has no total cost")
	}
	return plan, cost, nil
}

// ensureHypopg loads the HypoPG extension, diagnosing the two fatal failure
// modes: shared object not installed on the server, and insufficient privilege.
func (c *Conn) ensureHypopg(ctx context.Context) error {
	err := c.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS hypopg")
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "58P01": // undefined_file: extension control file not found
			return fmt.Errorf("the HypoPG extension is not installed on the server: install it first (https://github.com/HypoPG/hypopg): %w", err)
		case "42501": // insufficient_privilege
			return fmt.Errorf("creating the HypoPG extension requires a privileged role: run CREATE EXTENSION hypopg as a superuser, or connect as one: %w", err)
		}
	}
	return fmt.Errorf("loading hypopg: %w", err)
}

// QuoteIdent quotes an identifier for safe interpolation into SQL, doubling
// any embedded double quotes.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// UnquoteIdent reverses QuoteIdent. Input without the wrapping quotes is
// returned unchanged.
func UnquoteIdent(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}

// QuoteLiteral quotes a string literal, doubling single quotes and escaping
// backslashes with the E'' form when any are present.
func QuoteLiteral(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `''`)
	if strings.Contains(s, `\`) {
		return " E'" + escaped + "'"
	}
	return "'" + escaped + "'"
}

// IsLockNotAvailable reports whether err is the lock_not_available error class
// raised when a CREATE INDEX CONCURRENTLY loses a lock race.
func IsLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}

// PromptPassword reads a password from the terminal without echoing.
func PromptPassword() string {
	fmt.Print("Password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(password)
}
