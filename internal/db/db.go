// Package db wraps database/sql for the two supported dialects.
//
// Queries are written with `?` placeholders and rebound to `$n` for
// PostgreSQL. Timestamps are stored as fixed-width UTC text (see TimeLayout)
// so that ORDER BY on them is chronological in both dialects.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema/*.sql
var schemaFS embed.FS

// TimeLayout is the storage format for every timestamp column.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect accepts the common spellings of each dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database dialect %q", s)
	}
}

type DB struct {
	sql     *sql.DB
	dialect Dialect
}

func Open(dialect Dialect, dsn string) (*DB, error) {
	var driverName string
	switch dialect {
	case DialectPostgres:
		driverName = "postgres"
	case DialectSQLite:
		driverName = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// single writer; also keeps ":memory:" databases on one connection
		sqlDB.SetMaxOpenConns(1)
		if _, err := sqlDB.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("set pragmas: %w", err)
		}
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return &DB{sql: sqlDB, dialect: dialect}, nil
}

// OpenInMemory opens a migrated in-memory SQLite database.
func OpenInMemory() (*DB, error) {
	d, err := Open(DialectSQLite, ":memory:")
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(context.Background()); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

func (d *DB) Dialect() Dialect { return d.dialect }

func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, d.Rebind(query), args...)
}

func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, d.Rebind(query), args...)
}

func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, d.Rebind(query), args...)
}

// Rebind rewrites `?` placeholders for the connection's dialect.
// Question marks inside single-quoted literals are left alone.
func (d *DB) Rebind(query string) string {
	if d.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Migrate applies the embedded schema files in name order.
// Every statement is idempotent, so Migrate is safe to run on each start.
func (d *DB) Migrate(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := schemaFS.ReadFile("schema/" + name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		for _, stmt := range splitStatements(string(content)) {
			if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FormatTime renders t in the storage layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime is the inverse of FormatTime.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
