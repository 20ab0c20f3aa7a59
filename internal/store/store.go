package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Postgres driver, registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store owns the database handle and hands out repositories that
// implement the domain store interfaces.
type Store struct {
	db      *sql.DB
	dialect string
	seq     *sequenceCounter
}

// Open connects to dsn and runs migrations. DSNs starting with
// postgres:// or postgresql:// use pgx; anything else is a SQLite path
// or URI.
func Open(ctx context.Context, dsn string) (*Store, error) {
	driver, dia := "sqlite", dialect.SQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, dia = "pgx", dialect.Postgres
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dia == dialect.SQLite {
		// One writer; also keeps in-memory shared-cache databases free of
		// table-lock errors.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	if err := migrate(ctx, db, dia); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seq, err := newSequenceCounter(ctx, db, dia)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, dialect: dia, seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the ent dialect name of the connected database.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Activities returns the activity repository.
func (s *Store) Activities() *ActivityRepo { return &ActivityRepo{s: s} }

// Questions returns the question repository.
func (s *Store) Questions() *QuestionRepo { return &QuestionRepo{s: s} }

// Responses returns the response repository.
func (s *Store) Responses() *ResponseRepo { return &ResponseRepo{s: s} }

// FeedbackProgress returns the pre-submission feedback level repository.
func (s *Store) FeedbackProgress() *ProgressRepo { return &ProgressRepo{s: s} }

// Students returns the student repository.
func (s *Store) Students() *StudentRepo { return &StudentRepo{s: s} }

// Doubts returns the doubt thread repository.
func (s *Store) Doubts() *DoubtRepo { return &DoubtRepo{s: s} }

// EventRepo returns the LLM request event repository.
func (s *Store) EventRepo() *LLMEventRepo { return &LLMEventRepo{s: s} }

// builder returns an ent SQL builder for the connected dialect.
func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// statement is any ent builder that renders to SQL.
type statement interface {
	Query() (string, []any)
}

func exec(ctx context.Context, q querier, st statement) (sql.Result, error) {
	query, args := st.Query()
	return q.ExecContext(ctx, query, args...)
}

func query(ctx context.Context, q querier, st statement) (*sql.Rows, error) {
	query, args := st.Query()
	return q.QueryContext(ctx, query, args...)
}

// applyPragmas configures SQLite for single-writer local use.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database location in priority order:
// 1. MINDFORGE_DB environment variable
// 2. $XDG_DATA_HOME/mindforge/mindforge.db
// 3. ~/.local/share/mindforge/mindforge.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("MINDFORGE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "mindforge", "mindforge.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of a file DSN. Postgres URLs
// and in-memory SQLite DSNs are left alone.
func EnsureDir(dsn string) error {
	if strings.Contains(dsn, "://") || strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dsn), 0o755)
}
