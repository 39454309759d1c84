// Package sqlstore persists artifacts into a SQL catalog table so other
// services can fetch generated types without reading the build output
// directory. SQLite (modernc.org/sqlite) and PostgreSQL (pgx stdlib) are
// supported.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	packerrors "github.com/goliatone/go-packgen/pkg/errors"
	"github.com/goliatone/go-packgen/pkg/sink"
)

// Dialect selects placeholder style and connection handling.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DefaultTable is the catalog table name.
const DefaultTable = "packgen_artifacts"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the catalog table name.
func WithTable(name string) Option {
	return func(s *Store) {
		s.table = strings.TrimSpace(name)
	}
}

// WithoutMigrate skips the CREATE TABLE statement issued by the Open helpers.
func WithoutMigrate() Option {
	return func(s *Store) {
		s.skipMigrate = true
	}
}

// Store is a sink.Sink writing one row per artifact. Rows are upserted by
// path inside a single transaction per Write call.
type Store struct {
	db          *sql.DB
	dialect     Dialect
	table       string
	owned       bool
	skipMigrate bool
}

var _ sink.Sink = (*Store)(nil)

// New wraps an existing database handle. The caller keeps ownership of db.
func New(db *sql.DB, dialect Dialect, options ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: database handle is required")
	}
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("sqlstore: unsupported dialect %q", dialect)
	}
	s := &Store{db: db, dialect: dialect, table: DefaultTable}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if !tableNameRe.MatchString(s.table) {
		return nil, fmt.Errorf("sqlstore: invalid table name %q (must match %s)", s.table, tableNameRe.String())
	}
	return s, nil
}

// OpenSQLite opens (or creates) a SQLite database file and prepares the
// catalog table.
func OpenSQLite(ctx context.Context, path string, options ...Option) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlstore: sqlite path is required")
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, packerrors.Wrap(packerrors.CodeIO, path, "open sqlite", err)
	}
	return open(ctx, db, DialectSQLite, options)
}

// OpenPostgres connects through pgx's database/sql driver and prepares the
// catalog table.
func OpenPostgres(ctx context.Context, dsn string, options ...Option) (*Store, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, packerrors.Wrap(packerrors.CodeIO, "", "parse postgres dsn", err)
	}
	return open(ctx, stdlib.OpenDB(*cfg), DialectPostgres, options)
}

func open(ctx context.Context, db *sql.DB, dialect Dialect, options []Option) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, packerrors.Wrap(packerrors.CodeIO, "", "ping "+string(dialect), err)
	}
	s, err := New(db, dialect, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	if !s.skipMigrate {
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the database handle when the Store opened it.
func (s *Store) Close() error {
	if s == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}

// Migrate creates the catalog table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	path TEXT PRIMARY KEY,
	unit TEXT NOT NULL,
	kind TEXT NOT NULL,
	content_type TEXT NOT NULL,
	content TEXT NOT NULL,
	checksum TEXT NOT NULL
)`, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return packerrors.Wrap(packerrors.CodeIO, "", "create "+s.table, err)
	}
	return nil
}

// Write upserts artifacts in one transaction. A failure rolls back the
// whole batch.
func (s *Store) Write(ctx context.Context, artifacts []sink.Artifact) (err error) {
	if err := sink.Validate(artifacts); err != nil {
		return packerrors.Wrap(packerrors.CodeIO, "", "invalid artifact batch", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return packerrors.Wrap(packerrors.CodeIO, "", "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.upsertSQL())
	if err != nil {
		return packerrors.Wrap(packerrors.CodeIO, "", "prepare upsert", err)
	}
	defer stmt.Close()

	for _, artifact := range artifacts {
		path, _ := sink.CleanPath(artifact.Path)
		if _, err = stmt.ExecContext(ctx,
			path,
			artifact.Unit,
			string(artifact.Kind),
			artifact.ContentType,
			string(artifact.Data),
			artifact.Checksum(),
		); err != nil {
			return packerrors.Wrap(packerrors.CodeIO, path, "upsert artifact", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return packerrors.Wrap(packerrors.CodeIO, "", "commit", err)
	}
	return nil
}

// Get loads one artifact by path. The boolean is false when no row exists.
func (s *Store) Get(ctx context.Context, path string) (sink.Artifact, bool, error) {
	query := fmt.Sprintf("SELECT path, unit, kind, content_type, content FROM %s WHERE path = %s", s.table, s.placeholder(1))
	var (
		artifact sink.Artifact
		kind     string
		content  string
	)
	err := s.db.QueryRowContext(ctx, query, path).Scan(&artifact.Path, &artifact.Unit, &kind, &artifact.ContentType, &content)
	if err == sql.ErrNoRows {
		return sink.Artifact{}, false, nil
	}
	if err != nil {
		return sink.Artifact{}, false, packerrors.Wrap(packerrors.CodeIO, path, "load artifact", err)
	}
	artifact.Kind = sink.Kind(kind)
	artifact.Data = []byte(content)
	return artifact, true, nil
}

// Entry is a catalog row without its content.
type Entry struct {
	Path     string
	Unit     string
	Kind     sink.Kind
	Checksum string
}

// List returns the catalog ordered by path.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	query := fmt.Sprintf("SELECT path, unit, kind, checksum FROM %s ORDER BY path", s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, packerrors.Wrap(packerrors.CodeIO, "", "list artifacts", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			entry Entry
			kind  string
		)
		if err := rows.Scan(&entry.Path, &entry.Unit, &kind, &entry.Checksum); err != nil {
			return nil, packerrors.Wrap(packerrors.CodeIO, "", "scan artifact", err)
		}
		entry.Kind = sink.Kind(kind)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, packerrors.Wrap(packerrors.CodeIO, "", "iterate artifacts", err)
	}
	return out, nil
}

func (s *Store) upsertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (path, unit, kind, content_type, content, checksum)
VALUES (%s, %s, %s, %s, %s, %s)
ON CONFLICT (path) DO UPDATE SET
	unit = excluded.unit,
	kind = excluded.kind,
	content_type = excluded.content_type,
	content = excluded.content,
	checksum = excluded.checksum`,
		s.table,
		s.placeholder(1), s.placeholder(2), s.placeholder(3),
		s.placeholder(4), s.placeholder(5), s.placeholder(6),
	)
}

func (s *Store) placeholder(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
