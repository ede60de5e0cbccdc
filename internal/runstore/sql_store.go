package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so text timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS design_runs (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    brief TEXT NOT NULL,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    failed_state TEXT NOT NULL DEFAULT '',
    out_dir TEXT NOT NULL DEFAULT '',
    spec TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_design_runs_created_at ON design_runs(created_at);
`

const selectColumns = `id, mode, brief, status, error, failed_state, out_dir, spec, created_at, updated_at`

var placeholder = regexp.MustCompile(`\$(\d+)`)

// SQLStore keeps runs in one table through database/sql. Queries are written
// with $N placeholders and rebound to ?N for SQLite.
type SQLStore struct {
	db     *sql.DB
	sqlite bool

	schemaOnce sync.Once
	schemaErr  error
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("runstore: sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps an in-memory database alive and serialises writers.
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db, true)
}

func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("runstore: postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return newSQLStore(ctx, db, false)
}

func newSQLStore(ctx context.Context, db *sql.DB, sqlite bool) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQLStore{db: db, sqlite: sqlite}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("runstore: create schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		for _, stmt := range strings.Split(schema, ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				s.schemaErr = err
				return
			}
		}
	})
	return s.schemaErr
}

func (s *SQLStore) q(query string) string {
	if !s.sqlite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?$1")
}

func (s *SQLStore) Create(ctx context.Context, r Run) error {
	id, err := validID(r.ID)
	if err != nil {
		return err
	}
	brief, err := json.Marshal(r.Brief)
	if err != nil {
		return fmt.Errorf("encode brief: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(`
INSERT INTO design_runs (`+selectColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`),
		id, r.Mode, string(brief), string(r.Status), r.Error, r.FailedState, r.OutDir, string(r.Spec),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Run, error) {
	id, err := validID(id)
	if err != nil {
		return Run{}, err
	}
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+selectColumns+` FROM design_runs WHERE id=$1`), id)
	return scanRun(row)
}

func (s *SQLStore) Update(ctx context.Context, id string, fn func(*Run)) (Run, error) {
	id, err := validID(id)
	if err != nil {
		return Run{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, err
	}
	defer func() { _ = tx.Rollback() }()

	r, err := scanRun(tx.QueryRowContext(ctx, s.q(`SELECT `+selectColumns+` FROM design_runs WHERE id=$1`), id))
	if err != nil {
		return Run{}, err
	}
	if fn != nil {
		fn(&r)
	}
	r.ID = id
	r.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, s.q(`
UPDATE design_runs
SET status=$2, error=$3, failed_state=$4, out_dir=$5, spec=$6, updated_at=$7
WHERE id=$1`),
		id, string(r.Status), r.Error, r.FailedState, r.OutDir, string(r.Spec), formatTime(r.UpdatedAt))
	if err != nil {
		return Run{}, err
	}
	if err := tx.Commit(); err != nil {
		return Run{}, err
	}
	return r, nil
}

// List returns the newest runs first.
func (s *SQLStore) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + selectColumns + ` FROM design_runs ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                    Run
		brief, status, spec  string
		createdAt, updatedAt string
	)
	err := sc.Scan(&r.ID, &r.Mode, &brief, &status, &r.Error, &r.FailedState, &r.OutDir, &spec, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(brief), &r.Brief); err != nil {
		return Run{}, fmt.Errorf("decode brief of run %s: %w", r.ID, err)
	}
	r.Status = Status(status)
	if spec != "" {
		r.Spec = json.RawMessage(spec)
	}
	if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return Run{}, err
	}
	if r.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return Run{}, err
	}
	return r, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}
