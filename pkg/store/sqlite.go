package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/mixup"
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = ":memory:"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS mixups (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	layout_id   TEXT NOT NULL,
	assignments TEXT NOT NULL DEFAULT '{}',
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
)`

// SQLiteStore persists mixups in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path with WAL
// journaling and a busy timeout, and applies the schema. MemoryDSN gives
// a single-connection in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, unavailable(err, "mkdir for %s", path)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable(err, "open %s", path)
	}
	if path == MemoryDSN {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range append(pragmas, sqliteSchema) {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, unavailable(err, "init %s", path)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetMixup(ctx context.Context, id string) (mixup.Mixup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, layout_id, assignments, created_at, updated_at FROM mixups WHERE id = ?`, id)
	m, err := scanMixup(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return mixup.Mixup{}, notFound(id)
	}
	if err != nil {
		return mixup.Mixup{}, unavailable(err, "get mixup %s", id)
	}
	return m, nil
}

func (s *SQLiteStore) SaveMixup(ctx context.Context, m mixup.Mixup) error {
	m, err := prepare(m)
	if err != nil {
		return err
	}
	assignments, err := json.Marshal(m.Assignments)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal assignments for %s", m.ID)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO mixups (id, name, layout_id, assignments, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	layout_id = excluded.layout_id,
	assignments = excluded.assignments,
	updated_at = excluded.updated_at`,
		m.ID, m.Name, m.LayoutID, string(assignments), m.CreatedAt.UnixMilli(), m.UpdatedAt.UnixMilli())
	if err != nil {
		return unavailable(err, "save mixup %s", m.ID)
	}
	return nil
}

func (s *SQLiteStore) ListMixups(ctx context.Context) ([]mixup.Mixup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, layout_id, assignments, created_at, updated_at FROM mixups ORDER BY created_at, id`)
	if err != nil {
		return nil, unavailable(err, "list mixups")
	}
	defer rows.Close()

	var out []mixup.Mixup
	for rows.Next() {
		m, err := scanMixup(rows)
		if err != nil {
			return nil, unavailable(err, "scan mixup")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "list mixups")
	}
	return out, nil
}

func (s *SQLiteStore) DeleteMixup(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mixups WHERE id = ?`, id)
	if err != nil {
		return unavailable(err, "delete mixup %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMixup(row scanner) (mixup.Mixup, error) {
	var (
		m                mixup.Mixup
		assignments      string
		created, updated int64
	)
	if err := row.Scan(&m.ID, &m.Name, &m.LayoutID, &assignments, &created, &updated); err != nil {
		return mixup.Mixup{}, err
	}
	if err := json.Unmarshal([]byte(assignments), &m.Assignments); err != nil {
		return mixup.Mixup{}, fmt.Errorf("decode assignments: %w", err)
	}
	m.CreatedAt = time.UnixMilli(created).UTC()
	m.UpdatedAt = time.UnixMilli(updated).UTC()
	return m, nil
}

var _ Store = (*SQLiteStore)(nil)
