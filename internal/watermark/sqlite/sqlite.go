package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loykin/screentime/internal/watermark"
)

// DB implements watermark.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// DSN is a filesystem path to the SQLite database file. Use ":memory:" for in-memory.
type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases alive between calls
	d.SetMaxOpenConns(1)
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS export_watermark(
		target TEXT PRIMARY KEY,
		created_at REAL NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`)
	return err
}

func (s *DB) Load(ctx context.Context, target string) (watermark.Watermark, bool, error) {
	var v float64
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM export_watermark WHERE target = ?;`, target).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return watermark.Watermark(v), true, nil
}

func (s *DB) Save(ctx context.Context, target string, w watermark.Watermark) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_watermark(target, created_at, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(target) DO UPDATE SET
			created_at=excluded.created_at,
			updated_at=excluded.updated_at;`,
		target, float64(w), time.Now().UTC())
	return err
}

func (s *DB) Close() error { return s.db.Close() }
