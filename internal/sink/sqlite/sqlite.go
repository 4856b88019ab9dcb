package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/loykin/screentime/internal/knowledge"
)

// Sink writes usage records to a SQLite database.
type Sink struct {
	db *sql.DB
}

// New creates a new SQLite sink.
// DSN format:
//   - "sqlite:///path/to/file.db"
//   - "sqlite://:memory:"
//   - "/path/to/file.db" (without prefix)
//   - ":memory:" (in-memory database)
func New(dsn string) (*Sink, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty SQLite DSN")
	}

	if strings.HasPrefix(strings.ToLower(dsn), "sqlite://") {
		dsn = dsn[len("sqlite://"):]
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	sink := &Sink{db: db}
	if err := sink.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sink, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS usage_events(
			app TEXT NOT NULL,
			usage REAL NULL,
			start_time REAL NULL,
			end_time REAL NULL,
			created_at REAL NULL,
			tz INTEGER NULL,
			device_id TEXT NULL,
			device_model TEXT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_usage_events_created_at ON usage_events(created_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sink) Kind() string { return "sqlite" }

func (s *Sink) Send(ctx context.Context, r knowledge.UsageRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events(app, usage, start_time, end_time, created_at, tz, device_id, device_model)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?);`,
		r.App, r.Usage, r.StartTime, r.EndTime, r.CreatedAt, r.TZ, r.DeviceID, r.DeviceModel)
	return err
}

func (s *Sink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
