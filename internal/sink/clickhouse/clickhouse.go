package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/loykin/screentime/internal/knowledge"
	"github.com/loykin/screentime/internal/sink"
)

// Config selects the ClickHouse server and target table.
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
	Table    string
}

// Sink sends usage records to ClickHouse using the official ClickHouse Go client.
type Sink struct {
	conn  driver.Conn
	table string
}

func New(cfg Config) (*Sink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: valOr(cfg.Database, "default"),
			Username: valOr(cfg.Username, "default"),
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	ctx := context.Background()
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	s := &Sink{conn: conn, table: valOr(cfg.Table, "usage_events")}
	if err := s.ensureSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		app String,
		usage Nullable(Float64),
		start_time Nullable(Float64),
		end_time Nullable(Float64),
		created_at Nullable(Float64),
		tz Nullable(Int64),
		device_id Nullable(String),
		device_model Nullable(String)
	) ENGINE = MergeTree ORDER BY tuple()`, s.table)
	if err := s.conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create ClickHouse table %s: %w", s.table, err)
	}
	return nil
}

func (s *Sink) Kind() string { return "clickhouse" }

func (s *Sink) Send(ctx context.Context, r knowledge.UsageRecord) error {
	query := fmt.Sprintf(`INSERT INTO %s (app, usage, start_time, end_time, created_at, tz, device_id, device_model) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table)

	err := s.conn.Exec(ctx, query,
		r.App,
		sink.NullFloat(r.Usage),
		sink.NullFloat(r.StartTime),
		sink.NullFloat(r.EndTime),
		sink.NullFloat(r.CreatedAt),
		sink.NullInt(r.TZ),
		sink.NullString(r.DeviceID),
		sink.NullString(r.DeviceModel),
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record into ClickHouse: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func valOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
