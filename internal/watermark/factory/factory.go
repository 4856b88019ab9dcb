package factory

import (
	"context"
	"strings"

	"github.com/loykin/screentime/internal/watermark"
	pg "github.com/loykin/screentime/internal/watermark/postgres"
	sq "github.com/loykin/screentime/internal/watermark/sqlite"
)

type schemaStore interface {
	watermark.Store
	EnsureSchema(ctx context.Context) error
}

// NewFromDSN selects a watermark store based on DSN and prepares its schema.
// Supported:
//   - "" : sidecar files next to each output (watermark.Sidecar)
//   - sqlite:  "sqlite:///<path>" or bare filepath (treated as sqlite)
//   - postgres: DSN starting with "postgres://" or "postgresql://"
func NewFromDSN(ctx context.Context, dsn string) (watermark.Store, error) {
	d := strings.TrimSpace(dsn)
	ld := strings.ToLower(d)
	if ld == "" {
		return watermark.Sidecar{}, nil
	}

	var (
		s   schemaStore
		err error
	)
	switch {
	case strings.HasPrefix(ld, "postgres://") || strings.HasPrefix(ld, "postgresql://"):
		s, err = pg.New(d)
	case strings.HasPrefix(ld, "sqlite://"):
		s, err = sq.New(d[len("sqlite://"):])
	default:
		s, err = sq.New(d)
	}
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
