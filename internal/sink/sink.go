// Package sink mirrors exported usage records into analytics stores.
package sink

import (
	"context"
	"database/sql"

	"github.com/loykin/screentime/internal/knowledge"
)

// Sink is a destination for exported usage records.
// Kind names the backend for logs and metrics.
type Sink interface {
	Kind() string
	Send(ctx context.Context, r knowledge.UsageRecord) error
}

// Document is the JSON shape of a record for document stores.
type Document struct {
	App         string   `json:"app"`
	Usage       *float64 `json:"usage"`
	StartTime   *float64 `json:"start_time"`
	EndTime     *float64 `json:"end_time"`
	CreatedAt   *float64 `json:"created_at"`
	TZ          *int64   `json:"tz,omitempty"`
	DeviceID    *string  `json:"device_id,omitempty"`
	DeviceModel *string  `json:"device_model,omitempty"`
}

// NewDocument converts r. NULL times become JSON null; NULL device fields
// are dropped.
func NewDocument(r knowledge.UsageRecord) Document {
	return Document{
		App:         r.App,
		Usage:       NullFloat(r.Usage),
		StartTime:   NullFloat(r.StartTime),
		EndTime:     NullFloat(r.EndTime),
		CreatedAt:   NullFloat(r.CreatedAt),
		TZ:          NullInt(r.TZ),
		DeviceID:    NullString(r.DeviceID),
		DeviceModel: NullString(r.DeviceModel),
	}
}

func NullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func NullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func NullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
