// Package knowledge reads application usage events from the macOS Knowledge
// store (knowledgeC.db), the SQLite database behind Screen Time.
package knowledge

import (
	"database/sql"
	"math"
	"strconv"
)

// CocoaEpochOffset is the number of seconds between the Unix epoch and
// 2001-01-01T00:00:00Z, the reference date of Core Data timestamps.
const CocoaEpochOffset = 978307200

// AppUsageStream is the ZSTREAMNAME marking application usage rows.
const AppUsageStream = "/app/usage"

// Columns is the header row of every export, in field order.
var Columns = []string{"app", "usage", "start_time", "end_time", "created_at", "tz", "device_id", "device_model"}

// UsageRecord is one application usage event. Times are Unix seconds. Any
// column may be NULL in the source database and stays NULL here.
type UsageRecord struct {
	App         string
	Usage       sql.NullFloat64
	StartTime   sql.NullFloat64
	EndTime     sql.NullFloat64
	CreatedAt   sql.NullFloat64
	TZ          sql.NullInt64
	DeviceID    sql.NullString
	DeviceModel sql.NullString
}

// Fields renders the record as text in Columns order. NULL values render empty.
func (r UsageRecord) Fields() []string {
	tz := ""
	if r.TZ.Valid {
		tz = strconv.FormatInt(r.TZ.Int64, 10)
	}
	return []string{
		r.App,
		formatNull(r.Usage),
		formatNull(r.StartTime),
		formatNull(r.EndTime),
		formatNull(r.CreatedAt),
		tz,
		r.DeviceID.String,
		r.DeviceModel.String,
	}
}

// Float wraps a known value.
func Float(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func formatNull(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return FormatNumber(v.Float64)
}

// FormatNumber prints whole values as integers and anything else with the
// shortest decimal that parses back to the same float64.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
