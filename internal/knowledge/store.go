package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// QueryError wraps a failure to open or query the Knowledge database.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string { return fmt.Sprintf("knowledge %s: %v", e.Op, e.Err) }

func (e *QueryError) Unwrap() error { return e.Err }

// usageEventsQuery selects app usage rows joined to their source device.
// A zero :since exports all history ordered by start date; any other value
// keeps rows created strictly after it, ordered by creation date.
const usageEventsQuery = `
	SELECT
		ZOBJECT.ZVALUESTRING AS app,
		(ZOBJECT.ZENDDATE - ZOBJECT.ZSTARTDATE) AS usage,
		(ZOBJECT.ZSTARTDATE + 978307200) AS start_time,
		(ZOBJECT.ZENDDATE + 978307200) AS end_time,
		(ZOBJECT.ZCREATIONDATE + 978307200) AS created_at,
		ZOBJECT.ZSECONDSFROMGMT AS tz,
		ZSOURCE.ZDEVICEID AS device_id,
		ZSYNCPEER.ZMODEL AS device_model
	FROM ZOBJECT
	LEFT JOIN ZSTRUCTUREDMETADATA ON ZOBJECT.ZSTRUCTUREDMETADATA = ZSTRUCTUREDMETADATA.Z_PK
	LEFT JOIN ZSOURCE ON ZOBJECT.ZSOURCE = ZSOURCE.Z_PK
	LEFT JOIN ZSYNCPEER ON ZSOURCE.ZDEVICEID = ZSYNCPEER.ZDEVICEID
	WHERE ZOBJECT.ZSTREAMNAME = :stream
		AND (:since = 0 OR ZOBJECT.ZCREATIONDATE + 978307200 > :since)
	ORDER BY
		CASE WHEN :since = 0 THEN ZOBJECT.ZSTARTDATE ELSE ZOBJECT.ZCREATIONDATE END DESC
`

// Store provides read-only access to a Knowledge database.
type Store struct {
	db *sql.DB
}

// Open opens the database at path in read-only mode.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(3000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &QueryError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &QueryError{Op: "open", Err: err}
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FetchUsageEvents returns every app usage record, or only those created
// after since when since is non-zero. See usageEventsQuery for ordering.
func (s *Store) FetchUsageEvents(ctx context.Context, since float64) ([]UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx, usageEventsQuery,
		sql.Named("stream", AppUsageStream),
		sql.Named("since", since),
	)
	if err != nil {
		return nil, &QueryError{Op: "query", Err: err}
	}
	defer rows.Close()

	var records []UsageRecord
	for rows.Next() {
		var (
			r   UsageRecord
			app sql.NullString
		)
		if err := rows.Scan(&app, &r.Usage, &r.StartTime, &r.EndTime, &r.CreatedAt,
			&r.TZ, &r.DeviceID, &r.DeviceModel); err != nil {
			return nil, &QueryError{Op: "scan", Err: err}
		}
		if !r.CreatedAt.Valid {
			slog.Debug("Usage event without creation date", "app", app.String)
		}
		r.App = app.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "query", Err: err}
	}
	return records, nil
}
