// Package knowledgetest builds knowledgeC.db fixtures for tests.
package knowledgetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/loykin/screentime/internal/knowledge"
)

const schema = `
	CREATE TABLE ZOBJECT (
		Z_PK INTEGER PRIMARY KEY,
		ZSTREAMNAME VARCHAR,
		ZVALUESTRING VARCHAR,
		ZSTARTDATE TIMESTAMP,
		ZENDDATE TIMESTAMP,
		ZCREATIONDATE TIMESTAMP,
		ZSECONDSFROMGMT INTEGER,
		ZSOURCE INTEGER,
		ZSTRUCTUREDMETADATA INTEGER
	);
	CREATE TABLE ZSTRUCTUREDMETADATA (
		Z_PK INTEGER PRIMARY KEY,
		ZMETADATAHASH VARCHAR
	);
	CREATE TABLE ZSOURCE (
		Z_PK INTEGER PRIMARY KEY,
		ZDEVICEID VARCHAR,
		ZBUNDLEID VARCHAR
	);
	CREATE TABLE ZSYNCPEER (
		Z_PK INTEGER PRIMARY KEY,
		ZDEVICEID VARCHAR,
		ZMODEL VARCHAR
	);
`

// Event is one ZOBJECT row. Dates are seconds since 2001-01-01 (Core Data
// reference date), as stored by macOS. An empty DeviceID leaves ZSOURCE unset;
// an empty Stream defaults to knowledge.AppUsageStream. Null names ZOBJECT
// columns to store as NULL, e.g. "ZENDDATE".
type Event struct {
	App         string
	Start       float64
	End         float64
	Created     float64
	TZ          int64
	DeviceID    string
	DeviceModel string
	Stream      string
	Null        []string
}

// Fixture is a knowledgeC.db file under t.TempDir().
type Fixture struct {
	Path string

	t  testing.TB
	db *sql.DB
}

// New creates an empty fixture database with the Knowledge schema.
func New(t testing.TB) *Fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "knowledgeC.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return &Fixture{Path: path, t: t, db: db}
}

// Add inserts e, creating the source and sync peer rows it references.
func (f *Fixture) Add(e Event) {
	f.t.Helper()

	stream := e.Stream
	if stream == "" {
		stream = knowledge.AppUsageStream
	}

	var source any
	if e.DeviceID != "" {
		res, err := f.db.Exec(`INSERT INTO ZSOURCE (ZDEVICEID, ZBUNDLEID) VALUES (?, ?)`, e.DeviceID, e.App)
		if err != nil {
			f.t.Fatalf("insert source: %v", err)
		}
		id, _ := res.LastInsertId()
		source = id

		if e.DeviceModel != "" {
			if _, err := f.db.Exec(`
				INSERT INTO ZSYNCPEER (ZDEVICEID, ZMODEL)
				SELECT ?1, ?2 WHERE NOT EXISTS (SELECT 1 FROM ZSYNCPEER WHERE ZDEVICEID = ?1)`,
				e.DeviceID, e.DeviceModel); err != nil {
				f.t.Fatalf("insert sync peer: %v", err)
			}
		}
	}

	res, err := f.db.Exec(`
		INSERT INTO ZOBJECT (ZSTREAMNAME, ZVALUESTRING, ZSTARTDATE, ZENDDATE, ZCREATIONDATE, ZSECONDSFROMGMT, ZSOURCE)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stream, e.App, e.Start, e.End, e.Created, e.TZ, source)
	if err != nil {
		f.t.Fatalf("insert object: %v", err)
	}
	if len(e.Null) == 0 {
		return
	}
	id, _ := res.LastInsertId()
	for _, col := range e.Null {
		if _, err := f.db.Exec(`UPDATE ZOBJECT SET `+col+` = NULL WHERE Z_PK = ?`, id); err != nil {
			f.t.Fatalf("null %s: %v", col, err)
		}
	}
}

// Unix converts a Unix timestamp to the Core Data reference used in Event.
func Unix(sec float64) float64 {
	return sec - knowledge.CocoaEpochOffset
}
