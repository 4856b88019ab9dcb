package export

import (
	"encoding/csv"
	"io"

	"github.com/loykin/screentime/internal/knowledge"
)

// rowWriter writes records as delimited text with minimal quoting.
type rowWriter struct {
	cw *csv.Writer
}

func newRowWriter(w io.Writer, comma rune) *rowWriter {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	return &rowWriter{cw: cw}
}

func (w *rowWriter) header() error {
	return w.cw.Write(knowledge.Columns)
}

func (w *rowWriter) record(r knowledge.UsageRecord) error {
	return w.cw.Write(r.Fields())
}

func (w *rowWriter) flush() error {
	w.cw.Flush()
	return w.cw.Error()
}
