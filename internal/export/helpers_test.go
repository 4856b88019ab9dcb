package export

import (
	"context"

	"github.com/loykin/screentime/internal/knowledge"
	"github.com/loykin/screentime/internal/watermark"
)

type failingSource struct{ err error }

func (s failingSource) FetchUsageEvents(context.Context, float64) ([]knowledge.UsageRecord, error) {
	return nil, s.err
}

type recordingStore struct {
	loads, saves int
	saved        map[string]watermark.Watermark
}

func (s *recordingStore) Load(_ context.Context, target string) (watermark.Watermark, bool, error) {
	s.loads++
	w, ok := s.saved[target]
	return w, ok, nil
}

func (s *recordingStore) Save(_ context.Context, target string, w watermark.Watermark) error {
	s.saves++
	if s.saved == nil {
		s.saved = make(map[string]watermark.Watermark)
	}
	s.saved[target] = w
	return nil
}

func (s *recordingStore) Close() error { return nil }

type memSink struct {
	got []knowledge.UsageRecord
	err error
}

func (s *memSink) Kind() string { return "memory" }

func (s *memSink) Send(_ context.Context, r knowledge.UsageRecord) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, r)
	return nil
}
