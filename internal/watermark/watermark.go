// Package watermark persists, per output target, the creation time of the
// newest exported usage record so the next run only fetches newer rows.
package watermark

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a stored watermark cannot be parsed.
var ErrMalformed = errors.New("malformed watermark")

// Watermark is a Unix timestamp in seconds. Zero means no prior export.
type Watermark float64

func (w Watermark) IsZero() bool { return w == 0 }

// String formats w so that Parse(w.String()) == w.
func (w Watermark) String() string {
	return strconv.FormatFloat(float64(w), 'f', -1, 64)
}

// Parse reads a decimal watermark, ignoring surrounding whitespace.
func Parse(s string) (Watermark, error) {
	t := strings.TrimSpace(s)
	v, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, t)
	}
	return Watermark(v), nil
}

// Store loads and saves watermarks keyed by output target.
// Load reports ok=false when nothing was saved for target yet.
type Store interface {
	Load(ctx context.Context, target string) (w Watermark, ok bool, err error)
	Save(ctx context.Context, target string, w Watermark) error
	Close() error
}
