package watermark

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SidecarSuffix is appended to the output path to name its watermark file.
const SidecarSuffix = ".watermark"

// Sidecar keeps each watermark in a file next to its output target.
// Writes are plain overwrites; concurrent runs on one target are not supported.
type Sidecar struct{}

// SidecarPath returns the watermark file for target.
func SidecarPath(target string) string { return target + SidecarSuffix }

func (Sidecar) Load(_ context.Context, target string) (Watermark, bool, error) {
	path := filepath.Clean(SidecarPath(target))
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read watermark: %w", err)
	}
	w, err := Parse(string(b))
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", path, err)
	}
	return w, true, nil
}

func (Sidecar) Save(_ context.Context, target string, w Watermark) error {
	if err := os.WriteFile(SidecarPath(target), []byte(w.String()), 0o644); err != nil {
		return fmt.Errorf("write watermark: %w", err)
	}
	return nil
}

func (Sidecar) Close() error { return nil }
