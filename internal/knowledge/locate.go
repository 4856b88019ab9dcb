package knowledge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	ErrNotFound         = errors.New("could not find knowledgeC.db")
	ErrPermissionDenied = errors.New("knowledgeC.db is not readable")
)

// PathError reports a validation failure for a database path.
// Err is ErrNotFound or ErrPermissionDenied.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return fmt.Sprintf("%v at %s", e.Err, e.Path) }

func (e *PathError) Unwrap() error { return e.Err }

// DefaultDBPath returns the Knowledge database location for the current user.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Application Support", "Knowledge", "knowledgeC.db")
}

// Validate checks that path exists and can be read by this process.
func Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return &PathError{Path: path, Err: ErrNotFound}
		case errors.Is(err, fs.ErrPermission):
			return &PathError{Path: path, Err: ErrPermissionDenied}
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return &PathError{Path: path, Err: ErrNotFound}
	}
	if err := checkReadable(path); err != nil {
		return &PathError{Path: path, Err: ErrPermissionDenied}
	}

	// macOS privacy controls can refuse open(2) after access(2) succeeded.
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return &PathError{Path: path, Err: ErrPermissionDenied}
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	return f.Close()
}
