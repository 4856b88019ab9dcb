package export

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidDelimiter is returned for delimiters encoding/csv cannot write.
var ErrInvalidDelimiter = errors.New("invalid delimiter")

// ParseDelimiter turns the user-supplied delimiter into a rune. The two
// characters `\t` mean a tab; empty means comma.
func ParseDelimiter(s string) (rune, error) {
	s = strings.ReplaceAll(s, `\t`, "\t")
	if s == "" {
		return ',', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("%w %q: must be a single character", ErrInvalidDelimiter, s)
	}
	switch r {
	case '"', '\r', '\n':
		return 0, fmt.Errorf("%w %q", ErrInvalidDelimiter, s)
	}
	return r, nil
}
