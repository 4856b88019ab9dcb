package export

import (
	"errors"
	"testing"
)

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", ',', false},
		{",", ',', false},
		{`\t`, '\t', false},
		{"\t", '\t', false},
		{";", ';', false},
		{"|", '|', false},
		{"§", '§', false},
		{"ab", 0, true},
		{`\t\t`, 0, true},
		{`"`, 0, true},
		{"\n", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDelimiter(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidDelimiter) {
				t.Errorf("ParseDelimiter(%q) err = %v, want ErrInvalidDelimiter", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDelimiter(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
