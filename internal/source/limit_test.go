package source

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCountingReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int64
		wantErr bool
	}{
		{"no cap", strings.Repeat("x", 100), 0, false},
		{"under cap", "hello", 10, false},
		{"exactly cap", "hello", 5, false},
		{"over cap", "hello world", 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCountingReader(strings.NewReader(tt.input), tt.max)
			_, err := io.ReadAll(r)
			if tt.wantErr {
				if !errors.Is(err, ErrTooLarge) {
					t.Fatalf("err = %v, want ErrTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.BytesRead != int64(len(tt.input)) {
				t.Errorf("BytesRead = %d, want %d", r.BytesRead, len(tt.input))
			}
		})
	}
}

func TestLimitWriter(t *testing.T) {
	w := &limitWriter{max: 8}
	if _, err := w.Write([]byte("abcd")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := w.Write([]byte("efgh")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if _, err := w.Write([]byte("i")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("third write err = %v, want ErrTooLarge", err)
	}
	if w.buf.String() != "abcdefgh" {
		t.Errorf("buf = %q", w.buf.String())
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"plain", []byte("a,b"), "a,b"},
		{"bom", []byte("\xEF\xBB\xBFa,b"), "a,b"},
		{"invalid utf8", []byte("a\xffb"), "a\uFFFDb"},
		{"bom only", []byte("\xEF\xBB\xBF"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.input); got != tt.want {
				t.Errorf("cleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
