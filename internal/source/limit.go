package source

// limit.go provides byte accounting for fetched documents.
//
// Documents are read whole, so instead of per-chunk transforms the readers
// here only count bytes and stop once a configured cap is crossed. Text
// cleanup (BOM, invalid UTF-8) happens once on the complete body.

import (
	"bytes"
	"io"
	"strings"
)

// utf8BOM is the byte order mark Windows tools prepend to UTF-8 files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CountingReader wraps an io.Reader, tracks bytes read and fails with
// ErrTooLarge once more than Max bytes have been read. Max <= 0 disables
// the cap.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Max       int64
}

// NewCountingReader creates a counting reader with an optional cap.
func NewCountingReader(r io.Reader, max int64) *CountingReader {
	return &CountingReader{reader: r, Max: max}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	if r.Max > 0 && r.BytesRead > r.Max {
		return 0, ErrTooLarge
	}
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.Max > 0 && r.BytesRead > r.Max {
		return n, ErrTooLarge
	}
	return n, err
}

// limitWriter collects written bytes up to max and then fails with
// ErrTooLarge. Used where the producer pushes data (COPY TO).
type limitWriter struct {
	buf bytes.Buffer
	max int64
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if w.max > 0 && int64(w.buf.Len()+len(p)) > w.max {
		return 0, ErrTooLarge
	}
	return w.buf.Write(p)
}

// cleanText strips a leading UTF-8 BOM and replaces invalid UTF-8 with
// U+FFFD.
func cleanText(b []byte) string {
	b = bytes.TrimPrefix(b, utf8BOM)
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
