// Package source retrieves raw spreadsheet text for decoding.
//
// A Source produces the whole document as one string. Two implementations
// exist: HTTPSource downloads a CSV export (Google Sheets by default) and
// PostgresSource streams the result of a query through COPY ... TO STDOUT
// in CSV format inside a read-only transaction.
//
// Failures are returned as *FetchError carrying an ErrorKind so callers can
// show a distinct message for network trouble, HTTP status codes, non-CSV
// responses and oversized documents.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxBytes caps a fetched document at 10MB.
const DefaultMaxBytes = 10 * 1024 * 1024

// ErrTooLarge is wrapped by FetchError when a document exceeds the byte cap.
var ErrTooLarge = errors.New("document too large")

// Source fetches one raw document.
type Source interface {
	Fetch(ctx context.Context) (Payload, error)

	// String describes the source for logs. It never includes credentials.
	String() string
}

// Payload is the raw text of one fetch.
type Payload struct {
	Text        string
	ContentType string
	Bytes       int64
	FetchedAt   time.Time
}

// ErrorKind classifies fetch failures.
type ErrorKind string

const (
	KindNetwork  ErrorKind = "network"
	KindTimeout  ErrorKind = "timeout"
	KindStatus   ErrorKind = "status"
	KindNotCSV   ErrorKind = "not_csv"
	KindTooLarge ErrorKind = "too_large"
	KindDatabase ErrorKind = "database"
)

// FetchError describes why a fetch failed.
type FetchError struct {
	Kind   ErrorKind
	Source string
	Status int    // HTTP status for KindStatus
	Detail string // e.g. the title of an HTML page returned instead of CSV
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.Source, e.Kind)
	switch {
	case e.Kind == KindStatus:
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	case e.Detail != "":
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or "" if err is not a FetchError.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
