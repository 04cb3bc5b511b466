package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/sheetview/internal/decoder"
	"github.com/JonMunkholm/sheetview/internal/logging"
	"github.com/JonMunkholm/sheetview/internal/source"
)

// DefaultLoadTimeout bounds one fetch and decode when Options.LoadTimeout
// is zero.
var DefaultLoadTimeout = 2 * time.Minute

// DefaultRowsPerPage is the page size used when none is configured.
const DefaultRowsPerPage = 15

// MaxRowsPerPage caps the page size a caller may request.
const MaxRowsPerPage = 500

// ErrNotLoaded is returned by queries before the first successful load.
var ErrNotLoaded = errors.New("no data loaded yet")

// Options configures a Service.
type Options struct {
	Decode      decoder.Options
	Locale      language.Tag
	RowsPerPage int
	LoadTimeout time.Duration
}

// Service provides the load lifecycle and table queries.
type Service struct {
	src  source.Source
	opts Options

	group singleflight.Group

	mu       sync.RWMutex
	snapshot *Snapshot
	loading  bool
	loadID   string // ID of the running load, if any
	lastErr  *UserMessage
	failedAt time.Time
}

// NewService creates a Service reading from src. Nothing is fetched until
// Load is called.
func NewService(src source.Source, opts Options) *Service {
	if opts.RowsPerPage <= 0 {
		opts.RowsPerPage = DefaultRowsPerPage
	}
	if opts.RowsPerPage > MaxRowsPerPage {
		opts.RowsPerPage = MaxRowsPerPage
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.Locale == language.Und {
		opts.Locale = language.BrazilianPortuguese
	}
	return &Service{src: src, opts: opts}
}

// Locale returns the locale used for sorting and display.
func (s *Service) Locale() language.Tag {
	return s.opts.Locale
}

// RowsPerPage returns the default page size.
func (s *Service) RowsPerPage() int {
	return s.opts.RowsPerPage
}

// Load fetches and decodes the document and publishes a new snapshot.
//
// Calls made while a load is running wait for it and receive its result.
// The load is detached from ctx cancellation (a client disconnecting from
// a reload request does not abort it) and bounded by LoadTimeout instead.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	v, err, shared := s.group.Do("load", func() (any, error) {
		return s.load(context.WithoutCancel(ctx))
	})
	if shared {
		logging.FromContext(ctx).Debug("joined running load")
	}
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (s *Service) load(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.LoadTimeout)
	defer cancel()

	loadID := uuid.New().String()
	logger := logging.WithFields(ctx,
		"load_id", loadID,
		"source", s.src.String(),
		"trigger", TriggerFromContext(ctx),
	)

	s.mu.Lock()
	s.loading = true
	s.loadID = loadID
	s.mu.Unlock()

	logger.Info("load started")
	start := time.Now()

	snap, err := s.fetchAndDecode(ctx, loadID)

	s.mu.Lock()
	s.loading = false
	s.loadID = ""
	if err != nil {
		msg := MapError(err)
		s.lastErr = &msg
		s.failedAt = time.Now()
	} else {
		s.snapshot = snap
		s.lastErr = nil
		s.failedAt = time.Time{}
	}
	s.mu.Unlock()

	if err != nil {
		logger.Error("load failed",
			"error", err,
			"code", MapError(err).Code,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.Info("load completed",
		"records", snap.Document.Len(),
		"columns", len(snap.Columns),
		"warnings", len(snap.Document.Warnings),
		"bytes", snap.Bytes,
		"duration_ms", snap.Duration.Milliseconds(),
	)
	for _, w := range snap.Document.Warnings {
		logger.Warn("decode warning", "warning", w.String())
	}
	return snap, nil
}

func (s *Service) fetchAndDecode(ctx context.Context, loadID string) (*Snapshot, error) {
	start := time.Now()

	payload, err := s.src.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := decoder.Decode(payload.Text, s.opts.Decode)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.src.String(), err)
	}

	return &Snapshot{
		LoadID:   loadID,
		Document: doc,
		Columns:  DeriveColumns(doc),
		LoadedAt: time.Now(),
		Source:   s.src.String(),
		Bytes:    payload.Bytes,
		Duration: time.Since(start),
	}, nil
}

// Snapshot returns the current snapshot, or nil before the first
// successful load.
func (s *Service) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Status returns the loading flag and the outcome of the last load.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Loading:  s.loading,
		Source:   s.src.String(),
		FailedAt: s.failedAt,
	}
	if s.lastErr != nil {
		msg := *s.lastErr
		st.Err = &msg
	}
	if s.snapshot != nil {
		st.LoadID = s.snapshot.LoadID
		st.LoadedAt = s.snapshot.LoadedAt
		st.Records = s.snapshot.Document.Len()
		st.Warnings = len(s.snapshot.Document.Warnings)
	}
	return st
}

// DeriveColumns returns one column per key of the first record. An empty
// document has no columns.
func DeriveColumns(doc *decoder.Document) []Column {
	keys := doc.Keys(0)
	if len(keys) == 0 {
		return nil
	}
	cols := make([]Column, len(keys))
	for i, k := range keys {
		cols[i] = Column{
			Name:     k,
			Label:    k,
			Field:    k,
			Align:    "left",
			Sortable: true,
		}
	}
	return cols
}
