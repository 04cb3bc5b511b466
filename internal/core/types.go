package core

import (
	"time"

	"github.com/JonMunkholm/sheetview/internal/decoder"
)

// Column describes one table column derived from the document.
type Column struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Field    string `json:"field"`
	Align    string `json:"align"`
	Sortable bool   `json:"sortable"`
}

// Snapshot is the result of one successful load. It is never modified
// after it has been published.
type Snapshot struct {
	LoadID   string
	Document *decoder.Document
	Columns  []Column
	LoadedAt time.Time
	Source   string
	Bytes    int64
	Duration time.Duration
}

// Records returns the decoded records, or nil for a nil snapshot.
func (s *Snapshot) Records() []decoder.Record {
	if s == nil || s.Document == nil {
		return nil
	}
	return s.Document.Records
}

// Status is the state shown by the UI: whether a load is running and how
// the last one ended.
type Status struct {
	Loading  bool         `json:"loading"`
	LoadID   string       `json:"load_id,omitempty"`
	LoadedAt time.Time    `json:"loaded_at,omitzero"`
	Records  int          `json:"records"`
	Warnings int          `json:"warnings"`
	Source   string       `json:"source"`
	Err      *UserMessage `json:"error,omitempty"`
	FailedAt time.Time    `json:"failed_at,omitzero"`
}

// Loaded reports whether a snapshot is available.
func (s Status) Loaded() bool {
	return s.LoadID != "" && !s.LoadedAt.IsZero()
}

// TableQuery selects a page of the current snapshot.
type TableQuery struct {
	Filter      string
	SortBy      string
	Descending  bool
	Page        int // 1-based; out-of-range values are clamped
	RowsPerPage int // 0 selects the service default
}

// TablePage is one page of filtered and sorted records.
type TablePage struct {
	Columns     []Column         `json:"columns"`
	Rows        []decoder.Record `json:"rows"`
	Total       int              `json:"total"`
	Page        int              `json:"page"`
	Pages       int              `json:"pages"`
	RowsPerPage int              `json:"rows_per_page"`
	Filter      string           `json:"filter"`
	SortBy      string           `json:"sort_by"`
	Descending  bool             `json:"descending"`
}

// HasPrev reports whether a previous page exists.
func (p *TablePage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p *TablePage) HasNext() bool { return p.Page < p.Pages }

// First returns the 1-based position of the first row on the page, or 0
// for an empty page.
func (p *TablePage) First() int {
	if len(p.Rows) == 0 {
		return 0
	}
	return (p.Page-1)*p.RowsPerPage + 1
}

// Last returns the 1-based position of the last row on the page.
func (p *TablePage) Last() int {
	if len(p.Rows) == 0 {
		return 0
	}
	return p.First() + len(p.Rows) - 1
}
