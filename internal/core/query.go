package core

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/sheetview/internal/decoder"
)

// Query returns one page of the current snapshot.
func (s *Service) Query(q TableQuery) (*TablePage, error) {
	snap := s.Snapshot()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	if q.RowsPerPage <= 0 {
		q.RowsPerPage = s.opts.RowsPerPage
	}
	return QuerySnapshot(snap, q, s.opts.Locale), nil
}

// View returns every record of the current snapshot that matches q, in
// sort order. Paging fields of q are ignored. Used for exports.
func (s *Service) View(q TableQuery) ([]Column, []decoder.Record, error) {
	snap := s.Snapshot()
	if snap == nil {
		return nil, nil, ErrNotLoaded
	}
	q = normalizeSort(snap.Columns, q)
	return snap.Columns, filterAndSort(snap.Records(), q, s.opts.Locale), nil
}

// QuerySnapshot filters, sorts and paginates snap. A SortBy naming no
// column is dropped.
func QuerySnapshot(snap *Snapshot, q TableQuery, locale language.Tag) *TablePage {
	q = normalizeSort(snap.Columns, q)
	rows := filterAndSort(snap.Records(), q, locale)
	if rows == nil {
		rows = []decoder.Record{}
	}

	perPage := q.RowsPerPage
	if perPage <= 0 {
		perPage = DefaultRowsPerPage
	}
	perPage = min(perPage, MaxRowsPerPage)

	total := len(rows)
	pages := max(1, (total+perPage-1)/perPage)
	page := min(max(q.Page, 1), pages)

	lo := min((page-1)*perPage, total)
	hi := min(lo+perPage, total)

	return &TablePage{
		Columns:     snap.Columns,
		Rows:        rows[lo:hi],
		Total:       total,
		Page:        page,
		Pages:       pages,
		RowsPerPage: perPage,
		Filter:      q.Filter,
		SortBy:      q.SortBy,
		Descending:  q.Descending,
	}
}

func normalizeSort(cols []Column, q TableQuery) TableQuery {
	if q.SortBy == "" {
		q.Descending = false
		return q
	}
	for _, c := range cols {
		if c.Field == q.SortBy && c.Sortable {
			return q
		}
	}
	q.SortBy = ""
	q.Descending = false
	return q
}

// filterAndSort returns a new slice; records is not reordered.
func filterAndSort(records []decoder.Record, q TableQuery, locale language.Tag) []decoder.Record {
	rows := Filter(records, q.Filter)
	if q.SortBy != "" {
		SortRecords(rows, q.SortBy, q.Descending, locale)
	}
	return rows
}

// Filter returns the records where some cell's display form contains
// term, ignoring case. An empty term matches everything.
func Filter(records []decoder.Record, term string) []decoder.Record {
	term = strings.TrimSpace(term)
	if term == "" {
		return slices.Clone(records)
	}

	folder := cases.Fold()
	needle := folder.String(term)

	var out []decoder.Record
	for _, rec := range records {
		for _, v := range rec {
			if v.IsNull() {
				continue
			}
			if strings.Contains(folder.String(v.String()), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// SortRecords sorts records in place by field. The sort is stable.
// Ascending order puts numbers first (numerically), then text (by the
// collation rules of locale), then nulls and missing cells. Descending
// reverses the whole order.
func SortRecords(records []decoder.Record, field string, descending bool, locale language.Tag) {
	col := collate.New(locale, collate.IgnoreCase)

	slices.SortStableFunc(records, func(a, b decoder.Record) int {
		c := CompareValues(a[field], b[field], col)
		if descending {
			return -c
		}
		return c
	})
}

// CompareValues orders two cells for sorting. col may be nil, in which
// case text compares by code point.
func CompareValues(a, b decoder.Value, col *collate.Collator) int {
	if ra, rb := kindRank(a), kindRank(b); ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch a.Kind() {
	case decoder.KindNumber:
		x, _ := a.Number()
		y, _ := b.Number()
		return cmp.Compare(x, y)
	case decoder.KindText:
		x, _ := a.Text()
		y, _ := b.Text()
		if col != nil {
			if c := col.CompareString(x, y); c != 0 {
				return c
			}
		}
		return strings.Compare(x, y)
	default:
		return 0
	}
}

func kindRank(v decoder.Value) int {
	switch v.Kind() {
	case decoder.KindNumber:
		return 0
	case decoder.KindText:
		return 1
	default:
		return 2
	}
}
