// Package templates renders the HTML table page.
//
// The components live in page.templ; run `templ generate` after editing it.
package templates

import (
	"net/url"
	"strconv"

	"golang.org/x/text/language"

	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/decoder"
)

// PageData is everything the table page shows.
type PageData struct {
	Title  string
	Lang   language.Tag
	Status core.Status
	Page   *core.TablePage // nil before the first successful load

	// LinkLabel cells link to the URL in the LinkTarget field of the same
	// record. The LinkTarget column itself is not shown.
	LinkLabel  string
	LinkTarget string

	// RefreshSeconds is the meta refresh delay while a load is running.
	RefreshSeconds int
}

func refreshSeconds(d PageData) int {
	if !d.Status.Loading {
		return 0
	}
	return max(d.RefreshSeconds, 1)
}

// visibleColumns drops the link target column when it feeds a link.
func visibleColumns(d PageData) []core.Column {
	if !hasLink(d) {
		return d.Page.Columns
	}
	cols := make([]core.Column, 0, len(d.Page.Columns))
	for _, c := range d.Page.Columns {
		if c.Field != d.LinkTarget {
			cols = append(cols, c)
		}
	}
	return cols
}

func hasLink(d PageData) bool {
	if d.LinkLabel == "" || d.LinkTarget == "" || d.LinkLabel == d.LinkTarget {
		return false
	}
	var label, target bool
	for _, c := range d.Page.Columns {
		label = label || c.Field == d.LinkLabel
		target = target || c.Field == d.LinkTarget
	}
	return label && target
}

func sortOrder(desc bool) string {
	if desc {
		return "descending"
	}
	return "ascending"
}

// cellHref is the link target of a cell, or "" when it holds no text.
func cellHref(v decoder.Value) string {
	href, _ := v.Text()
	return href
}

// pageWindow lists the first page, the last page and radius pages around
// current. Zero marks a gap.
func pageWindow(current, pages, radius int) []int {
	var out []int
	last := 0
	for n := 1; n <= pages; n++ {
		if n != 1 && n != pages && (n < current-radius || n > current+radius) {
			continue
		}
		if last != 0 && n != last+1 {
			out = append(out, 0)
		}
		out = append(out, n)
		last = n
	}
	return out
}

func exportURL(p *core.TablePage, ext string) string {
	href := "/api/export." + ext
	if enc := viewQuery(p.SortBy, p.Descending, p.Filter).Encode(); enc != "" {
		href += "?" + enc
	}
	return href
}

// PageURL links to the table page with the given view settings.
func PageURL(p *core.TablePage, page int, sortBy string, desc bool, filter string) string {
	q := viewQuery(sortBy, desc, filter)
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if p != nil && p.RowsPerPage > 0 && p.RowsPerPage != core.DefaultRowsPerPage {
		q.Set("rows", strconv.Itoa(p.RowsPerPage))
	}
	if enc := q.Encode(); enc != "" {
		return "/?" + enc
	}
	return "/"
}

func viewQuery(sortBy string, desc bool, filter string) url.Values {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	if sortBy != "" {
		q.Set("sort", sortBy)
		if desc {
			q.Set("desc", "1")
		}
	}
	return q
}
