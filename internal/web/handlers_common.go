package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/JonMunkholm/sheetview/internal/core"
)

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseBoolParam accepts 1, true, yes and on.
func parseBoolParam(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// parseTableQuery reads filter, sort, desc, page and rows from the URL.
// Paging parameters are clamped by the service.
func parseTableQuery(r *http.Request) core.TableQuery {
	q := r.URL.Query()
	return core.TableQuery{
		Filter:      strings.TrimSpace(q.Get("filter")),
		SortBy:      q.Get("sort"),
		Descending:  parseBoolParam(r, "desc"),
		Page:        parseIntParam(r, "page", 1),
		RowsPerPage: parseIntParam(r, "rows", 0),
	}
}

type pageIdentityKey struct{}

type identity struct {
	title string
	lang  language.Tag
}

// withPageIdentity stores the page title and language for error pages.
func withPageIdentity(title string, lang language.Tag) func(http.Handler) http.Handler {
	id := identity{title: title, lang: lang}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), pageIdentityKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func pageIdentity(ctx context.Context) (string, language.Tag) {
	if id, ok := ctx.Value(pageIdentityKey{}).(identity); ok {
		return id.title, id.lang
	}
	return "Error", language.English
}
