// Package core holds the presenter state of a sheetview process.
//
// It owns the load lifecycle and answers table queries. Nothing in it
// knows about HTTP or HTML, so the web server, the CLI and tests share it
// unchanged.
//
// # Load lifecycle
//
// A [Service] wraps one [source.Source]. [Service.Load] fetches the raw
// document, decodes it with the configured [decoder.Options] and publishes
// an immutable [Snapshot]:
//
//	svc := core.NewService(src, core.Options{
//	    Locale:      language.BrazilianPortuguese,
//	    RowsPerPage: 15,
//	})
//	if _, err := svc.Load(ctx); err != nil {
//	    slog.Error("initial load failed", "error", err)
//	}
//
// While a load is in flight [Status] reports Loading. The flag is cleared
// when the load finishes, whether it succeeded or failed. A failed load
// keeps the previous snapshot and records a [UserMessage] in the status.
// Concurrent calls to Load share one fetch.
//
// # Queries
//
// [Service.Query] filters, sorts and paginates the current snapshot:
//
//	page, err := svc.Query(core.TableQuery{
//	    Filter: "silva",
//	    SortBy: "Ano",
//	    Page:   2,
//	})
//
// Numbers sort numerically and text sorts by the collation rules of the
// configured locale. Numbers come before text and nulls come last.
//
// # Errors
//
// [MapError] turns fetch, decode and query errors into a [UserMessage]
// with a short code (FETCH001, PARSE001, ...) that the UI shows next to
// the message. [ErrNotLoaded] is returned by queries before the first
// successful load.
package core
