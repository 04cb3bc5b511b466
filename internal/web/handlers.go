package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/export"
	"github.com/JonMunkholm/sheetview/internal/logging"
	"github.com/JonMunkholm/sheetview/internal/web/templates"
)

// pageReloadWait is how long POST /reload waits for the load before
// redirecting. Slower loads show the loading indicator instead.
var pageReloadWait = 3 * time.Second

// pageRefreshSeconds is the meta refresh delay while a load is running.
const pageRefreshSeconds = 2

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handlePage renders the table page. Before the first successful load it
// shows the loading or error state without a table.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.Query(parseTableQuery(r))
	if err != nil && !errors.Is(err, core.ErrNotLoaded) {
		respondError(w, r, err, statusFor(err))
		return
	}

	data := templates.PageData{
		Title:          s.cfg.Table.Title,
		Lang:           s.service.Locale(),
		Status:         s.service.Status(),
		Page:           page,
		LinkLabel:      s.cfg.Table.LinkLabel,
		LinkTarget:     s.cfg.Table.LinkTarget,
		RefreshSeconds: pageRefreshSeconds,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// handlePageReload starts a load from the page's reload button and
// redirects back to the table.
func (s *Server) handlePageReload(w http.ResponseWriter, r *http.Request) {
	done := s.startLoad(r)

	timer := time.NewTimer(pageReloadWait)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	case <-r.Context().Done():
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleReload triggers a load and returns the resulting status. With
// wait=0, or when the request ends first, it answers 202 while the load
// keeps running.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	done := s.startLoad(r)

	if r.URL.Query().Get("wait") == "0" {
		writeJSON(w, r, http.StatusAccepted, s.service.Status())
		return
	}

	select {
	case err := <-done:
		if err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
		writeJSON(w, r, http.StatusOK, s.service.Status())
	case <-r.Context().Done():
		writeJSON(w, r, http.StatusAccepted, s.service.Status())
	}
}

// startLoad runs Service.Load in the background. The load outlives the
// request.
func (s *Server) startLoad(r *http.Request) <-chan error {
	ctx := core.ContextWithTrigger(context.WithoutCancel(r.Context()), core.TriggerAPI)
	logging.FromContext(ctx).Info("reload requested")

	done := make(chan error, 1)
	go func() {
		_, err := s.service.Load(ctx)
		done <- err
	}()
	return done
}

// handleRecords returns one page of records as JSON.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.Query(parseTableQuery(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}

// handleColumns returns the column definitions of the current snapshot.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Snapshot()
	if snap == nil {
		respondError(w, r, core.ErrNotLoaded, http.StatusServiceUnavailable)
		return
	}
	cols := snap.Columns
	if cols == nil {
		cols = []core.Column{}
	}
	writeJSON(w, r, http.StatusOK, cols)
}

// handleStatus returns the loading flag and the outcome of the last load.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Status())
}

// handleExportCSV downloads the filtered and sorted view as CSV.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	cols, recs, err := s.service.View(parseTableQuery(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	s.attachment(w, "text/csv; charset=utf-8", "csv")
	if err := export.WriteCSV(w, cols, recs); err != nil {
		// Can't change status code after writing, just log
		logging.FromContext(r.Context()).Error("csv export failed", "error", err, "records", len(recs))
	}
}

// handleExportXLSX downloads the filtered and sorted view as a workbook.
// The workbook is built in memory before anything is written.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	cols, recs, err := s.service.View(parseTableQuery(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	var buf bytes.Buffer
	err = export.WriteXLSX(&buf, cols, recs, export.XLSXOptions{
		SheetName:  s.cfg.Table.Title,
		LinkLabel:  s.cfg.Table.LinkLabel,
		LinkTarget: s.cfg.Table.LinkTarget,
	})
	if err != nil {
		respondError(w, r, fmt.Errorf("xlsx export: %w", err), http.StatusInternalServerError)
		return
	}

	s.attachment(w, xlsxContentType, "xlsx")
	w.Write(buf.Bytes())
}

func (s *Server) attachment(w http.ResponseWriter, contentType, ext string) {
	filename := export.Filename(s.cfg.Table.Title, ext, time.Now())
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status  string `json:"status"`
	Loaded  bool   `json:"loaded"`
	Loading bool   `json:"loading"`
}

// handleHealth reports liveness. The process is healthy before the first
// load; loaded tells readiness checks whether data is available.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.service.Status()
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Loaded:  st.Loaded(),
		Loading: st.Loading,
	})
}
