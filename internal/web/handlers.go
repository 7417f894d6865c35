package web

import (
	"net/http"

	"github.com/JonMunkholm/lister/internal/logging"
	"github.com/JonMunkholm/lister/internal/parse"
	"github.com/JonMunkholm/lister/internal/web/templates"
)

// handleDashboard renders the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := s.service.Summary(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// History is secondary; render without it rather than fail the page.
	history, err := s.service.History(ctx, 0)
	if err != nil {
		logging.FromContext(ctx).Warn("dashboard: load history", "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := templates.DashboardData{Summary: summary, History: history}
	if err := templates.Dashboard(data).Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render dashboard", "error", err)
	}
}

// handleRawPage renders the raw table inspector.
func (s *Server) handleRawPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.Raw(parseIntParam(r, "page", 1))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.RawTable(page).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render raw table", "error", err)
	}
}

// handleHealth reports liveness and whether an ingestion is running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"ingest": s.service.Limiter().Status(),
	})
}

// handleSummary returns the store summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summary(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// handleOptions returns the distinct filter values present in the store.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.service.FilterOptions(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, opts)
}

// handleHistory returns recent ingestion runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.History(r.Context(), parseIntParam(r, "limit", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, runs)
}

// RecordsResponse is a filtered record listing.
type RecordsResponse struct {
	Count   int            `json:"count"`
	Records []parse.Record `json:"records"`
}

// handleRecords returns the records matching the query filter.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	records, err := s.service.Records(r.Context(), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if records == nil {
		records = []parse.Record{}
	}
	writeJSON(w, r, http.StatusOK, RecordsResponse{Count: len(records), Records: records})
}

// handleRaw returns one page of the last raw table as JSON.
func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.Raw(parseIntParam(r, "page", 1))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}
