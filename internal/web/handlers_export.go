package web

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/lister/internal/logging"
)

// Batch reconciliation headers.
const (
	HeaderBatchFiles    = "X-Lister-Files"
	HeaderBatchTotal    = "X-Lister-Total"
	HeaderBatchExported = "X-Lister-Exported"
	HeaderBatchMatch    = "X-Lister-Match"
)

func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

// handleExport streams the filtered records as CSV. The file name is
// derived from the selection, e.g. Y1-2_All_Dean.csv.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	exp, err := s.service.Export(r.Context(), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(exp.FileName))
	if err := exp.WriteCSV(w); err != nil {
		// Headers are sent; the client sees a truncated file.
		logging.FromContext(r.Context()).Error("export write failed",
			"file", exp.FileName,
			"error", err,
		)
		return
	}

	logging.FromContext(r.Context()).Info("export",
		"file", exp.FileName,
		"records", len(exp.Records),
	)
}

// handleBatch builds the full matrix archive. The archive is buffered so
// a failure can still be reported as an error response, and so the
// reconciliation can travel in the response headers.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer

	res, err := s.service.Batch(r.Context(), &buf)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rec := res.Reconciliation
	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", attachment(res.FileName))
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	h.Set(HeaderBatchFiles, strconv.Itoa(rec.Files))
	h.Set(HeaderBatchTotal, strconv.FormatInt(rec.Total, 10))
	h.Set(HeaderBatchExported, strconv.FormatInt(rec.Exported, 10))
	h.Set(HeaderBatchMatch, fmt.Sprint(rec.Match))

	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Error("batch write failed", "error", err)
	}
}
