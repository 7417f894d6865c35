package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/lister/internal/core"
	"github.com/JonMunkholm/lister/internal/logging"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the file size limit.
const multipartOverhead = 1 << 20

// handleIngest accepts a listing upload and starts a background pass.
// It responds 202 with the ingestion id.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	limit := s.service.Options().MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, limit))
			return
		}
		s.respondError(w, r, badRequest("invalid upload form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, badRequest("no file provided"))
		return
	}
	defer file.Close()

	data, err := s.service.ReadUpload(file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id, err := s.service.StartIngest(r.Context(), header.Filename, data)
	if err != nil {
		if errors.Is(err, core.ErrIngestionBusy) {
			w.Header().Set("Retry-After", "10")
		}
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("ingestion started",
		"ingest_id", id,
		"file", header.Filename,
		"bytes", len(data),
	)
	writeJSON(w, r, http.StatusAccepted, map[string]string{"ingest_id": id})
}

// handleIngestProgress streams progress via Server-Sent Events.
// The event id is the percentage, so a reconnecting client that sends
// lastEventId skips updates it has already seen.
func (s *Server) handleIngestProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ingestID")

	lastEventIDStr := r.URL.Query().Get("lastEventId")
	if lastEventIDStr == "" {
		lastEventIDStr = r.Header.Get("Last-Event-ID")
	}
	lastEventID := -1
	if lastEventIDStr != "" {
		if n, err := strconv.Atoi(lastEventIDStr); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeProgress(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				fmt.Fprint(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			percent := progress.Percent()
			if percent <= lastEventID && !progress.Phase.Done() {
				continue
			}
			lastEventID = percent

			data, err := json.Marshal(progress)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", percent, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// ResultResponse is a finished pass. Code, Message and Action are set when
// the pass ended without rebuilding the store.
type ResultResponse struct {
	*core.Report
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
}

// handleIngestResult waits for the pass to finish and returns its report.
// A pass that found no records or failed still returns 200 with its report
// and the mapped error, so clients can show the pass log.
func (s *Server) handleIngestResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ingestID")

	report, err := s.service.Result(r.Context(), id)
	if report == nil {
		if err == nil {
			err = fmt.Errorf("%w: %s", core.ErrIngestionNotFound, id)
		}
		s.respondError(w, r, err)
		return
	}

	resp := ResultResponse{Report: report}
	if err != nil {
		msg := core.MapError(err)
		resp.Code, resp.Message, resp.Action = msg.Code, msg.Message, msg.Action
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleCancelIngest cancels a running pass.
func (s *Server) handleCancelIngest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ingestID")

	if err := s.service.Cancel(id); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "cancelled"})
}
