package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nuralia/clinic-crm/internal/ingest"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleUpload accepts one multipart form carrying up to six spreadsheet
// files, one part per source file kind, and starts an upload run. Any
// subset of parts may be present; at least one is required. The response
// returns immediately with the run ID; the run itself executes in the
// background and is observable via the progress, result and log endpoints.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Pipeline.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize*int64(len(ingest.FileOrder)))

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	// Buffer every part up front: the run outlives this request, and the
	// multipart temp files are gone once the handler returns.
	var inputs []ingest.Input
	for _, kind := range ingest.FileOrder {
		file, header, err := r.FormFile(string(kind))
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid part %q", kind))
			return
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "failed to read uploaded file")
			return
		}

		inputs = append(inputs, ingest.Input{
			Kind:   kind,
			Name:   header.Filename,
			Reader: bytes.NewReader(data),
		})
	}

	if len(inputs) == 0 {
		writeError(w, r, http.StatusBadRequest, "no files provided")
		return
	}

	runID := uuid.New().String()
	runLog := ingest.NewRunLog(slog.Default().With("run_id", runID))
	tracked := newTrackedRun(runID, runLog)
	s.runs.add(tracked)

	processor := ingest.NewProcessor(s.st, ingest.Options{
		BatchSize:  s.cfg.Pipeline.BatchSize,
		BatchDelay: s.cfg.Pipeline.BatchDelay,
		PageSize:   s.cfg.Pipeline.PageSize,
		RunID:      runID,
		Progress:   tracked.setProgress,
		Log:        runLog,
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Pipeline.Timeout)
		defer cancel()

		result, err := processor.Run(ctx, inputs)
		if err != nil && result == nil {
			result = &ingest.Result{Success: false, Message: err.Error()}
		}
		tracked.finish(result)
	}()

	writeJSONStatus(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

// handleUploadProgress streams run progress via Server-Sent Events.
func (s *Server) handleUploadProgress(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	tracked, ok := s.runs.get(runID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown run")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch, cancel := tracked.subscribe()
	defer cancel()

	// Send the current snapshot first so late subscribers are not blank
	// until the next batch completes.
	_, current, _ := tracked.snapshot()
	writeSSE(w, "progress", current)
	flusher.Flush()

	for {
		select {
		case p := <-ch:
			writeSSE(w, "progress", p)
			flusher.Flush()
		case <-tracked.done:
			status, _, _ := tracked.snapshot()
			writeSSE(w, "complete", map[string]string{"status": status})
			flusher.Flush()
			return
		case <-r.Context().Done():
			return
		}
	}
}

// handleUploadResult returns the final summary of a run. While the run is
// still executing the endpoint answers 202 so clients can poll.
func (s *Server) handleUploadResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	tracked, ok := s.runs.get(runID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown run")
		return
	}

	status, _, result := tracked.snapshot()
	if status == statusRunning {
		writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": statusRunning})
		return
	}
	writeJSON(w, result)
}

// handleUploadLog serves the run's audit log as a downloadable text file.
func (s *Server) handleUploadLog(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	tracked, ok := s.runs.get(runID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown run")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="upload_run_%s.log"`, runID))
	io.WriteString(w, tracked.log.Export())
}

// handleListRuns returns persisted run metadata, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := ingest.ListRuns(r.Context(), s.st, 50)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []ingest.UploadRun{}
	}
	writeJSON(w, runs)
}
