package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nuralia/clinic-crm/internal/store"
)

// UploadRun is the persisted summary of one pipeline run. It is written
// best-effort at run end: a failure to record the summary never fails
// the run itself, since the run's data is already loaded by then.
type UploadRun struct {
	ID         string         `json:"uploadId"`
	UploadDate time.Time      `json:"uploadDate"`
	FileNames  []string       `json:"fileNames"`
	Stats      map[string]int `json:"stats"`
	Errors     []string       `json:"errors,omitempty"`
}

func (r UploadRun) row() store.Row {
	stats, _ := json.Marshal(r.Stats)
	var errs any
	if len(r.Errors) > 0 {
		errs = strings.Join(r.Errors, "; ")
	}
	return store.Row{
		"run_id":      r.ID,
		"upload_date": r.UploadDate,
		"file_names":  strings.Join(r.FileNames, ", "),
		"stats":       string(stats),
		"errors":      errs,
	}
}

// persistRunMetadata writes the run summary. Missing-table is tolerated
// like every other destination table; the caller downgrades any error to
// a soft failure.
func persistRunMetadata(ctx context.Context, st store.Store, run UploadRun) error {
	_, err := st.Insert(ctx, TableUploadRuns, []store.Row{run.row()})
	if err != nil && !store.IsMissingTable(err) {
		return fmt.Errorf("persist run metadata: %w", err)
	}
	return nil
}

// ListRuns returns recent upload runs, newest first, for the history view.
// The store only pages in ascending id order, so the whole table is walked
// and the trailing window kept; run metadata is small and bounded by how
// often uploads happen, not by customer volume.
func ListRuns(ctx context.Context, st store.Store, limit int) ([]UploadRun, error) {
	if limit <= 0 {
		limit = 50
	}

	const pageSize = 200
	columns := []string{"run_id", "upload_date", "file_names", "stats", "errors"}

	var rows []store.Row
	for offset := 0; ; offset += pageSize {
		page, err := st.Select(ctx, TableUploadRuns, columns, offset, pageSize)
		if err != nil {
			if store.IsMissingTable(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("list runs: %w", err)
		}
		rows = append(rows, page...)
		if len(rows) > limit {
			rows = rows[len(rows)-limit:]
		}
		if len(page) < pageSize {
			break
		}
	}

	runs := make([]UploadRun, 0, len(rows))
	for _, row := range rows {
		run := UploadRun{ID: asString(row["run_id"])}
		if t, ok := row["upload_date"].(time.Time); ok {
			run.UploadDate = t
		}
		if names := asString(row["file_names"]); names != "" {
			run.FileNames = strings.Split(names, ", ")
		}
		if raw := asString(row["stats"]); raw != "" {
			_ = json.Unmarshal([]byte(raw), &run.Stats)
		}
		if errs := asString(row["errors"]); errs != "" {
			run.Errors = strings.Split(errs, "; ")
		}
		runs = append(runs, run)
	}

	// Newest first; the store returns id order (insertion order).
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}

	return runs, nil
}
