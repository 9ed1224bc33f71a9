package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/export"
)

// handleExport streams the annotated ledger in the requested format.
// Filters from the query string narrow the exported rows, but the balance
// columns stay ledger-wide, matching the transactions page.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")

	all, err := s.backend.List(r.Context(), currentUserID(r), core.Filter{})
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction list failed", "error", err)
		http.Error(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}

	annotated, err := core.ComputeRunningBalance(all)
	if err != nil {
		slog.ErrorContext(r.Context(), "Running balance computation failed", "error", err)
		http.Error(w, "ledger data is corrupt", http.StatusInternalServerError)
		return
	}
	rows := selectAnnotated(annotated, parseFilter(r))

	now := time.Now()
	var buf bytes.Buffer
	var contentType string

	switch format {
	case "csv":
		contentType = "text/csv"
		err = export.WriteCSV(&buf, rows)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteExcel(&buf, rows)
	case "pdf":
		contentType = "application/pdf"
		err = export.WritePDF(&buf, rows, now)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Export rendering failed", "format", format, "error", err)
		http.Error(w, "failed to render export", http.StatusInternalServerError)
		return
	}

	filename := export.Filename(format, now)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "Export write aborted", "format", format, "error", err)
	}

	slog.InfoContext(r.Context(), "Export served",
		"format", format, "rows", len(rows), "filename", filename)
}
