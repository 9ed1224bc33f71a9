package http

import (
	"log/slog"
	"net/http"

	"cashflow/internal/core"
)

type reportsData struct {
	Username string
	Rows     []core.AnnotatedTransaction
	Totals   core.Totals
	Stats    core.Stats
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	txs, err := s.backend.List(r.Context(), currentUserID(r), core.Filter{})
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		http.Error(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}

	rows, err := core.ComputeRunningBalance(txs)
	if err != nil {
		slog.ErrorContext(r.Context(), "Running balance computation failed", "error", err)
		http.Error(w, "failed to compute balances", http.StatusInternalServerError)
		return
	}
	// newest first for display
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	totals, err := s.loadTotals(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Totals computation failed", "error", err)
		http.Error(w, "failed to compute totals", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "report.html", reportsData{
		Username: currentUser(r),
		Rows:     rows,
		Totals:   totals,
		Stats:    core.ReportStats(totals),
	})
}
