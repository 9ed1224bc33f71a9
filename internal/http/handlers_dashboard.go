package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"cashflow/internal/core"
)

const recentLimit = 5

// Cache keys carry the user id so one account never sees another's
// aggregates.
func totalsCacheKey(userID int64) string { return fmt.Sprintf("totals:%d", userID) }
func recentCacheKey(userID int64) string { return fmt.Sprintf("recent:%d", userID) }

type dashboardData struct {
	Username string
	Totals   core.Totals
	Recent   []core.Transaction
	Error    string
	Success  string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	totals, err := s.loadTotals(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Totals computation failed", "error", err)
		http.Error(w, "failed to compute totals", http.StatusInternalServerError)
		return
	}

	userID := currentUserID(r)
	recent, ok := s.recentCache.Get(recentCacheKey(userID))
	if !ok {
		recent, err = s.backend.Recent(r.Context(), userID, recentLimit)
		if err != nil {
			slog.ErrorContext(r.Context(), "Recent transactions lookup failed", "error", err)
			http.Error(w, "failed to load transactions", http.StatusInternalServerError)
			return
		}
		s.recentCache.Set(recentCacheKey(userID), recent)
	}

	s.render(w, r, "dashboard.html", dashboardData{
		Username: currentUser(r),
		Totals:   totals,
		Recent:   recent,
		Error:    r.URL.Query().Get("error"),
		Success:  r.URL.Query().Get("success"),
	})
}

// loadTotals serves the session user's aggregate summary from cache when
// fresh, otherwise recomputes it from their full ledger.
func (s *Server) loadTotals(r *http.Request) (core.Totals, error) {
	userID := currentUserID(r)
	if totals, ok := s.totalsCache.Get(totalsCacheKey(userID)); ok {
		return totals, nil
	}

	txs, err := s.backend.List(r.Context(), userID, core.Filter{})
	if err != nil {
		return core.Totals{}, err
	}
	totals, err := core.ComputeTotals(txs)
	if err != nil {
		return core.Totals{}, err
	}

	s.totalsCache.Set(totalsCacheKey(userID), totals)
	return totals, nil
}
