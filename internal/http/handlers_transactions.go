package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"cashflow/internal/core"
)

type transactionsData struct {
	Username string
	Rows     []core.AnnotatedTransaction
	Filter   core.Filter
	Totals   core.Totals
	Error    string
	Success  string
}

type editData struct {
	Username    string
	Transaction core.Transaction
	Amount      string
	Error       string
}

// handleTransactions lists the user's ledger with filters applied. Running
// balances and the totals strip always reflect the whole ledger: a filter
// narrows which rows are shown, never the balances printed next to them.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r)
	userID := currentUserID(r)

	all, err := s.backend.List(r.Context(), userID, core.Filter{})
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

	totals, err := core.ComputeTotals(all)
	if err != nil {
		slog.ErrorContext(r.Context(), "Totals computation failed", "error", err)
		http.Error(w, "ledger data is corrupt", http.StatusInternalServerError)
		return
	}

	rows := selectAnnotated(annotated, f)
	// newest first for display
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	s.render(w, r, "transactions.html", transactionsData{
		Username: currentUser(r),
		Rows:     rows,
		Filter:   f,
		Totals:   totals,
		Error:    r.URL.Query().Get("error"),
		Success:  r.URL.Query().Get("success"),
	})
}

// selectAnnotated keeps the annotated rows passing the filter, with their
// ledger-wide running balances intact.
func selectAnnotated(rows []core.AnnotatedTransaction, f core.Filter) []core.AnnotatedTransaction {
	out := make([]core.AnnotatedTransaction, 0, len(rows))
	for _, row := range rows {
		if f.Match(row.Transaction) {
			out = append(out, row)
		}
	}
	return out
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	tx, msg := parseTransactionForm(r)
	if msg != "" {
		redirectWithFlash(w, r, "/transactions", "error", msg)
		return
	}
	tx.UserID = currentUserID(r)

	id, err := s.ledger.Add(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction add failed",
			"description", tx.Description, "error", err)
		redirectWithFlash(w, r, "/transactions", "error", "Failed to save transaction")
		return
	}

	s.invalidateCaches()
	slog.InfoContext(r.Context(), "Transaction added",
		"transaction_id", id,
		"category", string(tx.Category),
		"transaction_type", string(tx.Type),
		"amount_cents", tx.Amount.Cents)
	redirectWithFlash(w, r, "/transactions", "success", "Transaction added")
}

func (s *Server) handleEditPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	tx, err := s.backend.Get(r.Context(), currentUserID(r), id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction lookup failed", "transaction_id", id, "error", err)
		http.Error(w, "failed to load transaction", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "edit.html", editData{
		Username:    currentUser(r),
		Transaction: tx,
		Amount:      core.DecimalString(tx.Amount.Cents),
		Error:       r.URL.Query().Get("error"),
	})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	tx, msg := parseTransactionForm(r)
	if msg != "" {
		redirectWithFlash(w, r, "/transactions/"+r.PathValue("id")+"/edit", "error", msg)
		return
	}
	tx.ID = id
	tx.UserID = currentUserID(r)

	if err := s.ledger.Update(r.Context(), tx); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Transaction update failed", "transaction_id", id, "error", err)
		redirectWithFlash(w, r, "/transactions", "error", "Failed to update transaction")
		return
	}

	s.invalidateCaches()
	slog.InfoContext(r.Context(), "Transaction updated", "transaction_id", id)
	redirectWithFlash(w, r, "/transactions", "success", "Transaction updated")
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := s.ledger.Delete(r.Context(), currentUserID(r), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			redirectWithFlash(w, r, "/transactions", "error", "Transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Transaction delete failed", "transaction_id", id, "error", err)
		redirectWithFlash(w, r, "/transactions", "error", "Failed to delete transaction")
		return
	}

	s.invalidateCaches()
	slog.InfoContext(r.Context(), "Transaction deleted", "transaction_id", id)
	redirectWithFlash(w, r, "/transactions", "success", "Transaction deleted")
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Clear(r.Context(), currentUserID(r)); err != nil {
		slog.ErrorContext(r.Context(), "Ledger clear failed", "error", err)
		redirectWithFlash(w, r, "/transactions", "error", "Failed to clear the ledger")
		return
	}

	s.invalidateCaches()
	slog.InfoContext(r.Context(), "Ledger cleared")
	redirectWithFlash(w, r, "/transactions", "success", "All transactions removed")
}
