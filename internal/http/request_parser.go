package http

import (
	"net/http"
	"time"

	"cashflow/internal/core"
)

// parseFilter reads the list filters from the query string. Missing values
// stay empty, which the core filter treats as wildcards.
func parseFilter(r *http.Request) core.Filter {
	q := r.URL.Query()
	return core.Filter{
		Category: core.Category(sanitizeInput(q.Get("category"))),
		Type:     core.TransactionType(sanitizeInput(q.Get("type"))),
		Search:   sanitizeInput(q.Get("search")),
	}
}

// parseTransactionForm builds a transaction from form fields, returning a
// user-facing message on bad input. The returned transaction carries no id;
// callers set it for updates.
func parseTransactionForm(r *http.Request) (core.Transaction, string) {
	if err := r.ParseForm(); err != nil {
		return core.Transaction{}, "Invalid request"
	}

	desc := sanitizeInput(r.Form.Get("description"))
	if desc == "" {
		return core.Transaction{}, "Description is required"
	}

	category := core.Category(sanitizeInput(r.Form.Get("category")))
	if !category.Valid() {
		return core.Transaction{}, "Pick a category"
	}

	txType := core.TransactionType(sanitizeInput(r.Form.Get("transaction_type")))
	if !txType.Valid() {
		return core.Transaction{}, "Pick a transaction type"
	}

	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		return core.Transaction{}, "Amount must be a positive number"
	}

	tx := core.Transaction{
		Description: desc,
		Category:    category,
		Type:        txType,
		Amount:      amount,
		Timestamp:   time.Now(),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, "Invalid transaction data"
	}
	return tx, ""
}
