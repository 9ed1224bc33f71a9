package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Totals is the aggregate summary derived from a transaction set.
type Totals struct {
	CashIncome     Money
	CashExpense    Money
	CashBalance    Money
	NonCashIncome  Money
	NonCashExpense Money
	NonCashBalance Money

	TotalIncome  Money
	TotalExpense Money
	TotalBalance Money

	TotalCount   int
	CashCount    int
	NonCashCount int
}

// AnnotatedTransaction is a transaction plus the per-bucket running
// balances after applying it, in chronological order.
type AnnotatedTransaction struct {
	Transaction
	RunningCash    Money
	RunningNonCash Money
}

// ComputeTotals partitions transactions into the four (category, type)
// buckets and derives balances and counts. Order of the input does not
// matter. An empty input yields the zero value. A row violating the domain
// invariants fails the whole computation with a DataIntegrityError.
func ComputeTotals(txs []Transaction) (Totals, error) {
	var t Totals
	for _, tx := range txs {
		if err := checkRow(tx); err != nil {
			return Totals{}, err
		}
		switch tx.Category {
		case Cash:
			t.CashCount++
			if tx.Type == Income {
				t.CashIncome.Cents += tx.Amount.Cents
			} else {
				t.CashExpense.Cents += tx.Amount.Cents
			}
		case NonCash:
			t.NonCashCount++
			if tx.Type == Income {
				t.NonCashIncome.Cents += tx.Amount.Cents
			} else {
				t.NonCashExpense.Cents += tx.Amount.Cents
			}
		}
	}

	t.TotalCount = t.CashCount + t.NonCashCount
	t.CashBalance.Cents = t.CashIncome.Cents - t.CashExpense.Cents
	t.NonCashBalance.Cents = t.NonCashIncome.Cents - t.NonCashExpense.Cents
	t.TotalIncome.Cents = t.CashIncome.Cents + t.NonCashIncome.Cents
	t.TotalExpense.Cents = t.CashExpense.Cents + t.NonCashExpense.Cents
	t.TotalBalance.Cents = t.TotalIncome.Cents - t.TotalExpense.Cents
	return t, nil
}

// ComputeRunningBalance sorts transactions ascending by timestamp (ties
// broken by id, so the result is deterministic) and annotates each with the
// cash and non-cash accumulators after applying it. The input slice is not
// modified.
func ComputeRunningBalance(txs []Transaction) ([]AnnotatedTransaction, error) {
	ordered := make([]Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	out := make([]AnnotatedTransaction, 0, len(ordered))
	var cash, nonCash int64
	for _, tx := range ordered {
		if err := checkRow(tx); err != nil {
			return nil, err
		}
		if tx.Category == Cash {
			cash += tx.Signed()
		} else {
			nonCash += tx.Signed()
		}
		out = append(out, AnnotatedTransaction{
			Transaction:    tx,
			RunningCash:    Money{Cents: cash},
			RunningNonCash: Money{Cents: nonCash},
		})
	}
	return out, nil
}

// Filter selects transactions by category, type, and description substring.
// Empty fields and the "all" sentinel are wildcards; provided predicates
// combine with AND. The substring match is case-insensitive.
type Filter struct {
	Category Category
	Type     TransactionType
	Search   string
}

const wildcard = "all"

func (f Filter) matchCategory(c Category) bool {
	return f.Category == "" || string(f.Category) == wildcard || f.Category == c
}

func (f Filter) matchType(t TransactionType) bool {
	return f.Type == "" || string(f.Type) == wildcard || f.Type == t
}

// Match reports whether a single transaction passes the filter.
func (f Filter) Match(tx Transaction) bool {
	if !f.matchCategory(tx.Category) || !f.matchType(tx.Type) {
		return false
	}
	if f.Search != "" {
		return strings.Contains(strings.ToLower(tx.Description), strings.ToLower(f.Search))
	}
	return true
}

// Apply returns the subsequence of transactions passing the filter,
// preserving input order.
func (f Filter) Apply(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// Stats holds the ratio figures shown on the reports page, as percentages.
type Stats struct {
	CashRatio    float64
	NonCashRatio float64
	IncomeRatio  float64
	ExpenseRatio float64
}

// ReportStats derives percentage ratios from totals. All ratios are zero
// for an empty ledger.
func ReportStats(t Totals) Stats {
	var s Stats
	if t.TotalCount > 0 {
		total := decimal.NewFromInt(int64(t.TotalCount))
		s.CashRatio = ratio(decimal.NewFromInt(int64(t.CashCount)), total)
		s.NonCashRatio = ratio(decimal.NewFromInt(int64(t.NonCashCount)), total)
	}
	flow := t.TotalIncome.Cents + t.TotalExpense.Cents
	if flow > 0 {
		flowDec := decimal.NewFromInt(flow)
		s.IncomeRatio = ratio(decimal.NewFromInt(t.TotalIncome.Cents), flowDec)
		s.ExpenseRatio = ratio(decimal.NewFromInt(t.TotalExpense.Cents), flowDec)
	}
	return s
}

func ratio(part, whole decimal.Decimal) float64 {
	f, _ := part.Mul(hundred).DivRound(whole, 2).Float64()
	return f
}

func checkRow(tx Transaction) error {
	if tx.Amount.Cents <= 0 {
		return &DataIntegrityError{ID: tx.ID, Field: "amount", Reason: ErrInvalidAmount}
	}
	if !tx.Category.Valid() {
		return &DataIntegrityError{ID: tx.ID, Field: "category", Reason: ErrInvalidCategory}
	}
	if !tx.Type.Valid() {
		return &DataIntegrityError{ID: tx.ID, Field: "transaction_type", Reason: ErrInvalidType}
	}
	return nil
}
