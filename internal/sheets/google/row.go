package google

import (
	"strconv"

	"cashflow/internal/core"
)

// mirrorRow renders a transaction as the six sheet columns:
// ID, Date, Description, Category, Type, Amount.
func mirrorRow(tx core.Transaction) []any {
	return []any{
		strconv.FormatInt(tx.ID, 10),
		tx.Timestamp.Format("2006-01-02 15:04:05"),
		tx.Description,
		string(tx.Category),
		string(tx.Type),
		core.DecimalString(tx.Amount.Cents),
	}
}

// findRowByID returns the zero-based index of the row whose first column
// holds the given id, or -1.
func findRowByID(ids []string, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, v := range ids {
		if v == want {
			return i
		}
	}
	return -1
}
