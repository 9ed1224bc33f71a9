// Package export renders the annotated ledger as downloadable files.
package export

import (
	"fmt"
	"time"

	"cashflow/internal/core"
)

// Header is the column layout shared by every export format.
var Header = []string{
	"Date",
	"Description",
	"Category",
	"Type",
	"Amount",
	"Cash Balance",
	"Non-Cash Balance",
}

// Filename returns the download name for an export, e.g. cashflow_20240315.csv.
func Filename(ext string, now time.Time) string {
	return fmt.Sprintf("cashflow_%s.%s", now.Format("20060102"), ext)
}

// row renders one annotated transaction into the export columns.
func row(tx core.AnnotatedTransaction) []string {
	return []string{
		tx.Timestamp.Format("2006-01-02 15:04"),
		tx.Description,
		string(tx.Category),
		string(tx.Type),
		core.FormatRupiah(tx.Amount.Cents),
		core.FormatRupiah(tx.RunningCash.Cents),
		core.FormatRupiah(tx.RunningNonCash.Cents),
	}
}
