package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"cashflow/internal/core"
)

var pdfColWidths = []float64{32, 70, 25, 28, 40, 40, 42}

// WritePDF renders the ledger as a landscape A4 table with a summary line
// holding the final balances.
func WritePDF(w io.Writer, txs []core.AnnotatedTransaction, now time.Time) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Cashflow Ledger", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+now.Format("2 January 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(221, 221, 221)
	for i, name := range Header {
		pdf.CellFormat(pdfColWidths[i], 8, name, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, tx := range txs {
		cols := row(tx)
		for i, value := range cols {
			align := "L"
			if i >= 4 {
				align = "R"
			}
			pdf.CellFormat(pdfColWidths[i], 7, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(txs) > 0 {
		last := txs[len(txs)-1]
		total := last.RunningCash.Cents + last.RunningNonCash.Cents
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 7, fmt.Sprintf("Cash: %s    Non-Cash: %s    Total: %s",
			core.FormatRupiah(last.RunningCash.Cents),
			core.FormatRupiah(last.RunningNonCash.Cents),
			core.FormatRupiah(total)), "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
