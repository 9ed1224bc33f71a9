package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"cashflow/internal/core"
)

// WriteCSV streams the ledger as CSV, header first, oldest row first.
func WriteCSV(w io.Writer, txs []core.AnnotatedTransaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range txs {
		if err := cw.Write(row(tx)); err != nil {
			return fmt.Errorf("write csv row %d: %w", tx.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
