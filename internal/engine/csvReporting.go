package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"quantbt/types"
)

// WriteTradesCSVFile writes the trade ledger to a CSV file at the given path.
func WriteTradesCSVFile(path string, trades []types.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return writeTradesCSV(f, trades)
}

// writeTradesCSV writes trades to any io.Writer as CSV. Pass os.Stdout for
// debugging, or a file.
func writeTradesCSV(w io.Writer, trades []types.Trade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"trade_id",
		"ticker",
		"quantity",
		"entry_time",
		"entry_price",
		"exit_time",
		"exit_price",
		"gross_pnl",
		"fees",
		"net_pnl",
		"exit_reason",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, t := range trades {
		record := []string{
			fmt.Sprintf("%d", i),
			t.Ticker,
			t.Quantity.String(),
			t.EntryTime.Format(time.RFC3339),
			t.EntryPrice.String(),
			t.ExitTime.Format(time.RFC3339),
			t.ExitPrice.String(),
			t.GrossPnL.String(),
			t.Fees.String(),
			t.NetPnL.String(),
			string(t.ExitReason),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
