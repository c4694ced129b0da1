package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// csvHeader is the trade-table schema consumed by downstream reporting.
var csvHeader = []string{
	"order_id", "direction", "volume",
	"open_time", "open_price", "close_time", "close_price",
	"profit", "cum_profit", "close_reason",
}

// WriteCSV exports the trade table, in open order, with a running
// cumulative-profit column.
func (l *Ledger) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("ledger: write csv header: %w", err)
	}

	var cum float64
	for _, tx := range l.records {
		cum += tx.Profit
		closeTime := ""
		closePrice := ""
		if tx.Closed {
			closeTime = formatCtm(tx.CloseCtm)
			closePrice = formatPrice(tx.ClosePrice)
		}
		row := []string{
			strconv.FormatInt(tx.OrderID, 10),
			tx.Direction.String(),
			strconv.FormatFloat(tx.Volume, 'f', -1, 64),
			formatCtm(tx.OpenCtm),
			formatPrice(tx.OpenPrice),
			closeTime,
			closePrice,
			formatPrice(tx.Profit),
			formatPrice(cum),
			string(tx.Reason),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("ledger: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCtm(ctm int64) string {
	return time.UnixMilli(ctm).UTC().Format(time.RFC3339)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
