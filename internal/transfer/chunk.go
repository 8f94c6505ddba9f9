// Package transfer copies parsed workbook tabs into a spreadsheet in
// size-bounded, retried batches.
package transfer

import "github.com/Veraticus/sheetsync/internal/model"

// RowsPerBatch returns how many rows fit in one write of at most ceiling cells.
// The result is never below one, and never above maxRows when maxRows > 0.
func RowsPerBatch(columns, ceiling, maxRows int) int {
	if columns < 1 {
		columns = 1
	}

	rows := ceiling / columns
	if rows < 1 {
		rows = 1
	}
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}
	return rows
}

// Partition splits rows into contiguous batches of rowsPerBatch rows, in order.
// The batches share the backing array of rows.
func Partition(tab string, rows [][]any, rowsPerBatch int) []model.Batch {
	if rowsPerBatch < 1 {
		rowsPerBatch = 1
	}

	batches := make([]model.Batch, 0, (len(rows)+rowsPerBatch-1)/rowsPerBatch)
	for start := 0; start < len(rows); start += rowsPerBatch {
		end := min(start+rowsPerBatch, len(rows))
		batches = append(batches, model.Batch{
			Tab:      tab,
			Index:    len(batches),
			StartRow: start + 1,
			Rows:     rows[start:end],
		})
	}
	return batches
}
