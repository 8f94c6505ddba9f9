package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/service"
	"github.com/Veraticus/sheetsync/internal/sheets"
)

// Observer is notified as tabs are written.
type Observer interface {
	TabStarted(tab string, rows, batches int)
	BatchWritten(batch model.Batch, batches int)
}

// Backoff configures the delay between attempts of a failed API call.
type Backoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultBackoff doubles from one second, capped a little over a minute.
func DefaultBackoff() Backoff {
	return Backoff{
		InitialDelay: time.Second,
		MaxDelay:     64 * time.Second,
		Multiplier:   2.0,
	}
}

// WriteOptions controls how a tab is split and written.
type WriteOptions struct {
	ValueInputOption model.ValueInputOption
	CellCeiling      int
	MaxRetries       int
	MaxRowsPerBatch  int
}

// Writer clears and writes tabs of one destination spreadsheet.
type Writer struct {
	client   service.Spreadsheets
	observer Observer
	logger   *slog.Logger
	backoff  Backoff
}

// NewWriter creates a Writer. observer may be nil.
func NewWriter(client service.Spreadsheets, logger *slog.Logger, backoff Backoff, observer Observer) *Writer {
	return &Writer{
		client:   client,
		observer: observer,
		logger:   logger,
		backoff:  backoff,
	}
}

// Wipe clears every cell of a tab.
func (w *Writer) Wipe(ctx context.Context, spreadsheetID, tab string, maxRetries int) error {
	err := w.retry(ctx, maxRetries, func() error {
		return w.client.ClearRange(ctx, spreadsheetID, sheets.TabRange(tab))
	})
	if err != nil {
		return &StageError{Stage: StageWipe, Tab: tab, Err: err}
	}

	w.logger.Info("cleared tab", "spreadsheet_id", spreadsheetID, "tab", tab)
	return nil
}

// WriteTab writes all rows of sheet in order, one batch per API call. The
// first batch that exhausts its attempts stops the write; nothing after it is
// sent and nothing before it is undone.
func (w *Writer) WriteTab(ctx context.Context, spreadsheetID string, sheet *model.Sheet, opts WriteOptions) (model.TabResult, error) {
	rowsPerBatch := RowsPerBatch(sheet.Columns, opts.CellCeiling, opts.MaxRowsPerBatch)
	batches := Partition(sheet.Name, sheet.Rows, rowsPerBatch)

	result := model.TabResult{
		Name:    sheet.Name,
		Rows:    len(sheet.Rows),
		Columns: sheet.Columns,
		Batches: len(batches),
	}

	w.logger.Info("writing tab",
		"tab", sheet.Name,
		"rows", len(sheet.Rows),
		"columns", sheet.Columns,
		"rows_per_batch", rowsPerBatch,
		"batches", len(batches))

	if w.observer != nil {
		w.observer.TabStarted(sheet.Name, len(sheet.Rows), len(batches))
	}

	written := 0
	for _, batch := range batches {
		attempts := 0
		err := w.retry(ctx, opts.MaxRetries, func() error {
			attempts++
			return w.client.WriteRange(ctx, spreadsheetID, sheets.StartCell(batch.Tab, batch.StartRow, 1), batch.Rows, opts.ValueInputOption)
		})
		if err != nil {
			return result, &BatchError{
				Err:         err,
				Tab:         batch.Tab,
				Batch:       batch.Index,
				Batches:     len(batches),
				StartRow:    batch.StartRow,
				RowsWritten: written,
				Attempts:    attempts,
			}
		}

		written += len(batch.Rows)
		w.logger.Debug("wrote batch",
			"tab", batch.Tab,
			"batch", batch.Index+1,
			"batches", len(batches),
			"start_row", batch.StartRow,
			"rows", len(batch.Rows))

		if w.observer != nil {
			w.observer.BatchWritten(batch, len(batches))
		}
	}

	return result, nil
}

// retry runs op up to maxRetries times with exponential backoff.
func (w *Writer) retry(ctx context.Context, maxRetries int, op func() error) error {
	return common.WithRetry(ctx, op, w.retryOptions(maxRetries))
}

func (w *Writer) retryOptions(maxRetries int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  maxRetries,
		InitialDelay: w.backoff.InitialDelay,
		MaxDelay:     w.backoff.MaxDelay,
		Multiplier:   w.backoff.Multiplier,
	}
}
