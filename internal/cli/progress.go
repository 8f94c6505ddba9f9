package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/schollz/progressbar/v3"
)

var barTheme = progressbar.Theme{
	Saucer:        "[green]=[reset]",
	SaucerHead:    "[green]>[reset]",
	SaucerPadding: " ",
	BarStart:      "[",
	BarEnd:        "]",
}

// TransferProgress draws one progress bar per tab as its batches are written.
type TransferProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	tab    string
	rows   int
	mu     sync.Mutex
}

// NewTransferProgress creates a TransferProgress writing to w.
func NewTransferProgress(w io.Writer) *TransferProgress {
	return &TransferProgress{writer: w}
}

// TabStarted starts a new bar sized to the tab's batch count.
func (p *TransferProgress) TabStarted(tab string, rows, batches int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.finish()
	p.tab = tab
	p.rows = 0

	if batches == 0 {
		if _, err := fmt.Fprintln(p.writer, FormatInfo(fmt.Sprintf("%s: no rows to write", tab))); err != nil {
			slog.Warn("Failed to write progress line", "error", err)
		}
		return
	}

	p.bar = progressbar.NewOptions(batches,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]%s[reset] (%d rows)", tab, rows)),
		progressbar.OptionSetTheme(barTheme),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// BatchWritten advances the current tab's bar.
func (p *TransferProgress) BatchWritten(batch model.Batch, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rows += len(batch.Rows)
	if p.bar == nil {
		return
	}
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// RowsWritten returns the rows confirmed so far for the current tab.
func (p *TransferProgress) RowsWritten() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rows
}

// Close finishes any bar still on screen.
func (p *TransferProgress) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finish()
}

func (p *TransferProgress) finish() {
	if p.bar == nil {
		return
	}
	if !p.bar.IsFinished() {
		if err := p.bar.Exit(); err != nil {
			slog.Warn("Failed to close progress bar", "error", err)
		}
	}
	p.bar = nil
}

// DownloadProgress returns a function that builds a byte-counting bar for
// each download attempt. Unknown sizes render as a spinner.
func DownloadProgress(w io.Writer) func(fileID string, total int64) io.Writer {
	return func(_ string, total int64) io.Writer {
		if total <= 0 {
			total = -1
		}
		return progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Downloading workbook[reset]"),
			progressbar.OptionSetTheme(barTheme),
			progressbar.OptionClearOnFinish(),
		)
	}
}
