package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/service"
	"github.com/Veraticus/sheetsync/internal/workbook"
)

// defaultTabTitle is the tab Google adds to every new spreadsheet.
const defaultTabTitle = "Sheet1"

// ProgressFunc returns a writer that observes a download of total bytes.
type ProgressFunc func(fileID string, total int64) io.Writer

// Option configures a Transferer.
type Option func(*Transferer)

// WithObserver reports per-tab and per-batch progress.
func WithObserver(o Observer) Option {
	return func(t *Transferer) { t.observer = o }
}

// WithBackoff overrides the delay between retried calls.
func WithBackoff(b Backoff) Option {
	return func(t *Transferer) { t.backoff = b }
}

// WithDownloadProgress observes the workbook download.
func WithDownloadProgress(fn ProgressFunc) Option {
	return func(t *Transferer) { t.progress = fn }
}

// Transferer runs the fetch, parse, wipe and write pipeline.
type Transferer struct {
	fetcher  service.FileFetcher
	creator  service.SpreadsheetCreator
	sheets   service.Spreadsheets
	observer Observer
	progress ProgressFunc
	logger   *slog.Logger
	backoff  Backoff
}

// NewTransferer wires the pipeline. creator may be nil when every request
// names an existing destination spreadsheet.
func NewTransferer(fetcher service.FileFetcher, creator service.SpreadsheetCreator, sheets service.Spreadsheets, logger *slog.Logger, opts ...Option) *Transferer {
	t := &Transferer{
		fetcher: fetcher,
		creator: creator,
		sheets:  sheets,
		logger:  logger,
		backoff: DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run performs one transfer. On error the destination may hold the batches
// written before the failure; see BatchError.
func (t *Transferer) Run(ctx context.Context, req model.TransferRequest) (*model.TransferResult, error) {
	start := time.Now()

	req, err := req.Normalize()
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Err: fmt.Errorf("%w: %w", common.ErrInvalidRequest, err)}
	}

	writer := NewWriter(t.sheets, t.logger, t.backoff, t.observer)

	meta, data, err := t.fetch(ctx, writer, req)
	if err != nil {
		return nil, &StageError{Stage: StageFetch, Err: err}
	}

	wb, err := workbook.Parse(data, req.SelectedTabs)
	if err != nil {
		return nil, &StageError{Stage: StageParse, Err: err}
	}
	t.logger.Info("parsed workbook", "file", meta.Name, "tabs", wb.Names, "selected", req.SelectedTabs)

	result := &model.TransferResult{SourceName: meta.Name}

	spreadsheetID, existing, err := t.prepare(ctx, writer, req, meta, result)
	if err != nil {
		return nil, &StageError{Stage: StagePrepare, Err: err}
	}
	result.SpreadsheetID = spreadsheetID
	result.SpreadsheetURL = model.SpreadsheetURL(spreadsheetID)

	opts := WriteOptions{
		ValueInputOption: req.ValueInputOption,
		CellCeiling:      req.CellCeiling,
		MaxRetries:       req.MaxRetries,
		MaxRowsPerBatch:  req.MaxRowsPerBatch,
	}

	for _, tab := range req.SelectedTabs {
		sheet, _ := wb.Sheet(tab)

		cleared := false
		if req.WipeMode == model.WipeAll {
			if err := writer.Wipe(ctx, spreadsheetID, tab, req.MaxRetries); err != nil {
				return result, err
			}
			cleared = true
		}

		tabResult, err := writer.WriteTab(ctx, spreadsheetID, sheet, opts)
		tabResult.Cleared = cleared
		if err != nil {
			return result, err
		}
		result.Tabs = append(result.Tabs, tabResult)
	}

	if result.Created {
		t.removeDefaultTab(ctx, writer, spreadsheetID, existing, req)
	}

	result.Duration = time.Since(start)
	t.logger.Info("transfer completed",
		"spreadsheet_id", spreadsheetID,
		"tabs", len(result.Tabs),
		"duration", result.Duration)

	return result, nil
}

// fetch downloads the source workbook, exporting Google-native sheets as xlsx.
func (t *Transferer) fetch(ctx context.Context, writer *Writer, req model.TransferRequest) (*model.FileMetadata, []byte, error) {
	var meta *model.FileMetadata
	err := writer.retry(ctx, req.MaxRetries, func() error {
		var err error
		meta, err = t.fetcher.Metadata(ctx, req.SourceFileID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	t.logger.Info("downloading workbook", "file_id", meta.ID, "name", meta.Name, "size", meta.Size)

	var buf bytes.Buffer
	err = writer.retry(ctx, req.MaxRetries, func() error {
		buf.Reset()

		var w io.Writer = &buf
		if t.progress != nil {
			w = io.MultiWriter(&buf, t.progress(req.SourceFileID, meta.Size))
		}

		var err error
		if meta.MimeType == model.GoogleSheetsMimeType {
			_, err = t.fetcher.Export(ctx, req.SourceFileID, model.XLSXMimeType, w)
		} else {
			_, err = t.fetcher.Download(ctx, req.SourceFileID, w)
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	t.logger.Info("download completed", "file_id", meta.ID, "bytes", buf.Len())
	return meta, buf.Bytes(), nil
}

// prepare resolves the destination spreadsheet, creating it when needed, and
// makes sure every selected tab exists. It returns the tabs present before
// any were added.
func (t *Transferer) prepare(ctx context.Context, writer *Writer, req model.TransferRequest, meta *model.FileMetadata, result *model.TransferResult) (string, []model.Tab, error) {
	spreadsheetID := req.DestinationSpreadsheetID

	if spreadsheetID == "" {
		if t.creator == nil {
			return "", nil, fmt.Errorf("%w: destination_spreadsheet_id is required", common.ErrInvalidRequest)
		}

		folderID := req.DestinationFolderID
		if folderID == "" {
			if len(meta.Parents) == 0 {
				return "", nil, fmt.Errorf("%w: source file has no accessible parent folder; set destination_folder_id", common.ErrInvalidRequest)
			}
			folderID = meta.Parents[0]
		}

		name := req.NewSpreadsheetName
		if name == "" {
			name = strings.TrimSuffix(meta.Name, path.Ext(meta.Name)) + " (selection)"
		}

		err := writer.retry(ctx, req.MaxRetries, func() error {
			var err error
			spreadsheetID, err = t.creator.CreateSpreadsheet(ctx, name, folderID)
			return err
		})
		if err != nil {
			return "", nil, err
		}
		result.Created = true
	}

	var tabs []model.Tab
	err := writer.retry(ctx, req.MaxRetries, func() error {
		var err error
		tabs, err = t.sheets.Tabs(ctx, spreadsheetID)
		return err
	})
	if err != nil {
		return "", nil, err
	}

	var missing []string
	for _, tab := range req.SelectedTabs {
		if !hasTab(tabs, tab) {
			missing = append(missing, tab)
		}
	}

	if len(missing) > 0 {
		err := writer.retry(ctx, req.MaxRetries, func() error {
			return t.sheets.AddTabs(ctx, spreadsheetID, missing)
		})
		if err != nil {
			return "", nil, err
		}
		t.logger.Info("added destination tabs", "spreadsheet_id", spreadsheetID, "tabs", missing)
	}

	return spreadsheetID, tabs, nil
}

// removeDefaultTab deletes the placeholder tab of a freshly created
// spreadsheet. Failure only costs an empty tab, so it is logged, not returned.
func (t *Transferer) removeDefaultTab(ctx context.Context, writer *Writer, spreadsheetID string, existing []model.Tab, req model.TransferRequest) {
	if slices.Contains(req.SelectedTabs, defaultTabTitle) {
		return
	}

	idx := slices.IndexFunc(existing, func(tab model.Tab) bool { return tab.Title == defaultTabTitle })
	if idx < 0 {
		return
	}

	err := writer.retry(ctx, req.MaxRetries, func() error {
		return t.sheets.DeleteTab(ctx, spreadsheetID, existing[idx].SheetID)
	})
	if err != nil {
		t.logger.Warn("failed to remove default tab", "spreadsheet_id", spreadsheetID, "error", err)
	}
}

func hasTab(tabs []model.Tab, title string) bool {
	return slices.ContainsFunc(tabs, func(tab model.Tab) bool { return tab.Title == title })
}
