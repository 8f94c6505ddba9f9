// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"io"
	"time"

	"github.com/Veraticus/sheetsync/internal/model"
)

// FileFetcher reads files from the source drive.
type FileFetcher interface {
	Metadata(ctx context.Context, fileID string) (*model.FileMetadata, error)
	// Download streams the file contents into w and returns the byte count.
	Download(ctx context.Context, fileID string, w io.Writer) (int64, error)
	// Export converts a Google-native file to mimeType and streams it into w.
	Export(ctx context.Context, fileID, mimeType string, w io.Writer) (int64, error)
}

// SpreadsheetCreator creates new, empty spreadsheets.
type SpreadsheetCreator interface {
	CreateSpreadsheet(ctx context.Context, name, folderID string) (string, error)
}

// Spreadsheets reads, clears and writes ranges of an existing spreadsheet.
type Spreadsheets interface {
	Tabs(ctx context.Context, spreadsheetID string) ([]model.Tab, error)
	AddTabs(ctx context.Context, spreadsheetID string, titles []string) error
	DeleteTab(ctx context.Context, spreadsheetID string, sheetID int64) error
	ReadRange(ctx context.Context, spreadsheetID, a1Range string) ([][]any, error)
	ClearRange(ctx context.Context, spreadsheetID, a1Range string) error
	WriteRange(ctx context.Context, spreadsheetID, a1Range string, rows [][]any, option model.ValueInputOption) error
}

// Transferer runs a complete transfer.
type Transferer interface {
	Run(ctx context.Context, req model.TransferRequest) (*model.TransferResult, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	// OnRetry is called after a failed attempt that will be retried.
	OnRetry      func(attempt int, err error)
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
