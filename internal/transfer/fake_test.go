package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/googleapi"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastBackoff() Backoff {
	return Backoff{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

// apiError builds the error the real clients return for a Google API status.
func apiError(code int) error {
	return common.ClassifyGoogleError(&googleapi.Error{Code: code, Message: http.StatusText(code)})
}

type fakeFetcher struct {
	downloadErr func(n int) error
	meta        model.FileMetadata
	data        []byte
	downloads   int
	exports     int
}

func (f *fakeFetcher) Metadata(_ context.Context, fileID string) (*model.FileMetadata, error) {
	if fileID != f.meta.ID {
		return nil, fmt.Errorf("lookup %s: %w", fileID, notFoundError())
	}
	meta := f.meta
	return &meta, nil
}

func (f *fakeFetcher) Download(_ context.Context, _ string, w io.Writer) (int64, error) {
	f.downloads++
	if f.downloadErr != nil {
		if err := f.downloadErr(f.downloads); err != nil {
			// Simulate a partial body before the failure.
			_, _ = w.Write(f.data[:len(f.data)/2])
			return 0, err
		}
	}
	n, err := w.Write(f.data)
	return int64(n), err
}

func (f *fakeFetcher) Export(_ context.Context, _ string, mimeType string, w io.Writer) (int64, error) {
	f.exports++
	if mimeType != model.XLSXMimeType {
		return 0, fmt.Errorf("unexpected export type %s", mimeType)
	}
	n, err := w.Write(f.data)
	return int64(n), err
}

func notFoundError() error {
	return fmt.Errorf("%w: %w", common.ErrSourceNotFound, apiError(http.StatusNotFound))
}

type fakeCreator struct {
	name     string
	folderID string
	calls    int
}

func (f *fakeCreator) CreateSpreadsheet(_ context.Context, name, folderID string) (string, error) {
	f.calls++
	f.name = name
	f.folderID = folderID
	return "created-sheet", nil
}

type recordingObserver struct {
	started []string
	batches []int
}

func (o *recordingObserver) TabStarted(tab string, _, _ int) {
	o.started = append(o.started, tab)
}

func (o *recordingObserver) BatchWritten(batch model.Batch, _ int) {
	o.batches = append(o.batches, batch.Index)
}

// buildXLSX writes tabs (in order) into an xlsx and returns its bytes.
func buildXLSX(t *testing.T, order []string, tabs map[string][][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range tabs[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// numberedRows returns n rows of cols string cells, unique per position.
func numberedRows(n, cols int) [][]any {
	rows := make([][]any, n)
	for r := range rows {
		rows[r] = make([]any, cols)
		for c := range rows[r] {
			rows[r][c] = fmt.Sprintf("r%dc%d", r+1, c+1)
		}
	}
	return rows
}
