package transfer

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceFetcher(t *testing.T) *fakeFetcher {
	t.Helper()

	data := buildXLSX(t, []string{"mov_general", "resumen", "notas"}, map[string][][]any{
		"mov_general": {{"fecha", "monto"}, {"2024-01-15", 100}, {"2024-01-16", 200}, {"2024-01-17", 300}},
		"resumen":     {{"total"}, {600}},
		"notas":       {{"do not copy"}},
	})

	return &fakeFetcher{
		meta: model.FileMetadata{
			ID:       "src-1",
			Name:     "movimientos.xlsx",
			MimeType: model.XLSXMimeType,
			Parents:  []string{"folder-1"},
			Size:     int64(len(data)),
		},
		data: data,
	}
}

func baseRequest() model.TransferRequest {
	return model.TransferRequest{
		SourceFileID:             "src-1",
		DestinationSpreadsheetID: "dest-1",
		SelectedTabs:             []string{"mov_general", "resumen"},
		CellCeiling:              4,
		MaxRetries:               3,
	}
}

func TestTransferer_Run_SelectedTabsOnly(t *testing.T) {
	fetcher := sourceFetcher(t)
	client := &sheets.MockClient{Existing: []model.Tab{{Title: "mov_general", SheetID: 1}, {Title: "resumen", SheetID: 2}}}
	transferer := NewTransferer(fetcher, nil, client, discardLogger(), WithBackoff(fastBackoff()))

	result, err := transferer.Run(t.Context(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"tabs ",
		"write 'mov_general'!A1",
		"write 'mov_general'!A3",
		"write 'resumen'!A1",
	}, client.Ops())

	assert.Equal(t, "dest-1", result.SpreadsheetID)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/dest-1", result.SpreadsheetURL)
	assert.False(t, result.Created)
	require.Len(t, result.Tabs, 2)
	assert.Equal(t, model.TabResult{Name: "mov_general", Rows: 4, Columns: 2, Batches: 2}, result.Tabs[0])
	assert.Equal(t, model.TabResult{Name: "resumen", Rows: 2, Columns: 1, Batches: 1}, result.Tabs[1])

	writes := client.CallsOf("write")
	assert.Equal(t, [][]any{{"fecha", "monto"}, {"2024-01-15", int64(100)}}, writes[0].Rows)
	for _, w := range writes {
		assert.NotContains(t, w.Range, "notas")
	}
}

func TestTransferer_Run_WipeAllClearsBeforeWrites(t *testing.T) {
	fetcher := sourceFetcher(t)
	client := &sheets.MockClient{Existing: []model.Tab{{Title: "mov_general"}, {Title: "resumen"}}}
	transferer := NewTransferer(fetcher, nil, client, discardLogger(), WithBackoff(fastBackoff()))

	req := baseRequest()
	req.WipeMode = model.WipeAll

	result, err := transferer.Run(t.Context(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"tabs ",
		"clear 'mov_general'",
		"write 'mov_general'!A1",
		"write 'mov_general'!A3",
		"clear 'resumen'",
		"write 'resumen'!A1",
	}, client.Ops())
	assert.True(t, result.Tabs[0].Cleared)
	assert.True(t, result.Tabs[1].Cleared)
}

func TestTransferer_Run_WipeNoneNeverClears(t *testing.T) {
	client := &sheets.MockClient{Existing: []model.Tab{{Title: "mov_general"}, {Title: "resumen"}}}
	transferer := NewTransferer(sourceFetcher(t), nil, client, discardLogger(), WithBackoff(fastBackoff()))

	req := baseRequest()
	req.WipeMode = model.WipeNone

	_, err := transferer.Run(t.Context(), req)
	require.NoError(t, err)
	assert.Empty(t, client.CallsOf("clear"))
}

func TestTransferer_Run_WipeFailureStopsBeforeTabWrites(t *testing.T) {
	client := &sheets.MockClient{
		Existing: []model.Tab{{Title: "mov_general"}, {Title: "resumen"}},
		ClearFunc: func(rng string) error {
			if rng == "'resumen'" {
				return apiError(http.StatusForbidden)
			}
			return nil
		},
	}
	transferer := NewTransferer(sourceFetcher(t), nil, client, discardLogger(), WithBackoff(fastBackoff()))

	req := baseRequest()
	req.WipeMode = model.WipeAll

	result, err := transferer.Run(t.Context(), req)
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageWipe, stageErr.Stage)
	assert.Equal(t, "resumen", stageErr.Tab)

	for _, w := range client.CallsOf("write") {
		assert.NotContains(t, w.Range, "resumen")
	}
	require.NotNil(t, result)
	require.Len(t, result.Tabs, 1)
	assert.Equal(t, "mov_general", result.Tabs[0].Name)
}

func TestTransferer_Run_BatchFailureStopsTransfer(t *testing.T) {
	client := &sheets.MockClient{
		Existing: []model.Tab{{Title: "mov_general"}, {Title: "resumen"}},
		WriteFunc: func(_ int, rng string) error {
			if rng == "'mov_general'!A3" {
				return apiError(http.StatusInternalServerError)
			}
			return nil
		},
	}
	transferer := NewTransferer(sourceFetcher(t), nil, client, discardLogger(), WithBackoff(fastBackoff()))

	_, err := transferer.Run(t.Context(), baseRequest())
	require.Error(t, err)

	var batchErr *BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, "mov_general", batchErr.Tab)
	assert.Equal(t, 1, batchErr.Batch)
	assert.Equal(t, 2, batchErr.RowsWritten)
	assert.Equal(t, 3, batchErr.Attempts)

	for _, w := range client.CallsOf("write") {
		assert.NotContains(t, w.Range, "resumen")
	}
}

func TestTransferer_Run_MissingSourceTab(t *testing.T) {
	client := sheets.NewMockClient()
	transferer := NewTransferer(sourceFetcher(t), nil, client, discardLogger(), WithBackoff(fastBackoff()))

	req := baseRequest()
	req.SelectedTabs = []string{"mov_general", "nope"}

	_, err := transferer.Run(t.Context(), req)
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageParse, stageErr.Stage)
	assert.True(t, errors.Is(err, common.ErrTabNotFound))
	assert.Empty(t, client.Ops())
}

func TestTransferer_Run_SourceNotFound(t *testing.T) {
	transferer := NewTransferer(sourceFetcher(t), nil, sheets.NewMockClient(), discardLogger(), WithBackoff(fastBackoff()))

	req := baseRequest()
	req.SourceFileID = "missing"

	_, err := transferer.Run(t.Context(), req)
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageFetch, stageErr.Stage)
	assert.True(t, errors.Is(err, common.ErrSourceNotFound))
}

func TestTransferer_Run_InvalidRequest(t *testing.T) {
	transferer := NewTransferer(sourceFetcher(t), nil, sheets.NewMockClient(), discardLogger())

	req := baseRequest()
	req.WipeMode = "some"

	_, err := transferer.Run(t.Context(), req)
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageValidate, stageErr.Stage)
	assert.True(t, errors.Is(err, common.ErrInvalidRequest))
}

func TestTransferer_Run_RetriesInterruptedDownload(t *testing.T) {
	fetcher := sourceFetcher(t)
	fetcher.downloadErr = func(n int) error {
		if n == 1 {
			return common.Transient(io.ErrUnexpectedEOF)
		}
		return nil
	}

	var progress bytes.Buffer
	client := &sheets.MockClient{Existing: []model.Tab{{Title: "mov_general"}, {Title: "resumen"}}}
	transferer := NewTransferer(fetcher, nil, client, discardLogger(),
		WithBackoff(fastBackoff()),
		WithDownloadProgress(func(_ string, _ int64) io.Writer { return &progress }),
	)

	_, err := transferer.Run(t.Context(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.downloads)
	assert.Len(t, client.CallsOf("write"), 3)
	assert.Positive(t, progress.Len())
}

func TestTransferer_Run_ExportsGoogleSheetsSource(t *testing.T) {
	fetcher := sourceFetcher(t)
	fetcher.meta.MimeType = model.GoogleSheetsMimeType

	client := &sheets.MockClient{Existing: []model.Tab{{Title: "mov_general"}, {Title: "resumen"}}}
	transferer := NewTransferer(fetcher, nil, client, discardLogger(), WithBackoff(fastBackoff()))

	_, err := transferer.Run(t.Context(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.exports)
	assert.Equal(t, 0, fetcher.downloads)
}

func TestTransferer_Run_AddsMissingDestinationTabs(t *testing.T) {
	client := &sheets.MockClient{Existing: []model.Tab{{Title: "mov_general"}}}
	transferer := NewTransferer(sourceFetcher(t), nil, client, discardLogger(), WithBackoff(fastBackoff()))

	_, err := transferer.Run(t.Context(), baseRequest())
	require.NoError(t, err)

	ops := client.Ops()
	require.GreaterOrEqual(t, len(ops), 2)
	assert.Equal(t, "tabs ", ops[0])
	assert.Equal(t, "add resumen", ops[1])
}

func TestTransferer_Run_CreatesSpreadsheet(t *testing.T) {
	creator := &fakeCreator{}
	client := &sheets.MockClient{Existing: []model.Tab{{Title: "Sheet1", SheetID: 0}}}
	observer := &recordingObserver{}
	transferer := NewTransferer(sourceFetcher(t), creator, client, discardLogger(),
		WithBackoff(fastBackoff()),
		WithObserver(observer),
	)

	req := baseRequest()
	req.DestinationSpreadsheetID = ""

	result, err := transferer.Run(t.Context(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, creator.calls)
	assert.Equal(t, "movimientos (selection)", creator.name)
	assert.Equal(t, "folder-1", creator.folderID)
	assert.True(t, result.Created)
	assert.Equal(t, "created-sheet", result.SpreadsheetID)

	ops := client.Ops()
	assert.Equal(t, "add mov_general", ops[1])
	assert.Equal(t, "add resumen", ops[2])
	assert.Equal(t, "delete 0", ops[len(ops)-1])
	assert.Equal(t, []string{"mov_general", "resumen"}, observer.started)
}

func TestTransferer_Run_CreateNeedsFolder(t *testing.T) {
	fetcher := sourceFetcher(t)
	fetcher.meta.Parents = nil
	transferer := NewTransferer(fetcher, &fakeCreator{}, sheets.NewMockClient(), discardLogger(), WithBackoff(fastBackoff()))

	req := baseRequest()
	req.DestinationSpreadsheetID = ""

	_, err := transferer.Run(t.Context(), req)
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StagePrepare, stageErr.Stage)
	assert.True(t, errors.Is(err, common.ErrInvalidRequest))
}
