package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransferer struct {
	err    error
	result *model.TransferResult
	got    model.TransferRequest
	calls  int
}

func (f *fakeTransferer) Run(_ context.Context, req model.TransferRequest) (*model.TransferResult, error) {
	f.calls++
	f.got = req
	return f.result, f.err
}

func newTestServer(t *testing.T, transferer *fakeTransferer) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(transferer, logger, Config{
		Version: "1.2.3",
		Defaults: model.TransferRequest{
			DestinationFolderID: "default-folder",
			SelectedTabs:        []string{"mov_general"},
			MaxRetries:          5,
		},
	})

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postTransfer(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Post(srv.URL+"/transfers", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestServer_Root(t *testing.T) {
	srv := newTestServer(t, &fakeTransferer{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "1.2.3", body["version"])
	assert.NotEmpty(t, body["message"])
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, &fakeTransferer{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServer_CORS(t *testing.T) {
	srv := newTestServer(t, &fakeTransferer{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/transfers", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_TransferSuccess(t *testing.T) {
	transferer := &fakeTransferer{result: &model.TransferResult{
		SpreadsheetID: "dest",
		Tabs:          []model.TabResult{{Name: "resumen", Rows: 2, Columns: 1, Batches: 1}},
	}}
	srv := newTestServer(t, transferer)

	resp, body := postTransfer(t, srv, `{"source_file_id":"src","selected_tabs":["resumen"],"wipe_mode":"all"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "dest", body["spreadsheet_id"])

	require.Equal(t, 1, transferer.calls)
	assert.Equal(t, "src", transferer.got.SourceFileID)
	assert.Equal(t, []string{"resumen"}, transferer.got.SelectedTabs)
	assert.Equal(t, model.WipeAll, transferer.got.WipeMode)
	assert.Equal(t, "default-folder", transferer.got.DestinationFolderID)
	assert.Equal(t, 5, transferer.got.MaxRetries)
}

func TestServer_TransferDefaultsTabs(t *testing.T) {
	transferer := &fakeTransferer{result: &model.TransferResult{}}
	srv := newTestServer(t, transferer)

	resp, _ := postTransfer(t, srv, `{"source_file_id":"src"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"mov_general"}, transferer.got.SelectedTabs)
}

func TestServer_TransferBadBody(t *testing.T) {
	transferer := &fakeTransferer{}
	srv := newTestServer(t, transferer)

	tests := []string{
		`not json`,
		`{"source_file_id":"src","unknown":true}`,
	}
	for _, body := range tests {
		resp, decoded := postTransfer(t, srv, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, "error", decoded["status"])
	}
	assert.Equal(t, 0, transferer.calls)
}

func TestServer_TransferErrors(t *testing.T) {
	tests := []struct {
		err        error
		name       string
		stage      string
		tab        string
		wantStatus int
	}{
		{
			name:       "invalid request",
			err:        &transfer.StageError{Stage: transfer.StageValidate, Err: fmt.Errorf("%w: no tabs", common.ErrInvalidRequest)},
			wantStatus: http.StatusBadRequest,
			stage:      "validate",
		},
		{
			name:       "source missing",
			err:        &transfer.StageError{Stage: transfer.StageFetch, Err: common.ErrSourceNotFound},
			wantStatus: http.StatusNotFound,
			stage:      "fetch",
		},
		{
			name:       "unknown tab",
			err:        &transfer.StageError{Stage: transfer.StageParse, Err: fmt.Errorf("tabs: %w", common.ErrTabNotFound)},
			wantStatus: http.StatusUnprocessableEntity,
			stage:      "parse",
		},
		{
			name:       "corrupt workbook",
			err:        &transfer.StageError{Stage: transfer.StageParse, Err: common.ErrInvalidWorkbook},
			wantStatus: http.StatusUnprocessableEntity,
			stage:      "parse",
		},
		{
			name:       "wipe failure",
			err:        &transfer.StageError{Stage: transfer.StageWipe, Tab: "resumen", Err: errors.New("forbidden")},
			wantStatus: http.StatusBadGateway,
			stage:      "wipe",
			tab:        "resumen",
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeTransferer{err: tt.err})

			resp, body := postTransfer(t, srv, `{"source_file_id":"src"}`)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.err.Error(), body["error"])
			if tt.stage != "" {
				assert.Equal(t, tt.stage, body["stage"])
			}
			if tt.tab != "" {
				assert.Equal(t, tt.tab, body["tab"])
			}
		})
	}
}

func TestServer_TransferBatchError(t *testing.T) {
	srv := newTestServer(t, &fakeTransferer{err: &transfer.BatchError{
		Err:         common.ErrMaxRetries,
		Tab:         "mov_general",
		Batch:       3,
		Batches:     5,
		RowsWritten: 300,
		Attempts:    8,
	}})

	resp, body := postTransfer(t, srv, `{"source_file_id":"src"}`)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "write", body["stage"])
	assert.Equal(t, "mov_general", body["tab"])
	assert.InDelta(t, 3, body["batch"], 0)
	assert.InDelta(t, 300, body["rows_written"], 0)
}

func TestDescribeError_CanceledBatch(t *testing.T) {
	err := &transfer.BatchError{
		Err:         fmt.Errorf("write: %w", context.Canceled),
		Tab:         "mov_general",
		Batch:       2,
		Batches:     4,
		RowsWritten: 200,
		Attempts:    1,
	}

	status, body := describeError(err)
	assert.Equal(t, statusClientClosedRequest, status)
	assert.Equal(t, "write", body.Stage)
	assert.Equal(t, "mov_general", body.Tab)
	require.NotNil(t, body.RowsWritten)
	assert.Equal(t, 200, *body.RowsWritten)

	status, body = describeError(&transfer.StageError{Stage: transfer.StageWipe, Tab: "resumen", Err: context.Canceled})
	assert.Equal(t, statusClientClosedRequest, status)
	assert.Equal(t, "wipe", body.Stage)
}
