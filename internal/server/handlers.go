package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/transfer"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// maxBodyBytes caps the size of a transfer request body.
	maxBodyBytes = 1 << 20
	// statusClientClosedRequest is logged when the caller went away mid-transfer.
	statusClientClosedRequest = 499
)

type transferResponse struct {
	*model.TransferResult
	Status string `json:"status"`
}

type errorResponse struct {
	Status      string `json:"status"`
	Stage       string `json:"stage,omitempty"`
	Error       string `json:"error"`
	Tab         string `json:"tab,omitempty"`
	Batch       *int   `json:"batch,omitempty"`
	RowsWritten *int   `json:"rows_written,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "sheetsync copies Excel tabs from Drive into Google Sheets",
		"version": s.cfg.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req model.TransferRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode body: %w", common.ErrInvalidRequest, err))
		return
	}

	req = req.WithDefaults(s.cfg.Defaults)

	result, err := s.transferer.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	common.LogInfo(r.Context(), s.logger, "transfer finished", common.Fields{
		"request_id":     middleware.GetReqID(r.Context()),
		"spreadsheet_id": result.SpreadsheetID,
		"tabs":           len(result.Tabs),
		"created":        result.Created,
	})

	writeJSON(w, http.StatusOK, transferResponse{Status: "ok", TransferResult: result})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := describeError(err)

	common.LogError(r.Context(), s.logger, err, "transfer failed", common.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"status":     status,
		"stage":      body.Stage,
	})

	writeJSON(w, status, body)
}

// describeError maps a pipeline error onto an HTTP status and response body.
func describeError(err error) (int, errorResponse) {
	body := errorResponse{Status: "error", Error: err.Error()}

	var batchErr *transfer.BatchError
	isBatch := errors.As(err, &batchErr)
	if isBatch {
		body.Stage = string(transfer.StageWrite)
		body.Tab = batchErr.Tab
		body.Batch = &batchErr.Batch
		body.RowsWritten = &batchErr.RowsWritten
	}

	var stageErr *transfer.StageError
	isStage := errors.As(err, &stageErr)
	if isStage && !isBatch {
		body.Stage = string(stageErr.Stage)
		body.Tab = stageErr.Tab
	}

	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, body
	case isBatch:
		return http.StatusBadGateway, body
	case errors.Is(err, common.ErrInvalidRequest):
		return http.StatusBadRequest, body
	case errors.Is(err, common.ErrSourceNotFound), errors.Is(err, common.ErrDestinationNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, common.ErrTabNotFound), errors.Is(err, common.ErrInvalidWorkbook):
		return http.StatusUnprocessableEntity, body
	case isStage:
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, body
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
