package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/duelodds/internal/domain/model"
)

// BatchDependencies defines the interface for batch evaluation.
type BatchDependencies interface {
	Batch(ctx context.Context, queries []model.Query) ([]model.Result, error)
}

// BatchHandler handles batch requests.
type BatchHandler struct {
	deps BatchDependencies
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps BatchDependencies) *BatchHandler {
	return &BatchHandler{deps: deps}
}

type batchRequest struct {
	Queries []probabilityRequest `json:"queries"`
}

type batchItem struct {
	ID          string   `json:"id,omitempty"`
	Kind        string   `json:"kind"`
	Probability *float64 `json:"probability,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchItem `json:"results"`
}

// HandleBatch handles POST /v1/batch requests. A malformed query rejects the
// whole batch; evaluation failures are reported per item.
func (h *BatchHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.batch"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req batchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("queries must not be empty")))
		return
	}

	queries := make([]model.Query, len(req.Queries))
	for i, qr := range req.Queries {
		q, err := qr.query()
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("query %d: %w", i, err)))
			return
		}
		queries[i] = q
	}

	results, err := h.deps.Batch(r.Context(), queries)
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	resp := batchResponse{Results: make([]batchItem, len(results))}
	for i, res := range results {
		item := batchItem{ID: res.QueryID, Kind: string(res.Kind)}
		if res.Err != nil {
			item.Error = res.Err.Error()
		} else {
			prob := res.Probability
			item.Probability = &prob
		}
		resp.Results[i] = item
	}
	writeJSON(w, http.StatusOK, resp)
}
