package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/duelodds/internal/domain/model"
	"github.com/okian/duelodds/internal/domain/schedule"
)

// ProbabilityDependencies defines the interface for single-query operations.
type ProbabilityDependencies interface {
	Evaluate(ctx context.Context, q model.Query) (float64, error)
	TieValue(s schedule.Schedule) float64
}

// ProbabilityHandler handles probability and tie-value requests.
type ProbabilityHandler struct {
	deps ProbabilityDependencies
}

// NewProbabilityHandler creates a new probability handler.
func NewProbabilityHandler(deps ProbabilityDependencies) *ProbabilityHandler {
	return &ProbabilityHandler{deps: deps}
}

// HandleProbability handles POST /v1/probability requests.
func (h *ProbabilityHandler) HandleProbability(w http.ResponseWriter, r *http.Request) {
	const op = "api.probability"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req probabilityRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	q, err := req.query()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	prob, err := h.deps.Evaluate(r.Context(), q)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, probabilityResponse{ID: q.ID, Kind: string(q.Kind), Probability: prob})
}

type tieValueResponse struct {
	Events   int     `json:"events"`
	Schedule string  `json:"schedule"`
	TieValue float64 `json:"tie_value"`
}

// HandleTieValue handles GET /v1/tie-value?events=N and POST /v1/tie-value
// with a schedule body.
func (h *ProbabilityHandler) HandleTieValue(w http.ResponseWriter, r *http.Request) {
	const op = "api.tie_value"
	var req scheduleRequest
	switch r.Method {
	case http.MethodGet:
		raw := r.URL.Query().Get("events")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("events must be an integer")))
			return
		}
		req.Events = &n
	case http.MethodPost:
		if err := decode(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	s, err := req.schedule()
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, tieValueResponse{Events: s.Len(), Schedule: s.Kind(), TieValue: h.deps.TieValue(s)})
}
