package api

import (
	"context"
	"net/http"

	"github.com/okian/duelodds/internal/domain/schedule"
	"github.com/okian/duelodds/internal/domain/types"
)

// ReportDependencies defines the interface for whole-competition summaries.
type ReportDependencies interface {
	Report(ctx context.Context, s schedule.Schedule, p float64) (types.Report, error)
	Distribution(ctx context.Context, s schedule.Schedule, p float64) (types.Distribution, error)
}

// ReportHandler handles report and distribution requests.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleReport handles POST /v1/report requests.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.report"
	s, p, ok := h.parse(w, r, op)
	if !ok {
		return
	}
	report, err := h.deps.Report(r.Context(), s, p)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleDistribution handles POST /v1/distribution requests.
func (h *ReportHandler) HandleDistribution(w http.ResponseWriter, r *http.Request) {
	const op = "api.distribution"
	s, p, ok := h.parse(w, r, op)
	if !ok {
		return
	}
	dist, err := h.deps.Distribution(r.Context(), s, p)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, dist)
}

// parse decodes and validates the body, writing the error response itself.
func (h *ReportHandler) parse(w http.ResponseWriter, r *http.Request, op string) (schedule.Schedule, float64, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return schedule.Schedule{}, 0, false
	}
	var req distributionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return schedule.Schedule{}, 0, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return schedule.Schedule{}, 0, false
	}
	s, err := req.schedule()
	if err != nil {
		writeFailure(w, op, err)
		return schedule.Schedule{}, 0, false
	}
	return s, *req.WinProb, true
}
