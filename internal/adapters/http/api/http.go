// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/okian/duelodds/internal/adapters/mq/queue"
	service "github.com/okian/duelodds/internal/app"
	"github.com/okian/duelodds/internal/domain/model"
	"github.com/okian/duelodds/internal/domain/odds"
	"github.com/okian/duelodds/internal/domain/schedule"
	"github.com/okian/duelodds/internal/domain/types"
)

// maxBodyBytes bounds request bodies; a 30-event custom schedule is tiny.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Evaluate answers a single tie, win, loss or score query.
	Evaluate(ctx context.Context, q model.Query) (float64, error)

	Report(ctx context.Context, s schedule.Schedule, p float64) (types.Report, error)
	Distribution(ctx context.Context, s schedule.Schedule, p float64) (types.Distribution, error)
	TieValue(s schedule.Schedule) float64

	// Batch evaluates queries concurrently and returns results in input order.
	Batch(ctx context.Context, queries []model.Query) ([]model.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	probabilityHandler *ProbabilityHandler
	reportHandler      *ReportHandler
	batchHandler       *BatchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		probabilityHandler: NewProbabilityHandler(deps),
		reportHandler:      NewReportHandler(deps),
		batchHandler:       NewBatchHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/probability", MetricsMiddleware(s.probabilityHandler.HandleProbability, "probability"))
	mux.HandleFunc("/v1/tie-value", MetricsMiddleware(s.probabilityHandler.HandleTieValue, "tie_value"))
	mux.HandleFunc("/v1/report", MetricsMiddleware(s.reportHandler.HandleReport, "report"))
	mux.HandleFunc("/v1/distribution", MetricsMiddleware(s.reportHandler.HandleDistribution, "distribution"))
	mux.HandleFunc("/v1/batch", MetricsMiddleware(s.batchHandler.HandleBatch, "batch"))
}

// scheduleRequest is the schedule part shared by every request body.
// Points selects a custom schedule; otherwise Events selects 1..N.
type scheduleRequest struct {
	Events *int      `json:"events,omitempty"`
	Points []float64 `json:"points,omitempty"`
}

func (r scheduleRequest) validate() error {
	switch {
	case r.Events == nil && r.Points == nil:
		return errors.New("one of events or points is required")
	case r.Events != nil && *r.Events < 0:
		return errors.New("events must not be negative")
	case r.Events != nil && r.Points != nil && *r.Events != len(r.Points):
		return fmt.Errorf("events=%d disagrees with %d points", *r.Events, len(r.Points))
	}
	return nil
}

func (r scheduleRequest) schedule() (schedule.Schedule, error) {
	if r.Points != nil {
		return schedule.Custom(r.Points)
	}
	return schedule.Default(*r.Events)
}

// distributionRequest mirrors the OpenAPI schema for POST /v1/report and
// POST /v1/distribution.
type distributionRequest struct {
	scheduleRequest
	WinProb *float64 `json:"win_prob"`
}

func (r distributionRequest) validate() error {
	if err := r.scheduleRequest.validate(); err != nil {
		return err
	}
	return validateWinProb(r.WinProb)
}

// probabilityRequest mirrors the OpenAPI schema for POST /v1/probability.
type probabilityRequest struct {
	ID   string `json:"id,omitempty"`
	Kind string `json:"kind"`
	scheduleRequest
	WinProb *float64 `json:"win_prob"`
	Target  *float64 `json:"target,omitempty"`
}

func (r probabilityRequest) query() (model.Query, error) {
	kind, err := model.ParseKind(r.Kind)
	if err != nil {
		return model.Query{}, err
	}
	if err := r.scheduleRequest.validate(); err != nil {
		return model.Query{}, err
	}
	if err := validateWinProb(r.WinProb); err != nil {
		return model.Query{}, err
	}
	q := model.Query{ID: r.ID, Kind: kind, Points: r.Points, WinProb: *r.WinProb}
	if r.Events != nil {
		q.Events = *r.Events
	}
	if kind == model.KindScore {
		if r.Target == nil || math.IsNaN(*r.Target) {
			return model.Query{}, errors.New("target is required for score queries")
		}
		q.Target = *r.Target
	}
	return q, nil
}

func validateWinProb(p *float64) error {
	switch {
	case p == nil:
		return errors.New("missing win_prob")
	case math.IsNaN(*p) || *p < 0 || *p > 1:
		return fmt.Errorf("win_prob %g outside [0,1]", *p)
	}
	return nil
}

type probabilityResponse struct {
	ID          string  `json:"id,omitempty"`
	Kind        string  `json:"kind"`
	Probability float64 `json:"probability"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decode reads a JSON body, rejecting unknown fields and trailing data.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a service error to its HTTP status.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, odds.ErrEventLimit):
		writeError(w, http.StatusBadRequest, "event_limit", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, odds.ErrDistributionLimit):
		writeError(w, http.StatusBadRequest, "distribution_limit", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, odds.ErrInvalidArgument), errors.Is(err, service.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}
