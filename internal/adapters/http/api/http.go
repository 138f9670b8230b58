// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/admetrics/internal/app"
	"github.com/okian/admetrics/internal/domain/allocation"
	"github.com/okian/admetrics/internal/domain/attribution"
	"github.com/okian/admetrics/internal/domain/kpi"
	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/internal/domain/optimizer"
)

// maxBodyBytes bounds request bodies; history batches are the largest.
const maxBodyBytes = 8 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	KPI(ctx context.Context, metric string, in kpi.Inputs) (kpi.Result, error)

	Attribute(ctx context.Context, kind string, j attribution.Journey) (attribution.Report, error)
	CompareAttribution(ctx context.Context, j attribution.Journey) ([]attribution.Report, error)

	Allocate(ctx context.Context, total float64, channels map[string]model.ChannelPerformance) (allocation.Plan, error)

	SuggestBids(ctx context.Context, channels map[string]optimizer.BidInput) []optimizer.BidSuggestion
	CapFrequency(ctx context.Context, weekly map[string]int, capPerWeek int) ([]optimizer.FrequencyDecision, error)
	Predict(ctx context.Context, budget float64, channel string, ltv float64) (optimizer.Prediction, error)

	Submit(ctx context.Context, days []model.CampaignDay) (service.SubmitResult, error)
	History(ctx context.Context, channel string) ([]model.CampaignDay, error)
	Channels(ctx context.Context) ([]service.ChannelSummary, error)
	Stats(ctx context.Context) service.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	kpiHandler         *KPIHandler
	attributionHandler *AttributionHandler
	allocationHandler  *AllocationHandler
	optimizerHandler   *OptimizerHandler
	historyHandler     *HistoryHandler
	channelsHandler    *ChannelsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		kpiHandler:         NewKPIHandler(deps),
		attributionHandler: NewAttributionHandler(deps),
		allocationHandler:  NewAllocationHandler(deps),
		optimizerHandler:   NewOptimizerHandler(deps),
		historyHandler:     NewHistoryHandler(deps),
		channelsHandler:    NewChannelsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/kpi/", MetricsMiddleware(s.kpiHandler.HandleKPI, "kpi"))
	mux.HandleFunc("/attribution", MetricsMiddleware(s.attributionHandler.HandleAttribute, "attribution"))
	mux.HandleFunc("/attribution/compare", MetricsMiddleware(s.attributionHandler.HandleCompare, "attribution_compare"))
	mux.HandleFunc("/allocation", MetricsMiddleware(s.allocationHandler.HandleAllocate, "allocation"))
	mux.HandleFunc("/bids", MetricsMiddleware(s.optimizerHandler.HandleBids, "bids"))
	mux.HandleFunc("/frequency-caps", MetricsMiddleware(s.optimizerHandler.HandleFrequencyCaps, "frequency_caps"))
	mux.HandleFunc("/predictions", MetricsMiddleware(s.optimizerHandler.HandlePredictions, "predictions"))
	mux.HandleFunc("/history", MetricsMiddleware(s.historyHandler.HandleHistory, "history"))
	mux.HandleFunc("/channels", MetricsMiddleware(s.channelsHandler.HandleChannels, "channels"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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

// decode reads a single JSON document into v and rejects unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// writeDomainError translates service and domain sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, kpi.ErrNegativeInput),
		errors.Is(err, attribution.ErrUnknownModel),
		errors.Is(err, allocation.ErrInvalidBudget),
		errors.Is(err, allocation.ErrNoChannels),
		errors.Is(err, allocation.ErrInvalidPerformance),
		errors.Is(err, optimizer.ErrInvalidCap),
		errors.Is(err, optimizer.ErrInvalidPredictInput),
		errors.Is(err, service.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, kpi.ErrUnknownMetric):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, allocation.ErrNoSignal),
		errors.Is(err, attribution.ErrInvalidHalfLife),
		errors.Is(err, attribution.ErrFirstLastWeightRange),
		errors.Is(err, attribution.ErrInvalidLookback),
		errors.Is(err, optimizer.ErrNoHistory),
		errors.Is(err, optimizer.ErrNoChannelHistory),
		errors.Is(err, optimizer.ErrDegenerateHistory):
		writeError(w, http.StatusUnprocessableEntity, "unprocessable", err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
