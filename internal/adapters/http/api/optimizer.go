package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/admetrics/internal/domain/optimizer"
)

// OptimizerDependencies defines the interface for campaign optimisation.
type OptimizerDependencies interface {
	SuggestBids(ctx context.Context, channels map[string]optimizer.BidInput) []optimizer.BidSuggestion
	CapFrequency(ctx context.Context, weekly map[string]int, capPerWeek int) ([]optimizer.FrequencyDecision, error)
	Predict(ctx context.Context, budget float64, channel string, ltv float64) (optimizer.Prediction, error)
}

// OptimizerHandler handles bid, frequency cap and prediction requests.
type OptimizerHandler struct {
	deps OptimizerDependencies
}

// NewOptimizerHandler creates a new optimizer handler.
func NewOptimizerHandler(deps OptimizerDependencies) *OptimizerHandler {
	return &OptimizerHandler{deps: deps}
}

type bidsRequest struct {
	Channels map[string]optimizer.BidInput `json:"channels"`
}

type frequencyRequest struct {
	Impressions map[string]int `json:"impressions"`
	Cap         int            `json:"cap"`
}

type predictionRequest struct {
	Budget  float64 `json:"budget"`
	Channel string  `json:"channel"`
	LTV     float64 `json:"ltv"`
}

// HandleBids handles POST /bids requests.
func (h *OptimizerHandler) HandleBids(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req bidsRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": h.deps.SuggestBids(r.Context(), req.Channels)})
}

// HandleFrequencyCaps handles POST /frequency-caps requests. A zero cap uses
// the configured default.
func (h *OptimizerHandler) HandleFrequencyCaps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req frequencyRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Cap < 0 {
		writeDomainError(w, optimizer.ErrInvalidCap)
		return
	}
	decisions, err := h.deps.CapFrequency(r.Context(), req.Impressions, req.Cap)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": decisions})
}

// HandlePredictions handles POST /predictions requests.
func (h *OptimizerHandler) HandlePredictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req predictionRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if strings.TrimSpace(req.Channel) == "" {
		writeDomainError(w, fmt.Errorf("%w: missing channel", ErrBadRequest))
		return
	}
	p, err := h.deps.Predict(r.Context(), req.Budget, req.Channel, req.LTV)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
