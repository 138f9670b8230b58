package api

import (
	"context"
	"net/http"

	"github.com/okian/admetrics/internal/domain/attribution"
)

// AttributionDependencies defines the interface for attribution operations.
type AttributionDependencies interface {
	Attribute(ctx context.Context, kind string, j attribution.Journey) (attribution.Report, error)
	CompareAttribution(ctx context.Context, j attribution.Journey) ([]attribution.Report, error)
}

// AttributionHandler handles attribution requests.
type AttributionHandler struct {
	deps AttributionDependencies
}

// NewAttributionHandler creates a new attribution handler.
func NewAttributionHandler(deps AttributionDependencies) *AttributionHandler {
	return &AttributionHandler{deps: deps}
}

// attributionRequest mirrors the OpenAPI schema for POST /attribution.
type attributionRequest struct {
	Model string `json:"model"`
	attribution.Journey
}

// HandleAttribute handles POST /attribution requests. The model defaults to linear.
func (h *AttributionHandler) HandleAttribute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req attributionRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Model == "" {
		req.Model = string(attribution.KindLinear)
	}
	report, err := h.deps.Attribute(r.Context(), req.Model, req.Journey)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleCompare handles POST /attribution/compare requests.
func (h *AttributionHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var j attribution.Journey
	if err := decode(w, r, &j); err != nil {
		writeDomainError(w, err)
		return
	}
	reports, err := h.deps.CompareAttribution(r.Context(), j)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}
