package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/admetrics/internal/domain/kpi"
)

// KPIDependencies defines the interface for metric calculations.
type KPIDependencies interface {
	KPI(ctx context.Context, metric string, in kpi.Inputs) (kpi.Result, error)
}

// KPIHandler handles metric requests.
type KPIHandler struct {
	deps KPIDependencies
}

// NewKPIHandler creates a new KPI handler.
func NewKPIHandler(deps KPIDependencies) *KPIHandler {
	return &KPIHandler{deps: deps}
}

// HandleKPI handles POST /kpi/{metric} requests.
func (h *KPIHandler) HandleKPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	metric := strings.TrimPrefix(r.URL.Path, "/kpi/")
	if metric == "" || strings.Contains(metric, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	var in kpi.Inputs
	if err := decode(w, r, &in); err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.deps.KPI(r.Context(), metric, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
