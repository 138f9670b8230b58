package api

import (
	"context"
	"net/http"

	"github.com/okian/admetrics/internal/domain/allocation"
	"github.com/okian/admetrics/internal/domain/model"
)

// AllocationDependencies defines the interface for budget allocation.
type AllocationDependencies interface {
	Allocate(ctx context.Context, total float64, channels map[string]model.ChannelPerformance) (allocation.Plan, error)
}

// AllocationHandler handles allocation requests.
type AllocationHandler struct {
	deps AllocationDependencies
}

// NewAllocationHandler creates a new allocation handler.
func NewAllocationHandler(deps AllocationDependencies) *AllocationHandler {
	return &AllocationHandler{deps: deps}
}

type allocationRequest struct {
	TotalBudget float64                             `json:"total_budget"`
	Channels    map[string]model.ChannelPerformance `json:"channels"`
}

// HandleAllocate handles POST /allocation requests.
func (h *AllocationHandler) HandleAllocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req allocationRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	plan, err := h.deps.Allocate(r.Context(), req.TotalBudget, req.Channels)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
