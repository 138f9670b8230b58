package api

import (
	"context"
	"net/http"

	service "github.com/okian/admetrics/internal/app"
)

// ChannelsDependencies defines the interface for channel summaries.
type ChannelsDependencies interface {
	Channels(ctx context.Context) ([]service.ChannelSummary, error)
}

// ChannelsHandler handles channel summary requests.
type ChannelsHandler struct {
	deps ChannelsDependencies
}

// NewChannelsHandler creates a new channels handler.
func NewChannelsHandler(deps ChannelsDependencies) *ChannelsHandler {
	return &ChannelsHandler{deps: deps}
}

// HandleChannels handles GET /channels requests.
func (h *ChannelsHandler) HandleChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	summaries, err := h.deps.Channels(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": summaries})
}
