package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/admetrics/internal/app"
	"github.com/okian/admetrics/internal/domain/model"
)

// HistoryDependencies defines the interface for history ingestion and reads.
type HistoryDependencies interface {
	Submit(ctx context.Context, days []model.CampaignDay) (service.SubmitResult, error)
	History(ctx context.Context, channel string) ([]model.CampaignDay, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// historyRecord mirrors the OpenAPI schema for one campaign day.
// Date accepts YYYY-MM-DD or RFC3339.
type historyRecord struct {
	ID          string  `json:"id"`
	Channel     string  `json:"channel"`
	Date        string  `json:"date"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

type historyRequest struct {
	Records []historyRecord `json:"records"`
}

type backpressureResponse struct {
	errorResponse
	service.SubmitResult
}

type historyResponse struct {
	Status string `json:"status"`
	service.SubmitResult
}

func (rec historyRecord) toModel() (model.CampaignDay, error) {
	day := model.CampaignDay{
		ID:          strings.TrimSpace(rec.ID),
		Channel:     strings.TrimSpace(rec.Channel),
		Spend:       rec.Spend,
		Impressions: rec.Impressions,
		Clicks:      rec.Clicks,
		Conversions: rec.Conversions,
		Revenue:     rec.Revenue,
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, rec.Date); err == nil {
			day.Date = t.UTC()
			return day, nil
		}
	}
	return day, fmt.Errorf("invalid date %q; must be YYYY-MM-DD or RFC3339", rec.Date)
}

// HandleHistory handles POST /history (batch ingest) and GET /history[?channel=].
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *HistoryHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if len(req.Records) == 0 {
		writeDomainError(w, fmt.Errorf("%w: no records", ErrBadRequest))
		return
	}
	days := make([]model.CampaignDay, len(req.Records))
	for i, rec := range req.Records {
		d, err := rec.toModel()
		if err != nil {
			writeDomainError(w, fmt.Errorf("%w: record %d: %w", ErrBadRequest, i, err))
			return
		}
		days[i] = d
	}

	res, err := h.deps.Submit(r.Context(), days)
	if errors.Is(err, service.ErrBackpressure) {
		// records accepted before the queue filled stay queued
		writeJSON(w, http.StatusTooManyRequests, backpressureResponse{
			errorResponse: errorResponse{Code: "backpressure", Message: err.Error()},
			SubmitResult:  res,
		})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, historyResponse{Status: "accepted", SubmitResult: res})
}

func (h *HistoryHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	days, err := h.deps.History(r.Context(), strings.TrimSpace(r.URL.Query().Get("channel")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if days == nil {
		days = []model.CampaignDay{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": days})
}
