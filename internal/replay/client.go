package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/admetrics/internal/domain/model"
)

const dateLayout = "2006-01-02"

// Record is the wire form of a campaign day on /history.
type Record struct {
	ID          string  `json:"id,omitempty"`
	Channel     string  `json:"channel"`
	Date        string  `json:"date"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// ToRecord converts a campaign day to its wire form.
func ToRecord(d model.CampaignDay) Record { //nolint:gocritic // hugeParam: value conversion
	return Record{
		ID:          d.ID,
		Channel:     d.Channel,
		Date:        d.Date.Format(dateLayout),
		Spend:       d.Spend,
		Impressions: d.Impressions,
		Clicks:      d.Clicks,
		Conversions: d.Conversions,
		Revenue:     d.Revenue,
	}
}

// Ack is the POST /history response.
type Ack struct {
	Status     string `json:"status"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client talks to the admetrics HTTP API.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Health returns nil when /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// PostHistory submits one batch. It returns the HTTP status alongside the
// decoded ack; a 429 is reported through the status, not the error, and its
// ack holds the records the service queued before it filled up.
func (c *Client) PostHistory(ctx context.Context, batch []Record) (Ack, int, error) {
	body, err := json.Marshal(map[string]any{"records": batch})
	if err != nil {
		return Ack{}, 0, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/history", bytes.NewReader(body))
	if err != nil {
		return Ack{}, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Ack{}, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Ack{}, resp.StatusCode, err
	}

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
		var ack Ack
		if err := json.Unmarshal(data, &ack); err != nil {
			return Ack{}, resp.StatusCode, fmt.Errorf("decode ack: %w", err)
		}
		return ack, resp.StatusCode, nil
	case http.StatusTooManyRequests:
		var ack Ack
		_ = json.Unmarshal(data, &ack)
		return ack, resp.StatusCode, nil
	default:
		var e apiError
		_ = json.Unmarshal(data, &e)
		return Ack{}, resp.StatusCode, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, e.Message)
	}
}

// History fetches stored records, optionally for one channel.
func (c *Client) History(ctx context.Context, channel string) ([]model.CampaignDay, error) {
	u := c.baseURL + "/history"
	if channel != "" {
		u += "?channel=" + url.QueryEscape(channel)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	var out struct {
		Records []model.CampaignDay `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return out.Records, nil
}
