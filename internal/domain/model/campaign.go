package model

import (
	"fmt"
	"time"
)

// CampaignDay is one day of spend and outcomes for a channel.
type CampaignDay struct {
	ID          string    `json:"id"`
	Channel     string    `json:"channel"`
	Date        time.Time `json:"date"`
	Spend       float64   `json:"spend"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Conversions int64     `json:"conversions"`
	Revenue     float64   `json:"revenue"`
}

// CPM is cost per thousand impressions, 0 without impressions.
func (d CampaignDay) CPM() float64 {
	if d.Impressions == 0 {
		return 0
	}
	return d.Spend / float64(d.Impressions) * 1000
}

// CTR is clicks per impression as a fraction, 0 without impressions.
func (d CampaignDay) CTR() float64 {
	if d.Impressions == 0 {
		return 0
	}
	return float64(d.Clicks) / float64(d.Impressions)
}

// CVR is conversions per click as a fraction, 0 without clicks.
func (d CampaignDay) CVR() float64 {
	if d.Clicks == 0 {
		return 0
	}
	return float64(d.Conversions) / float64(d.Clicks)
}

// ROAS is revenue per unit of spend, 0 without spend.
func (d CampaignDay) ROAS() float64 {
	if d.Spend == 0 {
		return 0
	}
	return d.Revenue / d.Spend
}

// Validate checks the record is storable.
func (d CampaignDay) Validate() error {
	switch {
	case d.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidCampaignDay)
	case d.Channel == "":
		return fmt.Errorf("%w: channel is required", ErrInvalidCampaignDay)
	case d.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidCampaignDay)
	case d.Spend < 0 || d.Revenue < 0:
		return fmt.Errorf("%w: spend and revenue must not be negative", ErrInvalidCampaignDay)
	case d.Impressions < 0 || d.Clicks < 0 || d.Conversions < 0:
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidCampaignDay)
	case d.Clicks > d.Impressions:
		return fmt.Errorf("%w: clicks %d exceed impressions %d", ErrInvalidCampaignDay, d.Clicks, d.Impressions)
	}
	return nil
}
