// Package model contains domain models passed between layers.
package model

import "time"

// Interaction is the kind of contact a user had with a channel.
type Interaction string

// Known interactions. Other values are carried verbatim.
const (
	InteractionImpression Interaction = "impression"
	InteractionClick      Interaction = "click"
	InteractionEngagement Interaction = "engagement"
)

// Touchpoint is a single marketing contact in a customer journey.
// Position within a journey is significant; the slice order is the journey order.
type Touchpoint struct {
	ID          string      `json:"id,omitempty"`
	Channel     string      `json:"channel"`
	Timestamp   time.Time   `json:"timestamp"`
	Interaction Interaction `json:"interaction,omitempty"`
	Device      string      `json:"device,omitempty"`
}

// ChannelPerformance is the efficiency signal the allocator scores.
type ChannelPerformance struct {
	ROAS            float64 `json:"roas"`
	ConversionRate  float64 `json:"conversion_rate"`
	VolumePotential float64 `json:"volume_potential"`
}

// Valid reports whether every field is non-negative.
func (p ChannelPerformance) Valid() bool {
	return p.ROAS >= 0 && p.ConversionRate >= 0 && p.VolumePotential >= 0
}
