package optimizer

import (
	"fmt"
	"sort"
)

// DefaultFrequencyCap is the weekly impression cap for employer audiences.
const DefaultFrequencyCap = 10

// Capping statuses.
const (
	StatusCapped = "capped"
	StatusActive = "active"
)

// FrequencyDecision tells whether a user may see more impressions this week.
type FrequencyDecision struct {
	User        string `json:"user"`
	Status      string `json:"status"`
	Impressions int    `json:"impressions"`
	Cap         int    `json:"cap"`
	Remaining   int    `json:"remaining"`
	Action      string `json:"action"`
}

// CapFrequency applies capPerWeek to weekly impression counts, sorted by user.
func CapFrequency(weekly map[string]int, capPerWeek int) ([]FrequencyDecision, error) {
	if capPerWeek <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCap, capPerWeek)
	}
	out := make([]FrequencyDecision, 0, len(weekly))
	for user, n := range weekly {
		d := FrequencyDecision{User: user, Impressions: n, Cap: capPerWeek}
		if n >= capPerWeek {
			d.Status = StatusCapped
			d.Action = "Exclude from targeting for remainder of week"
		} else {
			d.Status = StatusActive
			d.Remaining = capPerWeek - n
			d.Action = fmt.Sprintf("Can show %d more impressions this week", d.Remaining)
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out, nil
}
