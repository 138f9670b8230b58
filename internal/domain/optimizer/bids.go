// Package optimizer turns campaign performance into bid, frequency and
// budget decisions.
package optimizer

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultBid is assumed when a channel reports no current bid.
const DefaultBid = 1.0

// BidInput is a channel's current efficiency and bid.
type BidInput struct {
	ROAS       float64 `json:"roas"`
	CurrentBid float64 `json:"current_bid"`
}

// BidSuggestion is the recommended bid for a channel.
type BidSuggestion struct {
	Channel      string  `json:"channel"`
	ROAS         float64 `json:"roas"`
	CurrentBid   float64 `json:"current_bid"`
	SuggestedBid float64 `json:"suggested_bid"`
	Multiplier   float64 `json:"multiplier"`
	Adjustment   string  `json:"adjustment"`
	Reasoning    string  `json:"reasoning"`
}

type bidRule struct {
	above      float64
	multiplier float64
	action     string
}

// Rules are checked top-down with strict comparison.
var bidRules = []bidRule{
	{5, 1.20, "Increase by 20%"},
	{3, 1.10, "Increase by 10%"},
	{2, 1.00, "Maintain"},
	{1, 0.90, "Decrease by 10%"},
}

var bidFloor = bidRule{multiplier: 0.70, action: "Decrease by 30%"}

func ruleFor(roas float64) bidRule {
	for _, r := range bidRules {
		if roas > r.above {
			return r
		}
	}
	return bidFloor
}

// SuggestBids recommends a bid per channel, sorted by channel.
func SuggestBids(channels map[string]BidInput) []BidSuggestion {
	out := make([]BidSuggestion, 0, len(channels))
	for ch, in := range channels {
		bid := in.CurrentBid
		if bid <= 0 {
			bid = DefaultBid
		}
		r := ruleFor(in.ROAS)
		out = append(out, BidSuggestion{
			Channel:      ch,
			ROAS:         in.ROAS,
			CurrentBid:   bid,
			SuggestedBid: bid * r.multiplier,
			Multiplier:   r.multiplier,
			Adjustment:   r.action,
			Reasoning:    fmt.Sprintf("ROAS of %.2fx warrants %s", in.ROAS, strings.ToLower(r.action)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Channel < out[j].Channel })
	return out
}
