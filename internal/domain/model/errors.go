package model

import "errors"

// ErrInvalidCampaignDay is returned by CampaignDay.Validate.
var ErrInvalidCampaignDay = errors.New("invalid campaign day")
