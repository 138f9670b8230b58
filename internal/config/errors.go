package config

import "errors"

// Sentinel errors returned by Load and Validate.
var (
	ErrInvalidConfig = errors.New("invalid admetrics config")
	ErrLoadConfig    = errors.New("cannot load admetrics config")
)
