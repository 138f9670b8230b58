package repository

import "errors"

// Sentinel kinds for history store errors.
var (
	ErrClosed        = errors.New("history store closed")
	ErrMissingRecord = errors.New("record id and channel are required")
)
