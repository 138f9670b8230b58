package importer

import "errors"

// Sentinel errors for history files.
var (
	ErrUnsupportedFormat = errors.New("unsupported history file format")
	ErrMissingColumn     = errors.New("missing required column")
	ErrEmptyFile         = errors.New("history file has no data rows")
	ErrBadRow            = errors.New("malformed history row")
)
