package config

import "errors"

// Sentinel kinds for configuration errors.
var (
	ErrMissingAPIBase      = errors.New("api_base must not be empty")
	ErrInvalidHistoryLimit = errors.New("history_limit must be between 1 and 100")
)
