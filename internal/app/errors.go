package service

import "errors"

// Sentinel kinds for orchestration errors.
var (
	ErrNotUserMetric = errors.New("current subject is not a user metric")
)
