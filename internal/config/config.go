// Package config defines client configuration structures and loading hooks.
//
// Conventions:
// - Provide New() defaults and Load(ctx) layering (defaults -> file -> env).
// - External errors must be wrapped via this package's error helpers.
package config

// Default bounds for the history window, mirroring the collaborator's own
// clamp on the history endpoint.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// APIBase is the base URL of the remote statistics service,
	// e.g. "https://api.example.com/api".
	APIBase string `koanf:"api_base"`

	// ShareBase is the web frontend base used when printing shareable
	// subject URLs, e.g. "https://example.com/apex/rank".
	ShareBase string `koanf:"share_base"`

	// TimeoutMS bounds each collaborator call.
	TimeoutMS int `koanf:"timeout_ms"`

	// HistoryLimit caps the recent-history window (1..100).
	HistoryLimit int `koanf:"history_limit"`

	// DefaultSubject seeds the selection when no location identifier is
	// present, e.g. "rank:platinum-2".
	DefaultSubject string `koanf:"default_subject"`

	// IdentityPath overrides where the anonymous identity token is
	// persisted. Empty means the per-user config directory.
	IdentityPath string `koanf:"identity_path"`

	// SelectionPath overrides where the last selection is persisted.
	// Empty means the per-user config directory.
	SelectionPath string `koanf:"selection_path"`

	// MetricsAddr, when set, serves Prometheus metrics on this address,
	// e.g. "localhost:9090". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		APIBase:        "http://localhost:8000/api",
		ShareBase:      "http://localhost:3000",
		TimeoutMS:      10_000,
		HistoryLimit:   DefaultHistoryLimit,
		DefaultSubject: "rank:platinum-2",
	}
}
