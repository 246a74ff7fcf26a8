package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if HENSACHI_CONFIG is set
//  3. env (prefix HENSACHI_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("HENSACHI_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Environment variables: HENSACHI_API_BASE, HENSACHI_HISTORY_LIMIT, ...
	// Map env keys like HENSACHI_API_BASE -> api_base (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("HENSACHI_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "hensachi_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Basic validation
	if cfg.APIBase == "" {
		return nil, ErrMissingAPIBase
	}
	if cfg.HistoryLimit < 1 || cfg.HistoryLimit > MaxHistoryLimit {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHistoryLimit, cfg.HistoryLimit)
	}
	return &cfg, nil
}
