package identity

import "github.com/kitaoji/hensachi/pkg/logger"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithPath overrides where the token file lives.
func WithPath(path string) Option {
	return func(s *Store) {
		if path != "" {
			s.path = path
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
