// Package identity persists the anonymous opaque token that attributes
// user submissions to one client installation.
package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kitaoji/hensachi/pkg/logger"
	"github.com/kitaoji/hensachi/pkg/metrics"
)

// Anonymous is the fixed sentinel returned when durable storage is
// unavailable. Callers must treat it as "no persistent identity" for
// cross-session continuity.
const Anonymous = "anonymous"

// File layout under the per-user config directory.
const (
	appDirName = "hensachi"
	tokenName  = "identity"
	dirPerm    = 0o700
	tokenPerm  = 0o600
)

// Store owns the identity token. Create it once and share it: the token is
// read by any number of callers but written at most once.
type Store struct {
	mu     sync.Mutex
	path   string
	cached string
	logger logger.Logger
}

// NewStore creates a store persisting under path, or under the per-user
// config directory when path is empty.
func NewStore(opts ...Option) *Store {
	s := &Store{}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("identity")
	}
	if s.path == "" {
		s.path = defaultPath()
	}

	return s
}

// GetOrCreate returns the persisted identity, generating and persisting a
// fresh UUID on the first call per installation. It is idempotent: once a
// value has been read by this process it is never replaced. When storage is
// unavailable it returns the Anonymous sentinel, consistently, without
// failing.
func (s *Store) GetOrCreate(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached
	}

	if tok, err := s.read(); err == nil && tok != "" {
		s.cached = tok
		return tok
	}

	if s.path == "" {
		return s.fallback(ctx, errors.New("no writable config directory"))
	}

	tok := uuid.NewString()
	if err := s.write(tok); err != nil {
		// A concurrent writer may have won the create race; their
		// token must not be discarded.
		if existing, rerr := s.read(); rerr == nil && existing != "" {
			s.cached = existing
			return existing
		}
		return s.fallback(ctx, err)
	}

	s.logger.Info(ctx, "created new identity", logger.String("path", s.path))
	s.cached = tok
	return tok
}

func (s *Store) read() (string, error) {
	if s.path == "" {
		return "", os.ErrNotExist
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// write persists the token without clobbering a concurrently created one.
func (s *Store) write(tok string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, tokenPerm)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(tok + "\n")
	return err
}

func (s *Store) fallback(ctx context.Context, err error) string {
	s.logger.Warn(ctx, "identity storage unavailable; using anonymous sentinel",
		logger.Error(err),
	)
	metrics.RecordIdentityFallback()
	s.cached = Anonymous
	return Anonymous
}

func defaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDirName, tokenName)
}
