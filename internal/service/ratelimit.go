package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uniboard/uniboard-api/pkg/config"
)

// AttemptStore counts login attempts per client key within a resetting
// window. Implementations may be process-local or shared (Redis).
type AttemptStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}

// LoginLimiter gates login attempts per client identifier. The store is
// injected so tests can reset it deterministically and deployments can swap
// in a shared backend.
type LoginLimiter struct {
	store       AttemptStore
	maxAttempts int
	window      time.Duration
	enabled     bool
	logger      *zap.Logger
}

// NewLoginLimiter builds a limiter from configuration.
func NewLoginLimiter(store AttemptStore, cfg config.RateLimitConfig, logger *zap.Logger) *LoginLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginLimiter{
		store:       store,
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window,
		enabled:     cfg.Enabled,
		logger:      logger,
	}
}

// Allow records one attempt for the key and reports whether it is still
// inside the budget. Store failures fail open: an unavailable counter must
// not lock every account out.
func (l *LoginLimiter) Allow(ctx context.Context, key string) bool {
	if !l.enabled || l.store == nil {
		return true
	}
	count, err := l.store.Increment(ctx, key, l.window)
	if err != nil {
		l.logger.Warn("rate limit store unavailable", zap.Error(err))
		return true
	}
	return count <= l.maxAttempts
}

// Reset clears the attempt counter for the key, called after a successful
// login.
func (l *LoginLimiter) Reset(ctx context.Context, key string) {
	if !l.enabled || l.store == nil {
		return
	}
	if err := l.store.Reset(ctx, key); err != nil {
		l.logger.Warn("failed to reset rate limit counter", zap.Error(err))
	}
}

type attemptEntry struct {
	count       int
	windowStart time.Time
}

// MemoryAttemptStore is the process-local AttemptStore. Counts are not
// shared across server processes; acceptable best-effort for a single-node
// deployment.
type MemoryAttemptStore struct {
	mu      sync.Mutex
	entries map[string]*attemptEntry
	now     func() time.Time
}

// NewMemoryAttemptStore builds an empty in-memory store.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{
		entries: make(map[string]*attemptEntry),
		now:     time.Now,
	}
}

// Increment bumps the counter for key, restarting the window when the
// previous one has elapsed.
func (s *MemoryAttemptStore) Increment(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok || now.Sub(entry.windowStart) > window {
		s.entries[key] = &attemptEntry{count: 1, windowStart: now}
		return 1, nil
	}

	entry.count++
	return entry.count, nil
}

// Reset drops the counter for key.
func (s *MemoryAttemptStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
