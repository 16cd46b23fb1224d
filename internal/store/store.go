// Package store provides the key-value store adapter used by the scoring
// service. Authoritative reads retry on transient connection failures; cache
// reads and writes are best-effort and never surface errors.
package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/R3E-Network/scoring_service/pkg/logger"
)

// ErrNotFound is returned by backends when a key does not exist.
var ErrNotFound = errors.New("store: key not found")

// ConnectionError marks a transient connectivity failure. Authoritative reads
// retry on this class of error; anything else propagates immediately.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store: connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable connectivity failure.
func IsTransient(err error) bool {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Backend is the raw key-value contract required by the adapter.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

const (
	defaultAttempts   = 3
	defaultRetryDelay = time.Second
)

// Store wraps a Backend with the two read policies the service needs.
type Store struct {
	backend  Backend
	attempts int
	delay    time.Duration
	sleep    func(time.Duration)
	log      *logger.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithRetry overrides the retry attempt count and delay for authoritative
// reads.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(s *Store) {
		if attempts > 0 {
			s.attempts = attempts
		}
		if delay >= 0 {
			s.delay = delay
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

func withSleep(fn func(time.Duration)) Option {
	return func(s *Store) { s.sleep = fn }
}

// New constructs a store adapter over the given backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		attempts: defaultAttempts,
		delay:    defaultRetryDelay,
		sleep:    time.Sleep,
		log:      logger.NewDefault("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get performs an authoritative read. Transient connection failures are
// retried up to the configured attempt count; the last error propagates once
// retries are exhausted. A missing key returns ErrNotFound without retry.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		value, err := s.backend.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if errors.Is(err, ErrNotFound) || !IsTransient(err) {
			return "", err
		}
		lastErr = err
		if attempt < s.attempts {
			s.log.WithError(err).WithField("attempt", attempt).Warnf("store get %s failed, retrying", key)
			s.sleep(s.delay)
		}
	}
	return "", lastErr
}

// CacheGet performs a best-effort read. Any backend error is treated as a
// cache miss.
func (s *Store) CacheGet(ctx context.Context, key string) (string, bool) {
	value, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.WithError(err).Debugf("cache get %s failed", key)
		}
		return "", false
	}
	return value, true
}

// CacheSet performs a best-effort write with an expiry. Errors are swallowed.
func (s *Store) CacheSet(ctx context.Context, key, value string, ttl time.Duration) {
	if err := s.backend.Set(ctx, key, value, ttl); err != nil {
		s.log.WithError(err).Debugf("cache set %s failed", key)
	}
}
