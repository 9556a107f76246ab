package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService is the read-through cache for reference lists (colleges, regions).
// Keys are "<keyspace>:<id>"; the keyspace labels metrics. When disabled, or
// when constructed nil, every lookup is a miss and writes are dropped.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service. A non-positive ttl defaults to ten minutes.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:    repo,
		metrics: metrics,
		ttl:     ttl,
		logger:  logger.Named("reference-cache"),
		enabled: enabled && repo != nil,
	}
}

// Enabled indicates whether lookups can hit.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled
}

// Get copies a cached entry into dest and reports whether it was a hit.
// Backend errors are returned alongside a miss.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	started := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.ObserveCacheLookup(keyspace(key), err == nil, time.Since(started))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("lookup failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores value under key. A non-positive ttl uses the service default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	started := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite("set", time.Since(started))
	if err != nil {
		s.logger.Warn("write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Remember fills dest from cache when present, otherwise through load, and
// then caches the loaded value. Only load errors are returned; the bool reports a hit.
func (s *CacheService) Remember(ctx context.Context, key string, dest interface{}, load func(ctx context.Context) error) (bool, error) {
	if hit, _ := s.Get(ctx, key, dest); hit {
		return true, nil
	}
	if err := load(ctx); err != nil {
		return false, err
	}
	_ = s.Set(ctx, key, dest, 0)
	return false, nil
}

// Invalidate drops every key matching pattern, e.g. "colleges:*".
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	started := time.Now()
	err := s.repo.DeleteByPattern(ctx, pattern)
	s.metrics.ObserveCacheWrite("invalidate", time.Since(started))
	if err != nil {
		s.logger.Warn("invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
	return err
}

func keyspace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "default"
}
