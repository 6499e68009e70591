package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tuition-match-api/pkg/cache"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// CacheRepository is the JSON key/value store behind CacheService.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CacheService keeps per-request assignment lists warm. Every failure
// degrades to a miss; the database stays authoritative.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService wires the assignment list cache. ttl falls back to five
// minutes.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger.Named("cache"), enabled: enabled}
}

// Enabled reports whether lookups can hit.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// AssignmentList returns the cached list for a request and whether it was
// found.
func (s *CacheService) AssignmentList(ctx context.Context, requestID string) ([]models.TutorAssignmentDetail, bool) {
	if !s.Enabled() {
		return nil, false
	}
	key := cache.AssignmentsKey(requestID)
	started := time.Now()

	var items []models.TutorAssignmentDetail
	err := s.repo.Get(ctx, key, &items)
	s.metrics.RecordCacheOperation(err == nil, time.Since(started))
	switch {
	case err == nil:
		if items == nil {
			items = []models.TutorAssignmentDetail{}
		}
		return items, true
	case !errors.Is(err, appErrors.ErrCacheMiss):
		s.logger.Warn("assignment list read failed", zap.String("request_id", requestID), zap.Error(err))
	}
	return nil, false
}

// StoreAssignmentList caches items for the request. ttl <= 0 uses the
// service default.
func (s *CacheService) StoreAssignmentList(ctx context.Context, requestID string, items []models.TutorAssignmentDetail, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	started := time.Now()
	err := s.repo.Set(ctx, cache.AssignmentsKey(requestID), items, ttl)
	s.metrics.ObserveCacheWrite(time.Since(started))
	if err != nil {
		s.logger.Warn("assignment list write failed", zap.String("request_id", requestID), zap.Error(err))
	}
}

// ForgetAssignmentLists drops the cached lists of the given requests. A
// failure is logged; the stale entry then ages out with its TTL.
func (s *CacheService) ForgetAssignmentLists(ctx context.Context, requestIDs ...string) {
	if !s.Enabled() || len(requestIDs) == 0 {
		return
	}
	keys := make([]string, len(requestIDs))
	for i, id := range requestIDs {
		keys[i] = cache.AssignmentsKey(id)
	}
	if err := s.repo.Delete(ctx, keys...); err != nil {
		s.logger.Warn("assignment list invalidation failed", zap.Strings("request_ids", requestIDs), zap.Error(err))
	}
}
