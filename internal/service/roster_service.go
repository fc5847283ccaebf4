package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-request-workflow/pkg/errors"
)

type rosterStore interface {
	StudentIDs(ctx context.Context, instructorID string) ([]string, error)
	IsAssigned(ctx context.Context, instructorID, studentID string) (bool, error)
}

type rosterCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RosterService answers whether an instructor has authority over a student.
// Rosters are read through a short-lived cache since every instructor
// command and listing consults them.
type RosterService struct {
	store   rosterStore
	cache   rosterCache
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// RosterServiceOption configures the service.
type RosterServiceOption func(*RosterService)

// WithRosterCache enables read-through caching of rosters for ttl.
func WithRosterCache(cache rosterCache, ttl time.Duration) RosterServiceOption {
	return func(s *RosterService) {
		if cache == nil {
			return
		}
		s.cache = cache
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRosterService constructs the service without a cache unless one is
// supplied through WithRosterCache.
func NewRosterService(store rosterStore, metrics *MetricsService, logger *zap.Logger, opts ...RosterServiceOption) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RosterService{store: store, ttl: 5 * time.Minute, metrics: metrics, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// StudentIDs returns the students assigned to instructorID.
func (s *RosterService) StudentIDs(ctx context.Context, instructorID string) ([]string, error) {
	key := rosterCacheKey(instructorID)
	if s.cache != nil {
		start := time.Now()
		var cached []string
		err := s.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			s.metrics.RecordCacheOperation(true, time.Since(start))
			return cached, nil
		case errors.Is(err, appErrors.ErrCacheMiss):
			s.metrics.RecordCacheOperation(false, time.Since(start))
		default:
			s.metrics.RecordCacheOperation(false, time.Since(start))
			s.logger.Warn("roster cache read failed", zap.String("instructor_id", instructorID), zap.Error(err))
		}
	}

	ids, err := s.store.StudentIDs(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, ids, s.ttl); err != nil {
			s.logger.Warn("roster cache write failed", zap.String("instructor_id", instructorID), zap.Error(err))
		}
	}
	return ids, nil
}

// IsAssigned reports whether studentID is on instructorID's roster. Without a
// cache a single-row lookup is cheaper than loading the whole roster.
func (s *RosterService) IsAssigned(ctx context.Context, instructorID, studentID string) (bool, error) {
	if s.cache == nil {
		return s.store.IsAssigned(ctx, instructorID, studentID)
	}
	ids, err := s.StudentIDs(ctx, instructorID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func rosterCacheKey(instructorID string) string {
	return fmt.Sprintf("roster:instructor:%s", instructorID)
}
