// AngelaMos | 2026
// service.go

package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheTTL       = 60 * time.Second
	deadlineWindow = 30 * 24 * time.Hour
	deadlineLimit  = 50
)

type Service struct {
	repo   Repository
	cache  *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the aggregate queries behind a short-lived redis
// cache. cache may be nil; every read then hits postgres directly.
func NewService(
	repo Repository,
	cache *redis.Client,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var cached Summary
	if s.cacheGet(ctx, "dashboard:summary", &cached) {
		return &cached, nil
	}

	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, "dashboard:summary", summary)
	return summary, nil
}

func (s *Service) TotalsByRegion(ctx context.Context) ([]GroupTotal, error) {
	var cached []GroupTotal
	if s.cacheGet(ctx, "dashboard:regions", &cached) {
		return cached, nil
	}

	totals, err := s.repo.TotalsByRegion(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, "dashboard:regions", totals)
	return totals, nil
}

func (s *Service) TotalsBySector(ctx context.Context) ([]GroupTotal, error) {
	var cached []GroupTotal
	if s.cacheGet(ctx, "dashboard:sectors", &cached) {
		return cached, nil
	}

	totals, err := s.repo.TotalsBySector(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, "dashboard:sectors", totals)
	return totals, nil
}

func (s *Service) UpcomingDeadlines(
	ctx context.Context,
) ([]UpcomingDeadline, error) {
	var cached []UpcomingDeadline
	if s.cacheGet(ctx, "dashboard:deadlines", &cached) {
		return cached, nil
	}

	rows, err := s.repo.UpcomingDeadlines(
		ctx,
		s.now().UTC(),
		deadlineWindow,
		deadlineLimit,
	)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, "dashboard:deadlines", rows)
	return rows, nil
}

// cacheGet reports whether key was present and decoded into dest. Cache
// failures are logged and treated as misses.
func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}

	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed",
				"key", key,
				"error", err,
			)
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("dashboard cache decode failed",
			"key", key,
			"error", err,
		)
		return false
	}

	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		s.logger.Warn("dashboard cache write failed",
			"key", key,
			"error", err,
		)
	}
}
