package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cityworks/incident-service/internal/config"
	"github.com/cityworks/incident-service/internal/repository"
	apperrors "github.com/cityworks/incident-service/pkg/util"
	"github.com/cityworks/incident-service/pkg/workflow"
)

const statsCacheKey = "incident_stats:overview"

// IncidentStats aggregates queue counts for the supervisor dashboard.
type IncidentStats struct {
	ByStatus          map[workflow.Status]int64   `json:"by_status"`
	ByCategory        map[string]int64            `json:"by_category"`
	ByPriority        map[workflow.Priority]int64 `json:"by_priority"`
	AvgResolutionSecs float64                     `json:"avg_resolution_seconds"`
	GeneratedAt       time.Time                   `json:"generated_at"`
}

// StatsService computes incident statistics, caching results in Redis.
type StatsService struct {
	incidents repository.IncidentRepository
	cache     *redis.Client
	ttl       time.Duration
	logger    *zap.Logger
}

// NewStatsService constructs the service. cache may be nil; statistics are
// then computed on every call.
func NewStatsService(cfg config.StatsConfig, incidents repository.IncidentRepository, cache *redis.Client, logger *zap.Logger) *StatsService {
	return &StatsService{
		incidents: incidents,
		cache:     cache,
		ttl:       cfg.CacheTTL(),
		logger:    logger,
	}
}

// Overview returns the aggregate dashboard, served from cache when fresh.
func (s *StatsService) Overview(ctx context.Context) (*IncidentStats, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	byStatus, err := s.incidents.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byCategory, err := s.incidents.CountByCategory(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byPriority, err := s.incidents.CountByPriority(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	avg, err := s.incidents.AverageResolutionSeconds(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &IncidentStats{
		ByStatus:          byStatus,
		ByCategory:        byCategory,
		ByPriority:        byPriority,
		AvgResolutionSecs: avg,
		GeneratedAt:       time.Now().UTC(),
	}
	s.toCache(ctx, stats)
	return stats, nil
}

// Invalidate drops the cached overview. Called after bulk imports.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil {
		s.logger.Warn("stats cache invalidate failed", zap.Error(err))
	}
}

func (s *StatsService) fromCache(ctx context.Context) *IncidentStats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
		return nil
	}
	var stats IncidentStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Warn("stats cache decode failed", zap.Error(err))
		return nil
	}
	return &stats
}

func (s *StatsService) toCache(ctx context.Context, stats *IncidentStats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
}
