package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	appErrors "github.com/scorpionabid/infoline-edu-hub-sub004/pkg/errors"
)

const statisticsCacheKey = "workflow:statistics"

type historyStore interface {
	LogViaRoutine(ctx context.Context, entry *models.StatusHistoryEntry) error
	InsertDirect(ctx context.Context, entry *models.StatusHistoryEntry) error
	HistoryViaRoutine(ctx context.Context, schoolID, categoryID string, limit int) ([]models.StatusHistoryEntry, error)
	HistoryFromView(ctx context.Context, filter models.HistoryFilter) ([]models.StatusHistoryEntry, error)
	LedgerRows(ctx context.Context, limit int) ([]models.StatusHistoryEntry, error)
}

// HistoryService reads and appends the transition ledger. Every operation
// tries the privileged SQL routine first and falls back to the plain
// table/view, so a missing or broken routine degrades instead of failing.
type HistoryService struct {
	repo             historyStore
	cache            *CacheService
	metrics          *MetricsService
	logger           *zap.Logger
	fallbackEnabled  bool
	defaultLimit     int
	statisticsTTL    time.Duration
	statisticsWindow int
}

// NewHistoryService constructs the service.
func NewHistoryService(repo historyStore, cache *CacheService, metrics *MetricsService, logger *zap.Logger, fallbackEnabled bool, defaultLimit int, statisticsTTL time.Duration) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &HistoryService{
		repo:             repo,
		cache:            cache,
		metrics:          metrics,
		logger:           logger,
		fallbackEnabled:  fallbackEnabled,
		defaultLimit:     defaultLimit,
		statisticsTTL:    statisticsTTL,
		statisticsWindow: 10000,
	}
}

// LogStatusChange appends one ledger row. The privileged routine is tried
// first; if it fails and fallback is enabled, the row is inserted directly
// with the actor's own identity. An empty actor is refused before any write.
func (s *HistoryService) LogStatusChange(ctx context.Context, entry *models.StatusHistoryEntry) error {
	if entry == nil || entry.ChangedBy == "" {
		return appErrors.Clone(appErrors.ErrAuthRequired, "status change requires an authenticated actor")
	}

	primaryErr := s.repo.LogViaRoutine(ctx, entry)
	if primaryErr == nil {
		return nil
	}
	s.logger.Warn("ledger routine write failed",
		zap.String("school_id", entry.SchoolID),
		zap.String("category_id", entry.CategoryID),
		zap.Error(primaryErr))

	if !s.fallbackEnabled {
		return primaryErr
	}
	if s.metrics != nil {
		s.metrics.RecordLedgerFallback()
	}
	if fallbackErr := s.repo.InsertDirect(ctx, entry); fallbackErr != nil {
		return fmt.Errorf("ledger write failed on both tiers: %w", errors.Join(primaryErr, fallbackErr))
	}
	return nil
}

// GetHistory returns a subject's transitions newest-first, routine tier
// first, view tier second.
func (s *HistoryService) GetHistory(ctx context.Context, schoolID, categoryID string, limit int) ([]models.StatusHistoryEntry, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	entries, primaryErr := s.repo.HistoryViaRoutine(ctx, schoolID, categoryID, limit)
	if primaryErr == nil {
		return entries, nil
	}
	s.logger.Warn("ledger routine read failed",
		zap.String("school_id", schoolID),
		zap.String("category_id", categoryID),
		zap.Error(primaryErr))

	if !s.fallbackEnabled {
		return nil, primaryErr
	}
	entries, fallbackErr := s.repo.HistoryFromView(ctx, models.HistoryFilter{
		SchoolID:   schoolID,
		CategoryID: categoryID,
		Limit:      limit,
	})
	if fallbackErr != nil {
		return nil, fmt.Errorf("ledger read failed on both tiers: %w", errors.Join(primaryErr, fallbackErr))
	}
	return entries, nil
}

// GetFilteredHistory reads the ledger view with arbitrary filters. The
// filtered form has no routine equivalent, so it goes to the view directly.
func (s *HistoryService) GetFilteredHistory(ctx context.Context, filter models.HistoryFilter) ([]models.StatusHistoryEntry, error) {
	if filter.Limit <= 0 {
		filter.Limit = s.defaultLimit
	}
	entries, err := s.repo.HistoryFromView(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("read filtered history: %w", err)
	}
	return entries, nil
}

// GetStatistics aggregates the recent ledger in memory. The result is cached
// briefly since dashboards poll it.
func (s *HistoryService) GetStatistics(ctx context.Context) (*models.StatusStatistics, error) {
	var cached models.StatusStatistics
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, statisticsCacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.LedgerRows(ctx, s.statisticsWindow)
	if err != nil {
		return nil, fmt.Errorf("scan ledger for statistics: %w", err)
	}

	stats := aggregateStatistics(rows, time.Now().UTC())

	if s.cache != nil {
		if err := s.cache.Set(ctx, statisticsCacheKey, stats, s.statisticsTTL); err != nil {
			s.logger.Warn("cache statistics", zap.Error(err))
		}
	}
	return stats, nil
}

func aggregateStatistics(rows []models.StatusHistoryEntry, now time.Time) *models.StatusStatistics {
	stats := &models.StatusStatistics{
		TotalTransitions: len(rows),
		ByNewStatus:      make(map[models.DataEntryStatus]int),
		ByTransitionPair: make(map[string]int),
	}
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := now.AddDate(0, 0, -7)

	for _, row := range rows {
		stats.ByNewStatus[row.NewStatus]++
		stats.ByTransitionPair[fmt.Sprintf("%s->%s", row.OldStatus, row.NewStatus)]++
		if !row.ChangedAt.Before(todayStart) {
			stats.Today++
		}
		if !row.ChangedAt.Before(weekStart) {
			stats.Last7Days++
		}
	}
	return stats
}
