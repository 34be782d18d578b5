package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	appErrors "github.com/scorpionabid/infoline-edu-hub-sub004/pkg/errors"
)

type historyStoreStub struct {
	routineWriteErr error
	directWriteErr  error
	routineReadErr  error
	viewReadErr     error

	routineWrites []*models.StatusHistoryEntry
	directWrites  []*models.StatusHistoryEntry
	routineRows   []models.StatusHistoryEntry
	viewRows      []models.StatusHistoryEntry
	viewFilter    models.HistoryFilter
	ledgerRows    []models.StatusHistoryEntry
}

func (s *historyStoreStub) LogViaRoutine(ctx context.Context, entry *models.StatusHistoryEntry) error {
	if s.routineWriteErr != nil {
		return s.routineWriteErr
	}
	s.routineWrites = append(s.routineWrites, entry)
	return nil
}

func (s *historyStoreStub) InsertDirect(ctx context.Context, entry *models.StatusHistoryEntry) error {
	if s.directWriteErr != nil {
		return s.directWriteErr
	}
	s.directWrites = append(s.directWrites, entry)
	return nil
}

func (s *historyStoreStub) HistoryViaRoutine(ctx context.Context, schoolID, categoryID string, limit int) ([]models.StatusHistoryEntry, error) {
	if s.routineReadErr != nil {
		return nil, s.routineReadErr
	}
	return s.routineRows, nil
}

func (s *historyStoreStub) HistoryFromView(ctx context.Context, filter models.HistoryFilter) ([]models.StatusHistoryEntry, error) {
	s.viewFilter = filter
	if s.viewReadErr != nil {
		return nil, s.viewReadErr
	}
	return s.viewRows, nil
}

func (s *historyStoreStub) LedgerRows(ctx context.Context, limit int) ([]models.StatusHistoryEntry, error) {
	return s.ledgerRows, nil
}

func newHistoryService(repo *historyStoreStub, fallback bool) *HistoryService {
	return NewHistoryService(repo, nil, nil, nil, fallback, 50, time.Minute)
}

func ledgerEntry(actor string) *models.StatusHistoryEntry {
	return &models.StatusHistoryEntry{
		SchoolID:   "school-1",
		CategoryID: "cat-1",
		OldStatus:  models.StatusDraft,
		NewStatus:  models.StatusPending,
		ChangedBy:  actor,
	}
}

func TestLogStatusChangePrimaryTier(t *testing.T) {
	repo := &historyStoreStub{}
	svc := newHistoryService(repo, true)

	require.NoError(t, svc.LogStatusChange(context.Background(), ledgerEntry("user-1")))
	require.Len(t, repo.routineWrites, 1)
	require.Empty(t, repo.directWrites)
}

func TestLogStatusChangeFallsBack(t *testing.T) {
	repo := &historyStoreStub{routineWriteErr: errors.New("permission denied for function")}
	svc := newHistoryService(repo, true)

	require.NoError(t, svc.LogStatusChange(context.Background(), ledgerEntry("user-1")))
	require.Len(t, repo.directWrites, 1)
}

func TestLogStatusChangeBothTiersFail(t *testing.T) {
	primary := errors.New("routine gone")
	secondary := errors.New("table gone")
	repo := &historyStoreStub{routineWriteErr: primary, directWriteErr: secondary}
	svc := newHistoryService(repo, true)

	err := svc.LogStatusChange(context.Background(), ledgerEntry("user-1"))
	require.Error(t, err)
	require.ErrorIs(t, err, primary)
	require.ErrorIs(t, err, secondary)
}

func TestLogStatusChangeFallbackDisabled(t *testing.T) {
	primary := errors.New("routine gone")
	repo := &historyStoreStub{routineWriteErr: primary}
	svc := newHistoryService(repo, false)

	err := svc.LogStatusChange(context.Background(), ledgerEntry("user-1"))
	require.ErrorIs(t, err, primary)
	require.Empty(t, repo.directWrites)
}

func TestLogStatusChangeRequiresActor(t *testing.T) {
	repo := &historyStoreStub{}
	svc := newHistoryService(repo, true)

	err := svc.LogStatusChange(context.Background(), ledgerEntry(""))
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, appErrors.ErrAuthRequired.Code, typed.Code)
	require.Empty(t, repo.routineWrites)
	require.Empty(t, repo.directWrites)
}

func TestGetHistoryFallsBackToView(t *testing.T) {
	repo := &historyStoreStub{
		routineReadErr: errors.New("routine missing"),
		viewRows: []models.StatusHistoryEntry{
			{ID: "h-1", SchoolID: "school-1", CategoryID: "cat-1", NewStatus: models.StatusPending},
		},
	}
	svc := newHistoryService(repo, true)

	entries, err := svc.GetHistory(context.Background(), "school-1", "cat-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "school-1", repo.viewFilter.SchoolID)
	require.Equal(t, "cat-1", repo.viewFilter.CategoryID)
	require.Equal(t, 50, repo.viewFilter.Limit)
}

func TestGetHistoryBothTiersFail(t *testing.T) {
	primary := errors.New("routine missing")
	secondary := errors.New("view missing")
	repo := &historyStoreStub{routineReadErr: primary, viewReadErr: secondary}
	svc := newHistoryService(repo, true)

	_, err := svc.GetHistory(context.Background(), "school-1", "cat-1", 10)
	require.Error(t, err)
	require.ErrorIs(t, err, primary)
	require.ErrorIs(t, err, secondary)
}

func TestGetFilteredHistoryAppliesDefaultLimit(t *testing.T) {
	repo := &historyStoreStub{}
	svc := newHistoryService(repo, true)

	_, err := svc.GetFilteredHistory(context.Background(), models.HistoryFilter{SchoolID: "school-1"})
	require.NoError(t, err)
	require.Equal(t, 50, repo.viewFilter.Limit)
}

func TestAggregateStatistics(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	rows := []models.StatusHistoryEntry{
		{OldStatus: models.StatusDraft, NewStatus: models.StatusPending, ChangedAt: now.Add(-time.Hour)},
		{OldStatus: models.StatusPending, NewStatus: models.StatusApproved, ChangedAt: now.AddDate(0, 0, -3)},
		{OldStatus: models.StatusPending, NewStatus: models.StatusRejected, ChangedAt: now.AddDate(0, 0, -20)},
	}

	stats := aggregateStatistics(rows, now)
	require.Equal(t, 3, stats.TotalTransitions)
	require.Equal(t, 1, stats.Today)
	require.Equal(t, 2, stats.Last7Days)
	require.Equal(t, 1, stats.ByNewStatus[models.StatusPending])
	require.Equal(t, 1, stats.ByNewStatus[models.StatusApproved])
	require.Equal(t, 1, stats.ByNewStatus[models.StatusRejected])
	require.Equal(t, 1, stats.ByTransitionPair["DRAFT->PENDING"])
	require.Equal(t, 1, stats.ByTransitionPair["PENDING->APPROVED"])
}

func TestGetStatisticsScansLedger(t *testing.T) {
	repo := &historyStoreStub{
		ledgerRows: []models.StatusHistoryEntry{
			{OldStatus: models.StatusDraft, NewStatus: models.StatusPending, ChangedAt: time.Now().UTC()},
		},
	}
	svc := newHistoryService(repo, true)

	stats, err := svc.GetStatistics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalTransitions)
	require.Equal(t, 1, stats.ByNewStatus[models.StatusPending])
}
