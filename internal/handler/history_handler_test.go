package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
)

type historyServiceStub struct {
	entries    []models.StatusHistoryEntry
	stats      *models.StatusStatistics
	lastFilter models.HistoryFilter
	lastLimit  int
}

func (s *historyServiceStub) GetHistory(ctx context.Context, schoolID, categoryID string, limit int) ([]models.StatusHistoryEntry, error) {
	s.lastLimit = limit
	return s.entries, nil
}

func (s *historyServiceStub) GetFilteredHistory(ctx context.Context, filter models.HistoryFilter) ([]models.StatusHistoryEntry, error) {
	s.lastFilter = filter
	return s.entries, nil
}

func (s *historyServiceStub) GetStatistics(ctx context.Context) (*models.StatusStatistics, error) {
	return s.stats, nil
}

func newHistoryRouter(svc *historyServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHistoryHandler(svc)
	r.GET("/entries/:schoolID/categories/:categoryID/history", h.GetHistory)
	r.GET("/status-history", h.ListHistory)
	r.GET("/status-history/statistics", h.Statistics)
	return r
}

func TestHistoryHandlerGetHistory(t *testing.T) {
	svc := &historyServiceStub{
		entries: []models.StatusHistoryEntry{
			{ID: "h-1", SchoolID: "school-1", CategoryID: "cat-1", OldStatus: models.StatusDraft, NewStatus: models.StatusPending, ChangedBy: "user-1"},
		},
	}
	r := newHistoryRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/entries/school-1/categories/cat-1/history?limit=5", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 5, svc.lastLimit)
	var body struct {
		Data []models.StatusHistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, models.StatusPending, body.Data[0].NewStatus)
}

func TestHistoryHandlerListHistoryFilters(t *testing.T) {
	svc := &historyServiceStub{}
	r := newHistoryRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/status-history?school_id=school-1&status=rejected&date_from=2026-01-01T00:00:00Z&limit=20", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "school-1", svc.lastFilter.SchoolID)
	require.Equal(t, models.StatusRejected, svc.lastFilter.Status)
	require.NotNil(t, svc.lastFilter.DateFrom)
	require.Equal(t, 20, svc.lastFilter.Limit)
}

func TestHistoryHandlerListHistoryRejectsBadDate(t *testing.T) {
	svc := &historyServiceStub{}
	r := newHistoryRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status-history?date_from=yesterday", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryHandlerListHistoryRejectsBadStatus(t *testing.T) {
	svc := &historyServiceStub{}
	r := newHistoryRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status-history?status=LIMBO", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryHandlerStatistics(t *testing.T) {
	svc := &historyServiceStub{
		stats: &models.StatusStatistics{
			TotalTransitions: 7,
			ByNewStatus:      map[models.DataEntryStatus]int{models.StatusApproved: 4},
			Today:            2,
		},
	}
	r := newHistoryRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status-history/statistics", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.StatusStatistics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 7, body.Data.TotalTransitions)
	require.Equal(t, 4, body.Data.ByNewStatus[models.StatusApproved])
}
