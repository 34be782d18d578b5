package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/dto"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	appErrors "github.com/scorpionabid/infoline-edu-hub-sub004/pkg/errors"
	"github.com/scorpionabid/infoline-edu-hub-sub004/pkg/response"
)

type historyService interface {
	GetHistory(ctx context.Context, schoolID, categoryID string, limit int) ([]models.StatusHistoryEntry, error)
	GetFilteredHistory(ctx context.Context, filter models.HistoryFilter) ([]models.StatusHistoryEntry, error)
	GetStatistics(ctx context.Context) (*models.StatusStatistics, error)
}

// HistoryHandler exposes REST endpoints over the transition ledger.
type HistoryHandler struct {
	service historyService
}

// NewHistoryHandler constructs the handler.
func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// GetHistory godoc
// @Summary Get the transition history of a school's category data
// @Tags History
// @Produce json
// @Param schoolID path string true "School ID"
// @Param categoryID path string true "Category ID"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /entries/{schoolID}/categories/{categoryID}/history [get]
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "history service not configured"))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.service.GetHistory(c.Request.Context(), c.Param("schoolID"), c.Param("categoryID"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ListHistory godoc
// @Summary List ledger rows with filters
// @Tags History
// @Produce json
// @Param school_id query string false "School ID"
// @Param category_id query string false "Category ID"
// @Param status query string false "New status"
// @Param changed_by query string false "Acting user ID"
// @Param date_from query string false "RFC3339 lower bound"
// @Param date_to query string false "RFC3339 upper bound"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /status-history [get]
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "history service not configured"))
		return
	}
	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid history query"))
		return
	}

	filter := models.HistoryFilter{
		SchoolID:   query.SchoolID,
		CategoryID: query.CategoryID,
		ChangedBy:  query.ChangedBy,
		Limit:      query.Limit,
	}
	if query.Status != "" {
		status, err := models.ParseStatus(query.Status)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
			return
		}
		filter.Status = status
	}
	if query.DateFrom != "" {
		from, err := time.Parse(time.RFC3339, query.DateFrom)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date_from must be RFC3339"))
			return
		}
		filter.DateFrom = &from
	}
	if query.DateTo != "" {
		to, err := time.Parse(time.RFC3339, query.DateTo)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date_to must be RFC3339"))
			return
		}
		filter.DateTo = &to
	}

	entries, err := h.service.GetFilteredHistory(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Statistics godoc
// @Summary Aggregate transition statistics for dashboards
// @Tags History
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status-history/statistics [get]
func (h *HistoryHandler) Statistics(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "history service not configured"))
		return
	}
	stats, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
