package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/dto"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/service"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/workflow"
	appErrors "github.com/scorpionabid/infoline-edu-hub-sub004/pkg/errors"
	"github.com/scorpionabid/infoline-edu-hub-sub004/pkg/response"
)

type statusService interface {
	GetCurrentStatus(ctx context.Context, schoolID, categoryID string) (models.DataEntryStatus, error)
	CanTransition(ctx context.Context, txCtx workflow.Context, to models.DataEntryStatus) (*workflow.Result, error)
	ExecuteTransition(ctx context.Context, txCtx workflow.Context, to models.DataEntryStatus) (*workflow.Result, error)
	GetAvailableActions(ctx context.Context, txCtx workflow.Context) (models.DataEntryStatus, []service.TransitionAction, error)
}

// StatusHandler exposes REST endpoints for the transition engine.
type StatusHandler struct {
	service statusService
}

// NewStatusHandler constructs the handler.
func NewStatusHandler(service statusService) *StatusHandler {
	return &StatusHandler{service: service}
}

// GetStatus godoc
// @Summary Get the current status of a school's category data
// @Tags Status
// @Produce json
// @Param schoolID path string true "School ID"
// @Param categoryID path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Router /entries/{schoolID}/categories/{categoryID}/status [get]
func (h *StatusHandler) GetStatus(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "status service not configured"))
		return
	}
	schoolID := c.Param("schoolID")
	categoryID := c.Param("categoryID")
	status, err := h.service.GetCurrentStatus(c.Request.Context(), schoolID, categoryID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.StatusResponse{
		SchoolID:   schoolID,
		CategoryID: categoryID,
		Status:     status,
		Color:      status.Color(),
		Icon:       status.Icon(),
	}, nil)
}

// GetActions godoc
// @Summary List the transitions the caller's role may perform
// @Tags Status
// @Produce json
// @Param schoolID path string true "School ID"
// @Param categoryID path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Router /entries/{schoolID}/categories/{categoryID}/actions [get]
func (h *StatusHandler) GetActions(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "status service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	txCtx := workflow.Context{
		SchoolID:   c.Param("schoolID"),
		CategoryID: c.Param("categoryID"),
		ActorID:    claims.UserID,
		ActorRole:  claims.Role,
	}
	current, actions, err := h.service.GetAvailableActions(c.Request.Context(), txCtx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"current": current,
		"actions": actions,
	}, nil)
}

// Validate godoc
// @Summary Check whether a transition would be allowed
// @Tags Status
// @Accept json
// @Produce json
// @Param schoolID path string true "School ID"
// @Param categoryID path string true "Category ID"
// @Param payload body dto.TransitionRequest true "Requested transition"
// @Success 200 {object} response.Envelope
// @Router /entries/{schoolID}/categories/{categoryID}/validate [post]
func (h *StatusHandler) Validate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "status service not configured"))
		return
	}
	txCtx, target, ok := h.transitionInput(c)
	if !ok {
		return
	}
	result, err := h.service.CanTransition(c.Request.Context(), txCtx, target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Transition godoc
// @Summary Execute a status transition
// @Tags Status
// @Accept json
// @Produce json
// @Param schoolID path string true "School ID"
// @Param categoryID path string true "Category ID"
// @Param payload body dto.TransitionRequest true "Requested transition"
// @Success 200 {object} response.Envelope
// @Router /entries/{schoolID}/categories/{categoryID}/status [put]
func (h *StatusHandler) Transition(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "status service not configured"))
		return
	}
	txCtx, target, ok := h.transitionInput(c)
	if !ok {
		return
	}
	result, err := h.service.ExecuteTransition(c.Request.Context(), txCtx, target)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Allowed {
		response.Error(c, deniedError(result))
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// transitionInput binds the shared path/body inputs of validate and execute.
func (h *StatusHandler) transitionInput(c *gin.Context) (workflow.Context, models.DataEntryStatus, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return workflow.Context{}, "", false
	}
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid transition payload"))
		return workflow.Context{}, "", false
	}
	target, err := models.ParseStatus(req.Status)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return workflow.Context{}, "", false
	}
	txCtx := workflow.Context{
		SchoolID:   c.Param("schoolID"),
		CategoryID: c.Param("categoryID"),
		ActorID:    claims.UserID,
		ActorRole:  claims.Role,
		Comment:    req.Comment,
	}
	return txCtx, target, true
}

// deniedError converts a validation denial into the matching typed error so
// HTTP callers see the engine's own reason vocabulary.
func deniedError(result *workflow.Result) *appErrors.Error {
	switch result.ReasonCode {
	case workflow.ReasonInvalidTransition:
		return appErrors.Clone(appErrors.ErrInvalidTransition, result.Reason)
	case workflow.ReasonInsufficientRole:
		return appErrors.Clone(appErrors.ErrInsufficientRole, result.Reason)
	case workflow.ReasonConditionsNotMet:
		return appErrors.Clone(appErrors.ErrConditionsNotMet, result.Reason)
	default:
		return appErrors.Clone(appErrors.ErrValidation, result.Reason)
	}
}
