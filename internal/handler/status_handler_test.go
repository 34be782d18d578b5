package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/middleware"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/service"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/workflow"
)

type statusServiceStub struct {
	status     models.DataEntryStatus
	statusErr  error
	result     *workflow.Result
	resultErr  error
	actions    []service.TransitionAction
	executed   int
	lastTarget models.DataEntryStatus
	lastCtx    workflow.Context
}

func (s *statusServiceStub) GetCurrentStatus(ctx context.Context, schoolID, categoryID string) (models.DataEntryStatus, error) {
	return s.status, s.statusErr
}

func (s *statusServiceStub) CanTransition(ctx context.Context, txCtx workflow.Context, to models.DataEntryStatus) (*workflow.Result, error) {
	s.lastCtx = txCtx
	s.lastTarget = to
	return s.result, s.resultErr
}

func (s *statusServiceStub) ExecuteTransition(ctx context.Context, txCtx workflow.Context, to models.DataEntryStatus) (*workflow.Result, error) {
	s.executed++
	s.lastCtx = txCtx
	s.lastTarget = to
	return s.result, s.resultErr
}

func (s *statusServiceStub) GetAvailableActions(ctx context.Context, txCtx workflow.Context) (models.DataEntryStatus, []service.TransitionAction, error) {
	return s.status, s.actions, nil
}

func injectClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
		c.Next()
	}
}

func newStatusRouter(svc *statusServiceStub, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewStatusHandler(svc)
	group := r.Group("/entries/:schoolID/categories/:categoryID", injectClaims(claims))
	group.GET("/status", h.GetStatus)
	group.GET("/actions", h.GetActions)
	group.POST("/validate", h.Validate)
	group.PUT("/status", h.Transition)
	return r
}

func testClaims(role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: role, Email: "user@example.com"}
}

func TestStatusHandlerGetStatus(t *testing.T) {
	svc := &statusServiceStub{status: models.StatusPending}
	r := newStatusRouter(svc, testClaims(models.RoleSchoolAdmin))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/entries/school-1/categories/cat-1/status", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Status models.DataEntryStatus `json:"status"`
			Color  string                 `json:"color"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, models.StatusPending, body.Data.Status)
	require.Equal(t, "yellow", body.Data.Color)
}

func TestStatusHandlerTransitionApplied(t *testing.T) {
	svc := &statusServiceStub{result: &workflow.Result{Allowed: true, Reason: "approve submitted entry"}}
	r := newStatusRouter(svc, testClaims(models.RoleSectorAdmin))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/entries/school-1/categories/cat-1/status",
		strings.NewReader(`{"status":"approved"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, svc.executed)
	require.Equal(t, models.StatusApproved, svc.lastTarget)
	require.Equal(t, "school-1", svc.lastCtx.SchoolID)
	require.Equal(t, "user-1", svc.lastCtx.ActorID)
}

func TestStatusHandlerTransitionDeniedMapsStatus(t *testing.T) {
	cases := []struct {
		code   workflow.ReasonCode
		status int
	}{
		{workflow.ReasonInvalidTransition, http.StatusUnprocessableEntity},
		{workflow.ReasonInsufficientRole, http.StatusForbidden},
		{workflow.ReasonConditionsNotMet, http.StatusUnprocessableEntity},
		{workflow.ReasonValidationError, http.StatusBadRequest},
	}
	for _, tc := range cases {
		svc := &statusServiceStub{result: &workflow.Result{Allowed: false, ReasonCode: tc.code, Reason: "denied"}}
		r := newStatusRouter(svc, testClaims(models.RoleSchoolAdmin))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/entries/school-1/categories/cat-1/status",
			strings.NewReader(`{"status":"PENDING"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		require.Equal(t, tc.status, w.Code, "reason %s", tc.code)
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		if tc.code != workflow.ReasonValidationError {
			require.Equal(t, string(tc.code), body.Error.Code)
		}
	}
}

func TestStatusHandlerValidateReturnsDenialAsData(t *testing.T) {
	svc := &statusServiceStub{result: &workflow.Result{
		Allowed:    false,
		ReasonCode: workflow.ReasonInsufficientRole,
		Reason:     "role may not approve",
	}}
	r := newStatusRouter(svc, testClaims(models.RoleSchoolAdmin))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/entries/school-1/categories/cat-1/validate",
		strings.NewReader(`{"status":"APPROVED"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data workflow.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Data.Allowed)
	require.Equal(t, workflow.ReasonInsufficientRole, body.Data.ReasonCode)
}

func TestStatusHandlerTransitionRequiresClaims(t *testing.T) {
	svc := &statusServiceStub{result: &workflow.Result{Allowed: true}}
	r := newStatusRouter(svc, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/entries/school-1/categories/cat-1/status",
		strings.NewReader(`{"status":"PENDING"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Zero(t, svc.executed)
}

func TestStatusHandlerTransitionRejectsUnknownStatus(t *testing.T) {
	svc := &statusServiceStub{result: &workflow.Result{Allowed: true}}
	r := newStatusRouter(svc, testClaims(models.RoleSchoolAdmin))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/entries/school-1/categories/cat-1/status",
		strings.NewReader(`{"status":"ARCHIVED"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, svc.executed)
}

func TestStatusHandlerGetActions(t *testing.T) {
	svc := &statusServiceStub{
		status: models.StatusDraft,
		actions: []service.TransitionAction{
			{To: models.StatusPending, Description: "submit entry for approval", Color: "yellow", Icon: "clock"},
		},
	}
	r := newStatusRouter(svc, testClaims(models.RoleSchoolAdmin))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/entries/school-1/categories/cat-1/actions", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Current models.DataEntryStatus     `json:"current"`
			Actions []service.TransitionAction `json:"actions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, models.StatusDraft, body.Data.Current)
	require.Len(t, body.Data.Actions, 1)
	require.Equal(t, models.StatusPending, body.Data.Actions[0].To)
}
