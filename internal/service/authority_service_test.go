package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	appErrors "github.com/scorpionabid/infoline-edu-hub-sub004/pkg/errors"
)

type orgStoreStub struct {
	school         *models.School
	schoolErr      error
	assignments    []models.RoleAssignment
	assignmentsErr error
	schoolCalls    int
}

func (s *orgStoreStub) SchoolByID(ctx context.Context, id string) (*models.School, error) {
	s.schoolCalls++
	if s.schoolErr != nil {
		return nil, s.schoolErr
	}
	return s.school, nil
}

func (s *orgStoreStub) AssignmentsByUser(ctx context.Context, userID string) ([]models.RoleAssignment, error) {
	if s.assignmentsErr != nil {
		return nil, s.assignmentsErr
	}
	return s.assignments, nil
}

func testSchool() *models.School {
	return &models.School{ID: "school-1", Name: "School No. 1", SectorID: "sector-1", RegionID: "region-1"}
}

func TestResolveScopeOwner(t *testing.T) {
	schoolID := "school-1"
	repo := &orgStoreStub{
		school: testSchool(),
		assignments: []models.RoleAssignment{
			{UserID: "user-1", Role: models.RoleSchoolAdmin, SchoolID: &schoolID},
		},
	}
	svc := NewAuthorityService(repo, nil, nil)

	scope, err := svc.ResolveScope(context.Background(), "user-1", "school-1")
	require.NoError(t, err)
	require.True(t, scope.IsOwner())
	require.False(t, scope.HasApprovalAuthority())
}

func TestResolveScopeSectorAdmin(t *testing.T) {
	matching := "sector-1"
	other := "sector-9"
	repo := &orgStoreStub{
		school: testSchool(),
		assignments: []models.RoleAssignment{
			{UserID: "user-2", Role: models.RoleSectorAdmin, SectorID: &matching},
		},
	}
	svc := NewAuthorityService(repo, nil, nil)

	scope, err := svc.ResolveScope(context.Background(), "user-2", "school-1")
	require.NoError(t, err)
	require.True(t, scope.HasApprovalAuthority())
	require.False(t, scope.IsOwner())

	repo.assignments = []models.RoleAssignment{
		{UserID: "user-2", Role: models.RoleSectorAdmin, SectorID: &other},
	}
	scope, err = svc.ResolveScope(context.Background(), "user-2", "school-1")
	require.NoError(t, err)
	require.False(t, scope.HasApprovalAuthority(), "sector admin of another sector has no authority")
}

func TestResolveScopeRegionAndSuperAdmin(t *testing.T) {
	regionID := "region-1"
	repo := &orgStoreStub{
		school: testSchool(),
		assignments: []models.RoleAssignment{
			{UserID: "user-3", Role: models.RoleRegionAdmin, RegionID: &regionID},
		},
	}
	svc := NewAuthorityService(repo, nil, nil)

	scope, err := svc.ResolveScope(context.Background(), "user-3", "school-1")
	require.NoError(t, err)
	require.True(t, scope.HasApprovalAuthority())

	repo.assignments = []models.RoleAssignment{
		{UserID: "user-4", Role: models.RoleSuperAdmin},
	}
	scope, err = svc.ResolveScope(context.Background(), "user-4", "school-1")
	require.NoError(t, err)
	require.True(t, scope.HasApprovalAuthority(), "super admin needs no scope")
}

func TestResolveScopeSchoolNotFound(t *testing.T) {
	repo := &orgStoreStub{schoolErr: sql.ErrNoRows}
	svc := NewAuthorityService(repo, nil, nil)

	_, err := svc.ResolveScope(context.Background(), "user-1", "missing")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}

func TestResolveScopeNoAssignments(t *testing.T) {
	repo := &orgStoreStub{school: testSchool()}
	svc := NewAuthorityService(repo, nil, nil)

	scope, err := svc.ResolveScope(context.Background(), "user-9", "school-1")
	require.NoError(t, err)
	require.False(t, scope.IsOwner())
	require.False(t, scope.HasApprovalAuthority())
}
