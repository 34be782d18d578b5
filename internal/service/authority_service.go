package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	appErrors "github.com/scorpionabid/infoline-edu-hub-sub004/pkg/errors"
)

type organizationStore interface {
	SchoolByID(ctx context.Context, id string) (*models.School, error)
	AssignmentsByUser(ctx context.Context, userID string) ([]models.RoleAssignment, error)
}

// AuthorityScope holds the school hierarchy and role assignments loaded for
// one transition evaluation. All authority questions during that evaluation
// answer from this snapshot, so repeated checks reuse one fetch.
type AuthorityScope struct {
	UserID      string
	School      *models.School
	Assignments []models.RoleAssignment
}

// HasApprovalAuthority reports whether any assignment grants hierarchical
// approval authority over the school: superadmin, regionadmin of the
// school's region, or sectoradmin of the school's sector.
func (s *AuthorityScope) HasApprovalAuthority() bool {
	if s == nil || s.School == nil {
		return false
	}
	for _, a := range s.Assignments {
		switch a.Role {
		case models.RoleSuperAdmin:
			return true
		case models.RoleRegionAdmin:
			if a.RegionID != nil && *a.RegionID == s.School.RegionID {
				return true
			}
		case models.RoleSectorAdmin:
			if a.SectorID != nil && *a.SectorID == s.School.SectorID {
				return true
			}
		}
	}
	return false
}

// IsOwner reports whether the user holds a schooladmin assignment scoped to
// exactly this school.
func (s *AuthorityScope) IsOwner() bool {
	if s == nil || s.School == nil {
		return false
	}
	for _, a := range s.Assignments {
		if a.Role == models.RoleSchoolAdmin && a.SchoolID != nil && *a.SchoolID == s.School.ID {
			return true
		}
	}
	return false
}

// AuthorityService resolves whether a user's scoped roles grant authority
// over a school. Side-effect-free reads; school lookups go through the cache.
type AuthorityService struct {
	repo   organizationStore
	cache  *CacheService
	logger *zap.Logger
}

// NewAuthorityService constructs the service.
func NewAuthorityService(repo organizationStore, cache *CacheService, logger *zap.Logger) *AuthorityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorityService{repo: repo, cache: cache, logger: logger}
}

// ResolveScope loads the school's hierarchy and the user's assignments once.
func (s *AuthorityService) ResolveScope(ctx context.Context, userID, schoolID string) (*AuthorityScope, error) {
	school, err := s.schoolByID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	assignments, err := s.repo.AssignmentsByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role assignments")
	}
	return &AuthorityScope{UserID: userID, School: school, Assignments: assignments}, nil
}

// HasApprovalAuthority answers the one-shot form of the authority question.
func (s *AuthorityService) HasApprovalAuthority(ctx context.Context, userID, schoolID string) (bool, error) {
	scope, err := s.ResolveScope(ctx, userID, schoolID)
	if err != nil {
		return false, err
	}
	return scope.HasApprovalAuthority(), nil
}

// IsOwner answers the one-shot form of the ownership question.
func (s *AuthorityService) IsOwner(ctx context.Context, userID, schoolID string) (bool, error) {
	scope, err := s.ResolveScope(ctx, userID, schoolID)
	if err != nil {
		return false, err
	}
	return scope.IsOwner(), nil
}

func (s *AuthorityService) schoolByID(ctx context.Context, schoolID string) (*models.School, error) {
	cacheKey := fmt.Sprintf("school:org:%s", schoolID)
	var cached models.School
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	school, err := s.repo.SchoolByID(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, school, 0); err != nil {
			s.logger.Warn("cache school org", zap.Error(err))
		}
	}
	return school, nil
}
