package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
)

// OrganizationRepository resolves the school hierarchy and role assignments.
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository constructs the repository.
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// SchoolByID returns the school with its sector and region identifiers.
func (r *OrganizationRepository) SchoolByID(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT id, name, sector_id, region_id FROM schools WHERE id = $1 LIMIT 1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find school by id: %w", err)
	}
	return &school, nil
}

// AssignmentsByUser returns every scoped role the user holds.
func (r *OrganizationRepository) AssignmentsByUser(ctx context.Context, userID string) ([]models.RoleAssignment, error) {
	const query = `SELECT id, user_id, role, school_id, sector_id, region_id, created_at
	FROM role_assignments WHERE user_id = $1`
	var assignments []models.RoleAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, userID); err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	return assignments, nil
}

// SchoolAdminIDs returns the users holding SCHOOLADMIN scoped to the school.
func (r *OrganizationRepository) SchoolAdminIDs(ctx context.Context, schoolID string) ([]string, error) {
	const query = `SELECT user_id FROM role_assignments WHERE role = $1 AND school_id = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, models.RoleSchoolAdmin, schoolID); err != nil {
		return nil, fmt.Errorf("list school admins: %w", err)
	}
	return ids, nil
}

// ApproverIDs returns the distinct reviewers above a school: sector admins of
// its sector, region admins of its region, and every super admin.
func (r *OrganizationRepository) ApproverIDs(ctx context.Context, sectorID, regionID string) ([]string, error) {
	const query = `SELECT DISTINCT user_id FROM role_assignments
	WHERE (role = $1 AND sector_id = $2)
	   OR (role = $3 AND region_id = $4)
	   OR role = $5`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query,
		models.RoleSectorAdmin, sectorID,
		models.RoleRegionAdmin, regionID,
		models.RoleSuperAdmin,
	); err != nil {
		return nil, fmt.Errorf("list approvers: %w", err)
	}
	return ids, nil
}
