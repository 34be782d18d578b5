package models

import "time"

// UserRole represents the scoped administrator roles of the portal hierarchy.
type UserRole string

const (
	RoleSchoolAdmin UserRole = "SCHOOLADMIN"
	RoleSectorAdmin UserRole = "SECTORADMIN"
	RoleRegionAdmin UserRole = "REGIONADMIN"
	RoleSuperAdmin  UserRole = "SUPERADMIN"
)

// RoleAssignment scopes a role to an organizational unit. A user may hold
// zero or more assignments; SUPERADMIN rows carry no scope columns.
type RoleAssignment struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Role      UserRole  `db:"role" json:"role"`
	SchoolID  *string   `db:"school_id" json:"school_id,omitempty"`
	SectorID  *string   `db:"sector_id" json:"sector_id,omitempty"`
	RegionID  *string   `db:"region_id" json:"region_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
