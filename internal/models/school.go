package models

// School maps a school to its sector and region for hierarchy checks.
type School struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	SectorID string `db:"sector_id" json:"sector_id"`
	RegionID string `db:"region_id" json:"region_id"`
}
