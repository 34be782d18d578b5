package models

import "time"

// Column describes one administrator-defined field of a category.
type Column struct {
	ID         string `db:"id" json:"id"`
	CategoryID string `db:"category_id" json:"category_id"`
	Name       string `db:"name" json:"name"`
	Type       string `db:"type" json:"type"`
	IsRequired bool   `db:"is_required" json:"is_required"`
}

// DataEntry is one field-value a school submitted under a category. Every
// entry of one (school, category) pair shares the same status; the pair is
// the transition-granularity unit, not the individual row.
type DataEntry struct {
	ID         string          `db:"id" json:"id"`
	SchoolID   string          `db:"school_id" json:"school_id"`
	CategoryID string          `db:"category_id" json:"category_id"`
	ColumnID   string          `db:"column_id" json:"column_id"`
	Value      *string         `db:"value" json:"value,omitempty"`
	Status     DataEntryStatus `db:"status" json:"status"`
	CreatedBy  string          `db:"created_by" json:"created_by"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}
