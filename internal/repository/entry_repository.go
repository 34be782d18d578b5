package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
)

// EntryRepository provides database access for data entries and category columns.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository constructs the repository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// ColumnsByCategory returns the category's column definitions.
func (r *EntryRepository) ColumnsByCategory(ctx context.Context, categoryID string) ([]models.Column, error) {
	const query = `SELECT id, category_id, name, type, is_required FROM columns WHERE category_id = $1 ORDER BY name`
	var columns []models.Column
	if err := r.db.SelectContext(ctx, &columns, query, categoryID); err != nil {
		return nil, fmt.Errorf("list columns for category: %w", err)
	}
	return columns, nil
}

// EntriesBySubject returns every value-record of one (school, category) pair.
func (r *EntryRepository) EntriesBySubject(ctx context.Context, schoolID, categoryID string) ([]models.DataEntry, error) {
	const query = `SELECT id, school_id, category_id, column_id, value, status, created_by, created_at, updated_at
	FROM data_entries WHERE school_id = $1 AND category_id = $2`
	var entries []models.DataEntry
	if err := r.db.SelectContext(ctx, &entries, query, schoolID, categoryID); err != nil {
		return nil, fmt.Errorf("list entries for subject: %w", err)
	}
	return entries, nil
}

// CurrentStatus reads the shared status of a (school, category) pair. All
// rows of the pair carry the same status; one row is enough.
func (r *EntryRepository) CurrentStatus(ctx context.Context, schoolID, categoryID string) (models.DataEntryStatus, error) {
	const query = `SELECT status FROM data_entries WHERE school_id = $1 AND category_id = $2 LIMIT 1`
	var status models.DataEntryStatus
	if err := r.db.GetContext(ctx, &status, query, schoolID, categoryID); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("get current status: %w", err)
	}
	return status, nil
}

// UpdateStatus moves every value-record of the pair to the new status in one
// statement. The expected current status guards against concurrent
// transitions; zero affected rows surfaces as sql.ErrNoRows.
func (r *EntryRepository) UpdateStatus(ctx context.Context, schoolID, categoryID string, current, next models.DataEntryStatus) error {
	const query = `UPDATE data_entries SET status = $1, updated_at = $2
	WHERE school_id = $3 AND category_id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, next, time.Now().UTC(), schoolID, categoryID, current)
	if err != nil {
		return fmt.Errorf("update entry status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check entry status update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
