package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
)

// HistoryRepository persists and reads the append-only transition ledger.
// Writes and per-entry reads go through privileged SQL routines first; the
// plain table/view forms the fallback tier.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs the repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// LogViaRoutine appends a ledger row through the privileged server-side
// function, which stamps the denormalized actor columns itself.
func (r *HistoryRepository) LogViaRoutine(ctx context.Context, entry *models.StatusHistoryEntry) error {
	const query = `SELECT log_status_change($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		entry.SchoolID,
		entry.CategoryID,
		entry.OldStatus,
		entry.NewStatus,
		entry.Comment,
		entry.ChangedBy,
	); err != nil {
		return fmt.Errorf("log status change via routine: %w", err)
	}
	return nil
}

// InsertDirect appends a ledger row with the acting user's own identity.
// Used only when the privileged routine fails.
func (r *HistoryRepository) InsertDirect(ctx context.Context, entry *models.StatusHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	const query = `INSERT INTO status_transition_log
	(id, school_id, category_id, old_status, new_status, comment, changed_at, changed_by, changed_by_name, changed_by_email, metadata)
	VALUES (:id, :school_id, :category_id, :old_status, :new_status, :comment, :changed_at, :changed_by, :changed_by_name, :changed_by_email, :metadata)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

// HistoryViaRoutine reads a subject's ledger through the privileged routine,
// newest-first.
func (r *HistoryRepository) HistoryViaRoutine(ctx context.Context, schoolID, categoryID string, limit int) ([]models.StatusHistoryEntry, error) {
	const query = `SELECT id, school_id, category_id, old_status, new_status, comment, changed_at, changed_by, changed_by_name, changed_by_email, metadata
	FROM get_status_history($1, $2, $3)`
	var entries []models.StatusHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, schoolID, categoryID, limit); err != nil {
		return nil, fmt.Errorf("get status history via routine: %w", err)
	}
	return entries, nil
}

// HistoryFromView reads the denormalized ledger view with filter semantics
// matching the routine, newest-first.
func (r *HistoryRepository) HistoryFromView(ctx context.Context, filter models.HistoryFilter) ([]models.StatusHistoryEntry, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT id, school_id, category_id, old_status, new_status, comment, changed_at, changed_by, changed_by_name, changed_by_email, metadata
	FROM status_history_view`)

	conditions := make([]string, 0, 6)
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("new_status = $%d", len(args)))
	}
	if filter.ChangedBy != "" {
		args = append(args, filter.ChangedBy)
		conditions = append(conditions, fmt.Sprintf("changed_by = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("changed_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("changed_at <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY changed_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d", limit))

	var entries []models.StatusHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("read status history view: %w", err)
	}
	return entries, nil
}

// LedgerRows scans the ledger view for in-memory aggregation. The cap keeps
// the scan bounded at moderate ledger sizes.
func (r *HistoryRepository) LedgerRows(ctx context.Context, limit int) ([]models.StatusHistoryEntry, error) {
	if limit <= 0 {
		limit = 10000
	}
	const query = `SELECT id, school_id, category_id, old_status, new_status, comment, changed_at, changed_by, changed_by_name, changed_by_email, metadata
	FROM status_history_view ORDER BY changed_at DESC LIMIT $1`
	var entries []models.StatusHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("scan ledger rows: %w", err)
	}
	return entries, nil
}
