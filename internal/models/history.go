package models

import (
	"encoding/json"
	"time"
)

// StatusHistoryEntry is one row of the append-only transition ledger.
// Rows are created once per executed transition and never mutated.
type StatusHistoryEntry struct {
	ID             string          `db:"id" json:"id"`
	SchoolID       string          `db:"school_id" json:"school_id"`
	CategoryID     string          `db:"category_id" json:"category_id"`
	OldStatus      DataEntryStatus `db:"old_status" json:"old_status"`
	NewStatus      DataEntryStatus `db:"new_status" json:"new_status"`
	Comment        *string         `db:"comment" json:"comment,omitempty"`
	ChangedAt      time.Time       `db:"changed_at" json:"changed_at"`
	ChangedBy      string          `db:"changed_by" json:"changed_by"`
	ChangedByName  *string         `db:"changed_by_name" json:"changed_by_name,omitempty"`
	ChangedByEmail *string         `db:"changed_by_email" json:"changed_by_email,omitempty"`
	Metadata       json.RawMessage `db:"metadata" json:"metadata,omitempty"`
}

// HistoryFilter constrains ledger read queries.
type HistoryFilter struct {
	SchoolID   string
	CategoryID string
	Status     DataEntryStatus
	ChangedBy  string
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
}

// StatusStatistics aggregates the ledger for dashboards.
type StatusStatistics struct {
	TotalTransitions int                     `json:"total_transitions"`
	ByNewStatus      map[DataEntryStatus]int `json:"by_new_status"`
	ByTransitionPair map[string]int          `json:"by_transition_pair"`
	Today            int                     `json:"today"`
	Last7Days        int                     `json:"last_7_days"`
}
