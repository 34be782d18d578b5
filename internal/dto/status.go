package dto

import "github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"

// TransitionRequest asks the engine to move a subject to a new status.
type TransitionRequest struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment"`
}

// StatusResponse describes a subject's current status with UI hints.
type StatusResponse struct {
	SchoolID   string                 `json:"school_id"`
	CategoryID string                 `json:"category_id"`
	Status     models.DataEntryStatus `json:"status"`
	Color      string                 `json:"color"`
	Icon       string                 `json:"icon"`
}

// HistoryQuery mirrors the filter parameters of the history listing.
type HistoryQuery struct {
	SchoolID   string `form:"school_id"`
	CategoryID string `form:"category_id"`
	Status     string `form:"status"`
	ChangedBy  string `form:"changed_by"`
	DateFrom   string `form:"date_from"`
	DateTo     string `form:"date_to"`
	Limit      int    `form:"limit"`
}
