package models

import (
	"fmt"
	"strings"
)

// DataEntryStatus captures the review state of one (school, category) data entry.
type DataEntryStatus string

const (
	StatusDraft    DataEntryStatus = "DRAFT"
	StatusPending  DataEntryStatus = "PENDING"
	StatusApproved DataEntryStatus = "APPROVED"
	StatusRejected DataEntryStatus = "REJECTED"
)

// AllStatuses lists every workflow state in display order.
var AllStatuses = []DataEntryStatus{StatusDraft, StatusPending, StatusApproved, StatusRejected}

// ParseStatus normalises raw input into a DataEntryStatus.
func ParseStatus(raw string) (DataEntryStatus, error) {
	switch DataEntryStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("unknown data entry status: %q", raw)
	}
}

// Valid reports whether the status is one of the closed set.
func (s DataEntryStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Color returns the presentation hint used by the portal UI.
func (s DataEntryStatus) Color() string {
	switch s {
	case StatusDraft:
		return "gray"
	case StatusPending:
		return "yellow"
	case StatusApproved:
		return "green"
	case StatusRejected:
		return "red"
	default:
		return "gray"
	}
}

// Icon returns the presentation hint used by the portal UI.
func (s DataEntryStatus) Icon() string {
	switch s {
	case StatusDraft:
		return "edit"
	case StatusPending:
		return "clock"
	case StatusApproved:
		return "check-circle"
	case StatusRejected:
		return "x-circle"
	default:
		return "help-circle"
	}
}
