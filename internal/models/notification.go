package models

import "time"

// NotificationPriority ranks how prominently the portal surfaces a notification.
type NotificationPriority string

const (
	NotificationPriorityNormal NotificationPriority = "NORMAL"
	NotificationPriorityMedium NotificationPriority = "MEDIUM"
	NotificationPriorityHigh   NotificationPriority = "HIGH"
)

// NotificationTypeStatusChange marks records produced by the transition engine.
const NotificationTypeStatusChange = "STATUS_CHANGE"

// Notification is a best-effort record informing a user about a transition.
type Notification struct {
	ID            string               `db:"id" json:"id"`
	UserID        string               `db:"user_id" json:"user_id"`
	Title         string               `db:"title" json:"title"`
	Message       string               `db:"message" json:"message"`
	Type          string               `db:"type" json:"type"`
	Priority      NotificationPriority `db:"priority" json:"priority"`
	ReferenceType string               `db:"reference_type" json:"reference_type"`
	ReferenceID   string               `db:"reference_id" json:"reference_id"`
	IsRead        bool                 `db:"is_read" json:"is_read"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
}
