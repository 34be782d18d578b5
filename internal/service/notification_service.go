package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	appErrors "github.com/scorpionabid/infoline-edu-hub-sub004/pkg/errors"
	"github.com/scorpionabid/infoline-edu-hub-sub004/pkg/jobs"
)

const jobTypeTransitionNotice = "transition_notice"

type notificationStore interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type audienceStore interface {
	SchoolByID(ctx context.Context, id string) (*models.School, error)
	SchoolAdminIDs(ctx context.Context, schoolID string) ([]string, error)
	ApproverIDs(ctx context.Context, sectorID, regionID string) ([]string, error)
}

// TransitionEvent is the queue payload describing one executed transition.
type TransitionEvent struct {
	SchoolID   string                 `json:"school_id"`
	CategoryID string                 `json:"category_id"`
	OldStatus  models.DataEntryStatus `json:"old_status"`
	NewStatus  models.DataEntryStatus `json:"new_status"`
	ActorID    string                 `json:"actor_id"`
	Comment    string                 `json:"comment,omitempty"`
}

// NotificationService fans out transition notices to the users who need to
// act next. Delivery is best-effort through the background queue; a failed
// dispatch never unwinds the transition that triggered it.
type NotificationService struct {
	repo    notificationStore
	org     audienceStore
	metrics *MetricsService
	logger  *zap.Logger
	queue   *jobs.Queue
	enabled bool
}

// NewNotificationService constructs the service. Call BindQueue before use;
// the queue handler needs the service, so wiring happens in two steps.
func NewNotificationService(repo notificationStore, org audienceStore, metrics *MetricsService, logger *zap.Logger, enabled bool) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, org: org, metrics: metrics, logger: logger, enabled: enabled}
}

// BindQueue attaches the dispatch queue.
func (s *NotificationService) BindQueue(queue *jobs.Queue) {
	s.queue = queue
}

// HandleJob is the queue handler that performs the actual delivery.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(TransitionEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}
	return s.deliver(ctx, event)
}

// DispatchTransition enqueues delivery for an executed transition. Errors are
// logged and counted but never returned to the transition path.
func (s *NotificationService) DispatchTransition(event TransitionEvent) {
	if !s.enabled {
		if s.metrics != nil {
			s.metrics.RecordNotificationDispatch("disabled")
		}
		return
	}
	if s.queue == nil {
		s.logger.Warn("notification queue not bound, dropping event",
			zap.String("school_id", event.SchoolID),
			zap.String("category_id", event.CategoryID))
		if s.metrics != nil {
			s.metrics.RecordNotificationDispatch("dropped")
		}
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeTransitionNotice,
		Payload: event,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("enqueue transition notice failed", zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordNotificationDispatch("dropped")
		}
		return
	}
	if s.metrics != nil {
		s.metrics.RecordNotificationDispatch("enqueued")
	}
}

// deliver computes the audience and writes the notification rows.
func (s *NotificationService) deliver(ctx context.Context, event TransitionEvent) error {
	recipients, err := s.audience(ctx, event)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordNotificationDispatch("failed")
		}
		return err
	}
	if len(recipients) == 0 {
		if s.metrics != nil {
			s.metrics.RecordNotificationDispatch("empty_audience")
		}
		return nil
	}

	title, message := noticeText(event)
	priority := noticePriority(event.NewStatus)
	notifications := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		notifications = append(notifications, models.Notification{
			UserID:        userID,
			Title:         title,
			Message:       message,
			Type:          models.NotificationTypeStatusChange,
			Priority:      priority,
			ReferenceType: "data_entry_category",
			ReferenceID:   fmt.Sprintf("%s:%s", event.SchoolID, event.CategoryID),
		})
	}

	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		if s.metrics != nil {
			s.metrics.RecordNotificationDispatch("failed")
		}
		return fmt.Errorf("deliver transition notices: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordNotificationDispatch("delivered")
	}
	return nil
}

// audience resolves who should hear about the transition. Submissions go up
// to the reviewers above the school; decisions go back down to the school's
// admins. The actor never receives their own notice.
func (s *NotificationService) audience(ctx context.Context, event TransitionEvent) ([]string, error) {
	var recipients []string
	switch event.NewStatus {
	case models.StatusPending:
		school, err := s.org.SchoolByID(ctx, event.SchoolID)
		if err != nil {
			return nil, fmt.Errorf("load school for audience: %w", err)
		}
		recipients, err = s.org.ApproverIDs(ctx, school.SectorID, school.RegionID)
		if err != nil {
			return nil, err
		}
	case models.StatusApproved, models.StatusRejected:
		var err error
		recipients, err = s.org.SchoolAdminIDs(ctx, event.SchoolID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}

	filtered := recipients[:0]
	for _, id := range recipients {
		if id != event.ActorID {
			filtered = append(filtered, id)
		}
	}
	return filtered, nil
}

func noticeText(event TransitionEvent) (string, string) {
	switch event.NewStatus {
	case models.StatusPending:
		return "Data submitted for approval",
			fmt.Sprintf("School data for category %s was submitted and awaits review.", event.CategoryID)
	case models.StatusApproved:
		return "Data approved",
			fmt.Sprintf("School data for category %s was approved.", event.CategoryID)
	case models.StatusRejected:
		message := fmt.Sprintf("School data for category %s was rejected.", event.CategoryID)
		if event.Comment != "" {
			message = fmt.Sprintf("%s Reason: %s", message, event.Comment)
		}
		return "Data rejected", message
	default:
		return "Data status changed",
			fmt.Sprintf("School data for category %s moved to %s.", event.CategoryID, event.NewStatus)
	}
}

func noticePriority(status models.DataEntryStatus) models.NotificationPriority {
	switch status {
	case models.StatusRejected:
		return models.NotificationPriorityHigh
	case models.StatusPending:
		return models.NotificationPriorityMedium
	default:
		return models.NotificationPriorityNormal
	}
}

// List returns the user's notifications.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flags every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}
