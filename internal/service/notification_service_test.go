package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	"github.com/scorpionabid/infoline-edu-hub-sub004/pkg/jobs"
)

type notificationStoreStub struct {
	batches [][]models.Notification
	listed  []models.Notification
}

func (s *notificationStoreStub) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	s.batches = append(s.batches, notifications)
	return nil
}

func (s *notificationStoreStub) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	return s.listed, nil
}

func (s *notificationStoreStub) MarkRead(ctx context.Context, id, userID string) error {
	return nil
}

func (s *notificationStoreStub) MarkAllRead(ctx context.Context, userID string) error {
	return nil
}

type audienceStoreStub struct {
	school       *models.School
	schoolAdmins []string
	approvers    []string
}

func (s *audienceStoreStub) SchoolByID(ctx context.Context, id string) (*models.School, error) {
	return s.school, nil
}

func (s *audienceStoreStub) SchoolAdminIDs(ctx context.Context, schoolID string) ([]string, error) {
	return s.schoolAdmins, nil
}

func (s *audienceStoreStub) ApproverIDs(ctx context.Context, sectorID, regionID string) ([]string, error) {
	return s.approvers, nil
}

func newNotificationFixture() (*NotificationService, *notificationStoreStub, *audienceStoreStub) {
	repo := &notificationStoreStub{}
	org := &audienceStoreStub{
		school:       testSchool(),
		schoolAdmins: []string{"owner-1", "owner-2"},
		approvers:    []string{"approver-1", "approver-2"},
	}
	svc := NewNotificationService(repo, org, nil, nil, true)
	return svc, repo, org
}

func TestDeliverSubmissionNotifiesApprovers(t *testing.T) {
	svc, repo, _ := newNotificationFixture()

	err := svc.deliver(context.Background(), TransitionEvent{
		SchoolID:   "school-1",
		CategoryID: "cat-1",
		OldStatus:  models.StatusDraft,
		NewStatus:  models.StatusPending,
		ActorID:    "owner-1",
	})
	require.NoError(t, err)
	require.Len(t, repo.batches, 1)

	recipients := make([]string, 0, 2)
	for _, n := range repo.batches[0] {
		recipients = append(recipients, n.UserID)
		require.Equal(t, models.NotificationTypeStatusChange, n.Type)
		require.Equal(t, models.NotificationPriorityMedium, n.Priority)
		require.Equal(t, "school-1:cat-1", n.ReferenceID)
	}
	require.ElementsMatch(t, []string{"approver-1", "approver-2"}, recipients)
}

func TestDeliverDecisionNotifiesSchoolAdmins(t *testing.T) {
	svc, repo, _ := newNotificationFixture()

	err := svc.deliver(context.Background(), TransitionEvent{
		SchoolID:   "school-1",
		CategoryID: "cat-1",
		OldStatus:  models.StatusPending,
		NewStatus:  models.StatusApproved,
		ActorID:    "approver-1",
	})
	require.NoError(t, err)
	require.Len(t, repo.batches, 1)

	recipients := make([]string, 0, 2)
	for _, n := range repo.batches[0] {
		recipients = append(recipients, n.UserID)
		require.Equal(t, models.NotificationPriorityNormal, n.Priority)
	}
	require.ElementsMatch(t, []string{"owner-1", "owner-2"}, recipients)
}

func TestDeliverExcludesActor(t *testing.T) {
	svc, repo, _ := newNotificationFixture()

	err := svc.deliver(context.Background(), TransitionEvent{
		SchoolID:   "school-1",
		CategoryID: "cat-1",
		OldStatus:  models.StatusPending,
		NewStatus:  models.StatusRejected,
		ActorID:    "approver-2",
		Comment:    "numbers do not add up",
	})
	require.NoError(t, err)
	require.Len(t, repo.batches, 1)
	for _, n := range repo.batches[0] {
		require.NotEqual(t, "approver-2", n.UserID)
		require.Equal(t, models.NotificationPriorityHigh, n.Priority)
		require.Contains(t, n.Message, "numbers do not add up")
	}
}

func TestDeliverReopenHasNoAudience(t *testing.T) {
	svc, repo, _ := newNotificationFixture()

	err := svc.deliver(context.Background(), TransitionEvent{
		SchoolID:   "school-1",
		CategoryID: "cat-1",
		OldStatus:  models.StatusRejected,
		NewStatus:  models.StatusDraft,
		ActorID:    "owner-1",
	})
	require.NoError(t, err)
	require.Empty(t, repo.batches)
}

func TestDeliverActorOnlyAudienceWritesNothing(t *testing.T) {
	svc, repo, org := newNotificationFixture()
	org.schoolAdmins = []string{"owner-1"}

	err := svc.deliver(context.Background(), TransitionEvent{
		SchoolID:   "school-1",
		CategoryID: "cat-1",
		OldStatus:  models.StatusPending,
		NewStatus:  models.StatusApproved,
		ActorID:    "owner-1",
	})
	require.NoError(t, err)
	require.Empty(t, repo.batches)
}

func TestDispatchTransitionDisabled(t *testing.T) {
	repo := &notificationStoreStub{}
	svc := NewNotificationService(repo, &audienceStoreStub{school: testSchool()}, nil, nil, false)

	svc.DispatchTransition(TransitionEvent{SchoolID: "school-1", NewStatus: models.StatusPending})
	require.Empty(t, repo.batches)
}

func TestHandleJobRejectsForeignPayload(t *testing.T) {
	svc, _, _ := newNotificationFixture()

	err := svc.HandleJob(context.Background(), jobs.Job{ID: "job-1", Type: jobTypeTransitionNotice, Payload: "bogus"})
	require.Error(t, err)
}

func TestHandleJobDeliversEvent(t *testing.T) {
	svc, repo, _ := newNotificationFixture()

	err := svc.HandleJob(context.Background(), jobs.Job{
		ID:   "job-2",
		Type: jobTypeTransitionNotice,
		Payload: TransitionEvent{
			SchoolID:   "school-1",
			CategoryID: "cat-1",
			OldStatus:  models.StatusDraft,
			NewStatus:  models.StatusPending,
			ActorID:    "owner-1",
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.batches, 1)
}
