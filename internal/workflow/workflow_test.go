package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
)

func TestFindRuleDeclaredEdges(t *testing.T) {
	declared := [][2]models.DataEntryStatus{
		{models.StatusDraft, models.StatusPending},
		{models.StatusDraft, models.StatusApproved},
		{models.StatusDraft, models.StatusRejected},
		{models.StatusPending, models.StatusApproved},
		{models.StatusPending, models.StatusRejected},
		{models.StatusRejected, models.StatusApproved},
		{models.StatusRejected, models.StatusDraft},
	}
	for _, edge := range declared {
		rule, ok := FindRule(edge[0], edge[1])
		require.True(t, ok, "edge %s->%s should exist", edge[0], edge[1])
		require.Equal(t, edge[0], rule.From)
		require.Equal(t, edge[1], rule.To)
		require.NotEmpty(t, rule.AllowedRoles)
	}
}

func TestFindRuleUndeclaredEdges(t *testing.T) {
	declared := make(map[[2]models.DataEntryStatus]bool)
	for _, rule := range Rules() {
		declared[[2]models.DataEntryStatus{rule.From, rule.To}] = true
	}

	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			if from == to || declared[[2]models.DataEntryStatus{from, to}] {
				continue
			}
			_, ok := FindRule(from, to)
			require.False(t, ok, "edge %s->%s should not exist", from, to)
		}
	}
}

func TestApprovedIsTerminal(t *testing.T) {
	for _, rule := range Rules() {
		require.NotEqual(t, models.StatusApproved, rule.From, "no edge may leave APPROVED")
	}
}

func TestRoleAllowed(t *testing.T) {
	submit, ok := FindRule(models.StatusDraft, models.StatusPending)
	require.True(t, ok)
	require.True(t, submit.RoleAllowed(models.RoleSchoolAdmin))
	require.False(t, submit.RoleAllowed(models.RoleSectorAdmin))
	require.False(t, submit.RoleAllowed(models.RoleSuperAdmin))

	approve, ok := FindRule(models.StatusPending, models.StatusApproved)
	require.True(t, ok)
	require.False(t, approve.RoleAllowed(models.RoleSchoolAdmin))
	for _, role := range []models.UserRole{models.RoleSectorAdmin, models.RoleRegionAdmin, models.RoleSuperAdmin} {
		require.True(t, approve.RoleAllowed(role), "role %s should approve", role)
	}
}

func TestReopenRestrictedToSchoolAdmin(t *testing.T) {
	reopen, ok := FindRule(models.StatusRejected, models.StatusDraft)
	require.True(t, ok)
	require.True(t, reopen.RoleAllowed(models.RoleSchoolAdmin))
	require.False(t, reopen.RoleAllowed(models.RoleSectorAdmin))
	require.False(t, reopen.RoleAllowed(models.RoleRegionAdmin))
	require.False(t, reopen.RoleAllowed(models.RoleSuperAdmin))
}

func TestRejectionEdgesRequireReason(t *testing.T) {
	for _, from := range []models.DataEntryStatus{models.StatusDraft, models.StatusPending} {
		rule, ok := FindRule(from, models.StatusRejected)
		require.True(t, ok)
		require.Contains(t, rule.Preconditions, PreconditionRejectionReason)
	}
}

func TestSubmitRequiresOwnershipAndCompleteness(t *testing.T) {
	rule, ok := FindRule(models.StatusDraft, models.StatusPending)
	require.True(t, ok)
	require.Contains(t, rule.Preconditions, PreconditionEntryOwner)
	require.Contains(t, rule.Preconditions, PreconditionRequiredFieldsFilled)
}

func TestTargetsFrom(t *testing.T) {
	targets := TargetsFrom(models.StatusDraft, models.RoleSchoolAdmin)
	require.Equal(t, []models.DataEntryStatus{models.StatusPending}, targets)

	targets = TargetsFrom(models.StatusDraft, models.RoleSuperAdmin)
	require.ElementsMatch(t, []models.DataEntryStatus{models.StatusApproved, models.StatusRejected}, targets)

	targets = TargetsFrom(models.StatusApproved, models.RoleSuperAdmin)
	require.Empty(t, targets)

	targets = TargetsFrom(models.StatusRejected, models.RoleSchoolAdmin)
	require.Equal(t, []models.DataEntryStatus{models.StatusDraft}, targets)
}

func TestRulesReturnsCopy(t *testing.T) {
	first := Rules()
	first[0].To = models.StatusRejected
	second := Rules()
	require.NotEqual(t, first[0].To, second[0].To)
}
