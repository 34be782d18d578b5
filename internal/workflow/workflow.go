// Package workflow declares the status transition rule table of the data
// approval engine. The table is the sole source of truth for which status
// changes are legal; the rest of the engine is data-driven off it.
package workflow

import "github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"

// PreconditionName identifies a checkable requirement referenced by rules.
type PreconditionName string

const (
	PreconditionRequiredFieldsFilled PreconditionName = "all_required_fields_filled"
	PreconditionEntryOwner           PreconditionName = "is_entry_owner"
	PreconditionApprovalPermission   PreconditionName = "valid_approval_permission"
	PreconditionRejectionReason      PreconditionName = "rejection_reason_provided"
)

// ReasonCode is the machine-readable outcome of a transition validation.
type ReasonCode string

const (
	// ReasonInvalidTransition: no rule declares the (from, to) edge.
	ReasonInvalidTransition ReasonCode = "INVALID_TRANSITION"
	// ReasonInsufficientRole: the acting role is not in the rule's allowed set.
	ReasonInsufficientRole ReasonCode = "INSUFFICIENT_ROLE"
	// ReasonConditionsNotMet: a precondition evaluated cleanly to false.
	ReasonConditionsNotMet ReasonCode = "CONDITIONS_NOT_MET"
	// ReasonValidationError: checking the rule itself failed; distinct from a
	// denial so callers can retry instead of rejecting permanently.
	ReasonValidationError ReasonCode = "VALIDATION_ERROR"
)

// Context carries the per-call inputs of one transition evaluation.
// It is never persisted; callers construct it fresh per request.
type Context struct {
	SchoolID   string
	CategoryID string
	ActorID    string
	ActorRole  models.UserRole
	Comment    string
}

// Result is the structured outcome of CanTransition. Denials are data, not
// errors; ReasonCode is empty when the transition is allowed.
type Result struct {
	Allowed    bool       `json:"allowed"`
	ReasonCode ReasonCode `json:"reason_code,omitempty"`
	Reason     string     `json:"reason"`
}

// Rule is one immutable edge of the transition graph.
type Rule struct {
	From          models.DataEntryStatus
	To            models.DataEntryStatus
	AllowedRoles  []models.UserRole
	Description   string
	Preconditions []PreconditionName
}

// RoleAllowed reports whether the role is in the rule's allowed set.
func (r Rule) RoleAllowed(role models.UserRole) bool {
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

var approverRoles = []models.UserRole{models.RoleSectorAdmin, models.RoleRegionAdmin, models.RoleSuperAdmin}

// rules is the full transition graph. Approved is the only sink: no edge
// leaves it, while Rejected can still be promoted or reopened. Extending the
// workflow means appending a tuple here; no engine code changes for edges
// that reuse existing precondition names.
var rules = []Rule{
	{
		From:          models.StatusDraft,
		To:            models.StatusPending,
		AllowedRoles:  []models.UserRole{models.RoleSchoolAdmin},
		Description:   "submit entry for approval",
		Preconditions: []PreconditionName{PreconditionEntryOwner, PreconditionRequiredFieldsFilled},
	},
	{
		From:          models.StatusDraft,
		To:            models.StatusApproved,
		AllowedRoles:  approverRoles,
		Description:   "approve draft directly",
		Preconditions: []PreconditionName{PreconditionApprovalPermission},
	},
	{
		From:          models.StatusDraft,
		To:            models.StatusRejected,
		AllowedRoles:  approverRoles,
		Description:   "reject draft entry",
		Preconditions: []PreconditionName{PreconditionApprovalPermission, PreconditionRejectionReason},
	},
	{
		From:          models.StatusPending,
		To:            models.StatusApproved,
		AllowedRoles:  approverRoles,
		Description:   "approve submitted entry",
		Preconditions: []PreconditionName{PreconditionApprovalPermission},
	},
	{
		From:          models.StatusPending,
		To:            models.StatusRejected,
		AllowedRoles:  approverRoles,
		Description:   "reject submitted entry",
		Preconditions: []PreconditionName{PreconditionApprovalPermission, PreconditionRejectionReason},
	},
	{
		From:          models.StatusRejected,
		To:            models.StatusApproved,
		AllowedRoles:  approverRoles,
		Description:   "approve previously rejected entry",
		Preconditions: []PreconditionName{PreconditionApprovalPermission},
	},
	{
		From:          models.StatusRejected,
		To:            models.StatusDraft,
		AllowedRoles:  []models.UserRole{models.RoleSchoolAdmin},
		Description:   "reopen rejected entry for editing",
		Preconditions: []PreconditionName{PreconditionEntryOwner},
	},
}

// FindRule returns the rule for the (from, to) edge, if declared.
func FindRule(from, to models.DataEntryStatus) (Rule, bool) {
	for _, rule := range rules {
		if rule.From == from && rule.To == to {
			return rule, true
		}
	}
	return Rule{}, false
}

// Rules returns a copy of the full table for inspection.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// TargetsFrom lists the statuses the given role may move an entry into from
// the current status. Preconditions are not evaluated here; this feeds the
// UI's available-actions listing only.
func TargetsFrom(from models.DataEntryStatus, role models.UserRole) []models.DataEntryStatus {
	targets := make([]models.DataEntryStatus, 0, len(rules))
	for _, rule := range rules {
		if rule.From == from && rule.RoleAllowed(role) {
			targets = append(targets, rule.To)
		}
	}
	return targets
}
