package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/workflow"
	appErrors "github.com/scorpionabid/infoline-edu-hub-sub004/pkg/errors"
)

type authorityResolver interface {
	ResolveScope(ctx context.Context, userID, schoolID string) (*AuthorityScope, error)
}

type preconditionEvaluator interface {
	Evaluate(ctx context.Context, name workflow.PreconditionName, txCtx workflow.Context, scope *AuthorityScope) (bool, error)
}

type transitionLedger interface {
	LogStatusChange(ctx context.Context, entry *models.StatusHistoryEntry) error
}

type transitionNotifier interface {
	DispatchTransition(event TransitionEvent)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// TransitionAction is one status the caller may move the subject into.
type TransitionAction struct {
	To          models.DataEntryStatus `json:"to"`
	Description string                 `json:"description"`
	Color       string                 `json:"color"`
	Icon        string                 `json:"icon"`
}

// StatusService is the transition engine: it validates requested status
// changes against the rule table and, when allowed, applies them with the
// primary write first and every side effect after it.
type StatusService struct {
	entries       entryStore
	authority     authorityResolver
	preconditions preconditionEvaluator
	history       transitionLedger
	notifier      transitionNotifier
	audit         auditWriter
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewStatusService constructs the engine.
func NewStatusService(
	entries entryStore,
	authority authorityResolver,
	preconditions preconditionEvaluator,
	history transitionLedger,
	notifier transitionNotifier,
	audit auditWriter,
	metrics *MetricsService,
	logger *zap.Logger,
) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		entries:       entries,
		authority:     authority,
		preconditions: preconditions,
		history:       history,
		notifier:      notifier,
		audit:         audit,
		metrics:       metrics,
		logger:        logger,
	}
}

// GetCurrentStatus reads the subject's shared status. A subject with no rows
// yet is reported as Draft, the implicit starting state.
func (s *StatusService) GetCurrentStatus(ctx context.Context, schoolID, categoryID string) (models.DataEntryStatus, error) {
	status, err := s.entries.CurrentStatus(ctx, schoolID, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.StatusDraft, nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read current status")
	}
	return status, nil
}

// CanTransition validates a requested status change without applying it.
// Denials come back as a Result, not an error; errors mean the check itself
// could not be completed.
func (s *StatusService) CanTransition(ctx context.Context, txCtx workflow.Context, to models.DataEntryStatus) (*workflow.Result, error) {
	if txCtx.ActorID == "" {
		return nil, appErrors.ErrAuthRequired
	}
	current, err := s.GetCurrentStatus(ctx, txCtx.SchoolID, txCtx.CategoryID)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, txCtx, current, to)
}

// evaluate runs the five-step check against a known current status.
func (s *StatusService) evaluate(ctx context.Context, txCtx workflow.Context, current, to models.DataEntryStatus) (*workflow.Result, error) {
	if !to.Valid() {
		return &workflow.Result{
			Allowed:    false,
			ReasonCode: workflow.ReasonValidationError,
			Reason:     fmt.Sprintf("unknown target status %q", to),
		}, nil
	}

	if current == to {
		return &workflow.Result{Allowed: true, Reason: "status unchanged"}, nil
	}

	rule, ok := workflow.FindRule(current, to)
	if !ok {
		return &workflow.Result{
			Allowed:    false,
			ReasonCode: workflow.ReasonInvalidTransition,
			Reason:     fmt.Sprintf("no transition from %s to %s", current, to),
		}, nil
	}

	if !rule.RoleAllowed(txCtx.ActorRole) {
		return &workflow.Result{
			Allowed:    false,
			ReasonCode: workflow.ReasonInsufficientRole,
			Reason:     fmt.Sprintf("role %s may not %s", txCtx.ActorRole, rule.Description),
		}, nil
	}

	scope, err := s.authority.ResolveScope(ctx, txCtx.ActorID, txCtx.SchoolID)
	if err != nil {
		var typed *appErrors.Error
		if errors.As(err, &typed) && typed.Code == appErrors.ErrNotFound.Code {
			return nil, err
		}
		s.logger.Warn("authority resolution failed",
			zap.String("school_id", txCtx.SchoolID),
			zap.String("actor_id", txCtx.ActorID),
			zap.Error(err))
		return &workflow.Result{
			Allowed:    false,
			ReasonCode: workflow.ReasonValidationError,
			Reason:     "could not resolve actor authority",
		}, nil
	}

	for _, name := range rule.Preconditions {
		met, err := s.preconditions.Evaluate(ctx, name, txCtx, scope)
		if err != nil {
			s.logger.Warn("precondition evaluation failed",
				zap.String("precondition", string(name)),
				zap.String("school_id", txCtx.SchoolID),
				zap.Error(err))
			return &workflow.Result{
				Allowed:    false,
				ReasonCode: workflow.ReasonValidationError,
				Reason:     fmt.Sprintf("could not evaluate %s", name),
			}, nil
		}
		if !met {
			return &workflow.Result{
				Allowed:    false,
				ReasonCode: workflow.ReasonConditionsNotMet,
				Reason:     fmt.Sprintf("precondition %s not met", name),
			}, nil
		}
	}

	return &workflow.Result{Allowed: true, Reason: rule.Description}, nil
}

// ExecuteTransition validates and applies a status change. The entry update
// is the transaction boundary: once it lands, ledger, notification and audit
// failures are logged but never unwind the new status.
func (s *StatusService) ExecuteTransition(ctx context.Context, txCtx workflow.Context, to models.DataEntryStatus) (*workflow.Result, error) {
	if txCtx.ActorID == "" {
		return nil, appErrors.ErrAuthRequired
	}
	current, err := s.GetCurrentStatus(ctx, txCtx.SchoolID, txCtx.CategoryID)
	if err != nil {
		return nil, err
	}

	result, err := s.evaluate(ctx, txCtx, current, to)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		if s.metrics != nil {
			s.metrics.RecordTransition(string(current), string(to), "denied")
		}
		return result, nil
	}
	if current == to {
		return result, nil
	}

	if err := s.entries.UpdateStatus(ctx, txCtx.SchoolID, txCtx.CategoryID, current, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if s.metrics != nil {
				s.metrics.RecordTransition(string(current), string(to), "conflict")
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "status changed concurrently, reload and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}
	if s.metrics != nil {
		s.metrics.RecordTransition(string(current), string(to), "applied")
	}

	s.recordLedger(ctx, txCtx, current, to)

	if s.notifier != nil {
		s.notifier.DispatchTransition(TransitionEvent{
			SchoolID:   txCtx.SchoolID,
			CategoryID: txCtx.CategoryID,
			OldStatus:  current,
			NewStatus:  to,
			ActorID:    txCtx.ActorID,
			Comment:    txCtx.Comment,
		})
	}

	s.emitAudit(ctx, txCtx, current, to)

	return result, nil
}

// GetAvailableActions lists the statuses the actor's role could move the
// subject into. Preconditions are not evaluated; the listing feeds the UI and
// execution re-validates everything.
func (s *StatusService) GetAvailableActions(ctx context.Context, txCtx workflow.Context) (models.DataEntryStatus, []TransitionAction, error) {
	current, err := s.GetCurrentStatus(ctx, txCtx.SchoolID, txCtx.CategoryID)
	if err != nil {
		return "", nil, err
	}

	actions := make([]TransitionAction, 0, 4)
	for _, target := range workflow.TargetsFrom(current, txCtx.ActorRole) {
		rule, _ := workflow.FindRule(current, target)
		actions = append(actions, TransitionAction{
			To:          target,
			Description: rule.Description,
			Color:       target.Color(),
			Icon:        target.Icon(),
		})
	}
	return current, actions, nil
}

// recordLedger appends the transition to the history ledger, best-effort.
func (s *StatusService) recordLedger(ctx context.Context, txCtx workflow.Context, from, to models.DataEntryStatus) {
	if s.history == nil {
		return
	}
	entry := &models.StatusHistoryEntry{
		SchoolID:   txCtx.SchoolID,
		CategoryID: txCtx.CategoryID,
		OldStatus:  from,
		NewStatus:  to,
		ChangedBy:  txCtx.ActorID,
	}
	if txCtx.Comment != "" {
		comment := txCtx.Comment
		entry.Comment = &comment
	}
	if err := s.history.LogStatusChange(ctx, entry); err != nil {
		s.logger.Error("ledger write failed after status update",
			zap.String("school_id", txCtx.SchoolID),
			zap.String("category_id", txCtx.CategoryID),
			zap.String("old_status", string(from)),
			zap.String("new_status", string(to)),
			zap.Error(err))
	}
}

// emitAudit records the transition in the audit trail, best-effort.
func (s *StatusService) emitAudit(ctx context.Context, txCtx workflow.Context, from, to models.DataEntryStatus) {
	if s.audit == nil {
		return
	}
	actorID := txCtx.ActorID
	resourceID := fmt.Sprintf("%s:%s", txCtx.SchoolID, txCtx.CategoryID)
	oldValues, _ := json.Marshal(map[string]string{"status": string(from)})
	newValues, _ := json.Marshal(map[string]string{"status": string(to), "comment": txCtx.Comment})
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionStatusTransition,
		Resource:   "data_entry_category",
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("audit write failed", zap.Error(err))
	}
}
