package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/workflow"
)

type entryStore interface {
	ColumnsByCategory(ctx context.Context, categoryID string) ([]models.Column, error)
	EntriesBySubject(ctx context.Context, schoolID, categoryID string) ([]models.DataEntry, error)
	CurrentStatus(ctx context.Context, schoolID, categoryID string) (models.DataEntryStatus, error)
	UpdateStatus(ctx context.Context, schoolID, categoryID string, current, next models.DataEntryStatus) error
}

// PreconditionService evaluates the named requirements referenced by
// transition rules. Unknown names and evaluation failures both deny; a
// precondition never passes by accident.
type PreconditionService struct {
	entries entryStore
	logger  *zap.Logger
}

// NewPreconditionService constructs the service.
func NewPreconditionService(entries entryStore, logger *zap.Logger) *PreconditionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreconditionService{entries: entries, logger: logger}
}

// Evaluate checks one named precondition against the transition context and
// the actor's resolved authority scope. A non-nil error means the check
// itself could not run, not that it failed.
func (s *PreconditionService) Evaluate(ctx context.Context, name workflow.PreconditionName, txCtx workflow.Context, scope *AuthorityScope) (bool, error) {
	switch name {
	case workflow.PreconditionRequiredFieldsFilled:
		return s.requiredFieldsFilled(ctx, txCtx.SchoolID, txCtx.CategoryID)
	case workflow.PreconditionEntryOwner:
		return scope.IsOwner(), nil
	case workflow.PreconditionApprovalPermission:
		return scope.HasApprovalAuthority(), nil
	case workflow.PreconditionRejectionReason:
		return strings.TrimSpace(txCtx.Comment) != "", nil
	default:
		return false, fmt.Errorf("unknown precondition %q", name)
	}
}

// requiredFieldsFilled verifies every required column of the category has a
// non-empty value for this school. A category with no required columns
// passes trivially.
func (s *PreconditionService) requiredFieldsFilled(ctx context.Context, schoolID, categoryID string) (bool, error) {
	columns, err := s.entries.ColumnsByCategory(ctx, categoryID)
	if err != nil {
		return false, fmt.Errorf("load category columns: %w", err)
	}

	required := make(map[string]bool, len(columns))
	for _, col := range columns {
		if col.IsRequired {
			required[col.ID] = false
		}
	}
	if len(required) == 0 {
		return true, nil
	}

	entries, err := s.entries.EntriesBySubject(ctx, schoolID, categoryID)
	if err != nil {
		return false, fmt.Errorf("load entries: %w", err)
	}
	for _, entry := range entries {
		if _, ok := required[entry.ColumnID]; !ok {
			continue
		}
		if entry.Value != nil && strings.TrimSpace(*entry.Value) != "" {
			required[entry.ColumnID] = true
		}
	}

	for _, filled := range required {
		if !filled {
			return false, nil
		}
	}
	return true, nil
}
