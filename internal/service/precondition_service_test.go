package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/models"
	"github.com/scorpionabid/infoline-edu-hub-sub004/internal/workflow"
)

func stringPtr(s string) *string {
	return &s
}

func TestRequiredFieldsFilled(t *testing.T) {
	entries := &entryStoreStub{
		columns: []models.Column{
			{ID: "col-1", CategoryID: "cat-1", Name: "students", IsRequired: true},
			{ID: "col-2", CategoryID: "cat-1", Name: "notes", IsRequired: false},
		},
		entries: []models.DataEntry{
			{ColumnID: "col-1", Value: stringPtr("120")},
		},
	}
	svc := NewPreconditionService(entries, nil)

	met, err := svc.Evaluate(context.Background(), workflow.PreconditionRequiredFieldsFilled,
		workflow.Context{SchoolID: "school-1", CategoryID: "cat-1"}, nil)
	require.NoError(t, err)
	require.True(t, met)
}

func TestRequiredFieldsMissingValue(t *testing.T) {
	entries := &entryStoreStub{
		columns: []models.Column{
			{ID: "col-1", CategoryID: "cat-1", Name: "students", IsRequired: true},
		},
		entries: []models.DataEntry{
			{ColumnID: "col-1", Value: stringPtr("   ")},
		},
	}
	svc := NewPreconditionService(entries, nil)

	met, err := svc.Evaluate(context.Background(), workflow.PreconditionRequiredFieldsFilled,
		workflow.Context{SchoolID: "school-1", CategoryID: "cat-1"}, nil)
	require.NoError(t, err)
	require.False(t, met)
}

func TestRequiredFieldsNoEntryRow(t *testing.T) {
	entries := &entryStoreStub{
		columns: []models.Column{
			{ID: "col-1", CategoryID: "cat-1", Name: "students", IsRequired: true},
		},
	}
	svc := NewPreconditionService(entries, nil)

	met, err := svc.Evaluate(context.Background(), workflow.PreconditionRequiredFieldsFilled,
		workflow.Context{SchoolID: "school-1", CategoryID: "cat-1"}, nil)
	require.NoError(t, err)
	require.False(t, met)
}

func TestRequiredFieldsNoRequiredColumns(t *testing.T) {
	entries := &entryStoreStub{
		columns: []models.Column{
			{ID: "col-2", CategoryID: "cat-1", Name: "notes", IsRequired: false},
		},
	}
	svc := NewPreconditionService(entries, nil)

	met, err := svc.Evaluate(context.Background(), workflow.PreconditionRequiredFieldsFilled,
		workflow.Context{SchoolID: "school-1", CategoryID: "cat-1"}, nil)
	require.NoError(t, err)
	require.True(t, met)
}

func TestRequiredFieldsLoadFailure(t *testing.T) {
	entries := &entryStoreStub{columnsErr: errors.New("db down")}
	svc := NewPreconditionService(entries, nil)

	met, err := svc.Evaluate(context.Background(), workflow.PreconditionRequiredFieldsFilled,
		workflow.Context{SchoolID: "school-1", CategoryID: "cat-1"}, nil)
	require.Error(t, err)
	require.False(t, met)
}

func TestOwnershipAndApprovalPreconditions(t *testing.T) {
	svc := NewPreconditionService(&entryStoreStub{}, nil)
	owner := schoolScope("user-1")
	approver := sectorScope("approver-1", "sector-1")

	met, err := svc.Evaluate(context.Background(), workflow.PreconditionEntryOwner, workflow.Context{}, owner)
	require.NoError(t, err)
	require.True(t, met)

	met, err = svc.Evaluate(context.Background(), workflow.PreconditionEntryOwner, workflow.Context{}, approver)
	require.NoError(t, err)
	require.False(t, met)

	met, err = svc.Evaluate(context.Background(), workflow.PreconditionApprovalPermission, workflow.Context{}, approver)
	require.NoError(t, err)
	require.True(t, met)

	met, err = svc.Evaluate(context.Background(), workflow.PreconditionApprovalPermission, workflow.Context{}, owner)
	require.NoError(t, err)
	require.False(t, met)
}

func TestRejectionReasonPrecondition(t *testing.T) {
	svc := NewPreconditionService(&entryStoreStub{}, nil)

	met, err := svc.Evaluate(context.Background(), workflow.PreconditionRejectionReason,
		workflow.Context{Comment: "missing attachments"}, nil)
	require.NoError(t, err)
	require.True(t, met)

	met, err = svc.Evaluate(context.Background(), workflow.PreconditionRejectionReason,
		workflow.Context{Comment: "  "}, nil)
	require.NoError(t, err)
	require.False(t, met)
}

func TestUnknownPreconditionFailsClosed(t *testing.T) {
	svc := NewPreconditionService(&entryStoreStub{}, nil)

	met, err := svc.Evaluate(context.Background(), workflow.PreconditionName("is_full_moon"), workflow.Context{}, nil)
	require.Error(t, err)
	require.False(t, met)
}
