package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payops/internal/domain"
	"payops/internal/duplicate"
	"payops/internal/service"
)

func newDuplicateService(f *fixture) service.DuplicateService {
	return service.NewDuplicateService(f.invoices, f.duplicates, f.notes, f.sessions, f.notifier, time.Minute, testLog)
}

func TestDuplicateService_CompareAndConfirm(t *testing.T) {
	f := newFixture(t)
	svc := newDuplicateService(f)
	ctx := context.Background()
	original, dupe := f.ds.Invoices[0], f.ds.Invoices[1]

	v, err := svc.Start(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, duplicate.StepSelect, v.Step)
	assert.Len(t, v.Candidates, 2)

	_, err = svc.Toggle(ctx, v.ID, original.ID)
	require.NoError(t, err)
	v, err = svc.Toggle(ctx, v.ID, dupe.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, v.Comparison)

	v, err = svc.Compare(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, duplicate.StepCompare, v.Step)
	require.NotNil(t, v.Kept)
	assert.Equal(t, dupe.ID, *v.Kept, "newest invoice is pre-selected")

	v, err = svc.Keep(ctx, v.ID, dupe.ID)
	require.NoError(t, err)
	assert.Equal(t, duplicate.StepConfirm, v.Step)

	_, err = svc.Confirm(ctx, v.ID, false, "jane")
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)

	result, err := svc.Confirm(ctx, v.ID, true, "jane")
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionMarkResolved, result.Decision.Action)
	assert.Equal(t, dupe.ID, result.Decision.KeepID)
	assert.Equal(t, []uuid.UUID{original.ID}, result.Decision.DiscardIDs)
	assert.True(t, result.Invoice.IsDuplicate)
	assert.False(t, result.Outcome.AllResolved, "validation exception stays open")

	stored, err := f.invoices.GetByID(ctx, original.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDuplicate)
	assert.Len(t, stored.OpenExceptions(), 1)

	kept, err := f.invoices.GetByID(ctx, dupe.ID)
	require.NoError(t, err)
	assert.False(t, kept.IsDuplicate)

	_, err = svc.Get(ctx, v.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NotEmpty(t, f.activity(t, &original))
}

func TestDuplicateService_RejectedTransitionKeepsSession(t *testing.T) {
	f := newFixture(t)
	svc := newDuplicateService(f)
	ctx := context.Background()

	v, err := svc.Start(ctx, f.ds.Invoices[0].ID)
	require.NoError(t, err)

	_, err = svc.Compare(ctx, v.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidWizardStep)

	_, err = svc.Toggle(ctx, v.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)

	v, err = svc.Toggle(ctx, v.ID, f.ds.Invoices[1].ID)
	require.NoError(t, err)
	v, err = svc.ChooseSingle(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, duplicate.StepConfirm, v.Step)

	v, err = svc.Back(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, duplicate.StepSelect, v.Step)
	assert.Len(t, v.Selected, 1)

	require.NoError(t, svc.Cancel(ctx, v.ID))
	_, err = svc.Get(ctx, v.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestDuplicateService_StartRequiresDuplicateException(t *testing.T) {
	f := newFixture(t)
	svc := newDuplicateService(f)

	_, err := svc.Start(context.Background(), f.ds.Invoices[2].ID)
	assert.ErrorIs(t, err, domain.ErrExceptionNotFound)

	_, err = svc.Start(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}
