package duplicate_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payops/internal/domain"
	"payops/internal/duplicate"
)

func newInvoice(number string, created time.Time) domain.Invoice {
	return domain.Invoice{
		ID:           uuid.New(),
		Number:       number,
		Buyer:        "Acme",
		Total:        decimal.NewFromInt(100),
		Currency:     "USD",
		CreationDate: created,
	}
}

// newWizard returns a wizard over one original and two duplicates (three candidates).
func newWizard() (*duplicate.Wizard, []domain.Invoice) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := newInvoice("INV-1", base)
	d1 := newInvoice("INV-1", base.AddDate(0, 0, 5))
	d2 := newInvoice("INV-1", base.AddDate(0, 0, 2))
	w := duplicate.NewWizard(&orig, uuid.New(), []domain.Invoice{d1, d2})
	return w, []domain.Invoice{orig, d1, d2}
}

func TestWizard_SelectionCappedAtTwo(t *testing.T) {
	w, inv := newWizard()

	require.NoError(t, w.Toggle(inv[0].ID))
	require.NoError(t, w.Toggle(inv[1].ID))

	err := w.Toggle(inv[2].ID)

	assert.ErrorIs(t, err, domain.ErrSelectionLimit)
	assert.Equal(t, []uuid.UUID{inv[0].ID, inv[1].ID}, w.Selected)
}

func TestWizard_ToggleDeselects(t *testing.T) {
	w, inv := newWizard()

	require.NoError(t, w.Toggle(inv[0].ID))
	require.NoError(t, w.Toggle(inv[1].ID))
	require.NoError(t, w.Toggle(inv[0].ID))

	assert.Equal(t, []uuid.UUID{inv[1].ID}, w.Selected)
	assert.NoError(t, w.Toggle(inv[2].ID))
}

func TestWizard_ToggleUnknownCandidate(t *testing.T) {
	w, _ := newWizard()

	assert.ErrorIs(t, w.Toggle(uuid.New()), domain.ErrCandidateNotFound)
}

func TestWizard_SingleSelectionSkipsToConfirm(t *testing.T) {
	w, inv := newWizard()
	require.NoError(t, w.Toggle(inv[2].ID))

	require.NoError(t, w.ChooseSingle())

	assert.Equal(t, duplicate.StepConfirm, w.Step)
	require.NotNil(t, w.Kept)
	assert.Equal(t, inv[2].ID, *w.Kept)

	require.NoError(t, w.Back())
	assert.Equal(t, duplicate.StepSelect, w.Step)
	assert.Nil(t, w.Kept)
}

func TestWizard_CompareDefaultsToNewest(t *testing.T) {
	w, inv := newWizard()
	require.NoError(t, w.Toggle(inv[0].ID))
	require.NoError(t, w.Toggle(inv[1].ID))

	require.NoError(t, w.Compare())

	assert.Equal(t, duplicate.StepCompare, w.Step)
	require.NotNil(t, w.Kept)
	assert.Equal(t, inv[1].ID, *w.Kept)
}

func TestWizard_CompareRequiresTwo(t *testing.T) {
	w, inv := newWizard()
	require.NoError(t, w.Toggle(inv[0].ID))

	assert.ErrorIs(t, w.Compare(), domain.ErrInvalidWizardStep)
	assert.ErrorIs(t, w.Back(), domain.ErrInvalidWizardStep)
}

func TestWizard_FullFlowWithBackNavigation(t *testing.T) {
	w, inv := newWizard()
	require.NoError(t, w.Toggle(inv[0].ID))
	require.NoError(t, w.Toggle(inv[1].ID))
	require.NoError(t, w.Compare())
	require.NoError(t, w.Keep(inv[0].ID))
	assert.Equal(t, duplicate.StepConfirm, w.Step)

	require.NoError(t, w.Back())
	assert.Equal(t, duplicate.StepCompare, w.Step)
	require.NoError(t, w.Keep(uuid.Nil))

	_, err := w.Confirm(false)
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)

	d, err := w.Confirm(true)
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionMarkResolved, d.Action)
	assert.Equal(t, inv[0].ID, d.KeepID)
	assert.Equal(t, []uuid.UUID{inv[1].ID}, d.DiscardIDs)
	assert.Equal(t, w.ExceptionID, d.ExceptionID)
}

func TestWizard_KeepRejectsUnselected(t *testing.T) {
	w, inv := newWizard()
	require.NoError(t, w.Toggle(inv[0].ID))
	require.NoError(t, w.Toggle(inv[1].ID))
	require.NoError(t, w.Compare())

	assert.ErrorIs(t, w.Keep(inv[2].ID), domain.ErrCandidateNotFound)
	assert.Equal(t, duplicate.StepCompare, w.Step)
}

func TestCompareFields_FlagsDifferences(t *testing.T) {
	_, inv := newWizard()
	inv[1].Total = decimal.NewFromFloat(120.5)

	diffs := duplicate.CompareFields(inv[:2])

	byField := map[string]duplicate.FieldDiff{}
	for _, d := range diffs {
		byField[d.Field] = d
	}
	assert.False(t, byField["number"].Different)
	assert.True(t, byField["total"].Different)
	assert.Equal(t, []string{"100.00", "120.50"}, byField["total"].Values)
	assert.True(t, byField["creation_date"].Different)
}

func TestNewest_TieGoesToFirst(t *testing.T) {
	ts := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	a := newInvoice("A", ts)
	b := newInvoice("B", ts)

	assert.Equal(t, a.ID, duplicate.Newest([]domain.Invoice{a, b}))
	assert.Equal(t, uuid.Nil, duplicate.Newest(nil))
}
