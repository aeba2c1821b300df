package portal_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payops/internal/domain"
	"payops/internal/portal"
)

func record(invoiceID *uuid.UUID, mt domain.MatchType) domain.PortalRecord {
	return domain.PortalRecord{ID: uuid.New(), InvoiceID: invoiceID, MatchType: mt, Portal: "Coupa"}
}

func apply(records []domain.PortalRecord, changed []domain.PortalRecord) []domain.PortalRecord {
	out := append([]domain.PortalRecord(nil), records...)
	for _, c := range changed {
		for i := range out {
			if out[i].ID == c.ID {
				out[i] = c
			}
		}
	}
	return out
}

func TestMakePrimary_LeavesExactlyOnePrimary(t *testing.T) {
	inv := uuid.New()
	other := uuid.New()
	records := []domain.PortalRecord{
		record(&inv, domain.MatchPrimary),
		record(&inv, domain.MatchAlternate),
		record(&inv, domain.MatchConflict),
		record(&other, domain.MatchPrimary),
	}

	changed, err := portal.MakePrimary(records, records[2].ID)

	require.NoError(t, err)
	assert.Len(t, changed, 2)
	after := apply(records, changed)
	assert.Equal(t, domain.MatchAlternate, after[0].MatchType)
	assert.Equal(t, domain.MatchAlternate, after[1].MatchType)
	assert.Equal(t, domain.MatchPrimary, after[2].MatchType)
	assert.Equal(t, domain.MatchPrimary, after[3].MatchType)
	assert.Equal(t, map[uuid.UUID]int{inv: 1, other: 1}, portal.PrimaryCount(after))
}

func TestMakePrimary_AlreadyPrimaryIsNoop(t *testing.T) {
	inv := uuid.New()
	records := []domain.PortalRecord{record(&inv, domain.MatchPrimary), record(&inv, domain.MatchAlternate)}

	changed, err := portal.MakePrimary(records, records[0].ID)

	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestMakePrimary_Errors(t *testing.T) {
	records := []domain.PortalRecord{record(nil, domain.MatchUnmatched)}

	_, err := portal.MakePrimary(records, uuid.New())
	assert.ErrorIs(t, err, domain.ErrPortalRecordNotFound)

	_, err = portal.MakePrimary(records, records[0].ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotLinked)
}

func TestLink(t *testing.T) {
	inv := &domain.Invoice{ID: uuid.New(), Number: "INV-42"}

	first := portal.Link(nil, record(nil, domain.MatchUnmatched), inv)
	assert.Equal(t, domain.MatchPrimary, first.MatchType)
	require.NotNil(t, first.InvoiceID)
	assert.Equal(t, inv.ID, *first.InvoiceID)
	assert.Equal(t, "INV-42", first.InvoiceNumber)

	second := portal.Link([]domain.PortalRecord{first}, record(nil, domain.MatchUnmatched), inv)
	assert.Equal(t, domain.MatchAlternate, second.MatchType)
}

func TestUnlink_PromotesNewestAlternate(t *testing.T) {
	inv := uuid.New()
	now := time.Now()
	primary := record(&inv, domain.MatchPrimary)
	older := record(&inv, domain.MatchAlternate)
	older.LastSyncedAt = now.Add(-time.Hour)
	newer := record(&inv, domain.MatchAlternate)
	newer.LastSyncedAt = now
	group := []domain.PortalRecord{primary, older, newer}

	changed, err := portal.Unlink(group, primary.ID)

	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Nil(t, changed[0].InvoiceID)
	assert.Equal(t, domain.MatchUnmatched, changed[0].MatchType)
	assert.Equal(t, newer.ID, changed[1].ID)
	assert.Equal(t, domain.MatchPrimary, changed[1].MatchType)
	assert.Equal(t, map[uuid.UUID]int{inv: 1}, portal.PrimaryCount(apply(group, changed)))
}

func TestUnlink_AlternateDoesNotTouchPrimary(t *testing.T) {
	inv := uuid.New()
	group := []domain.PortalRecord{record(&inv, domain.MatchPrimary), record(&inv, domain.MatchAlternate)}

	changed, err := portal.Unlink(group, group[1].ID)

	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, group[1].ID, changed[0].ID)
}
