package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payops/internal/domain"
	"payops/internal/port"
	"payops/internal/repository/memory"
)

func TestInvoiceRepo_ReadsAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInvoiceRepo()
	inv := &domain.Invoice{
		Number:     "INV-1",
		Exceptions: []domain.Exception{{ID: uuid.New(), Type: domain.ExceptionExtraData}},
		Fields:     map[string]string{"a": "1"},
	}
	require.NoError(t, repo.Create(ctx, inv))
	require.NotEqual(t, uuid.Nil, inv.ID)

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	got.Exceptions[0].Resolved = true
	got.Fields["a"] = "2"

	again, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.False(t, again.Exceptions[0].Resolved)
	assert.Equal(t, "1", again.Fields["a"])

	assert.ErrorIs(t, repo.Create(ctx, inv), domain.ErrAlreadyExists)
	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}

func TestInvoiceRepo_ListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInvoiceRepo()
	ds := memory.DemoDataset(time.Now())
	require.NoError(t, ds.Load(ctx, repo))

	status := domain.InvoiceStatusException
	all, total, err := repo.List(ctx, port.InvoiceFilter{Status: &status}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Len(t, all, 7)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreationDate.After(all[i-1].CreationDate))
	}

	page, total, err := repo.List(ctx, port.InvoiceFilter{}, 8, 5)
	require.NoError(t, err)
	assert.Equal(t, len(ds.Invoices), total)
	assert.Len(t, page, 1)

	dupes, err := repo.FindByNumber(ctx, "inv-2024-1001")
	require.NoError(t, err)
	assert.Len(t, dupes, 2)
}

func TestPortalRecordRepo_SaveAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	ds := memory.DemoDataset(time.Now())
	repo := memory.NewPortalRecordRepo(ds.PortalRecords...)

	rec := ds.PortalRecords[0]
	rec.MatchType = domain.MatchAlternate
	unknown := domain.PortalRecord{ID: uuid.New()}

	err := repo.SaveAll(ctx, []domain.PortalRecord{rec, unknown})
	assert.ErrorIs(t, err, domain.ErrPortalRecordNotFound)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchPrimary, got.MatchType)

	group, err := repo.ListByInvoice(ctx, *rec.InvoiceID)
	require.NoError(t, err)
	assert.Len(t, group, 2)

	unmatched, total, err := repo.List(ctx, port.PortalRecordFilter{MatchType: domain.MatchUnmatched}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Nil(t, unmatched[0].InvoiceID)
}

func TestPortalUserRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewPortalUserRepo()
	u := &domain.PortalUser{Portal: "Coupa", Username: "ap@acme.example"}

	require.NoError(t, repo.Create(ctx, u))
	assert.ErrorIs(t, repo.Create(ctx, &domain.PortalUser{Portal: "coupa", Username: "AP@acme.example"}), domain.ErrAlreadyExists)

	u.Status = domain.PortalUserConnected
	require.NoError(t, repo.Update(ctx, u))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PortalUserConnected, got.Status)

	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), domain.ErrPortalUserNotFound)
}

func TestNoteRepo_FiltersKinds(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewNoteRepo()
	invoiceID := uuid.New()
	now := time.Now()

	note := &domain.Note{InvoiceID: invoiceID, Kind: domain.ActivityNote, Body: "called buyer", CreatedAt: now}
	require.NoError(t, repo.Create(ctx, note))
	require.NoError(t, repo.Create(ctx, &domain.Note{InvoiceID: invoiceID, Kind: domain.ActivityResolution, CreatedAt: now.Add(time.Second)}))
	require.NoError(t, repo.AddAttachment(ctx, &domain.Attachment{NoteID: note.ID, FileName: "a.pdf", CreatedAt: now}))

	all, err := repo.ListByInvoice(ctx, invoiceID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Len(t, all[0].Attachments, 1)

	notes, err := repo.ListByInvoice(ctx, invoiceID, []domain.ActivityKind{domain.ActivityNote})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "called buyer", notes[0].Body)

	assert.ErrorIs(t, repo.AddAttachment(ctx, &domain.Attachment{NoteID: uuid.New()}), domain.ErrNotFound)
}

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := memory.NewSessionStore()
	id := uuid.New()

	require.NoError(t, s.Save(ctx, "wizard", id, map[string]int{"step": 2}, time.Minute))
	var got map[string]int
	require.NoError(t, s.Load(ctx, "wizard", id, &got))
	assert.Equal(t, 2, got["step"])

	assert.ErrorIs(t, s.Load(ctx, "other", id, &got), domain.ErrSessionNotFound)

	require.NoError(t, s.Save(ctx, "wizard", id, got, -time.Second))
	assert.ErrorIs(t, s.Load(ctx, "wizard", id, &got), domain.ErrSessionNotFound)

	require.NoError(t, s.Save(ctx, "wizard", id, got, -time.Second))
	assert.Equal(t, 1, s.Sweep())
}

func TestDuplicateFinder_SameNumberAndBuyer(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInvoiceRepo()
	ds := memory.DemoDataset(time.Now())
	require.NoError(t, ds.Load(ctx, repo))

	other := ds.Invoices[0]
	other.ID = uuid.Nil
	other.Buyer = "Someone Else"
	require.NoError(t, repo.Create(ctx, &other))

	finder := memory.NewDuplicateFinder(repo)
	dupes, err := finder.FindDuplicates(ctx, &ds.Invoices[0])
	require.NoError(t, err)
	require.Len(t, dupes, 1)
	assert.Equal(t, ds.Invoices[1].ID, dupes[0].ID)

	none, err := finder.FindDuplicates(ctx, &ds.Invoices[2])
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPortalRecordRepo_SaveAllKeepsOnePrimary(t *testing.T) {
	ctx := context.Background()
	ds := memory.DemoDataset(time.Now())
	repo := memory.NewPortalRecordRepo(ds.PortalRecords...)

	primary := ds.PortalRecords[0]
	group, err := repo.ListByInvoice(ctx, *primary.InvoiceID)
	require.NoError(t, err)
	var alternate domain.PortalRecord
	for _, rec := range group {
		if rec.ID != primary.ID {
			alternate = rec
		}
	}
	require.Equal(t, domain.MatchAlternate, alternate.MatchType)

	// A promotion computed from a stale read leaves the current Primary in place.
	alternate.MatchType = domain.MatchPrimary
	err = repo.SaveAll(ctx, []domain.PortalRecord{alternate})
	assert.ErrorIs(t, err, domain.ErrPrimaryConflict)

	got, err := repo.GetByID(ctx, alternate.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchAlternate, got.MatchType)

	primary.MatchType = domain.MatchAlternate
	require.NoError(t, repo.SaveAll(ctx, []domain.PortalRecord{primary, alternate}))
}
