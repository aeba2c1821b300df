// Package portal holds the state transitions for buyer-portal records and the rules for
// portal credentials.
package portal

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"payops/internal/domain"
)

// MakePrimary promotes the record with id to Primary within its invoice group. Any other
// Primary of the group is demoted to Alternate, so exactly one Primary remains. Records of
// other invoices in the input are ignored. It returns the records that changed.
func MakePrimary(records []domain.PortalRecord, id uuid.UUID) ([]domain.PortalRecord, error) {
	target := find(records, id)
	if target == nil {
		return nil, domain.ErrPortalRecordNotFound
	}
	if target.InvoiceID == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotLinked, id)
	}
	invoiceID := *target.InvoiceID

	var changed []domain.PortalRecord
	for i := range records {
		r := records[i]
		if r.InvoiceID == nil || *r.InvoiceID != invoiceID {
			continue
		}
		switch {
		case r.ID == id && r.MatchType != domain.MatchPrimary:
			r.MatchType = domain.MatchPrimary
		case r.ID != id && r.MatchType == domain.MatchPrimary:
			r.MatchType = domain.MatchAlternate
		default:
			continue
		}
		changed = append(changed, r)
	}
	return changed, nil
}

// Link attaches rec to inv. It becomes Primary when the invoice group has none yet,
// otherwise Alternate. group holds the records already linked to inv.
func Link(group []domain.PortalRecord, rec domain.PortalRecord, inv *domain.Invoice) domain.PortalRecord {
	invoiceID := inv.ID
	rec.InvoiceID = &invoiceID
	rec.InvoiceNumber = inv.Number
	rec.MatchType = domain.MatchPrimary
	for i := range group {
		if group[i].ID != rec.ID && group[i].MatchType == domain.MatchPrimary {
			rec.MatchType = domain.MatchAlternate
			break
		}
	}
	return rec
}

// Unlink detaches the record with id from its invoice and marks it Unmatched. When the
// record was the group's Primary, the most recently synced Alternate takes its place. It
// returns the records that changed.
func Unlink(group []domain.PortalRecord, id uuid.UUID) ([]domain.PortalRecord, error) {
	target := find(group, id)
	if target == nil {
		return nil, domain.ErrPortalRecordNotFound
	}
	if target.InvoiceID == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotLinked, id)
	}

	unlinked := *target
	wasPrimary := unlinked.MatchType == domain.MatchPrimary
	unlinked.InvoiceID = nil
	unlinked.MatchType = domain.MatchUnmatched
	changed := []domain.PortalRecord{unlinked}

	if !wasPrimary {
		return changed, nil
	}

	var alternates []domain.PortalRecord
	for i := range group {
		r := group[i]
		if r.ID == id || r.InvoiceID == nil || *r.InvoiceID != *target.InvoiceID {
			continue
		}
		if r.MatchType == domain.MatchAlternate {
			alternates = append(alternates, r)
		}
	}
	if len(alternates) == 0 {
		return changed, nil
	}
	sort.SliceStable(alternates, func(a, b int) bool {
		return alternates[a].LastSyncedAt.After(alternates[b].LastSyncedAt)
	})
	promoted := alternates[0]
	promoted.MatchType = domain.MatchPrimary
	return append(changed, promoted), nil
}

// PrimaryCount returns the number of Primary records per invoice.
func PrimaryCount(records []domain.PortalRecord) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for i := range records {
		if records[i].InvoiceID != nil && records[i].MatchType == domain.MatchPrimary {
			counts[*records[i].InvoiceID]++
		}
	}
	return counts
}

func find(records []domain.PortalRecord, id uuid.UUID) *domain.PortalRecord {
	for i := range records {
		if records[i].ID == id {
			return &records[i]
		}
	}
	return nil
}
