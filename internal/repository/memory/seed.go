package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payops/internal/domain"
	"payops/internal/port"
)

// Dataset is the demo data loaded into the in-memory store.
type Dataset struct {
	Connections   []domain.SmartConnection
	Invoices      []domain.Invoice
	PortalRecords []domain.PortalRecord
	PortalUsers   []domain.PortalUser
}

// DemoDataset builds a small, self-consistent dataset relative to now: one invoice per
// exception branch, a duplicate pair, portal records in every match state and a mix of
// portal credentials.
func DemoDataset(now time.Time) Dataset {
	now = now.UTC().Truncate(time.Second)
	day := 24 * time.Hour

	coupa := domain.SmartConnection{ID: uuid.New(), Buyer: "Globex Corp", Supplier: "Acme Ltd", Portal: "Coupa", Active: true}
	ariba := domain.SmartConnection{ID: uuid.New(), Buyer: "Initech", Supplier: "Acme Ltd", Portal: "Ariba", Active: true}
	tungsten := domain.SmartConnection{ID: uuid.New(), Buyer: "Umbrella plc", Supplier: "Acme Ltd", Portal: "Tungsten", Active: false}

	mk := func(number, buyer string, sc domain.SmartConnection, total string, age time.Duration, exceptions ...domain.Exception) domain.Invoice {
		due := now.Add(-age).Add(30 * day)
		scID := sc.ID
		inv := domain.Invoice{
			ID:                uuid.New(),
			Number:            number,
			Buyer:             buyer,
			Supplier:          sc.Supplier,
			Total:             decimal.RequireFromString(total),
			Currency:          "USD",
			Status:            domain.InvoiceStatusPending,
			CreationDate:      now.Add(-age),
			DueDate:           &due,
			PONumber:          "PO-" + number[len(number)-4:],
			SmartConnectionID: &scID,
			Exceptions:        exceptions,
			UpdatedAt:         now.Add(-age),
		}
		if len(exceptions) > 0 {
			inv.Status = domain.InvoiceStatusException
		}
		inv.RecomputeHasExceptions()
		return inv
	}
	ex := func(t domain.ExceptionType, msg string, missing ...string) domain.Exception {
		return domain.Exception{ID: uuid.New(), Type: t, Message: msg, MissingFields: missing}
	}

	invoices := []domain.Invoice{
		mk("INV-2024-1001", coupa.Buyer, coupa, "1250.00", 12*day,
			ex(domain.ExceptionDuplicateInvoice, "Invoice number already submitted to portal"),
			ex(domain.ExceptionValidationError, "Tax total does not match line items")),
		mk("INV-2024-1001", coupa.Buyer, coupa, "1250.00", 3*day),
		mk("INV-2024-1002", coupa.Buyer, coupa, "880.40", 10*day,
			ex(domain.ExceptionExtraData, "Portal requires a cost center")),
		mk("INV-2024-1003", ariba.Buyer, ariba, "15400.00", 9*day,
			ex(domain.ExceptionValidationError, "Billing currency not accepted by buyer")),
		mk("INV-2024-1004", ariba.Buyer, ariba, "7200.00", 8*day,
			ex(domain.ExceptionPOClosed, "Purchase order is closed")),
		mk("INV-2024-1005", ariba.Buyer, ariba, "99000.00", 7*day,
			ex(domain.ExceptionPOInsufficientFunds, "Purchase order balance is lower than invoice total")),
		mk("INV-2024-1006", coupa.Buyer, coupa, "430.00", 6*day,
			ex(domain.ExceptionMissingInformation, "PO line items could not be matched", domain.MissingFieldPOLineItems)),
		mk("INV-2024-1007", tungsten.Buyer, tungsten, "2310.75", 5*day,
			ex(domain.ExceptionMissingInformation, "Required fields missing from the PDF", "poNumber", "dueDate")),
		mk("INV-2024-1008", tungsten.Buyer, tungsten, "640.00", 2*day),
	}
	invoices[1].Status = domain.InvoiceStatusSubmitted

	linked := func(inv *domain.Invoice, mt domain.MatchType, status string, synced time.Duration) domain.PortalRecord {
		invID := inv.ID
		return domain.PortalRecord{
			ID:                uuid.New(),
			Portal:            portalOf(inv, coupa, ariba, tungsten),
			InvoiceID:         &invID,
			InvoiceNumber:     inv.Number,
			Buyer:             inv.Buyer,
			Total:             inv.Total,
			Currency:          inv.Currency,
			PortalStatus:      status,
			MatchType:         mt,
			SmartConnectionID: inv.SmartConnectionID,
			LastSyncedAt:      now.Add(-synced),
		}
	}
	records := []domain.PortalRecord{
		linked(&invoices[1], domain.MatchPrimary, "Submitted", time.Hour),
		linked(&invoices[1], domain.MatchAlternate, "Draft", 5*time.Hour),
		linked(&invoices[3], domain.MatchPrimary, "Pending Approval", 2*time.Hour),
		linked(&invoices[4], domain.MatchConflict, "Rejected", 3*time.Hour),
		linked(&invoices[8], domain.MatchPrimary, "Paid", 30*time.Minute),
		{
			ID:            uuid.New(),
			Portal:        "Coupa",
			InvoiceNumber: "INV-2023-0999",
			Buyer:         coupa.Buyer,
			Total:         decimal.RequireFromString("310.00"),
			Currency:      "USD",
			PortalStatus:  "Approved",
			MatchType:     domain.MatchUnmatched,
			LastSyncedAt:  now.Add(-4 * time.Hour),
		},
	}

	validated := now.Add(-6 * time.Hour)
	users := []domain.PortalUser{
		{
			ID:                uuid.New(),
			Portal:            "Coupa",
			PortalURL:         "https://supplier.coupahost.com",
			Username:          "ap@acme.example",
			UserType:          domain.PortalUserExternal,
			Status:            domain.PortalUserConnected,
			TwoFactor:         domain.TwoFactorSettings{Method: domain.TwoFactorEmail, Email: "ap@acme.example"},
			LinkedConnections: 1,
			LastValidatedAt:   &validated,
			CreatedAt:         now.Add(-60 * day),
			UpdatedAt:         validated,
		},
		{
			ID:                uuid.New(),
			Portal:            "Ariba",
			PortalURL:         "https://service.ariba.com",
			Username:          "billing@acme.example",
			UserType:          domain.PortalUserExternal,
			Status:            domain.PortalUserDisconnected,
			Issue:             "Password expired",
			TwoFactor:         domain.TwoFactorSettings{Method: domain.TwoFactorPhone, Phone: "+14155550123"},
			LinkedConnections: 1,
			LastValidatedAt:   &validated,
			CreatedAt:         now.Add(-45 * day),
			UpdatedAt:         validated,
		},
		{
			ID:                uuid.New(),
			Portal:            "Tungsten",
			PortalURL:         "https://portal.tungsten-network.com",
			Username:          "svc-acme",
			UserType:          domain.PortalUserMonto,
			Status:            domain.PortalUserConnected,
			TwoFactor:         domain.TwoFactorSettings{Method: domain.TwoFactorNone},
			LinkedConnections: 1,
			LastValidatedAt:   &validated,
			CreatedAt:         now.Add(-90 * day),
			UpdatedAt:         validated,
		},
	}

	return Dataset{
		Connections:   []domain.SmartConnection{coupa, ariba, tungsten},
		Invoices:      invoices,
		PortalRecords: records,
		PortalUsers:   users,
	}
}

func portalOf(inv *domain.Invoice, connections ...domain.SmartConnection) string {
	for _, sc := range connections {
		if inv.SmartConnectionID != nil && sc.ID == *inv.SmartConnectionID {
			return sc.Portal
		}
	}
	return ""
}

// Load writes the dataset's invoices into the given repository. Portal records, users and
// connections are handed to the repository constructors instead.
func (d Dataset) Load(ctx context.Context, invoices port.InvoiceRepository) error {
	for i := range d.Invoices {
		if err := invoices.Create(ctx, &d.Invoices[i]); err != nil {
			return fmt.Errorf("seeding invoice %s: %w", d.Invoices[i].Number, err)
		}
	}
	return nil
}
