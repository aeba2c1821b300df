package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"payops/internal/config"
	"payops/internal/domain"
	"payops/internal/logger"
	"payops/internal/port"
	"payops/internal/repository/memory"
	memstorage "payops/internal/storage/memory"
	"payops/mocks"
)

// fixture wires services against the in-memory repositories loaded with the demo dataset.
type fixture struct {
	ds          memory.Dataset
	invoices    port.InvoiceRepository
	duplicates  port.DuplicateInvoiceFinder
	notes       port.NoteRepository
	records     port.PortalRecordRepository
	users       port.PortalUserRepository
	connections port.SmartConnectionRepository
	payments    port.PaymentRecordRepository
	sessions    *memory.SessionStore
	storage     *memstorage.Storage
	notifier    *mocks.MockNotifier
	s3          config.S3Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ds := memory.DemoDataset(time.Now())
	invoices := memory.NewInvoiceRepo()
	require.NoError(t, ds.Load(context.Background(), invoices))

	notifier := new(mocks.MockNotifier)
	notifier.On("Notify", mock.Anything, mock.AnythingOfType("domain.Notification")).Return(nil)

	return &fixture{
		ds:          ds,
		invoices:    invoices,
		duplicates:  memory.NewDuplicateFinder(invoices),
		notes:       memory.NewNoteRepo(),
		records:     memory.NewPortalRecordRepo(ds.PortalRecords...),
		users:       memory.NewPortalUserRepo(ds.PortalUsers...),
		connections: memory.NewSmartConnectionRepo(ds.Connections...),
		payments:    memory.NewPaymentRecordRepo(),
		sessions:    memory.NewSessionStore(),
		storage:     memstorage.NewStorage(),
		notifier:    notifier,
		s3: config.S3Config{
			Provider:      "memory",
			Bucket:        "test-bucket",
			MaxFileSizeMB: 1,
			PresignExpiry: 600,
		},
	}
}

// sentNotification returns the last notification delivered through the mock notifier.
func (f *fixture) sentNotification(t *testing.T) domain.Notification {
	t.Helper()
	require.NotEmpty(t, f.notifier.Calls)
	return f.notifier.Calls[len(f.notifier.Calls)-1].Arguments.Get(1).(domain.Notification)
}

func (f *fixture) activity(t *testing.T, inv *domain.Invoice) []domain.Note {
	t.Helper()
	notes, err := f.notes.ListByInvoice(context.Background(), inv.ID, nil)
	require.NoError(t, err)
	return notes
}

var testLog = logger.Discard()

// pdfContent returns minimal valid PDF bytes.
func pdfContent() []byte {
	return []byte("%PDF-1.4 test content that is at least a few bytes long for detection purposes")
}
