package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"payops/internal/config"
	"payops/internal/csvexport"
	"payops/internal/domain"
	"payops/internal/paymentreport"
	"payops/internal/service"
	"payops/mocks"
)

const reportCSV = `Invoice Number,Issue Date,Due Date,Billing Currency,Receivable,Payable,Total Amount,PO Number
INV-1,2024-01-01,2024-02-01,usd,Acme Ltd,Globex Corp,"1,250.00",PO-1
INV-2,2024-01-02,2024-02-02,USD,Acme Ltd,Globex Corp,300,
,2024-01-03,2024-02-03,USD,Acme Ltd,Globex Corp,10,PO-3
`

func testImportConfig() config.ImportConfig {
	return config.ImportConfig{MaxFileSizeMB: 1, MaxRows: 100, KeepRawFiles: true}
}

func newPaymentReportService(f *fixture) service.PaymentReportService {
	return service.NewPaymentReportService(f.payments, f.sessions, f.storage, f.notifier,
		testImportConfig(), f.s3.Bucket, time.Minute, testLog)
}

func TestPaymentReportService_Wizard(t *testing.T) {
	f := newFixture(t)
	svc := newPaymentReportService(f)
	ctx := context.Background()

	view, err := svc.Upload(ctx, service.ReportUploadInput{File: strings.NewReader(reportCSV), FileName: "march.csv"})
	require.NoError(t, err)
	assert.Equal(t, service.ImportStepMap, view.Step)
	assert.Equal(t, 3, view.RowCount)
	assert.Equal(t, "Invoice Number", view.Suggested[paymentreport.FieldInvoiceNumber])
	assert.Len(t, view.Fields, len(paymentreport.PaymentReportFields))

	_, err = svc.Import(ctx, view.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidWizardStep)

	_, err = svc.SetMappings(ctx, view.ID, paymentreport.FieldMappings{paymentreport.FieldInvoiceNumber: "Invoice Number"})
	assert.ErrorIs(t, err, domain.ErrMissingRequiredMapping)

	view, err = svc.SetMappings(ctx, view.ID, view.Suggested)
	require.NoError(t, err)
	assert.Equal(t, service.ImportStepReview, view.Step)
	require.NotNil(t, view.Summary)
	assert.Equal(t, paymentreport.Summary{Total: 3, Valid: 1, Warnings: 1, Errors: 1, Importable: 2}, *view.Summary)

	errs, total, err := svc.Review(ctx, view.ID, service.ReviewFilter{Status: domain.RecordError})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 4, errs[0].Row)

	var buf bytes.Buffer
	name, err := svc.WriteErrorReport(ctx, view.ID, &buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "march_errors_"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), csvexport.BOM))
	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(csvexport.BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header plus the error and warning rows")

	result, err := svc.Import(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)

	saved, err := f.payments.ListByImport(ctx, result.ImportID)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "1250", saved[0].TotalAmount.String())
	assert.Equal(t, "USD", saved[0].BillingCurrency)
	assert.True(t, saved[1].HasWarnings)
	assert.Equal(t, domain.NotificationSuccess, f.sentNotification(t).Variant)

	_, err = svc.Import(ctx, view.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidWizardStep)
}

func TestPaymentReportService_UploadRejects(t *testing.T) {
	f := newFixture(t)
	svc := newPaymentReportService(f)
	ctx := context.Background()

	_, err := svc.Upload(ctx, service.ReportUploadInput{File: strings.NewReader("a,b"), FileName: "report.pdf"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = svc.Upload(ctx, service.ReportUploadInput{File: strings.NewReader("Invoice Number\n"), FileName: "empty.csv"})
	assert.ErrorIs(t, err, domain.ErrEmptyReport)

	big := strings.Repeat("x", 1024*1024+1)
	_, err = svc.Upload(ctx, service.ReportUploadInput{File: strings.NewReader(big), FileName: "big.csv"})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestPaymentReportService_NothingToImport(t *testing.T) {
	f := newFixture(t)
	svc := newPaymentReportService(f)
	ctx := context.Background()
	onlyErrors := "Invoice Number,Issue Date,Due Date,Billing Currency,Receivable,Payable,Total Amount\n,2024-01-01,,,,,\n"

	view, err := svc.Upload(ctx, service.ReportUploadInput{File: strings.NewReader(onlyErrors), FileName: "bad.csv"})
	require.NoError(t, err)
	view, err = svc.SetMappings(ctx, view.ID, view.Suggested)
	require.NoError(t, err)

	_, err = svc.Import(ctx, view.ID)
	assert.ErrorIs(t, err, domain.ErrNothingToImport)
}

func TestPaymentReportService_SaveFailureNotifies(t *testing.T) {
	f := newFixture(t)
	repo := new(mocks.MockPaymentRecordRepo)
	repo.On("CreateBatch", mock.Anything, mock.Anything).Return(errors.New("db down"))
	svc := service.NewPaymentReportService(repo, f.sessions, nil, f.notifier,
		config.ImportConfig{MaxFileSizeMB: 1}, "", time.Minute, testLog)
	ctx := context.Background()

	view, err := svc.Upload(ctx, service.ReportUploadInput{File: strings.NewReader(reportCSV), FileName: "march.csv"})
	require.NoError(t, err)
	_, err = svc.SetMappings(ctx, view.ID, view.Suggested)
	require.NoError(t, err)

	_, err = svc.Import(ctx, view.ID)
	assert.Error(t, err)
	assert.Equal(t, domain.NotificationDestructive, f.sentNotification(t).Variant)

	require.NoError(t, svc.Cancel(ctx, view.ID))
	_, err = svc.Get(ctx, view.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
