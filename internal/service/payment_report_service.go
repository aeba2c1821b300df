package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"payops/internal/config"
	"payops/internal/csvexport"
	"payops/internal/domain"
	"payops/internal/paymentreport"
	"payops/internal/port"
)

const importProgressStep = 100

// ImportStep is a state of the payment report import wizard.
type ImportStep string

const (
	ImportStepUpload  ImportStep = "upload"
	ImportStepMap     ImportStep = "map"
	ImportStepReview  ImportStep = "review"
	ImportStepSummary ImportStep = "summary"
)

// ImportResult is the outcome of a finished import.
type ImportResult struct {
	ImportID uuid.UUID `json:"import_id"`
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
	// Failed lists rows that passed validation but could not be converted.
	Failed []string `json:"failed,omitempty"`
}

// ImportSession is the server-side state of one payment report import.
type ImportSession struct {
	ID        uuid.UUID                       `json:"id"`
	FileName  string                          `json:"file_name"`
	Format    domain.ReportFormat             `json:"format"`
	Step      ImportStep                      `json:"step"`
	Headers   []string                        `json:"headers"`
	Rows      []paymentreport.Row             `json:"rows,omitempty"`
	Suggested paymentreport.FieldMappings     `json:"suggested"`
	Mappings  paymentreport.FieldMappings     `json:"mappings,omitempty"`
	Records   []domain.ValidatedPaymentRecord `json:"records,omitempty"`
	Summary   *paymentreport.Summary          `json:"summary,omitempty"`
	Result    *ImportResult                   `json:"result,omitempty"`
	RawKey    string                          `json:"raw_key,omitempty"`
	CreatedAt time.Time                       `json:"created_at"`
}

// ImportSessionView is what the client sees of a session; raw rows and records stay server-side.
type ImportSessionView struct {
	ID        uuid.UUID                   `json:"id"`
	FileName  string                      `json:"file_name"`
	Format    domain.ReportFormat         `json:"format"`
	Step      ImportStep                  `json:"step"`
	Headers   []string                    `json:"headers"`
	RowCount  int                         `json:"row_count"`
	Fields    []paymentreport.Field       `json:"fields"`
	Suggested paymentreport.FieldMappings `json:"suggested"`
	Mappings  paymentreport.FieldMappings `json:"mappings,omitempty"`
	Summary   *paymentreport.Summary      `json:"summary,omitempty"`
	Result    *ImportResult               `json:"result,omitempty"`
}

// ReportUploadInput carries an uploaded payment report.
type ReportUploadInput struct {
	File     io.Reader
	FileName string
}

// ReviewFilter narrows the review listing. An empty Status returns every record.
type ReviewFilter struct {
	Status domain.RecordStatus
	Offset int
	Limit  int
}

// PaymentReportService drives the payment report import wizard:
// upload → map fields → review → summary.
type PaymentReportService interface {
	Upload(ctx context.Context, input ReportUploadInput) (*ImportSessionView, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*ImportSessionView, error)
	SetMappings(ctx context.Context, sessionID uuid.UUID, mappings paymentreport.FieldMappings) (*ImportSessionView, error)
	Review(ctx context.Context, sessionID uuid.UUID, filter ReviewFilter) ([]domain.ValidatedPaymentRecord, int, error)
	WriteErrorReport(ctx context.Context, sessionID uuid.UUID, w io.Writer) (string, error)
	Import(ctx context.Context, sessionID uuid.UUID) (*ImportResult, error)
	Cancel(ctx context.Context, sessionID uuid.UUID) error
}

type paymentReportService struct {
	records  port.PaymentRecordRepository
	sessions port.SessionStore
	storage  port.ObjectStorage
	bucket   string
	cfg      config.ImportConfig
	ttl      time.Duration
	effects  sideEffects
	log      logrus.FieldLogger
}

// NewPaymentReportService creates a new PaymentReportService implementation. storage may be
// nil when raw files are not kept.
func NewPaymentReportService(
	records port.PaymentRecordRepository,
	sessions port.SessionStore,
	storage port.ObjectStorage,
	notifier port.Notifier,
	importCfg config.ImportConfig,
	bucket string,
	ttl time.Duration,
	log logrus.FieldLogger,
) PaymentReportService {
	log = log.WithField("component", "paymentReportService")
	return &paymentReportService{
		records:  records,
		sessions: sessions,
		storage:  storage,
		bucket:   bucket,
		cfg:      importCfg,
		ttl:      ttl,
		effects:  sideEffects{notifier: notifier, log: log},
		log:      log,
	}
}

func (s *paymentReportService) Upload(ctx context.Context, input ReportUploadInput) (*ImportSessionView, error) {
	format, err := paymentreport.DetectFormat(input.FileName)
	if err != nil {
		return nil, err
	}
	data, err := paymentreport.ReadAll(input.File, s.cfg.MaxFileSizeMB*1024*1024)
	if err != nil {
		return nil, err
	}

	sess := &ImportSession{
		ID:        uuid.New(),
		FileName:  input.FileName,
		Format:    format,
		Step:      ImportStepUpload,
		CreatedAt: time.Now().UTC(),
	}
	log := s.log.WithFields(logrus.Fields{"session_id": sess.ID, "file_name": input.FileName})

	sheet, err := paymentreport.Parse(data, format, paymentreport.ParseOptions{
		MaxRows:  s.cfg.MaxRows,
		Progress: progressLogger(log, "parse"),
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.KeepRawFiles && s.storage != nil {
		key := fmt.Sprintf("payment-reports/%s/%s", sess.ID, csvexport.SanitizeFilename(input.FileName)+"."+string(format))
		if _, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket: s.bucket,
			Key:    key,
			Body:   bytes.NewReader(data),
			Size:   int64(len(data)),
		}); err != nil {
			log.WithError(err).Warn("failed to keep raw report file")
		} else {
			sess.RawKey = key
		}
	}

	sess.Headers = sheet.Headers
	sess.Rows = sheet.Rows
	sess.Suggested = paymentreport.SuggestMappings(sheet.Headers)
	sess.Step = ImportStepMap
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"rows": len(sheet.Rows), "columns": len(sheet.Headers)}).Info("payment report uploaded")
	return sessionView(sess), nil
}

func (s *paymentReportService) Get(ctx context.Context, sessionID uuid.UUID) (*ImportSessionView, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sessionView(sess), nil
}

// SetMappings validates every row against mappings and moves the session to review. It is
// accepted again from review so the user can go back and remap.
func (s *paymentReportService) SetMappings(ctx context.Context, sessionID uuid.UUID, mappings paymentreport.FieldMappings) (*ImportSessionView, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Step != ImportStepMap && sess.Step != ImportStepReview {
		return nil, fmt.Errorf("%w: mappings in step %s", domain.ErrInvalidWizardStep, sess.Step)
	}
	if err := paymentreport.CheckMappings(mappings, sess.Headers); err != nil {
		return nil, err
	}

	log := s.log.WithField("session_id", sess.ID)
	sess.Mappings = mappings
	sess.Records = paymentreport.ValidateDataWithProgress(sess.Rows, mappings, progressLogger(log, "validate"))
	summary := paymentreport.Summarize(sess.Records)
	sess.Summary = &summary
	sess.Step = ImportStepReview
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"valid":    summary.Valid,
		"warnings": summary.Warnings,
		"errors":   summary.Errors,
	}).Info("payment report validated")
	return sessionView(sess), nil
}

func (s *paymentReportService) Review(ctx context.Context, sessionID uuid.UUID, filter ReviewFilter) ([]domain.ValidatedPaymentRecord, int, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if sess.Step != ImportStepReview && sess.Step != ImportStepSummary {
		return nil, 0, fmt.Errorf("%w: review in step %s", domain.ErrInvalidWizardStep, sess.Step)
	}
	records := sess.Records
	if filter.Status != "" {
		records = csvexport.FilterRecords(records, filter.Status)
	}
	return paginate(records, filter.Offset, filter.Limit), len(records), nil
}

// WriteErrorReport writes the rows with errors or warnings as CSV to w and returns the
// suggested download file name.
func (s *paymentReportService) WriteErrorReport(ctx context.Context, sessionID uuid.UUID, w io.Writer) (string, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if sess.Step != ImportStepReview && sess.Step != ImportStepSummary {
		return "", fmt.Errorf("%w: error report in step %s", domain.ErrInvalidWizardStep, sess.Step)
	}

	if _, err := w.Write(csvexport.BOM); err != nil {
		return "", fmt.Errorf("writing error report: %w", err)
	}
	cw := csvexport.NewWriter(w)
	if err := cw.WriteReportHeader(); err != nil {
		return "", fmt.Errorf("writing error report: %w", err)
	}
	flagged := csvexport.FilterRecords(sess.Records, domain.RecordError, domain.RecordWarning)
	if err := cw.WriteRecords(flagged); err != nil {
		return "", fmt.Errorf("writing error report: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("writing error report: %w", err)
	}
	return csvexport.BuildFilename(trimExt(sess.FileName)+"_errors", "csv", time.Now()), nil
}

// Import persists every non-error row. Error rows are skipped and counted; the session moves
// to summary and cannot be imported twice.
func (s *paymentReportService) Import(ctx context.Context, sessionID uuid.UUID) (*ImportResult, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Step != ImportStepReview {
		return nil, fmt.Errorf("%w: import in step %s", domain.ErrInvalidWizardStep, sess.Step)
	}

	importable := paymentreport.ImportableRows(sess.Records)
	if len(importable) == 0 {
		return nil, domain.ErrNothingToImport
	}

	result := &ImportResult{ImportID: uuid.New(), Skipped: len(sess.Records) - len(importable)}
	now := time.Now()
	progress := progressLogger(s.log.WithField("session_id", sess.ID), "import")
	batch := make([]domain.PaymentRecord, 0, len(importable))
	for i := range importable {
		rec, err := paymentreport.ToPaymentRecord(&importable[i], result.ImportID, now)
		if err != nil {
			result.Failed = append(result.Failed, err.Error())
			continue
		}
		batch = append(batch, rec)
		if (i+1)%importProgressStep == 0 || i+1 == len(importable) {
			progress(i+1, len(importable))
		}
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: %d row(s) could not be converted", domain.ErrNothingToImport, len(result.Failed))
	}
	if err := s.records.CreateBatch(ctx, batch); err != nil {
		s.effects.notify(ctx, domain.Notification{
			Title:       "Import failed",
			Description: fmt.Sprintf("%s could not be imported.", sess.FileName),
			Variant:     domain.NotificationDestructive,
		})
		return nil, fmt.Errorf("saving payment records: %w", err)
	}
	result.Imported = len(batch)

	sess.Result = result
	sess.Step = ImportStepSummary
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"import_id":  result.ImportID,
		"imported":   result.Imported,
		"skipped":    result.Skipped,
	}).Info("payment report imported")
	s.effects.notify(ctx, domain.Notification{
		Title:       "Import complete",
		Description: fmt.Sprintf("%d record(s) imported, %d skipped.", result.Imported, result.Skipped+len(result.Failed)),
		Variant:     domain.NotificationSuccess,
	})
	return result, nil
}

func (s *paymentReportService) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.RawKey != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, s.bucket, sess.RawKey); err != nil {
			s.log.WithError(err).WithField("key", sess.RawKey).Warn("failed to delete raw report file")
		}
	}
	return s.sessions.Delete(ctx, sessionImport, sessionID)
}

func (s *paymentReportService) load(ctx context.Context, id uuid.UUID) (*ImportSession, error) {
	var sess ImportSession
	if err := s.sessions.Load(ctx, sessionImport, id, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *paymentReportService) save(ctx context.Context, sess *ImportSession) error {
	if err := s.sessions.Save(ctx, sessionImport, sess.ID, sess, s.ttl); err != nil {
		return fmt.Errorf("saving import session: %w", err)
	}
	return nil
}

func sessionView(sess *ImportSession) *ImportSessionView {
	return &ImportSessionView{
		ID:        sess.ID,
		FileName:  sess.FileName,
		Format:    sess.Format,
		Step:      sess.Step,
		Headers:   sess.Headers,
		RowCount:  len(sess.Rows),
		Fields:    paymentreport.PaymentReportFields,
		Suggested: sess.Suggested,
		Mappings:  sess.Mappings,
		Summary:   sess.Summary,
		Result:    sess.Result,
	}
}

// progressLogger reports long-running parse/validate/import progress at debug level.
func progressLogger(log logrus.FieldLogger, stage string) paymentreport.ProgressFunc {
	return func(done, total int) {
		log.WithFields(logrus.Fields{"stage": stage, "done": done, "total": total}).Debug("payment report progress")
	}
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
