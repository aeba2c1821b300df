package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"payops/internal/config"
	"payops/internal/domain"
	"payops/internal/handler"
	"payops/internal/logger"
	"payops/internal/middleware"
	"payops/internal/notify/noop"
	"payops/internal/notify/ses"
	"payops/internal/port"
	"payops/internal/portal"
	"payops/internal/repository/memory"
	"payops/internal/repository/postgres"
	"payops/internal/repository/redisstore"
	"payops/internal/router"
	"payops/internal/service"
	memstorage "payops/internal/storage/memory"
	s3storage "payops/internal/storage/s3"
)

// @title PayOps API
// @version 1.0
// @description Invoice exception resolution, duplicate review, payment report import and portal management.
// @BasePath /api/v1

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

// stores bundles the repositories for the configured backend.
type stores struct {
	invoices    port.InvoiceRepository
	duplicates  port.DuplicateInvoiceFinder
	notes       port.NoteRepository
	payments    port.PaymentRecordRepository
	records     port.PortalRecordRepository
	users       port.PortalUserRepository
	connections port.SmartConnectionRepository
	// issues seeds the static connectivity checker in demo mode.
	issues map[string]string
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(&cfg.Log)
	production := cfg.Server.Environment == "production"

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	readiness := map[string]handler.Pinger{}
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.WithError(err).Warn("error during shutdown")
			}
		}
	}()

	// Initialize repositories
	var st stores
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, db.Close)
		readiness["database"] = db
		st = stores{
			invoices:    postgres.NewInvoiceRepo(db),
			duplicates:  postgres.NewDuplicateFinderRepo(db),
			notes:       postgres.NewNoteRepo(db),
			payments:    postgres.NewPaymentRecordRepo(db),
			records:     postgres.NewPortalRecordRepo(db),
			users:       postgres.NewPortalUserRepo(db),
			connections: postgres.NewSmartConnectionRepo(db),
		}
	default:
		st, err = memoryStores(ctx, cfg.Store.SeedDemo)
		if err != nil {
			return err
		}
	}

	// Initialize storage
	var storage port.ObjectStorage
	if cfg.S3.Provider == "s3" {
		storage, err = s3storage.NewObjectStore(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		storage = memstorage.NewStorage()
	}

	// Initialize notifier
	var notifier port.Notifier
	if cfg.Notify.Provider == "ses" {
		notifier, err = ses.NewSESNotifier(&cfg.Notify)
		if err != nil {
			return fmt.Errorf("failed to initialize SES notifier: %w", err)
		}
	} else {
		notifier = noop.NewNoopNotifier(log.WithField("component", "notifier"))
	}

	// Initialize wizard sessions
	var (
		sessions    port.SessionStore
		sweeper     service.SessionSweeper
		redisClient *redis.Client
	)
	if cfg.Session.Store == "redis" {
		redisClient, err = redisstore.NewClient(&cfg.Redis)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		readiness["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		sessions = redisstore.NewSessionStore(redisClient, cfg.Redis.KeyPrefix)
	} else {
		mem := memory.NewSessionStore()
		sessions, sweeper = mem, mem
	}

	// Initialize connectivity checker
	var checker port.ConnectivityChecker
	if cfg.Portal.Checker == "http" {
		checker = portal.NewHTTPChecker(cfg.Portal.CheckTimeout)
	} else {
		checker = portal.NewStaticChecker(st.issues)
	}

	// Initialize services
	invoiceSvc := service.NewInvoiceService(st.invoices, st.duplicates, st.notes, storage, notifier, &cfg.S3, log)
	duplicateSvc := service.NewDuplicateService(st.invoices, st.duplicates, st.notes, sessions, notifier, cfg.Session.TTL, log)
	activitySvc := service.NewActivityService(st.notes, st.invoices, storage, &cfg.S3, log)
	recordSvc := service.NewPortalRecordService(st.records, st.invoices, st.connections, st.notes, notifier, log)
	userSvc := service.NewPortalUserService(st.users, checker, notifier, log)
	reportSvc := service.NewPaymentReportService(st.payments, sessions, storage, notifier, cfg.Import, cfg.S3.Bucket, cfg.Session.TTL, log)

	opts := router.Options{
		CORS:       cfg.CORS,
		Production: production,
		Log:        log,
	}
	if cfg.RateLimit.Enabled {
		lim, err := middleware.NewLimiter(cfg.RateLimit.Uploads, redisClient)
		if err != nil {
			return err
		}
		opts.UploadLimiter = lim
	}

	// Setup router
	r := router.Setup(router.Handlers{
		Health:        handler.NewHealthHandler(readiness),
		Invoice:       handler.NewInvoiceHandler(invoiceSvc),
		Duplicate:     handler.NewDuplicateHandler(duplicateSvc),
		Activity:      handler.NewActivityHandler(activitySvc),
		PortalRecord:  handler.NewPortalRecordHandler(recordSvc),
		PortalUser:    handler.NewPortalUserHandler(userSvc),
		PaymentReport: handler.NewPaymentReportHandler(reportSvc),
	}, opts)

	var wg sync.WaitGroup
	if cfg.Portal.RevalidateSchedule != "" {
		worker, err := service.NewRevalidationWorker(userSvc, sweeper, service.RevalidationConfig{
			Schedule: cfg.Portal.RevalidateSchedule,
			Timezone: cfg.Portal.Timezone,
		}, log)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Start(ctx)
		}()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    cfg.Server.Port,
			"store":   cfg.Store.Driver,
			"session": cfg.Session.Store,
		}).Info("server starting")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			stop()
			wg.Wait()
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
	wg.Wait()
	log.Info("server stopped")
	return nil
}

// memoryStores builds the in-memory repositories, optionally loaded with the demo dataset.
func memoryStores(ctx context.Context, seed bool) (stores, error) {
	invoices := memory.NewInvoiceRepo()
	if !seed {
		return stores{
			invoices:    invoices,
			duplicates:  memory.NewDuplicateFinder(invoices),
			notes:       memory.NewNoteRepo(),
			payments:    memory.NewPaymentRecordRepo(),
			records:     memory.NewPortalRecordRepo(),
			users:       memory.NewPortalUserRepo(),
			connections: memory.NewSmartConnectionRepo(),
		}, nil
	}

	ds := memory.DemoDataset(time.Now())
	if err := ds.Load(ctx, invoices); err != nil {
		return stores{}, fmt.Errorf("failed to seed demo data: %w", err)
	}
	issues := map[string]string{}
	for _, u := range ds.PortalUsers {
		if u.Status == domain.PortalUserDisconnected {
			issues[u.Username] = u.Issue
		}
	}
	return stores{
		invoices:    invoices,
		duplicates:  memory.NewDuplicateFinder(invoices),
		notes:       memory.NewNoteRepo(),
		payments:    memory.NewPaymentRecordRepo(),
		records:     memory.NewPortalRecordRepo(ds.PortalRecords...),
		users:       memory.NewPortalUserRepo(ds.PortalUsers...),
		connections: memory.NewSmartConnectionRepo(ds.Connections...),
		issues:      issues,
	}, nil
}
