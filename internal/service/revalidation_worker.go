package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RevalidationConfig holds settings for the scheduled portal revalidation.
type RevalidationConfig struct {
	// Schedule is a standard five-field cron expression.
	Schedule string
	Timezone string
	// Timeout bounds one full revalidation run.
	Timeout time.Duration
}

// SessionSweeper drops expired wizard sessions. Only the in-memory store needs it; Redis
// expires keys on its own.
type SessionSweeper interface {
	Sweep() int
}

// RevalidationWorker re-checks every portal credential on a cron schedule so credentials
// that stop working show up as Disconnected without a user touching them.
type RevalidationWorker struct {
	users   PortalUserService
	sweeper SessionSweeper
	cfg     RevalidationConfig
	cron    *cron.Cron
	running chan struct{}
	wg      sync.WaitGroup
	log     logrus.FieldLogger
}

// NewRevalidationWorker creates a new RevalidationWorker. sweeper may be nil.
func NewRevalidationWorker(users PortalUserService, sweeper SessionSweeper, cfg RevalidationConfig, log logrus.FieldLogger) (*RevalidationWorker, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}

	w := &RevalidationWorker{
		users:   users,
		sweeper: sweeper,
		cfg:     cfg,
		cron:    cron.New(cron.WithLocation(loc)),
		running: make(chan struct{}, 1),
		log:     log.WithField("component", "revalidationWorker"),
	}
	if _, err := w.cron.AddFunc(cfg.Schedule, w.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid revalidation schedule %q: %w", cfg.Schedule, err)
	}
	if sweeper != nil {
		if _, err := w.cron.AddFunc("@every 1m", w.sweep); err != nil {
			return nil, fmt.Errorf("scheduling session sweep: %w", err)
		}
	}
	return w, nil
}

// Start runs the scheduler until ctx is canceled. It blocks until an in-flight run has
// finished.
func (w *RevalidationWorker) Start(ctx context.Context) {
	w.log.WithFields(logrus.Fields{"schedule": w.cfg.Schedule, "timezone": w.cfg.Timezone}).Info("started")
	w.cron.Start()

	<-ctx.Done()
	w.log.Info("shutting down, waiting for in-flight revalidation")
	<-w.cron.Stop().Done()
	w.wg.Wait()
	w.log.Info("shutdown complete")
}

// RunOnce revalidates every portal user. A run that starts while another is in flight is
// skipped.
func (w *RevalidationWorker) RunOnce() {
	select {
	case w.running <- struct{}{}:
	default:
		w.log.Warn("previous revalidation still running, skipping")
		return
	}
	w.wg.Add(1)
	defer w.wg.Done()
	defer func() { <-w.running }()

	// A fresh context so a run in flight completes even during shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.Timeout)
	defer cancel()

	start := time.Now()
	disconnected, err := w.users.RevalidateAll(ctx)
	if err != nil {
		w.log.WithError(err).Error("revalidation run failed")
		return
	}
	w.log.WithFields(logrus.Fields{
		"disconnected": disconnected,
		"duration":     time.Since(start).String(),
	}).Info("revalidation run complete")
}

func (w *RevalidationWorker) sweep() {
	if n := w.sweeper.Sweep(); n > 0 {
		w.log.WithField("expired", n).Debug("expired sessions swept")
	}
}
