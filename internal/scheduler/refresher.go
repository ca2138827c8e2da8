// Package scheduler runs periodic background work against the dashboard.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/charlesng35/sponsorpass/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// PassRefresher refetches the current pass query.
type PassRefresher interface {
	Refresh(ctx context.Context)
}

// Refresher periodically refetches passes so changes made by other operators show up without
// a manual reload.
type Refresher struct {
	target   PassRefresher
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	log      *zap.Logger
}

// Option customises the Refresher.
type Option func(*Refresher)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *Refresher) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithSchedule sets the cron expression. An empty schedule disables the refresher.
func WithSchedule(spec string) Option {
	return func(r *Refresher) {
		r.schedule = spec
	}
}

// WithTimeout bounds a single refresh.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Refresher) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// NewRefresher builds a refresher for target.
func NewRefresher(target PassRefresher, opts ...Option) *Refresher {
	r := &Refresher{
		target:  target,
		timeout: defaultTimeout,
		log:     logger.WithModule("scheduler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cron == nil {
		r.cron = cron.New(
			cron.WithLogger(cron.DiscardLogger),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		)
	}
	return r
}

// Enabled reports whether a schedule and a target are configured.
func (r *Refresher) Enabled() bool {
	return r.target != nil && r.schedule != ""
}

// Start registers the refresh job and launches the scheduler. It is a no-op when disabled.
func (r *Refresher) Start() error {
	if !r.Enabled() {
		return nil
	}

	if _, err := r.cron.AddFunc(r.schedule, func() {
		if err := r.RunOnce(context.Background()); err != nil {
			r.log.Warn("scheduled pass refresh failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	r.cron.Start()
	r.log.Info("pass refresh scheduled", zap.String("schedule", r.schedule))
	return nil
}

// Stop halts the underlying scheduler, waiting for any running job to complete.
func (r *Refresher) Stop() context.Context {
	if r.cron == nil {
		return context.Background()
	}
	return r.cron.Stop()
}

// RunOnce refreshes immediately within the configured timeout.
func (r *Refresher) RunOnce(ctx context.Context) error {
	if r.target == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	r.target.Refresh(ctx)
	r.log.Debug("passes refreshed", zap.Duration("took", time.Since(started)))
	return ctx.Err()
}
