package scheduler

import (
	"context"
	"sync"

	"github.com/ignatij/logreport/pkg/models"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReportSender runs the full report flow.
type ReportSender interface {
	SendFullReport(ctx context.Context) models.Outcome
}

// Runner sends the full report on a cron schedule. Runs never overlap; a
// tick that fires while the previous send is still in flight is skipped.
type Runner struct {
	cron    *cron.Cron
	logger  logrus.FieldLogger
	baseCtx context.Context
	mu      sync.Mutex
	running bool
}

// New creates a Runner whose jobs run under ctx; cancelling ctx aborts an
// in-flight send.
func New(ctx context.Context, logger logrus.FieldLogger) *Runner {
	return &Runner{
		cron:    cron.New(),
		logger:  logger,
		baseCtx: ctx,
	}
}

// Schedule registers the report job under a standard five-field spec or a
// descriptor such as "@daily".
func (r *Runner) Schedule(spec string, svc ReportSender) (cron.EntryID, error) {
	id, err := r.cron.AddFunc(spec, func() { r.Run(svc) })
	if err != nil {
		return 0, errors.Wrapf(err, "invalid report schedule %q", spec)
	}
	return id, nil
}

// Run performs one scheduled send. It reports false when a send was already
// in progress.
func (r *Runner) Run(svc ReportSender) bool {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.logger.Warn("Previous scheduled report still running, skipping")
		return false
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	out := svc.SendFullReport(r.baseCtx)
	entry := r.logger.WithField("success", out.Success)
	if out.Success {
		entry.Infof("Scheduled report: %s", out.Message)
	} else {
		entry.Errorf("Scheduled report: %s", out.Message)
	}
	return true
}

func (r *Runner) Start() {
	r.logger.Info("report scheduler started")
	r.cron.Start()
}

// Stop waits for a running job to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("report scheduler stopped")
}
