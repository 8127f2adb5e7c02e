package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ticketera/helpdesk-service/internal/service"
)

// Sweeper runs one SLA pass.
type Sweeper interface {
	Sweep(ctx context.Context) (service.SweepResult, error)
}

// SLAWorker runs the SLA sweeper on a cron schedule. Overlapping runs are skipped.
type SLAWorker struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  *zap.Logger
	timeout time.Duration
	entry   cron.EntryID

	mu  sync.Mutex
	ctx context.Context
}

// NewSLAWorker schedules sweeper with spec, e.g. "@every 5m" or "*/10 * * * *".
func NewSLAWorker(spec string, sweeper Sweeper, logger *zap.Logger) (*SLAWorker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &SLAWorker{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		sweeper: sweeper,
		logger:  logger.Named("sla"),
		timeout: time.Minute,
		ctx:     context.Background(),
	}
	id, err := w.cron.AddFunc(spec, w.run)
	if err != nil {
		return nil, fmt.Errorf("schedule sla sweep %q: %w", spec, err)
	}
	w.entry = id
	return w, nil
}

// Start begins the schedule. Runs derive their context from ctx.
func (w *SLAWorker) Start(ctx context.Context) {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()
	w.cron.Start()
	w.logger.Info("sla worker started", zap.Time("next_run", w.cron.Entry(w.entry).Next))
}

// Stop halts the schedule. The returned context is done once a running sweep finishes.
func (w *SLAWorker) Stop() context.Context {
	return w.cron.Stop()
}

// RunOnce performs a single sweep outside the schedule.
func (w *SLAWorker) RunOnce(ctx context.Context) (service.SweepResult, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	return w.sweeper.Sweep(ctx)
}

func (w *SLAWorker) run() {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	started := time.Now()
	res, err := w.RunOnce(ctx)
	if err != nil {
		w.logger.Error("sla sweep failed", zap.Error(err))
		return
	}
	w.logger.Debug("sla sweep finished",
		zap.Int("notified", res.Notified),
		zap.Int("overdue", res.Overdue),
		zap.Duration("took", time.Since(started)))
}
