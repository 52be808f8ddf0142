package cloudsync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

type Puller interface {
	Pull(ctx context.Context) (*Report, error)
}

// Scheduler runs a full pull on a cron schedule. A tick that fires while
// the previous pull is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	puller Puller
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(spec string, puller Puller, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		puller: puller,
		logger: logger.With("component", "scheduler"),
	}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid pull schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.logger.Info("pull scheduler started")
}

// Stop cancels a running pull and waits for it to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.logger.Info("pull scheduler stopped")
}

func (s *Scheduler) run() {
	report, err := s.puller.Pull(s.ctx)
	if err != nil {
		s.logger.Error("scheduled pull failed", "error", err)
		return
	}
	if rerr := report.Err(); rerr != nil {
		s.logger.Warn("scheduled pull finished with errors",
			"written", report.Written(),
			"failed", report.Failed(),
			"error", rerr)
		return
	}
	s.logger.Info("scheduled pull finished", "written", report.Written(), "duration", report.Duration)
}
