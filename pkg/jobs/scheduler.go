package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler enqueues jobs on cron schedules. Execution happens on the queue's workers so
// failures get the queue's retry policy.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler builds a scheduler that skips a tick while the previous one is still enqueueing.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger: logger.Sugar()}
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
	}
}

// Schedule registers a recurring job of jobType on queue. Spec accepts standard five-field cron
// expressions and descriptors such as "@every 15s".
func (s *Scheduler) Schedule(spec string, queue *Queue, jobType string) error {
	if spec == "" {
		return fmt.Errorf("empty schedule for %s", jobType)
	}
	_, err := s.cron.AddFunc(spec, func() {
		job := Job{ID: uuid.NewString(), Type: jobType}
		if err := queue.TryEnqueue(job); err != nil {
			s.logger.Warn("scheduled job dropped", zap.String("queue", queue.Name()), zap.String("type", jobType), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%s): %w", jobType, spec, err)
	}
	s.logger.Sugar().Infow("job scheduled", "queue", queue.Name(), "type", jobType, "spec", spec)
	return nil
}

// Start runs the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight ticks or ctx expiry.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
