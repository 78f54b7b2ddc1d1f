package scheduler

import (
	"context"
	"time"

	"github.com/quonpass/quonpass-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const refreshTimeout = 5 * time.Minute

// ProgressRefresher recomputes cached dashboard progress.
type ProgressRefresher interface {
	RefreshCurrentMonth(ctx context.Context) (int, error)
}

// ProgressScheduler periodically warms the current month's progress cache.
type ProgressScheduler struct {
	cron      *cron.Cron
	spec      string
	refresher ProgressRefresher
}

func NewProgressScheduler(spec string, refresher ProgressRefresher) *ProgressScheduler {
	return &ProgressScheduler{
		cron:      cron.New(),
		spec:      spec,
		refresher: refresher,
	}
}

// Start registers the job and starts the cron runner.
func (s *ProgressScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.refresh); err != nil {
		logger.Error("Failed to add cron job for progress refresh", err, map[string]interface{}{
			"schedule": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Progress scheduler started", map[string]interface{}{
		"schedule": s.spec,
	})
	return nil
}

func (s *ProgressScheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	logger.Info("Starting scheduled progress refresh")
	started := time.Now()

	refreshed, err := s.refresher.RefreshCurrentMonth(ctx)
	if err != nil {
		logger.Error("Scheduled progress refresh failed", err, map[string]interface{}{
			"refreshed": refreshed,
		})
		return
	}

	logger.Info("Scheduled progress refresh finished", map[string]interface{}{
		"stores":     refreshed,
		"latency_ms": time.Since(started).Milliseconds(),
	})
}

// Stop waits for a running refresh to finish.
func (s *ProgressScheduler) Stop() {
	logger.Info("Stopping progress scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Progress scheduler stopped")
}
