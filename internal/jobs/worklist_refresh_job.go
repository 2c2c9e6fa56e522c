package jobs

import (
	"context"
	"time"

	"scan-station/internal/core/logger"
	ordersservice "scan-station/internal/features/orders/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// refreshTimeout bounds one worklist refresh pass.
const refreshTimeout = 25 * time.Second

// WorklistRefreshJob keeps the dispatch board's open-order snapshot current
// by polling the order platform on a schedule.
type WorklistRefreshJob struct {
	orders *ordersservice.OrderService
	cron   *cron.Cron
}

// NewWorklistRefreshJob creates a new job for refreshing the worklist.
func NewWorklistRefreshJob(orders *ordersservice.OrderService) *WorklistRefreshJob {
	return &WorklistRefreshJob{
		orders: orders,
		cron:   cron.New(),
	}
}

// Start begins the worklist refresh job, polling every 30 seconds.
func (j *WorklistRefreshJob) Start() error {
	_, err := j.cron.AddFunc("@every 30s", func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if _, err := j.orders.Refresh(ctx); err != nil {
			// The board keeps serving the cached snapshot until the platform
			// recovers.
			logger.Get().Warn("Worklist refresh job failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	logger.Get().Info("Worklist refresh job started (every 30s)")
	return nil
}

// Stop stops the worklist refresh job.
func (j *WorklistRefreshJob) Stop() {
	j.cron.Stop()
	logger.Get().Info("Worklist refresh job stopped")
}
