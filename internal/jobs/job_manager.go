package jobs

import (
	"fmt"

	ordersservice "scan-station/internal/features/orders/service"
)

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	worklistRefreshJob *WorklistRefreshJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(orders *ordersservice.OrderService) *JobManager {
	return &JobManager{
		worklistRefreshJob: NewWorklistRefreshJob(orders),
	}
}

// StartAll starts all scheduled jobs.
func (jm *JobManager) StartAll() error {
	if err := jm.worklistRefreshJob.Start(); err != nil {
		return fmt.Errorf("failed to start worklist refresh job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.worklistRefreshJob.Stop()
}
