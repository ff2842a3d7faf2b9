package jobs

import (
	"context"

	"github.com/ark-poiop/dkwjawj-renew/internal/system"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// RetentionSweepJob deletes stored snapshots past the retention window
type RetentionSweepJob struct {
	system     *system.System
	retainDays int
	logger     *logger.Logger
}

// NewRetentionSweepJob creates the retention sweep job
func NewRetentionSweepJob(sys *system.System, retainDays int, log *logger.Logger) *RetentionSweepJob {
	return &RetentionSweepJob{system: sys, retainDays: retainDays, logger: log}
}

// Name returns the job name
func (j *RetentionSweepJob) Name() string {
	return "retention_sweep"
}

// Schedule returns the cron schedule (02:00 KST daily)
func (j *RetentionSweepJob) Schedule() string {
	return "0 0 2 * * *"
}

// Run deletes old snapshots
func (j *RetentionSweepJob) Run(ctx context.Context) error {
	deleted := j.system.Cleanup(ctx, j.retainDays)
	if deleted > 0 {
		j.logger.WithField("deleted", deleted).Info("Retention sweep completed")
	}
	return nil
}
