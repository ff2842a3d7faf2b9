package jobs

import (
	"context"
	"fmt"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/internal/system"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// ClosingCollectionJob stores closing data shortly after the KR close
// so the next morning's briefings can run from stored snapshots.
type ClosingCollectionJob struct {
	system *system.System
	logger *logger.Logger
}

// NewClosingCollectionJob creates the closing collection job
func NewClosingCollectionJob(sys *system.System, log *logger.Logger) *ClosingCollectionJob {
	return &ClosingCollectionJob{system: sys, logger: log}
}

// Name returns the job name
func (j *ClosingCollectionJob) Name() string {
	return "closing_collection"
}

// Schedule returns the cron schedule (16:00 KST, 마감 20분 후)
func (j *ClosingCollectionJob) Schedule() string {
	return "0 0 16 * * *"
}

// Run collects live data and stores it as closing data
func (j *ClosingCollectionJob) Run(ctx context.Context) error {
	if !j.system.CollectClosing(ctx) {
		return fmt.Errorf("closing collection produced no stored snapshot")
	}
	j.logger.Info("Closing data collected and stored")
	return nil
}

// MiddayCollectionJob stores midday data during the lunch break
type MiddayCollectionJob struct {
	system *system.System
	logger *logger.Logger
}

// NewMiddayCollectionJob creates the midday collection job
func NewMiddayCollectionJob(sys *system.System, log *logger.Logger) *MiddayCollectionJob {
	return &MiddayCollectionJob{system: sys, logger: log}
}

// Name returns the job name
func (j *MiddayCollectionJob) Name() string {
	return "midday_collection"
}

// Schedule returns the cron schedule (11:50 KST, 12시 브리핑 전)
func (j *MiddayCollectionJob) Schedule() string {
	return "0 50 11 * * *"
}

// Run collects live data and stores it as midday data
func (j *MiddayCollectionJob) Run(ctx context.Context) error {
	if !j.system.Collect(ctx, market.DataTypeMidday) {
		return fmt.Errorf("midday collection produced no stored snapshot")
	}
	j.logger.Info("Midday data collected and stored")
	return nil
}
