package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/internal/system"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// BriefingJob runs one briefing slot on its schedule
type BriefingJob struct {
	system *system.System
	slot   market.TimeSlot
	logger *logger.Logger
}

// NewBriefingJob creates a job for one briefing slot
func NewBriefingJob(sys *system.System, slot market.TimeSlot, log *logger.Logger) *BriefingJob {
	return &BriefingJob{system: sys, slot: slot, logger: log}
}

// Name returns the job name
func (j *BriefingJob) Name() string {
	return "briefing_" + strings.ReplaceAll(string(j.slot), ":", "")
}

// Schedule returns the cron schedule derived from the slot time
func (j *BriefingJob) Schedule() string {
	t, _ := time.Parse("15:04", string(j.slot))
	return fmt.Sprintf("0 %d %d * * *", t.Minute(), t.Hour())
}

// Run executes the briefing for the slot
func (j *BriefingJob) Run(ctx context.Context) error {
	result := j.system.RunBriefing(ctx, j.slot)
	if !result.Success {
		return fmt.Errorf("briefing %s failed: %s", j.slot, result.Error)
	}

	j.logger.WithFields(map[string]interface{}{
		"slot":   string(j.slot),
		"source": result.DataSource,
	}).Info("Scheduled briefing completed")
	return nil
}
