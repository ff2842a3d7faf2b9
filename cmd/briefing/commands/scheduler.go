package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/internal/scheduler"
	"github.com/ark-poiop/dkwjawj-renew/internal/scheduler/jobs"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 시작",
	Long: `브리핑 스케줄러를 시작합니다.

이 명령어는:
- 시간대별 브리핑 자동 실행 (07:00, 08:00, 12:00, 15:40, 19:00 KST)
- 오전장/마감 데이터 수집 (11:50, 16:00)
- 보관 기간 경과 스냅샷 정리 (02:00)

Example:
  go run ./cmd/briefing scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Market Briefing Scheduler ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	sys, cleanup, err := buildSystem(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// 브리핑 시간대는 KST 기준
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	sched := scheduler.New(log, loc)

	for _, slot := range market.Slots() {
		if err := sched.AddJob(jobs.NewBriefingJob(sys, slot, log)); err != nil {
			return fmt.Errorf("add briefing job: %w", err)
		}
	}
	if err := sched.AddJob(jobs.NewMiddayCollectionJob(sys, log)); err != nil {
		return fmt.Errorf("add midday collection job: %w", err)
	}
	if err := sched.AddJob(jobs.NewClosingCollectionJob(sys, log)); err != nil {
		return fmt.Errorf("add closing collection job: %w", err)
	}
	if err := sched.AddJob(jobs.NewRetentionSweepJob(sys, cfg.Storage.RetainDays, log)); err != nil {
		return fmt.Errorf("add retention sweep job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	fmt.Println("\n등록된 작업:")
	for _, name := range sched.JobNames() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	return nil
}
