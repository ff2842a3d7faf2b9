package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "오래된 스냅샷 정리",
	Long: `보관 기간이 지난 시장 데이터 스냅샷을 삭제합니다.

Example:
  go run ./cmd/briefing cleanup
  go run ./cmd/briefing cleanup --days 7`,
	RunE: runCleanup,
}

var cleanupDays int

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "보관 일수 (기본: RETAIN_DAYS)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
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

	days := cleanupDays
	if days <= 0 {
		days = cfg.Storage.RetainDays
	}

	deleted := sys.Cleanup(context.Background(), days)
	fmt.Printf("✅ %d일 경과 스냅샷 %d건 삭제\n", days, deleted)
	return nil
}
