package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "시스템 상태 확인",
	Long: `외부 의존성 설정 상태와 저장된 스냅샷 목록을 출력합니다.

Example:
  go run ./cmd/briefing status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	status := sys.Status()

	fmt.Println("=== 시스템 상태 ===")
	fmt.Printf("KIS API:     %s\n", configuredMark(status.KISConfigured))
	fmt.Printf("Threads API: %s\n", configuredMark(status.ThreadsConfigured))
	fmt.Printf("저장소:      %s\n", status.StorageDriver)

	stored := sys.StoredData(context.Background())
	if len(stored) > 0 {
		fmt.Println("\n=== 저장된 스냅샷 ===")
		dates := make([]string, 0, len(stored))
		for date := range stored {
			dates = append(dates, date)
		}
		sort.Strings(dates)
		for _, date := range dates {
			fmt.Printf("  %s: %v\n", date, stored[date])
		}
	}

	return nil
}

func configuredMark(ok bool) string {
	if ok {
		return "✅ 설정됨"
	}
	return "❌ 미설정 (시뮬레이션 모드)"
}
