package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [slot|all|auto]",
	Short: "브리핑 실행",
	Long: `브리핑을 생성하고 Threads에 게시합니다.

인자:
  07:00, 08:00, 12:00, 15:40, 19:00  지정 시간대 실행
  all                                 전체 시간대 순차 실행
  auto                                현재 시각에 맞는 시간대 자동 선택

Example:
  go run ./cmd/briefing run 15:40
  go run ./cmd/briefing run auto
  go run ./cmd/briefing run all --save result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBriefing,
}

var savePath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&savePath, "save", "", "실행 결과 JSON 저장 경로")
}

func runBriefing(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()

	if args[0] == "all" {
		results := sys.RunAll(ctx)
		for _, result := range results {
			printResult(result.TimeSlot, result.Success, result.DataSource)
			if savePath != "" {
				path := fmt.Sprintf("%s.%s.json", savePath, string(result.TimeSlot))
				if err := sys.SaveResult(result, path); err != nil {
					log.WithError(err).Warn("Run result not saved")
				}
			}
		}
		return nil
	}

	slot := market.TimeSlot(args[0])
	if args[0] == "auto" {
		slot = market.AutoSlot(time.Now())
		fmt.Printf("자동 선택된 시간대: %s\n", slot)
	}

	result := sys.RunBriefing(ctx, slot)
	printResult(result.TimeSlot, result.Success, result.DataSource)
	if !result.Success {
		fmt.Printf("   오류: %s\n", result.Error)
	} else {
		fmt.Printf("\n%s\n", result.Formatted)
	}

	if savePath != "" && result.Success {
		if err := sys.SaveResult(result, savePath); err != nil {
			log.WithError(err).Warn("Run result not saved")
		}
	}

	return nil
}

func printResult(slot market.TimeSlot, success bool, source string) {
	mark := "✅"
	if !success {
		mark = "❌"
	}
	fmt.Printf("%s %s 브리핑 (데이터: %s)\n", mark, slot, source)
}
