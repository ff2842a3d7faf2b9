package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "시장 데이터 수집 및 저장",
	Long: `실시간 시장 데이터를 수집해 스냅샷 저장소에 기록합니다.

장 마감 후 실행하면 다음 날 아침 브리핑이 저장 데이터에서 바로
생성됩니다.

Example:
  go run ./cmd/briefing collect
  go run ./cmd/briefing collect --type midday`,
	RunE: runCollect,
}

var collectType string

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectType, "type", "closing", "저장 데이터 유형 (closing|midday|opening)")
}

func runCollect(cmd *cobra.Command, args []string) error {
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

	dataType := market.DataType(collectType)
	switch dataType {
	case market.DataTypeOpening, market.DataTypeMidday, market.DataTypeClosing:
	default:
		return fmt.Errorf("unknown data type: %q", collectType)
	}

	if !sys.Collect(context.Background(), dataType) {
		fmt.Println("❌ 수집 실패: 유효한 시장 데이터를 확보하지 못했습니다")
		return nil
	}

	fmt.Printf("✅ %s 데이터 수집 및 저장 완료\n", dataType)
	return nil
}
