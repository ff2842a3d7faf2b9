package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "briefing",
	Short: "시장 브리핑 자동 발행 시스템",
	Long: `Market Briefing CLI

시간대별 시장 브리핑을 생성하고 Threads에 게시합니다.
저장 데이터 → 실시간 수집 → 합성 백업 순서로 데이터를 확보하므로
어떤 상황에서도 브리핑은 발행됩니다.

Usage:
  go run ./cmd/briefing [command]

Examples:
  go run ./cmd/briefing run 15:40
  go run ./cmd/briefing run auto
  go run ./cmd/briefing collect
  go run ./cmd/briefing scheduler
  go run ./cmd/briefing api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
