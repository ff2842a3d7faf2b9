package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ark-poiop/dkwjawj-renew/internal/api"
	"github.com/ark-poiop/dkwjawj-renew/internal/api/handlers"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health           - Health check
  GET  /api/status       - 의존성 설정 상태 및 게시 통계
  GET  /api/history      - 게시 기록 조회
  GET  /api/data         - 저장된 스냅샷 목록
  POST /api/run/{slot}   - 브리핑 즉시 실행

Example:
  go run ./cmd/briefing api
  go run ./cmd/briefing api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Market Briefing API Server ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)

	sys, cleanup, err := buildSystem(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	briefingHandler := handlers.NewBriefingHandler(sys, log)
	router := api.NewRouter(briefingHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
