package commands

import (
	"context"
	"fmt"

	"github.com/ark-poiop/dkwjawj-renew/internal/source"
	"github.com/ark-poiop/dkwjawj-renew/internal/store"
	"github.com/ark-poiop/dkwjawj-renew/internal/strategy"
	"github.com/ark-poiop/dkwjawj-renew/internal/system"
	"github.com/ark-poiop/dkwjawj-renew/internal/threads"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/database"
	"github.com/ark-poiop/dkwjawj-renew/pkg/httputil"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// buildSystem wires the full briefing pipeline from config.
// 반환된 cleanup은 종료 시 반드시 호출한다 (DB 연결 정리).
func buildSystem(cfg *config.Config, log *logger.Logger) (*system.System, func(), error) {
	httpClient := httputil.New(log)

	st, cleanup, err := buildStore(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	// 해외 지수 먼저, 국내 어댑터가 나중에 병합되어 중복 키를 이긴다
	overseas := []source.QuoteSource{
		source.NewYahoo(cfg.Yahoo, cfg.Strategy.RequestInterval, httpClient, log),
	}
	domestic := []source.QuoteSource{
		source.NewKIS(cfg.KIS, cfg.Strategy.RequestInterval, httpClient, log),
		source.NewNaver(cfg.Naver, cfg.Strategy.RequestInterval, httpClient, log),
	}
	synthetic := source.NewSynthetic(log)

	strat := strategy.New(st, overseas, domestic, synthetic, cfg.Strategy, log)

	threadsClient := threads.NewClient(cfg.Threads, httpClient, log)
	publisher := threads.NewPublisher(threadsClient, log)

	return system.New(cfg, strat, publisher, st, log), cleanup, nil
}

// buildStore selects the snapshot store by the configured driver
func buildStore(cfg *config.Config, log *logger.Logger) (store.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := database.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		st, err := store.NewPostgresStore(context.Background(), db, log)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("init postgres store: %w", err)
		}
		return st, db.Close, nil

	default:
		st, err := store.NewFileStore(cfg.Storage.DataDir, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init file store: %w", err)
		}
		return st, func() {}, nil
	}
}
