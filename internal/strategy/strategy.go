package strategy

import (
	"context"
	"strings"
	"time"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/internal/source"
	"github.com/ark-poiop/dkwjawj-renew/internal/store"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// Strategy resolves market data for a briefing through a fixed fallback
// chain: stored snapshot, live collection, synthetic backup.
// ⭐ SSOT: 데이터 확보 우선순위는 여기서만 결정
//
// GetMarketData is total: every defined slot yields a usable snapshot,
// degrading through the tiers instead of failing.
type Strategy struct {
	store     store.Store
	overseas  []source.QuoteSource // 해외 지수 어댑터, 우선순위 순
	domestic  []source.QuoteSource // 국내 지수 어댑터, 나중에 병합되어 중복 키를 이김
	synthetic source.QuoteSource
	cfg       config.StrategyConfig
	logger    *logger.Logger

	// now is replaceable for tests
	now func() time.Time
}

// New wires the fallback chain. The adapter slices are consulted in order;
// a nil store disables the stored tier and closing persistence.
func New(st store.Store, overseas, domestic []source.QuoteSource, synthetic source.QuoteSource, cfg config.StrategyConfig, log *logger.Logger) *Strategy {
	return &Strategy{
		store:     st,
		overseas:  overseas,
		domestic:  domestic,
		synthetic: synthetic,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
}

// GetMarketData returns market data for the slot, walking the tiers.
// 저장 데이터 → 실시간 수집 → 합성 백업 순서, 항상 성공
func (s *Strategy) GetMarketData(ctx context.Context, slot market.TimeSlot) *market.Snapshot {
	dataType := slot.DataType()
	log := s.logger.WithFields(map[string]interface{}{
		"slot":      string(slot),
		"data_type": string(dataType),
	})

	// Tier 1: stored snapshot (today, then yesterday, then latest)
	if snap, ok := s.loadStored(ctx, dataType); ok {
		log.WithField("source", snap.Source).Info("Using stored market data")
		return snap
	}

	// Tier 2: live collection from the quote adapters
	if snap, ok := s.collectLive(ctx); ok {
		log.WithField("source", snap.Source).Info("Using live market data")
		// 마감 데이터는 다음 브리핑이 저장 계층에서 바로 쓰도록 보존
		if s.cfg.PersistClosing && dataType == market.DataTypeClosing && s.store != nil {
			s.store.Save(ctx, snap, dataType)
		}
		return snap
	}

	// Tier 3: synthetic backup, always succeeds
	snap, _ := s.synthetic.Fetch(ctx)
	log.Warn("Falling back to synthetic market data")
	return snap
}

// CollectAndStoreClosing collects live data and persists it as closing
// data. Returns false when collection or persistence failed; 브리핑과
// 별개로 장 마감 직후 실행되는 수집 경로.
func (s *Strategy) CollectAndStoreClosing(ctx context.Context) bool {
	snap, ok := s.collectLive(ctx)
	if !ok {
		s.logger.Warn("Closing collection produced no valid data")
		return false
	}
	if s.store == nil {
		return false
	}
	return s.store.Save(ctx, snap, market.DataTypeClosing)
}

// CollectAndStore collects live data and persists it under the given type.
// Used by the collect command for midday snapshots as well.
func (s *Strategy) CollectAndStore(ctx context.Context, dataType market.DataType) bool {
	snap, ok := s.collectLive(ctx)
	if !ok {
		s.logger.WithField("data_type", dataType).Warn("Collection produced no valid data")
		return false
	}
	if s.store == nil {
		return false
	}
	return s.store.Save(ctx, snap, dataType)
}

// loadStored tries today's record, then yesterday's, then the newest record
// of the type, validating each under the strict rule.
func (s *Strategy) loadStored(ctx context.Context, dataType market.DataType) (*market.Snapshot, bool) {
	if s.store == nil {
		return nil, false
	}

	rule := market.StrictRule(s.cfg.StoredMinIndices)
	today := s.now()

	candidates := []func() (*market.Snapshot, bool){
		func() (*market.Snapshot, bool) { return s.store.Load(ctx, today, dataType) },
		func() (*market.Snapshot, bool) { return s.store.Load(ctx, today.AddDate(0, 0, -1), dataType) },
		func() (*market.Snapshot, bool) { return s.store.Latest(ctx, dataType) },
	}

	for _, load := range candidates {
		snap, ok := load()
		if !ok {
			continue
		}
		if !market.Validate(snap, rule) {
			s.logger.WithField("data_type", dataType).Debug("Stored snapshot failed validation")
			continue
		}
		snap.Source = market.SourceStored
		return snap, true
	}

	return nil, false
}

// collectLive fetches from every adapter and merges the results: overseas
// first, domestic after, so domestic adapters win on duplicate keys.
func (s *Strategy) collectLive(ctx context.Context) (*market.Snapshot, bool) {
	merged := market.NewSnapshot("")
	var contributors []string

	for _, src := range append(append([]source.QuoteSource{}, s.overseas...), s.domestic...) {
		snap, err := src.Fetch(ctx)
		if err != nil {
			s.logger.WithError(err).WithField("adapter", src.Name()).Warn("Quote fetch failed")
			continue
		}
		if snap.Empty() {
			s.logger.WithField("adapter", src.Name()).Debug("Quote fetch returned no data")
			continue
		}
		// 어댑터별로 이상치를 먼저 걸러야 기여하지 않은 어댑터가
		// Source 태그에 남지 않는다
		if dropped := market.DropOutOfBand(snap); dropped > 0 {
			s.logger.WithFields(map[string]interface{}{
				"adapter": src.Name(),
				"dropped": dropped,
			}).Debug("Dropped out-of-band values")
		}
		if snap.Empty() {
			s.logger.WithField("adapter", src.Name()).Debug("All values out of band")
			continue
		}
		merged.Merge(snap)
		contributors = append(contributors, src.Name())
	}

	if !market.Validate(merged, market.LiveRule(s.cfg.LiveMinIndices)) {
		return nil, false
	}

	merged.Source = strings.Join(contributors, "+")
	merged.CollectedAt = s.now()
	return merged, true
}
