package system

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ark-poiop/dkwjawj-renew/internal/briefing"
	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/internal/store"
	"github.com/ark-poiop/dkwjawj-renew/internal/strategy"
	"github.com/ark-poiop/dkwjawj-renew/internal/threads"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// RunResult is the full outcome of one briefing run
type RunResult struct {
	Success    bool                `json:"success"`
	TimeSlot   market.TimeSlot     `json:"time_slot"`
	Topic      string              `json:"topic"`
	DataSource string              `json:"data_source"`
	Content    *briefing.Content   `json:"content,omitempty"`
	Formatted  string              `json:"formatted,omitempty"`
	PostResult *threads.PostResult `json:"post_result,omitempty"`
	Error      string              `json:"error,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// Status reports which external dependencies are usable
type Status struct {
	KISConfigured     bool          `json:"kis_configured"`
	ThreadsConfigured bool          `json:"threads_configured"`
	StorageDriver     string        `json:"storage_driver"`
	PostStats         threads.Stats `json:"post_stats"`
}

// System wires strategy, generator and publisher into the briefing
// pipeline. ⭐ SSOT: 브리핑 실행 흐름은 여기서만 조립
type System struct {
	cfg       *config.Config
	strategy  *strategy.Strategy
	publisher *threads.Publisher
	store     store.Store
	logger    *logger.Logger

	// sleep is replaceable for tests
	sleep func(time.Duration)
}

// New assembles the briefing system
func New(cfg *config.Config, strat *strategy.Strategy, publisher *threads.Publisher, st store.Store, log *logger.Logger) *System {
	return &System{
		cfg:       cfg,
		strategy:  strat,
		publisher: publisher,
		store:     st,
		logger:    log,
		sleep:     time.Sleep,
	}
}

// RunBriefing executes the pipeline for one slot: resolve data, generate
// the briefing, publish it. Never panics; only an undefined slot yields
// Success=false, 데이터 수집 실패는 하위 단계에서 이미 흡수된다.
func (s *System) RunBriefing(ctx context.Context, slot market.TimeSlot) *RunResult {
	result := &RunResult{
		TimeSlot:  slot,
		Timestamp: time.Now(),
	}

	if !slot.Valid() {
		result.Error = fmt.Sprintf("unsupported briefing time slot: %q", slot)
		s.logger.WithField("slot", string(slot)).Error("Briefing run rejected")
		return result
	}

	topic := slot.Topic()
	result.Topic = topic

	log := s.logger.WithFields(map[string]interface{}{
		"slot":  string(slot),
		"topic": topic,
	})
	log.Info("Briefing run started")

	data := s.strategy.GetMarketData(ctx, slot)
	result.DataSource = data.Source

	content, err := briefing.Generate(slot, topic, data)
	if err != nil {
		// Unreachable for valid slots, kept for the contract
		result.Error = err.Error()
		return result
	}
	result.Content = content
	result.Formatted = content.Format()

	result.PostResult = s.publisher.PublishBriefing(ctx, slot, topic, result.Formatted)
	result.Success = true

	log.WithField("source", data.Source).Info("Briefing run finished")
	return result
}

// RunAll runs every briefing slot in chronological order with a fixed
// pause between runs.
func (s *System) RunAll(ctx context.Context) []*RunResult {
	slots := market.Slots()
	results := make([]*RunResult, 0, len(slots))

	for i, slot := range slots {
		results = append(results, s.RunBriefing(ctx, slot))
		if i < len(slots)-1 {
			s.sleep(s.cfg.Strategy.SlotDelay)
		}
	}
	return results
}

// CollectClosing collects and persists closing data outside a briefing run
func (s *System) CollectClosing(ctx context.Context) bool {
	return s.strategy.CollectAndStoreClosing(ctx)
}

// Collect collects and persists data under an explicit type
func (s *System) Collect(ctx context.Context, dataType market.DataType) bool {
	return s.strategy.CollectAndStore(ctx, dataType)
}

// Cleanup removes stored snapshots older than retainDays
func (s *System) Cleanup(ctx context.Context, retainDays int) int {
	if s.store == nil {
		return 0
	}
	return s.store.Purge(ctx, retainDays)
}

// Status reports the configuration state of external dependencies
func (s *System) Status() Status {
	return Status{
		KISConfigured:     s.cfg.KIS.Configured(),
		ThreadsConfigured: s.publisher.Configured(),
		StorageDriver:     s.cfg.Storage.Driver,
		PostStats:         s.publisher.PostStats(),
	}
}

// History returns the publish history
func (s *System) History() []threads.PostRecord {
	return s.publisher.History()
}

// StoredData lists available snapshots per date
func (s *System) StoredData(ctx context.Context) map[string][]market.DataType {
	if s.store == nil {
		return map[string][]market.DataType{}
	}
	return s.store.List(ctx)
}

// SaveResult dumps a run result as pretty JSON for later inspection
func (s *System) SaveResult(result *RunResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write run result: %w", err)
	}
	s.logger.WithField("path", path).Info("Run result saved")
	return nil
}
