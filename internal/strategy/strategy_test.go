package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/internal/source"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// stubSource returns a canned snapshot or error and counts calls
type stubSource struct {
	name  string
	snap  *market.Snapshot
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) (*market.Snapshot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.snap == nil {
		return market.NewSnapshot(s.name), nil
	}
	return s.snap, nil
}

// stubStore keeps records in memory, keyed by "date_type"
type stubStore struct {
	records map[string]*market.Snapshot
	saved   []market.DataType
}

func newStubStore() *stubStore {
	return &stubStore{records: make(map[string]*market.Snapshot)}
}

func (s *stubStore) key(date time.Time, dataType market.DataType) string {
	if date.IsZero() {
		date = time.Now()
	}
	return date.Format("2006-01-02") + "_" + string(dataType)
}

func (s *stubStore) put(date time.Time, dataType market.DataType, snap *market.Snapshot) {
	s.records[s.key(date, dataType)] = snap
}

func (s *stubStore) Save(ctx context.Context, snap *market.Snapshot, dataType market.DataType) bool {
	s.put(time.Now(), dataType, snap)
	s.saved = append(s.saved, dataType)
	return true
}

func (s *stubStore) Load(ctx context.Context, date time.Time, dataType market.DataType) (*market.Snapshot, bool) {
	snap, ok := s.records[s.key(date, dataType)]
	return snap, ok
}

func (s *stubStore) Latest(ctx context.Context, dataType market.DataType) (*market.Snapshot, bool) {
	var latestKey string
	var latest *market.Snapshot
	for key, snap := range s.records {
		if len(key) > 11 && market.DataType(key[11:]) == dataType && key > latestKey {
			latestKey, latest = key, snap
		}
	}
	return latest, latest != nil
}

func (s *stubStore) Purge(ctx context.Context, retainDays int) int { return 0 }

func (s *stubStore) List(ctx context.Context) map[string][]market.DataType {
	return map[string][]market.DataType{}
}

func storedSnapshot(kospi float64) *market.Snapshot {
	snap := market.NewSnapshot("kis")
	snap.Set("KOSPI", kospi, 10.0)
	snap.Set("KOSDAQ", 850.0, -2.0)
	snap.Set("S&P500", 5800.0, 25.0)
	return snap
}

func testConfig() config.StrategyConfig {
	return config.StrategyConfig{StoredMinIndices: 3, LiveMinIndices: 2}
}

func newTestStrategy(st *stubStore, overseas, domestic []source.QuoteSource) *Strategy {
	synthetic := source.NewSyntheticWithSeed(logger.Nop(), 1, time.Now)
	return New(st, overseas, domestic, synthetic, testConfig(), logger.Nop())
}

func TestGetMarketData_StoredShortCircuit(t *testing.T) {
	st := newStubStore()
	st.put(time.Now(), market.DataTypeClosing, storedSnapshot(3227.68))

	live := &stubSource{name: "kis", snap: storedSnapshot(9999)}
	strat := newTestStrategy(st, nil, []source.QuoteSource{live})

	snap := strat.GetMarketData(context.Background(), market.SlotKRClose)

	assert.Equal(t, market.SourceStored, snap.Source)
	assert.Equal(t, 3227.68, snap.Indices["KOSPI"])
	// Stored tier short-circuits: no adapter is called
	assert.Zero(t, live.calls)
}

func TestGetMarketData_SlotPicksDataType(t *testing.T) {
	st := newStubStore()
	midday := storedSnapshot(3210.00)
	st.put(time.Now(), market.DataTypeMidday, midday)
	st.put(time.Now(), market.DataTypeClosing, storedSnapshot(3180.00))

	strat := newTestStrategy(st, nil, nil)

	snap := strat.GetMarketData(context.Background(), market.SlotKRMidday)
	assert.Equal(t, 3210.00, snap.Indices["KOSPI"])

	snap = strat.GetMarketData(context.Background(), market.SlotKRClose)
	assert.Equal(t, 3180.00, snap.Indices["KOSPI"])
}

func TestGetMarketData_YesterdayFallback(t *testing.T) {
	st := newStubStore()
	st.put(time.Now().AddDate(0, 0, -1), market.DataTypeClosing, storedSnapshot(3190.00))

	strat := newTestStrategy(st, nil, nil)

	snap := strat.GetMarketData(context.Background(), market.SlotKRClose)
	assert.Equal(t, market.SourceStored, snap.Source)
	assert.Equal(t, 3190.00, snap.Indices["KOSPI"])
}

func TestGetMarketData_LatestFallback(t *testing.T) {
	st := newStubStore()
	st.put(time.Now().AddDate(0, 0, -5), market.DataTypeClosing, storedSnapshot(3170.00))

	strat := newTestStrategy(st, nil, nil)

	snap := strat.GetMarketData(context.Background(), market.SlotKRClose)
	assert.Equal(t, market.SourceStored, snap.Source)
	assert.Equal(t, 3170.00, snap.Indices["KOSPI"])
}

func TestGetMarketData_InvalidStoredFallsToLive(t *testing.T) {
	st := newStubStore()
	// 저장 데이터가 엄격 검증(3개)에 못 미치면 버린다
	thin := market.NewSnapshot("kis")
	thin.Set("KOSPI", 3200.0, 5.0)
	st.put(time.Now(), market.DataTypeClosing, thin)

	liveSnap := market.NewSnapshot("naver")
	liveSnap.Set("KOSPI", 3250.0, 12.0)
	liveSnap.Set("KOSDAQ", 860.0, 3.0)
	live := &stubSource{name: "naver", snap: liveSnap}

	strat := newTestStrategy(st, nil, []source.QuoteSource{live})

	snap := strat.GetMarketData(context.Background(), market.SlotKRClose)
	assert.Equal(t, "naver", snap.Source)
	assert.Equal(t, 3250.0, snap.Indices["KOSPI"])
	assert.Equal(t, 1, live.calls)
}

func TestGetMarketData_LiveMergeDomesticWins(t *testing.T) {
	overseasSnap := market.NewSnapshot("yahoo")
	overseasSnap.Set("S&P500", 5800.0, 20.0)
	overseasSnap.Set("KOSPI", 3100.0, 1.0) // 해외 어댑터가 준 국내 지수는 밀려야 한다
	yahoo := &stubSource{name: "yahoo", snap: overseasSnap}

	domesticSnap := market.NewSnapshot("naver")
	domesticSnap.Set("KOSPI", 3250.0, 12.0)
	naver := &stubSource{name: "naver", snap: domesticSnap}

	strat := newTestStrategy(newStubStore(), []source.QuoteSource{yahoo}, []source.QuoteSource{naver})

	snap := strat.GetMarketData(context.Background(), market.SlotKRClose)

	assert.Equal(t, "yahoo+naver", snap.Source)
	assert.Equal(t, 3250.0, snap.Indices["KOSPI"])
	assert.Equal(t, 12.0, snap.Changes["KOSPI"])
	assert.Equal(t, 5800.0, snap.Indices["S&P500"])
}

func TestGetMarketData_OutOfBandAdapterNotInSource(t *testing.T) {
	// 모든 값이 대역을 벗어난 어댑터는 Source 태그에 남으면 안 된다
	badSnap := market.NewSnapshot("yahoo")
	badSnap.Set("S&P500", 99999.0, 20.0)
	badSnap.Set("DOW", 1.0, -5.0)
	yahoo := &stubSource{name: "yahoo", snap: badSnap}

	goodSnap := market.NewSnapshot("naver")
	goodSnap.Set("KOSPI", 3250.0, 12.0)
	goodSnap.Set("KOSDAQ", 860.0, 3.0)
	naver := &stubSource{name: "naver", snap: goodSnap}

	strat := newTestStrategy(newStubStore(), []source.QuoteSource{yahoo}, []source.QuoteSource{naver})

	snap := strat.GetMarketData(context.Background(), market.SlotKRClose)

	assert.Equal(t, "naver", snap.Source)
	assert.NotContains(t, snap.Indices, "S&P500")
	assert.NotContains(t, snap.Indices, "DOW")
}

func TestGetMarketData_SyntheticTerminalFallback(t *testing.T) {
	failing := &stubSource{name: "kis", err: errors.New("connection refused")}
	empty := &stubSource{name: "naver"}

	strat := newTestStrategy(newStubStore(), nil, []source.QuoteSource{failing, empty})

	snap := strat.GetMarketData(context.Background(), market.SlotKRClose)

	require.NotNil(t, snap)
	assert.Equal(t, market.SourceSynthetic, snap.Source)
	assert.True(t, market.Validate(snap, market.LiveRule(2)))
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
}

func TestGetMarketData_TotalForEverySlot(t *testing.T) {
	strat := newTestStrategy(newStubStore(), nil, nil)

	for _, slot := range market.Slots() {
		snap := strat.GetMarketData(context.Background(), slot)
		require.NotNil(t, snap, "slot %s", slot)
		assert.NotEmpty(t, snap.Indices, "slot %s", slot)
	}
}

func TestGetMarketData_LivePersistsClosing(t *testing.T) {
	st := newStubStore()

	liveSnap := market.NewSnapshot("kis")
	liveSnap.Set("KOSPI", 3250.0, 12.0)
	liveSnap.Set("KOSDAQ", 860.0, 3.0)
	live := &stubSource{name: "kis", snap: liveSnap}

	cfg := testConfig()
	cfg.PersistClosing = true
	synthetic := source.NewSyntheticWithSeed(logger.Nop(), 1, time.Now)
	strat := New(st, nil, []source.QuoteSource{live}, synthetic, cfg, logger.Nop())

	strat.GetMarketData(context.Background(), market.SlotKRClose)
	assert.Equal(t, []market.DataType{market.DataTypeClosing}, st.saved)

	// 오전장 실행은 저장하지 않는다
	st.saved = nil
	strat.GetMarketData(context.Background(), market.SlotKRMidday)
	assert.Empty(t, st.saved)
}

func TestCollectAndStoreClosing(t *testing.T) {
	st := newStubStore()

	liveSnap := market.NewSnapshot("kis")
	liveSnap.Set("KOSPI", 3250.0, 12.0)
	liveSnap.Set("KOSDAQ", 860.0, 3.0)
	live := &stubSource{name: "kis", snap: liveSnap}

	strat := newTestStrategy(st, nil, []source.QuoteSource{live})

	require.True(t, strat.CollectAndStoreClosing(context.Background()))
	assert.Equal(t, []market.DataType{market.DataTypeClosing}, st.saved)

	stored, ok := st.Load(context.Background(), time.Time{}, market.DataTypeClosing)
	require.True(t, ok)
	assert.Equal(t, 3250.0, stored.Indices["KOSPI"])
}

func TestCollectAndStoreClosing_NoValidData(t *testing.T) {
	st := newStubStore()
	failing := &stubSource{name: "kis", err: errors.New("timeout")}

	strat := newTestStrategy(st, nil, []source.QuoteSource{failing})

	assert.False(t, strat.CollectAndStoreClosing(context.Background()))
	assert.Empty(t, st.saved)
}
