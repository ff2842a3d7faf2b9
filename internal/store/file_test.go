package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

func newFileStoreTest(t *testing.T) *FileStore {
	t.Helper()
	st, err := NewFileStore(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	return st
}

func testSnapshot() *market.Snapshot {
	snap := market.NewSnapshot("kis")
	snap.Set("KOSPI", 3227.68, 29.54)
	snap.Set("KOSDAQ", 805.81, 2.41)
	snap.Set("S&P500", 5842.50, 42.50)
	return snap
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	st := newFileStoreTest(t)
	ctx := context.Background()

	require.True(t, st.Save(ctx, testSnapshot(), market.DataTypeClosing))

	// Zero date means today
	loaded, ok := st.Load(ctx, time.Time{}, market.DataTypeClosing)
	require.True(t, ok)
	assert.Equal(t, 3227.68, loaded.Indices["KOSPI"])
	assert.Equal(t, 29.54, loaded.Changes["KOSPI"])
	assert.Equal(t, "kis", loaded.Source)

	// Different data type is absent
	_, ok = st.Load(ctx, time.Time{}, market.DataTypeMidday)
	assert.False(t, ok)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	st := newFileStoreTest(t)
	ctx := context.Background()

	require.True(t, st.Save(ctx, testSnapshot(), market.DataTypeClosing))

	updated := market.NewSnapshot("naver")
	updated.Set("KOSPI", 3250.00, 10.00)
	require.True(t, st.Save(ctx, updated, market.DataTypeClosing))

	loaded, ok := st.Load(ctx, time.Time{}, market.DataTypeClosing)
	require.True(t, ok)
	assert.Equal(t, 3250.00, loaded.Indices["KOSPI"])
	assert.Equal(t, "naver", loaded.Source)
}

func TestFileStore_LoadAbsent(t *testing.T) {
	st := newFileStoreTest(t)

	_, ok := st.Load(context.Background(), time.Time{}, market.DataTypeClosing)
	assert.False(t, ok)
}

func TestFileStore_LoadCorruptFile(t *testing.T) {
	st := newFileStoreTest(t)
	ctx := context.Background()

	path := st.filePath(time.Now().Format("2006-01-02"), market.DataTypeClosing)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	// Corrupt record reads as absent, never as an error
	_, ok := st.Load(ctx, time.Time{}, market.DataTypeClosing)
	assert.False(t, ok)
}

func TestFileStore_Latest(t *testing.T) {
	st := newFileStoreTest(t)
	ctx := context.Background()

	_, ok := st.Latest(ctx, market.DataTypeClosing)
	assert.False(t, ok)

	// Write records under older dates directly
	writeDatedRecord(t, st, "2026-08-25", market.DataTypeClosing, 3100.00)
	writeDatedRecord(t, st, "2026-08-28", market.DataTypeClosing, 3180.00)
	writeDatedRecord(t, st, "2026-08-27", market.DataTypeClosing, 3150.00)
	writeDatedRecord(t, st, "2026-08-29", market.DataTypeMidday, 3199.00)

	latest, ok := st.Latest(ctx, market.DataTypeClosing)
	require.True(t, ok)
	assert.Equal(t, 3180.00, latest.Indices["KOSPI"])
}

func TestFileStore_Purge(t *testing.T) {
	st := newFileStoreTest(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -40).Format("2006-01-02")
	recent := time.Now().AddDate(0, 0, -3).Format("2006-01-02")
	writeDatedRecord(t, st, old, market.DataTypeClosing, 3000.00)
	writeDatedRecord(t, st, recent, market.DataTypeClosing, 3200.00)

	deleted := st.Purge(ctx, 30)
	assert.Equal(t, 1, deleted)

	available := st.List(ctx)
	assert.NotContains(t, available, old)
	assert.Contains(t, available, recent)
}

func TestFileStore_List(t *testing.T) {
	st := newFileStoreTest(t)
	ctx := context.Background()

	assert.Empty(t, st.List(ctx))

	writeDatedRecord(t, st, "2026-08-28", market.DataTypeClosing, 3180.00)
	writeDatedRecord(t, st, "2026-08-28", market.DataTypeMidday, 3170.00)
	writeDatedRecord(t, st, "2026-08-27", market.DataTypeClosing, 3150.00)

	available := st.List(ctx)
	assert.Len(t, available, 2)
	assert.ElementsMatch(t, []market.DataType{market.DataTypeClosing, market.DataTypeMidday}, available["2026-08-28"])
	assert.Equal(t, []market.DataType{market.DataTypeClosing}, available["2026-08-27"])
}

// writeDatedRecord writes a record file under an explicit date
func writeDatedRecord(t *testing.T, st *FileStore, date string, dataType market.DataType, kospi float64) {
	t.Helper()

	body := fmt.Sprintf(`{"date":%q,"data_type":%q,"collected_at":"2026-08-28T16:00:00+09:00","market_data":{"indices":{"KOSPI":%f},"changes":{"KOSPI":0},"source":"test","collected_at":"2026-08-28T16:00:00+09:00"}}`,
		date, dataType, kospi)
	path := filepath.Join(st.dataDir, fmt.Sprintf("%s_%s.json", date, dataType))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}
