package store

import (
	"context"
	"time"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
)

// Record is the persisted form of a market snapshot
type Record struct {
	Date        string           `json:"date"` // YYYY-MM-DD
	DataType    market.DataType  `json:"data_type"`
	CollectedAt time.Time        `json:"collected_at"`
	MarketData  *market.Snapshot `json:"market_data"`
}

// Store persists snapshots keyed by (calendar date, data type).
// ⭐ SSOT: 스냅샷 영속화 계약은 여기서만 정의
//
// Persistence failure never aborts the workflow: Save reports false,
// Load/Latest report absent, Purge reports zero. Callers log and degrade.
type Store interface {
	// Save writes the snapshot keyed by (today, dataType), overwriting
	// any existing record for the same key.
	Save(ctx context.Context, snap *market.Snapshot, dataType market.DataType) bool

	// Load reads the record for (date, dataType). A zero date means today.
	// The second return is false when no matching record exists.
	Load(ctx context.Context, date time.Time, dataType market.DataType) (*market.Snapshot, bool)

	// Latest returns the most recently written record of the given type
	// regardless of date.
	Latest(ctx context.Context, dataType market.DataType) (*market.Snapshot, bool)

	// Purge deletes records older than retainDays and returns the number
	// of records deleted.
	Purge(ctx context.Context, retainDays int) int

	// List returns the available data types per date (YYYY-MM-DD keys).
	List(ctx context.Context) map[string][]market.DataType
}

// dateKey formats a date as the store key (zero value means today)
func dateKey(date time.Time) string {
	if date.IsZero() {
		date = time.Now()
	}
	return date.Format("2006-01-02")
}
