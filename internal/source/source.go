package source

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
)

// QuoteSource fetches current index quotes from one origin.
// ⭐ SSOT: 시세 어댑터 계약은 여기서만 정의
//
// Fetch returns an empty snapshot (not an error) on soft failures such as
// missing credentials; the strategy treats both empty results and errors
// as "try the next adapter". Implementations never panic.
type QuoteSource interface {
	Name() string
	Fetch(ctx context.Context) (*market.Snapshot, error)
}

// newLimiter spaces consecutive network calls from one adapter.
// 공급자 차단 방지용 최소 호출 간격 (1~3초 수준)
func newLimiter(interval rate.Limit) *rate.Limiter {
	return rate.NewLimiter(interval, 1)
}
