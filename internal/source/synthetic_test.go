package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

func TestSynthetic_AlwaysSucceeds(t *testing.T) {
	gen := NewSynthetic(logger.Nop())

	snap, err := gen.Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, market.SourceSynthetic, snap.Source)
	assert.Len(t, snap.Indices, 5)
	assert.True(t, snap.HasDomestic())
	assert.True(t, snap.HasOverseas())

	// 종목/섹터/이슈까지 채워 브리핑 본문이 지수 라인만 남지 않게 한다
	assert.Len(t, snap.Stocks, len(syntheticStocks))
	assert.Len(t, snap.Sectors, len(syntheticSectors))
	assert.NotEmpty(t, snap.Issues)
	assert.NotEmpty(t, snap.Events)
}

func TestSynthetic_AlwaysInBand(t *testing.T) {
	// 장중/장외 시각과 여러 시드를 섞어도 항상 검증을 통과해야 한다
	clocks := []time.Time{
		time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local),  // 한국장 장중
		time.Date(2026, 3, 2, 23, 0, 0, 0, time.Local),  // 미국장 장중
		time.Date(2026, 3, 2, 17, 30, 0, 0, time.Local), // 둘 다 장외
	}

	for _, clock := range clocks {
		clock := clock
		for seed := int64(0); seed < 50; seed++ {
			gen := NewSyntheticWithSeed(logger.Nop(), seed, func() time.Time { return clock })

			snap, err := gen.Fetch(context.Background())
			require.NoError(t, err)

			for name, price := range snap.Indices {
				assert.True(t, market.InBand(name, price),
					"seed %d clock %s: %s=%.2f out of band", seed, clock.Format("15:04"), name, price)
				assert.Greater(t, price, 0.0)
			}
			assert.True(t, market.Validate(snap, market.LiveRule(2)))
		}
	}
}

func TestSynthetic_Deterministic(t *testing.T) {
	clock := func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local) }

	a, err := NewSyntheticWithSeed(logger.Nop(), 42, clock).Fetch(context.Background())
	require.NoError(t, err)
	b, err := NewSyntheticWithSeed(logger.Nop(), 42, clock).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a.Indices, b.Indices)
	assert.Equal(t, a.Changes, b.Changes)
	assert.Equal(t, a.Stocks, b.Stocks)
	assert.Equal(t, a.Sectors, b.Sectors)
}
