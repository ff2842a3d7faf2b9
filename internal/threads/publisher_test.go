package threads

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

func newTestPublisher() *Publisher {
	return NewPublisher(newTestClient(config.ThreadsConfig{}), logger.Nop())
}

func TestPublisher_SingleHistoryRecordPerAttempt(t *testing.T) {
	pub := newTestPublisher()

	result := pub.PublishBriefing(context.Background(), market.SlotKRClose, "한국시장 마감 요약", "본문")

	require.True(t, result.Success)
	history := pub.History()
	require.Len(t, history, 1)
	assert.Equal(t, market.SlotKRClose, history[0].TimeSlot)
	assert.Equal(t, "한국시장 마감 요약", history[0].Topic)
	assert.Equal(t, "본문", history[0].Content)
	assert.Same(t, result, history[0].Result)
}

func TestPublisher_PostStats(t *testing.T) {
	pub := newTestPublisher()
	ctx := context.Background()

	assert.Equal(t, 0, pub.PostStats().TotalPosts)
	assert.Nil(t, pub.PostStats().LastPost)

	pub.PublishBriefing(ctx, market.SlotUSClose, "미국 증시 마감 요약", "a")
	pub.PublishBriefing(ctx, market.SlotKRClose, "한국시장 마감 요약", "b")
	pub.PublishBriefing(ctx, market.SlotKRClose, "한국시장 마감 요약", "c")

	stats := pub.PostStats()
	assert.Equal(t, 3, stats.TotalPosts)
	assert.Equal(t, 1, stats.TimeSlotStats[market.SlotUSClose])
	assert.Equal(t, 2, stats.TimeSlotStats[market.SlotKRClose])
	require.NotNil(t, stats.LastPost)
	assert.Equal(t, "c", stats.LastPost.Content)
}

func TestPublisher_HistoryIsCopied(t *testing.T) {
	pub := newTestPublisher()
	pub.PublishBriefing(context.Background(), market.SlotKRClose, "주제", "본문")

	history := pub.History()
	history[0].Content = "변조"

	assert.Equal(t, "본문", pub.History()[0].Content)
}
