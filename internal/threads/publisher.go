package threads

import (
	"context"
	"sync"
	"time"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// PostRecord is one entry in the publish history
type PostRecord struct {
	TimeSlot  market.TimeSlot `json:"time_slot"`
	Topic     string          `json:"topic"`
	Content   string          `json:"content"`
	Result    *PostResult     `json:"result"`
	Timestamp time.Time       `json:"timestamp"`
}

// Stats summarizes the publish history
type Stats struct {
	TotalPosts    int                     `json:"total_posts"`
	TimeSlotStats map[market.TimeSlot]int `json:"time_slot_stats"`
	LastPost      *PostRecord             `json:"last_post,omitempty"`
}

// Publisher posts briefings and keeps an append-only in-memory history.
// 게시 기록은 프로세스 수명 동안만 유지된다.
type Publisher struct {
	client *Client
	logger *logger.Logger

	mu      sync.Mutex
	history []PostRecord
}

// NewPublisher wraps a Threads client with history tracking
func NewPublisher(client *Client, log *logger.Logger) *Publisher {
	return &Publisher{client: client, logger: log}
}

// Configured reports whether real publishing is possible
func (p *Publisher) Configured() bool {
	return p.client.Configured()
}

// PublishBriefing posts one briefing and records the attempt. Exactly one
// history record per call, whether the post was real or simulated.
func (p *Publisher) PublishBriefing(ctx context.Context, slot market.TimeSlot, topic, content string) *PostResult {
	result := p.client.Post(ctx, content)

	p.mu.Lock()
	p.history = append(p.history, PostRecord{
		TimeSlot:  slot,
		Topic:     topic,
		Content:   content,
		Result:    result,
		Timestamp: time.Now(),
	})
	p.mu.Unlock()

	p.logger.WithFields(map[string]interface{}{
		"slot":      string(slot),
		"topic":     topic,
		"simulated": result.Simulated,
	}).Info("Briefing published")

	return result
}

// History returns a copy of the publish history, oldest first
func (p *Publisher) History() []PostRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PostRecord, len(p.history))
	copy(out, p.history)
	return out
}

// PostStats aggregates totals and per-slot counts
func (p *Publisher) PostStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := Stats{
		TotalPosts:    len(p.history),
		TimeSlotStats: make(map[market.TimeSlot]int),
	}
	for _, record := range p.history {
		stats.TimeSlotStats[record.TimeSlot]++
	}
	if len(p.history) > 0 {
		last := p.history[len(p.history)-1]
		stats.LastPost = &last
	}
	return stats
}
