package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Stats counts what a MetricPublisher has delivered.
type Stats struct {
	Published     uint64
	Failed        uint64
	LastEventTime time.Time
	ByType        map[Type]uint64
}

// MetricPublisher wraps a Publisher and records every delivery.
type MetricPublisher struct {
	publisher Publisher

	mu    sync.Mutex
	stats Stats
}

func NewMetricPublisher(publisher Publisher) *MetricPublisher {
	return &MetricPublisher{
		publisher: publisher,
		stats:     Stats{ByType: make(map[Type]uint64)},
	}
}

func (p *MetricPublisher) Publish(ctx context.Context, env Envelope) error {
	start := time.Now()
	err := p.publisher.Publish(ctx, env)
	duration := time.Since(start)

	p.mu.Lock()
	if err != nil {
		p.stats.Failed++
	} else {
		p.stats.Published++
		p.stats.ByType[env.EventType]++
	}
	p.stats.LastEventTime = env.Timestamp
	p.mu.Unlock()

	log.Debug().
		Str("event_type", string(env.EventType)).
		Uint64("sequence", env.Sequence).
		Dur("duration", duration).
		Bool("success", err == nil).
		Msg("event processed")
	return err
}

// Stats returns a copy of the counters.
func (p *MetricPublisher) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.stats
	out.ByType = make(map[Type]uint64, len(p.stats.ByType))
	for k, v := range p.stats.ByType {
		out.ByType[k] = v
	}
	return out
}
