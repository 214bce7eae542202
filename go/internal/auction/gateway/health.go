package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Healthy         bool      `json:"healthy"`
	Connections     int       `json:"connections"`
	EventsPublished uint64    `json:"events_published"`
	PublishFailures uint64    `json:"publish_failures"`
	LastEventTime   time.Time `json:"last_event_time"`
	NATSConnected   *bool     `json:"nats_connected,omitempty"`
	Errors          []string  `json:"errors"`
}

// PublishStats is implemented by events.MetricPublisher.
type PublishStats interface {
	Stats() events.Stats
}

// Connectivity is implemented by publishers that hold a network connection.
type Connectivity interface {
	Connected() bool
}

// HealthSources are the optional dependencies the health check reports on.
type HealthSources struct {
	Publisher PublishStats
	NATS      Connectivity
}

// HealthChecker reports whether the auction loop answers and its sinks are up.
type HealthChecker struct {
	provider StateProvider
	cm       *ConnectionManager
	sources  HealthSources
	timeout  time.Duration
}

func NewHealthChecker(provider StateProvider, cm *ConnectionManager, sources HealthSources) *HealthChecker {
	return &HealthChecker{provider: provider, cm: cm, sources: sources, timeout: 2 * time.Second}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:     true,
		Connections: h.cm.Count(),
		Errors:      []string{},
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if _, err := h.provider.Status(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("auction unavailable: %v", err))
	}

	if h.sources.Publisher != nil {
		st := h.sources.Publisher.Stats()
		status.EventsPublished = st.Published
		status.PublishFailures = st.Failed
		status.LastEventTime = st.LastEventTime
	}

	if h.sources.NATS != nil {
		connected := h.sources.NATS.Connected()
		status.NATSConnected = &connected
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}
	return status
}

// ServeHTTP answers 200 when healthy and 503 otherwise.
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
