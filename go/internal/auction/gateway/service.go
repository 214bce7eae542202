// Package gateway exposes the auction to browsers: read-only JSON endpoints and
// a websocket feed of live events.
package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
)

// Service bundles the websocket fan-out with the HTTP handlers.
type Service struct {
	connectionManager *ConnectionManager
	stateHandler      *StateHandler
}

// NewService creates a gateway backed by provider.
func NewService(config ConnectionConfig, provider StateProvider, sources HealthSources) *Service {
	cm := NewConnectionManager(config)
	return &Service{
		connectionManager: cm,
		stateHandler:      NewStateHandler(provider, cm, NewHealthChecker(provider, cm, sources)),
	}
}

// Start runs the broadcaster until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting auction gateway")
	s.connectionManager.Start(ctx)
	return nil
}

// Publisher returns the sink the orchestrator publishes viewer events to.
func (s *Service) Publisher() events.Publisher {
	return s.connectionManager
}

// RegisterRoutes registers the gateway routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.stateHandler.RegisterRoutes(mux)
	log.Info().Msg("auction gateway routes registered")
}
