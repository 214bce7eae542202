package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/auction/engine"
	"github.com/mcdev12/auctionhouse/go/internal/auction/orchestrator"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// StateProvider is the read side of the auction.
type StateProvider interface {
	Status(ctx context.Context) (orchestrator.Status, error)
	Team(ctx context.Context, name string) (models.Manager, error)
	Items(ctx context.Context) ([]models.Player, error)
	Item(ctx context.Context, name string) (orchestrator.ItemInfo, error)
}

// StateHandler serves the auction state over HTTP.
type StateHandler struct {
	provider StateProvider
	cm       *ConnectionManager
	health   *HealthChecker
}

func NewStateHandler(provider StateProvider, cm *ConnectionManager, health *HealthChecker) *StateHandler {
	return &StateHandler{provider: provider, cm: cm, health: health}
}

// HandleStatus handles GET /api/status
func (h *StateHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.provider.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleTeam handles GET /api/teams/{name}
func (h *StateHandler) HandleTeam(w http.ResponseWriter, r *http.Request) {
	m, err := h.provider.Team(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleItems handles GET /api/items
func (h *StateHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.provider.Items(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleItem handles GET /api/items/{name}. An unknown name answers 404 with
// the closest catalog names.
func (h *StateHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	info, err := h.provider.Item(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if info.Player == nil {
		writeJSON(w, http.StatusNotFound, info)
		return
	}
	writeJSON(w, http.StatusOK, info.Player)
}

// HandleFeed handles GET /ws
func (h *StateHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	st, err := h.provider.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.cm.UpgradeConnection(w, r, Frame{Kind: FrameSync, Status: &st}); err != nil {
		// The upgrader has already answered the request.
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
	}
}

// RegisterRoutes registers the HTTP and websocket routes on mux.
func (h *StateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /health", h.health)
	mux.HandleFunc("GET /api/status", h.HandleStatus)
	mux.HandleFunc("GET /api/teams/{name}", h.HandleTeam)
	mux.HandleFunc("GET /api/items", h.HandleItems)
	mux.HandleFunc("GET /api/items/{name}", h.HandleItem)
	mux.HandleFunc("GET /ws", h.HandleFeed)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrManagerNotFound), errors.Is(err, engine.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, orchestrator.ErrStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("gateway request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
