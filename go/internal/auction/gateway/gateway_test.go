package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionhouse/go/internal/auction/engine"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/auction/orchestrator"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

type fakeProvider struct {
	state   *models.AuctionState
	catalog models.Catalog
	err     error
}

func (f *fakeProvider) Status(context.Context) (orchestrator.Status, error) {
	if f.err != nil {
		return orchestrator.Status{}, f.err
	}
	return orchestrator.Status{State: f.state, CatalogSize: len(f.catalog)}, nil
}

func (f *fakeProvider) Team(_ context.Context, name string) (models.Manager, error) {
	m, ok := f.state.Manager(name)
	if !ok {
		return models.Manager{}, fmt.Errorf("%w: %q", engine.ErrManagerNotFound, name)
	}
	return *m, nil
}

func (f *fakeProvider) Items(context.Context) ([]models.Player, error) {
	return f.catalog.Sorted(), nil
}

func (f *fakeProvider) Item(_ context.Context, name string) (orchestrator.ItemInfo, error) {
	if p, ok := f.catalog.Get(name); ok {
		return orchestrator.ItemInfo{Player: &p}, nil
	}
	return orchestrator.ItemInfo{Suggestions: engine.Suggest(f.catalog, name, 5)}, nil
}

func newProvider() *fakeProvider {
	s := models.NewAuctionState()
	s.Managers["alice"] = &models.Manager{Name: "Alice", Budget: 90, Spent: 10, Players: []string{"P0 ($10M)"}}
	c := models.Catalog{}
	c.Put(models.Player{Name: "Virat Kohli", Team: "RCB", BasePrice: 2_000_000})
	c.Put(models.Player{Name: "Rohit Sharma", Team: "MI", BasePrice: 2_000_000})
	return &fakeProvider{state: s, catalog: c}
}

type natsState bool

func (n natsState) Connected() bool { return bool(n) }

func newServer(t *testing.T, p StateProvider, sources ...HealthSources) (*Service, *httptest.Server) {
	t.Helper()
	var hs HealthSources
	if len(sources) > 0 {
		hs = sources[0]
	}
	svc := NewService(DefaultConnectionConfig(), p, hs)
	ctx, cancel := context.WithCancel(context.Background())
	go svc.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return svc, srv
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestHTTPRoutes(t *testing.T) {
	_, srv := newServer(t, newProvider())

	var st orchestrator.Status
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/status", &st))
	assert.Equal(t, 2, st.CatalogSize)
	assert.Contains(t, st.State.Managers, "alice")

	var m models.Manager
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/teams/ALICE", &m))
	assert.Equal(t, []string{"P0 ($10M)"}, m.Players)

	var e errorResponse
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/teams/bob", &e))
	assert.Contains(t, e.Error, "manager not found")

	var items []models.Player
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/items", &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Rohit Sharma", items[0].Name)

	var p models.Player
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/items/virat%20kohli", &p))
	assert.Equal(t, "RCB", p.Team)

	var info orchestrator.ItemInfo
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/items/virat", &info))
	assert.Contains(t, info.Suggestions, "Virat Kohli")
}

func TestStoppedProviderIsUnavailable(t *testing.T) {
	_, srv := newServer(t, &fakeProvider{err: orchestrator.ErrStopped})

	var e errorResponse
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv.URL+"/api/status", &e))

	var health HealthStatus
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv.URL+"/health", &health))
	assert.False(t, health.Healthy)
	require.Len(t, health.Errors, 1)
	assert.Contains(t, health.Errors[0], "auction unavailable")
}

func TestHealthReportsPublishers(t *testing.T) {
	metrics := events.NewMetricPublisher(events.PublisherFunc(func(context.Context, events.Envelope) error { return nil }))
	require.NoError(t, metrics.Publish(context.Background(), events.Envelope{EventType: events.BidPlaced, Timestamp: time.Now()}))

	_, srv := newServer(t, newProvider(), HealthSources{Publisher: metrics, NATS: natsState(true)})
	var health HealthStatus
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &health))
	assert.True(t, health.Healthy)
	assert.Equal(t, uint64(1), health.EventsPublished)
	require.NotNil(t, health.NATSConnected)
	assert.True(t, *health.NATSConnected)

	_, down := newServer(t, newProvider(), HealthSources{NATS: natsState(false)})
	health = HealthStatus{}
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, down.URL+"/health", &health))
	assert.Equal(t, []string{"NATS disconnected"}, health.Errors)
}

func TestFeedSendsSyncThenEvents(t *testing.T) {
	svc, srv := newServer(t, newProvider())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var sync Frame
	require.NoError(t, conn.ReadJSON(&sync))
	assert.Equal(t, FrameSync, sync.Kind)
	require.NotNil(t, sync.Status)
	assert.Equal(t, models.PhaseIdle, sync.Status.State.Phase)

	env, err := events.NewEnvelope(1, time.Now(), events.Event{
		Type:    events.BidPlaced,
		Payload: events.BidPayload{Player: "Virat Kohli", Manager: "Alice", Amount: 3_000_000},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Publisher().Publish(context.Background(), env))

	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, FrameEvent, frame.Kind)
	require.NotNil(t, frame.Event)
	assert.Equal(t, events.BidPlaced, frame.Event.EventType)
	assert.Equal(t, env.EventID, frame.Event.EventID)

	var bid events.BidPayload
	require.NoError(t, json.Unmarshal(frame.Event.Payload, &bid))
	assert.Equal(t, int64(3_000_000), bid.Amount)
}
