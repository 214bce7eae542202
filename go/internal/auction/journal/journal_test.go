package journal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
)

func TestWriterRoundTripAndRotation(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "auction")
	day1 := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return day1 }

	publish := func(seq uint64, amount int64) {
		env, err := events.NewEnvelope(seq, day1, events.Event{
			Type:    events.BidPlaced,
			Payload: events.BidPayload{Player: "P1", Manager: "Alice", Amount: amount},
		})
		require.NoError(t, err)
		require.NoError(t, w.Publish(context.Background(), env))
	}

	publish(1, 2_000_000)
	publish(2, 3_000_000)

	day2 := day1.Add(2 * time.Minute)
	w.now = func() time.Time { return day2 }
	publish(3, 4_000_000)
	require.NoError(t, w.Close())

	first, err := ReadFile(w.Path(day1))
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, uint64(1), first[0].Sequence)
	assert.Equal(t, events.BidPlaced, first[1].EventType)

	var bid events.BidPayload
	require.NoError(t, json.Unmarshal(first[1].Payload, &bid))
	assert.Equal(t, int64(3_000_000), bid.Amount)

	second, err := ReadFile(w.Path(day2))
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, uint64(3), second[0].Sequence)
}

func TestWriterAppendsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for seq := uint64(1); seq <= 2; seq++ {
		w := NewWriter(dir, "auction")
		w.now = func() time.Time { return at }
		env, err := events.NewEnvelope(seq, at, events.Event{Type: events.AuctionPaused})
		require.NoError(t, err)
		require.NoError(t, w.Publish(context.Background(), env))
		require.NoError(t, w.Close())
	}

	envs, err := ReadFile(NewWriter(dir, "auction").Path(at))
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, uint64(2), envs[1].Sequence)
}
