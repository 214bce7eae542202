package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Type names a domain event. The value doubles as the NATS subject suffix.
type Type string

const (
	PlayerNominated  Type = "player.nominated"
	PlayerSold       Type = "player.sold"
	PlayerUnsold     Type = "player.unsold"
	PlayerRetained   Type = "player.retained"
	PlayerEdited     Type = "player.edited"
	BidPlaced        Type = "bid.placed"
	StealStarted     Type = "steal.started"
	DraftStarted     Type = "draft.started"
	DraftTurn        Type = "draft.turn"
	DraftSkipped     Type = "draft.skipped"
	DraftPicked      Type = "draft.picked"
	DraftFinalized   Type = "draft.finalized"
	DraftCompleted   Type = "draft.completed"
	CountdownVoided  Type = "countdown.voided"
	AuctionPaused    Type = "auction.paused"
	AuctionResumed   Type = "auction.resumed"
	AuctionReset     Type = "auction.reset"
	AuctionUndone    Type = "auction.undone"
	ManagerAdded     Type = "manager.added"
	ManagerRemoved   Type = "manager.removed"
	BudgetExhausted  Type = "manager.budget_exhausted"
	CapSet           Type = "config.cap_set"
	QueueBuilt       Type = "queue.built"
	QueueSkipped     Type = "queue.skipped"
	QueueExhausted   Type = "queue.exhausted"
	CountdownStarted Type = "countdown.started"
)

// Event is a domain event produced by the engine. Payload is one of the *Payload types.
type Event struct {
	Type    Type `json:"type"`
	Payload any  `json:"payload,omitempty"`
}

// Envelope is the published form of an Event.
type Envelope struct {
	EventID   uuid.UUID       `json:"eventId"`
	EventType Type            `json:"eventType"`
	Sequence  uint64          `json:"sequence"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`

	// Event keeps the typed payload for in-process consumers; it is not serialized.
	Event Event `json:"-"`
}

// NewEnvelope wraps an event with an ID and timestamp.
func NewEnvelope(seq uint64, at time.Time, e Event) (Envelope, error) {
	env := Envelope{
		EventID:   uuid.New(),
		EventType: e.Type,
		Sequence:  seq,
		Timestamp: at.UTC(),
		Event:     e,
	}
	if e.Payload != nil {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", e.Type, err)
		}
		env.Payload = b
	}
	return env, nil
}

// Publisher delivers envelopes to a sink.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, env Envelope) error

func (f PublisherFunc) Publish(ctx context.Context, env Envelope) error { return f(ctx, env) }

// Fanout publishes to every sink and joins the errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, env Envelope) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, env); err != nil {
			log.Error().
				Err(err).
				Str("event_type", string(env.EventType)).
				Str("event_id", env.EventID.String()).
				Msg("failed to publish event")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
