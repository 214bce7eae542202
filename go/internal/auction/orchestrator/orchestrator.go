// Package orchestrator runs the live auction. A single goroutine owns every
// state change: public methods post a command to its inbox and wait for the
// reply, and countdown timers post their expiry to the same inbox. Reads and
// writes of the store are therefore never interleaved.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/auction/engine"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/auction/store"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// ErrStopped is returned once Run has exited.
var ErrStopped = errors.New("orchestrator stopped")

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// Config holds the countdown lengths.
type Config struct {
	BidCountdown   time.Duration `yaml:"bid_countdown"`
	StealCountdown time.Duration `yaml:"steal_countdown"`
}

// DefaultConfig returns 5s to outbid and 15s to steal.
func DefaultConfig() Config {
	return Config{BidCountdown: 5 * time.Second, StealCountdown: 15 * time.Second}
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// command runs inside the loop goroutine.
type command struct {
	ctx   context.Context
	op    string
	run   func(ctx context.Context) error
	reply chan error
}

type Orchestrator struct {
	store  store.Store
	engine *engine.Engine
	pub    events.Publisher
	clock  Clock
	cfg    Config

	inbox   chan any
	outbox  chan events.Envelope
	stopped chan struct{}
	running atomic.Bool

	// Owned by the loop goroutine.
	countdowns map[countdownKind]*countdown
	gen        uint64
	seq        uint64
}

// New creates an Orchestrator. Nothing happens until Run is called.
func New(st store.Store, eng *engine.Engine, pub events.Publisher, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      st,
		engine:     eng,
		pub:        pub,
		clock:      clockwork.NewRealClock(),
		cfg:        cfg,
		inbox:      make(chan any, 64),
		outbox:     make(chan events.Envelope, 1024),
		stopped:    make(chan struct{}),
		countdowns: make(map[countdownKind]*countdown),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes commands until ctx is cancelled. Countdowns that were live in
// the stored state are restarted first.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return errors.New("orchestrator already running")
	}

	pubDone := make(chan struct{})
	go o.publishLoop(pubDone)
	defer func() {
		o.cancelAll()
		close(o.stopped)
		close(o.outbox)
		<-pubDone
		log.Info().Msg("orchestrator stopped")
	}()

	if err := o.rearm(ctx); err != nil {
		return fmt.Errorf("restore countdowns: %w", err)
	}
	log.Info().
		Dur("bid_countdown", o.cfg.BidCountdown).
		Dur("steal_countdown", o.cfg.StealCountdown).
		Msg("orchestrator started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-o.inbox:
			switch msg := m.(type) {
			case command:
				msg.reply <- msg.run(msg.ctx)
			case timerFired:
				o.handleFire(ctx, msg)
			}
		}
	}
}

// exec posts fn to the loop and waits for it to finish.
func (o *Orchestrator) exec(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	reply := make(chan error, 1)
	select {
	case o.inbox <- command{ctx: ctx, op: op, run: fn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-o.stopped:
		return ErrStopped
	}

	select {
	case err := <-reply:
		logResult(op, err)
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-o.stopped:
		return ErrStopped
	}
}

// mutation is an engine call against loaded records.
type mutation func(s *models.AuctionState, c models.Catalog) (engine.Result, error)

// mutate commits fn through the store and then acts on its result.
func (o *Orchestrator) mutate(ctx context.Context, fn mutation) error {
	var (
		res   engine.Result
		state *models.AuctionState
	)
	err := o.store.Update(ctx, func(s *models.AuctionState, c models.Catalog) error {
		var err error
		res, err = fn(s, c)
		state = s
		return err
	})
	if err != nil {
		return err
	}
	o.apply(ctx, state, res)
	return nil
}

// apply cancels and starts countdowns, then publishes the events. s is the
// state res was produced against.
func (o *Orchestrator) apply(ctx context.Context, s *models.AuctionState, res engine.Result) {
	if res.CancelBid {
		o.cancelCountdown(bidCountdown)
	}
	if res.CancelSteal {
		o.cancelCountdown(stealCountdown)
	}
	o.emit(res.Events...)

	if res.Bid != nil {
		o.startCountdown(bidCountdown, o.cfg.BidCountdown, countdown{bid: *res.Bid})
		o.emit(events.Event{Type: events.CountdownStarted, Payload: events.CountdownPayload{
			Countdown: bidCountdown.String(),
			Player:    playerName(s, res.Bid.Player),
			Manager:   managerName(s, res.Bid.Bidder),
			Seconds:   int(o.cfg.BidCountdown / time.Second),
		}})
	}
	if res.Steal != nil {
		o.startCountdown(stealCountdown, o.cfg.StealCountdown, countdown{steal: *res.Steal})
		o.emit(events.Event{Type: events.CountdownStarted, Payload: events.CountdownPayload{
			Countdown: stealCountdown.String(),
			Player:    playerName(s, res.Steal.Player),
			Manager:   managerName(s, res.Steal.Drafter),
			Seconds:   int(o.cfg.StealCountdown / time.Second),
		}})
	}
}

func (o *Orchestrator) handleFire(ctx context.Context, f timerFired) {
	cd, ok := o.takeFired(f)
	if !ok {
		return
	}

	var fn mutation
	switch f.kind {
	case bidCountdown:
		fn = func(s *models.AuctionState, c models.Catalog) (engine.Result, error) {
			return o.engine.ExpireBid(s, c, cd.bid), nil
		}
	case stealCountdown:
		fn = func(s *models.AuctionState, c models.Catalog) (engine.Result, error) {
			return o.engine.ExpireSteal(s, c, cd.steal), nil
		}
	}
	if err := o.mutate(ctx, fn); err != nil {
		log.Error().Err(err).Str("countdown", f.kind.String()).Msg("failed to settle countdown")
	}
}

// rearm restarts the countdowns a stored live state needs.
func (o *Orchestrator) rearm(ctx context.Context) error {
	s, _, err := o.store.Load(ctx)
	if err != nil {
		return err
	}
	o.apply(ctx, s, o.engine.Rearm(s))
	return nil
}

// playerName resolves a catalog key to the name of the player on the block.
func playerName(s *models.AuctionState, key string) string {
	if s != nil && s.OnBlock != nil && s.OnBlock.Player.Key() == key {
		return s.OnBlock.Player.Name
	}
	return key
}

func managerName(s *models.AuctionState, key string) string {
	if s != nil {
		if m, ok := s.Managers[key]; ok {
			return m.Name
		}
	}
	return key
}

// emit wraps events in envelopes and queues them for publishing.
func (o *Orchestrator) emit(evs ...events.Event) {
	for _, e := range evs {
		o.seq++
		env, err := events.NewEnvelope(o.seq, o.clock.Now(), e)
		if err != nil {
			log.Error().Err(err).Str("event_type", string(e.Type)).Msg("failed to build event envelope")
			continue
		}
		o.outbox <- env
	}
}

// publishLoop hands envelopes to the publisher in order, off the loop goroutine.
func (o *Orchestrator) publishLoop(done chan<- struct{}) {
	defer close(done)
	for env := range o.outbox {
		if o.pub == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := o.pub.Publish(ctx, env); err != nil {
			log.Error().Err(err).Str("event_type", string(env.EventType)).Msg("failed to publish event")
		}
		cancel()
	}
}

func logResult(op string, err error) {
	switch {
	case err == nil:
		log.Info().Str("op", op).Msg("command applied")
	case engine.IsValidation(err) || errors.Is(err, store.ErrNoBackupAvailable):
		log.Info().Str("op", op).Str("reason", err.Error()).Msg("command rejected")
	case errors.Is(err, context.Canceled), errors.Is(err, ErrStopped):
		log.Warn().Str("op", op).Err(err).Msg("command abandoned")
	default:
		log.Error().Str("op", op).Err(err).Msg("command failed")
	}
}
