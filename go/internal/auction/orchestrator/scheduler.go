package orchestrator

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/auction/engine"
)

// countdownKind tells the two countdowns apart. At most one of each runs.
type countdownKind int

const (
	bidCountdown countdownKind = iota
	stealCountdown
)

func (k countdownKind) String() string {
	if k == bidCountdown {
		return "bid"
	}
	return "steal"
}

// countdown is a scheduled expiry. gen identifies it; a fire carrying an older
// gen belongs to a countdown that was replaced or cancelled and is dropped.
type countdown struct {
	gen      uint64
	timer    clockwork.Timer
	stop     chan struct{}
	deadline time.Time
	bid      engine.BidCountdown
	steal    engine.StealCountdown
}

// timerFired is posted to the inbox by the goroutine watching a countdown.
type timerFired struct {
	kind countdownKind
	gen  uint64
}

// startCountdown replaces any countdown of the same kind. Only the loop
// goroutine calls it.
func (o *Orchestrator) startCountdown(kind countdownKind, d time.Duration, cd countdown) {
	o.cancelCountdown(kind)

	o.gen++
	cd.gen = o.gen
	cd.timer = o.clock.NewTimer(d)
	cd.stop = make(chan struct{})
	cd.deadline = o.clock.Now().Add(d)
	o.countdowns[kind] = &cd

	go func(kind countdownKind, gen uint64, t clockwork.Timer, stop <-chan struct{}) {
		select {
		case <-t.Chan():
			select {
			case o.inbox <- timerFired{kind: kind, gen: gen}:
				log.Debug().Str("countdown", kind.String()).Uint64("gen", gen).Msg("countdown fired")
			case <-stop:
			case <-o.stopped:
			}
		case <-stop:
		}
	}(kind, cd.gen, cd.timer, cd.stop)

	log.Debug().
		Str("countdown", kind.String()).
		Uint64("gen", cd.gen).
		Time("deadline", cd.deadline).
		Dur("duration", d).
		Msg("scheduled countdown")
}

// cancelCountdown stops a countdown. Cancelling one that is not running is a no-op.
func (o *Orchestrator) cancelCountdown(kind countdownKind) {
	cd, ok := o.countdowns[kind]
	if !ok {
		return
	}
	stopAndDrainTimer(cd.timer)
	close(cd.stop)
	delete(o.countdowns, kind)
	log.Debug().Str("countdown", kind.String()).Uint64("gen", cd.gen).Msg("cancelled countdown")
}

func (o *Orchestrator) cancelAll() {
	o.cancelCountdown(bidCountdown)
	o.cancelCountdown(stealCountdown)
}

// takeFired returns the countdown a fire belongs to and forgets it, or false
// for a stale fire.
func (o *Orchestrator) takeFired(f timerFired) (*countdown, bool) {
	cd, ok := o.countdowns[f.kind]
	if !ok || cd.gen != f.gen {
		log.Debug().Str("countdown", f.kind.String()).Uint64("gen", f.gen).Msg("dropping stale countdown fire")
		return nil, false
	}
	delete(o.countdowns, f.kind)
	return cd, true
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
