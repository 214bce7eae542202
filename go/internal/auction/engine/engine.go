// Package engine holds the auction state machine. Every operation validates
// against the state it is given, mutates it in place on success, and returns a
// Result describing the events produced and the countdowns to start or cancel.
// Nothing in here blocks or keeps state between calls.
package engine

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/mcdev12/auctionhouse/go/internal/auction/draftorder"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/auction/queue"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// BidCountdown identifies the sale a bid countdown will settle.
type BidCountdown struct {
	Player string // catalog key
	Bidder string // manager key
	Amount int64
}

// StealCountdown identifies the draft pick a steal countdown will confirm.
type StealCountdown struct {
	Player  string // catalog key
	Drafter string // manager key
}

// Result is what an operation asks of its caller.
type Result struct {
	Events      []events.Event
	Bid         *BidCountdown   // start (or replace) the bid countdown
	Steal       *StealCountdown // start (or replace) the steal countdown
	CancelBid   bool
	CancelSteal bool
}

func (r *Result) emit(t events.Type, payload any) {
	r.Events = append(r.Events, events.Event{Type: t, Payload: payload})
}

// Engine applies auction operations. It is not safe for concurrent use; the
// orchestrator serializes calls.
type Engine struct {
	tiers queue.Tiers
	rng   *rand.Rand
}

// New creates an Engine. rng drives the shuffle of the nomination queue.
func New(tiers queue.Tiers, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Engine{tiers: tiers, rng: rng}
}

// Nominate puts a catalog player on the block at its base price.
func (e *Engine) Nominate(s *models.AuctionState, c models.Catalog, name string) (Result, error) {
	var res Result
	if s.Phase != models.PhaseIdle {
		return res, fmt.Errorf("%w: nominate while %s", ErrWrongPhase, s.Phase)
	}
	p, ok := c.Get(name)
	if !ok {
		return res, fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}
	nominate(s, p, &res)
	return res, nil
}

func nominate(s *models.AuctionState, p models.Player, res *Result) {
	s.Phase = models.PhaseBidding
	s.OnBlock = &models.OnBlock{Player: p, CurrentBid: p.BasePrice}
	res.emit(events.PlayerNominated, events.PlayerPayload{Player: p})
}

// Bid raises the current bid on the block.
func (e *Engine) Bid(s *models.AuctionState, manager string, amount int64) (Result, error) {
	var res Result
	if s.Phase != models.PhaseBidding || s.OnBlock == nil {
		return res, fmt.Errorf("%w: bid while %s", ErrWrongPhase, s.Phase)
	}
	key := models.Key(manager)
	m, ok := s.Managers[key]
	if !ok {
		return res, fmt.Errorf("%w: %q", ErrManagerNotFound, manager)
	}
	ob := s.OnBlock
	if amount <= ob.CurrentBid {
		return res, fmt.Errorf("%w: %d is not above %d", ErrBidTooLow, amount, ob.CurrentBid)
	}
	if amount > m.Budget {
		return res, fmt.Errorf("%w: bid %d, budget %d", ErrInsufficientFunds, amount, m.Budget)
	}
	if !s.HasRoom(m) {
		return res, fmt.Errorf("%w: %d of %d", ErrRosterFull, m.Holdings(), s.ItemCap)
	}
	if ob.CurrentBidder == key {
		return res, ErrAlreadyHighBidder
	}

	ob.CurrentBid = amount
	ob.CurrentBidder = key
	res.CancelBid = true
	res.Bid = &BidCountdown{Player: ob.Player.Key(), Bidder: key, Amount: amount}
	res.emit(events.BidPlaced, events.BidPayload{Player: ob.Player.Name, Manager: m.Name, Amount: amount})
	return res, nil
}

// ExpireBid settles the sale a bid countdown was started for. Any mismatch with
// the current state voids the sale without touching anything.
func (e *Engine) ExpireBid(s *models.AuctionState, c models.Catalog, cd BidCountdown) Result {
	var res Result
	ob := s.OnBlock
	if s.Phase != models.PhaseBidding || ob == nil || ob.Player.Key() != cd.Player ||
		ob.CurrentBidder != cd.Bidder || ob.CurrentBid != cd.Amount {
		voided(&res, "bid", cd.Player, "auction was cancelled or changed")
		return res
	}
	m, ok := s.Managers[cd.Bidder]
	if !ok {
		voided(&res, "bid", ob.Player.Name, fmt.Sprintf("winning bidder %s no longer exists", cd.Bidder))
		return res
	}
	if m.Budget < cd.Amount {
		voided(&res, "bid", ob.Player.Name, fmt.Sprintf("%s can no longer afford the bid", m.Name))
		return res
	}
	if !s.HasRoom(m) {
		voided(&res, "bid", ob.Player.Name, fmt.Sprintf("%s has no room left", m.Name))
		return res
	}

	m.Budget -= cd.Amount
	m.Spent += cd.Amount
	m.Players = append(m.Players, models.SaleRecord(ob.Player.Name, cd.Amount))
	c.Remove(ob.Player.Name)
	s.ClearBlock()
	s.Phase = models.PhaseIdle
	res.emit(events.PlayerSold, events.SoldPayload{
		Player:          ob.Player.Name,
		Manager:         m.Name,
		Price:           cd.Amount,
		RemainingBudget: m.Budget,
	})
	if m.Budget == 0 {
		res.emit(events.BudgetExhausted, events.ManagerPayload{Name: m.Name})
	}
	e.settle(s, c, &res)
	return res
}

// Unsold clears the block without a sale.
func (e *Engine) Unsold(s *models.AuctionState, c models.Catalog) (Result, error) {
	var res Result
	live := s.Phase == models.PhaseBidding ||
		(s.Phase == models.PhasePaused && s.PausedFrom == models.PhaseBidding)
	if !live || s.OnBlock == nil {
		return res, fmt.Errorf("%w: no auction is active", ErrWrongPhase)
	}
	p := s.OnBlock.Player
	s.ClearBlock()
	s.Phase = models.PhaseIdle
	s.PausedFrom = ""
	res.CancelBid = true
	res.emit(events.PlayerUnsold, events.PlayerPayload{Player: p})
	e.settle(s, c, &res)
	return res, nil
}

// Draft makes the pick for the manager on the clock. When somebody else could
// afford to steal the player, the pick goes on the block behind a steal countdown.
func (e *Engine) Draft(s *models.AuctionState, c models.Catalog, manager, name string) (Result, error) {
	var res Result
	if s.Phase != models.PhaseDrafting {
		return res, fmt.Errorf("%w: draft while %s", ErrWrongPhase, s.Phase)
	}
	if s.OnBlock != nil {
		return res, fmt.Errorf("%w: %s is waiting out the steal window", ErrWrongPhase, s.OnBlock.Player.Name)
	}
	key := models.Key(manager)
	onClock, _ := s.OnTheClock()
	if key != onClock {
		return res, fmt.Errorf("%w: it is %s's pick", ErrNotYourTurn, displayName(s, onClock))
	}
	if m := s.Managers[key]; m != nil && !s.HasRoom(m) {
		return res, fmt.Errorf("%w: %d of %d", ErrRosterFull, m.Holdings(), s.ItemCap)
	}
	p, ok := c.Get(name)
	if !ok {
		return res, fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}

	if !stealable(s, key, p.BasePrice) {
		e.finalizePick(s, c, key, p, &res)
		return res, nil
	}

	s.OnBlock = &models.OnBlock{Player: p, CurrentBid: p.BasePrice, Drafter: key}
	res.CancelSteal = true
	res.Steal = &StealCountdown{Player: p.Key(), Drafter: key}
	res.emit(events.DraftPicked, events.DraftPickPayload{
		Player:     p.Name,
		Manager:    displayName(s, key),
		StealPrice: p.BasePrice,
	})
	return res, nil
}

// ExpireSteal confirms a draft pick nobody stole.
func (e *Engine) ExpireSteal(s *models.AuctionState, c models.Catalog, cd StealCountdown) Result {
	var res Result
	ob := s.OnBlock
	if s.Phase != models.PhaseDrafting || ob == nil || ob.Player.Key() != cd.Player || ob.Drafter != cd.Drafter {
		voided(&res, "steal", cd.Player, "draft pick was stolen or changed")
		return res
	}
	m, ok := s.Managers[cd.Drafter]
	if !ok {
		voided(&res, "steal", ob.Player.Name, fmt.Sprintf("drafter %s no longer exists", cd.Drafter))
		return res
	}
	if !s.HasRoom(m) {
		// The pick is dropped and the turn passes on; advance skips full rosters.
		voided(&res, "steal", ob.Player.Name, fmt.Sprintf("%s has no room left", m.Name))
		s.ClearBlock()
		e.advance(s, c, &res)
		return res
	}
	p := ob.Player
	s.ClearBlock()
	e.finalizePick(s, c, cd.Drafter, p, &res)
	return res
}

// Steal turns the pick on the block into a live auction opened by the stealer
// at the base price.
func (e *Engine) Steal(s *models.AuctionState, manager string) (Result, error) {
	var res Result
	ob := s.OnBlock
	if s.Phase != models.PhaseDrafting || ob == nil {
		return res, fmt.Errorf("%w: no pick is open for stealing", ErrWrongPhase)
	}
	key := models.Key(manager)
	m, ok := s.Managers[key]
	if !ok {
		return res, fmt.Errorf("%w: %q", ErrManagerNotFound, manager)
	}
	if key == ob.Drafter {
		return res, fmt.Errorf("%w: cannot steal your own pick", ErrAlreadyHighBidder)
	}
	if m.Budget < ob.Player.BasePrice {
		return res, fmt.Errorf("%w: steal price %d, budget %d", ErrInsufficientFunds, ob.Player.BasePrice, m.Budget)
	}
	if !s.HasRoom(m) {
		return res, fmt.Errorf("%w: %d of %d", ErrRosterFull, m.Holdings(), s.ItemCap)
	}

	s.Phase = models.PhaseBidding
	ob.CurrentBid = ob.Player.BasePrice
	ob.CurrentBidder = key
	res.CancelSteal = true
	res.CancelBid = true
	res.Bid = &BidCountdown{Player: ob.Player.Key(), Bidder: key, Amount: ob.CurrentBid}
	res.emit(events.StealStarted, events.BidPayload{Player: ob.Player.Name, Manager: m.Name, Amount: ob.CurrentBid})
	return res, nil
}

// Pause stops whichever countdown is running and freezes the block.
func (e *Engine) Pause(s *models.AuctionState) (Result, error) {
	var res Result
	if s.Phase != models.PhaseBidding && s.Phase != models.PhaseDrafting {
		return res, fmt.Errorf("%w: nothing to pause while %s", ErrWrongPhase, s.Phase)
	}
	s.PausedFrom = s.Phase
	s.Phase = models.PhasePaused
	res.CancelBid = true
	res.CancelSteal = true
	res.emit(events.AuctionPaused, events.PhasePayload{Phase: s.PausedFrom})
	return res, nil
}

// Resume restores the phase a pause interrupted and restarts its countdown.
// DraftIndex always names the manager whose pick is on the block, so a steal
// window resumes for that manager.
func (e *Engine) Resume(s *models.AuctionState, c models.Catalog) (Result, error) {
	var res Result
	if s.Phase != models.PhasePaused {
		return res, fmt.Errorf("%w: auction is not paused", ErrWrongPhase)
	}
	from := s.PausedFrom
	s.PausedFrom = ""
	ob := s.OnBlock
	inDraft := from == models.PhaseDrafting || (from == "" && len(s.DraftOrder) > 0)

	switch {
	case ob != nil && ob.CurrentBidder != "":
		s.Phase = models.PhaseBidding
	case ob != nil && inDraft:
		s.Phase = models.PhaseDrafting
		if ob.Drafter == "" {
			ob.Drafter, _ = s.OnTheClock()
		}
	case ob != nil && from == models.PhaseBidding:
		s.Phase = models.PhaseBidding
	case from == models.PhaseDrafting:
		s.Phase = models.PhaseDrafting
	default:
		s.Phase = models.PhaseIdle
		s.ClearBlock()
	}
	res.emit(events.AuctionResumed, events.PhasePayload{Phase: s.Phase})

	rearm(s, &res)
	if s.Phase == models.PhaseDrafting && s.OnBlock == nil {
		e.advance(s, c, &res)
	}
	return res, nil
}

// Rearm returns the countdowns a freshly loaded state needs, for example after
// a restart or an undo.
func (e *Engine) Rearm(s *models.AuctionState) Result {
	res := Result{CancelBid: true, CancelSteal: true}
	rearm(s, &res)
	return res
}

func rearm(s *models.AuctionState, res *Result) {
	ob := s.OnBlock
	if ob == nil {
		return
	}
	switch s.Phase {
	case models.PhaseBidding:
		if ob.CurrentBidder != "" {
			res.Bid = &BidCountdown{Player: ob.Player.Key(), Bidder: ob.CurrentBidder, Amount: ob.CurrentBid}
		}
	case models.PhaseDrafting:
		res.Steal = &StealCountdown{Player: ob.Player.Key(), Drafter: ob.Drafter}
	}
}

// StartAutoAuction builds the nomination queue and calls the first player.
func (e *Engine) StartAutoAuction(s *models.AuctionState, c models.Catalog) (Result, error) {
	var res Result
	if s.Phase != models.PhaseIdle {
		return res, fmt.Errorf("%w: auto auction needs an idle auction", ErrWrongPhase)
	}
	retained := make(map[string]bool)
	for _, m := range s.Managers {
		if m.RetainedPlayer != "" {
			retained[models.Key(m.RetainedPlayer)] = true
		}
	}
	q := queue.Build(c, retained, e.tiers, e.rng)
	if len(q) == 0 {
		return res, ErrCatalogEmpty
	}
	s.Queue = q
	s.QueueIndex = 0
	res.emit(events.QueueBuilt, events.QueuePayload{Size: len(q)})
	e.callNext(s, c, &res)
	return res, nil
}

// StartDraft runs the draft check on demand.
func (e *Engine) StartDraft(s *models.AuctionState, c models.Catalog) (Result, error) {
	var res Result
	if s.Phase != models.PhaseIdle {
		return res, fmt.Errorf("%w: draft needs an idle auction", ErrWrongPhase)
	}
	if !draftorder.ShouldTrigger(s) {
		return res, fmt.Errorf("%w: %d of %d managers are out of money",
			ErrDraftNotTriggered, draftorder.ZeroBudgetCount(s), draftorder.TriggerZeroBudget)
	}
	e.startDraft(s, c, &res)
	return res, nil
}

// AddManager registers a manager with a starting budget.
func (e *Engine) AddManager(s *models.AuctionState, name string, budget int64) (Result, error) {
	var res Result
	name = strings.TrimSpace(name)
	if name == "" {
		return res, ErrInvalidName
	}
	if budget < 0 {
		return res, fmt.Errorf("%w: budget %d", ErrInvalidAmount, budget)
	}
	key := models.Key(name)
	if _, exists := s.Managers[key]; exists {
		return res, fmt.Errorf("%w: %q", ErrDuplicateManager, name)
	}
	s.Managers[key] = &models.Manager{Name: name, Budget: budget, Players: []string{}}
	res.emit(events.ManagerAdded, events.ManagerPayload{Name: name, Budget: budget})
	return res, nil
}

// RemoveManager drops a manager. A live countdown naming them voids on expiry;
// a draft pick of theirs waiting on the steal window is dropped right away.
func (e *Engine) RemoveManager(s *models.AuctionState, c models.Catalog, name string) (Result, error) {
	var res Result
	key := models.Key(name)
	m, ok := s.Managers[key]
	if !ok {
		return res, fmt.Errorf("%w: %q", ErrManagerNotFound, name)
	}
	delete(s.Managers, key)
	onClock := draftorder.Remove(s, key)
	res.emit(events.ManagerRemoved, events.ManagerPayload{Name: m.Name, Budget: m.Budget})

	drafting := s.Phase == models.PhaseDrafting
	if !drafting && !(s.Phase == models.PhasePaused && s.PausedFrom == models.PhaseDrafting) {
		return res, nil
	}
	if s.OnBlock != nil && s.OnBlock.Drafter == key {
		s.ClearBlock()
		res.CancelSteal = true
	}
	if drafting && (onClock || len(s.DraftOrder) == 0) {
		e.advance(s, c, &res)
	}
	return res, nil
}

// SetCap changes the per-manager holding cap.
func (e *Engine) SetCap(s *models.AuctionState, limit int) (Result, error) {
	var res Result
	if limit <= 0 {
		return res, fmt.Errorf("%w: %d", ErrInvalidCap, limit)
	}
	for _, m := range s.Managers {
		if m.Holdings() > limit {
			return res, fmt.Errorf("%w: %s already holds %d", ErrInvalidCap, m.Name, m.Holdings())
		}
	}
	s.ItemCap = limit
	res.emit(events.CapSet, events.CapPayload{Cap: limit})
	return res, nil
}

// EditItem adds a player to the catalog or replaces its attributes.
func (e *Engine) EditItem(c models.Catalog, p models.Player) (Result, error) {
	var res Result
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return res, ErrInvalidName
	}
	if p.BasePrice <= 0 {
		return res, fmt.Errorf("%w: base price %d", ErrInvalidAmount, p.BasePrice)
	}
	c.Put(p)
	res.emit(events.PlayerEdited, events.PlayerPayload{Player: p})
	return res, nil
}

// Retain assigns a player to a manager ahead of the auction. The player leaves
// the catalog if it is there; a name the catalog never had is recorded as given.
func (e *Engine) Retain(s *models.AuctionState, c models.Catalog, player, manager string) (Result, error) {
	var res Result
	player = strings.TrimSpace(player)
	if player == "" {
		return res, ErrInvalidName
	}
	m, ok := s.Manager(manager)
	if !ok {
		return res, fmt.Errorf("%w: %q", ErrManagerNotFound, manager)
	}
	if m.RetainedPlayer != "" {
		return res, fmt.Errorf("%w: %s kept %s", ErrAlreadyRetained, m.Name, m.RetainedPlayer)
	}
	if !s.HasRoom(m) {
		return res, fmt.Errorf("%w: %d of %d", ErrRosterFull, m.Holdings(), s.ItemCap)
	}
	if s.OnBlock != nil && s.OnBlock.Player.Key() == models.Key(player) {
		return res, fmt.Errorf("%w: %s is on the block", ErrWrongPhase, s.OnBlock.Player.Name)
	}
	if p, ok := c.Get(player); ok {
		player = p.Name
		c.Remove(player)
	}
	m.RetainedPlayer = player
	res.emit(events.PlayerRetained, events.RetainedPayload{Player: player, Manager: m.Name})
	return res, nil
}

// settle runs after the block clears: the queue moves on in auto mode,
// otherwise the draft trigger is checked.
func (e *Engine) settle(s *models.AuctionState, c models.Catalog, res *Result) {
	if s.AutoAuction() {
		e.callNext(s, c, res)
		return
	}
	if draftorder.ShouldTrigger(s) {
		e.startDraft(s, c, res)
	}
}

func (e *Engine) callNext(s *models.AuctionState, c models.Catalog, res *Result) {
	if draftorder.ShouldTrigger(s) {
		e.startDraft(s, c, res)
		return
	}
	pop := queue.Next(s, c)
	for _, k := range pop.Skipped {
		res.emit(events.QueueSkipped, events.QueuePayload{Skipped: k})
	}
	if pop.Exhausted {
		res.emit(events.QueueExhausted, nil)
		if draftorder.ShouldTrigger(s) {
			e.startDraft(s, c, res)
		}
		return
	}
	nominate(s, pop.Player, res)
}

func (e *Engine) startDraft(s *models.AuctionState, c models.Catalog, res *Result) {
	draftorder.Start(s)
	names := make([]string, len(s.DraftOrder))
	for i, k := range s.DraftOrder {
		names[i] = displayName(s, k)
	}
	res.emit(events.DraftStarted, events.DraftStartedPayload{
		Order:      names,
		ZeroBudget: draftorder.ZeroBudgetCount(s),
	})
	e.advance(s, c, res)
}

func (e *Engine) advance(s *models.AuctionState, c models.Catalog, res *Result) {
	turn := draftorder.Advance(s, c)
	for _, k := range turn.Skipped {
		res.emit(events.DraftSkipped, events.DraftTurnPayload{Manager: displayName(s, k)})
	}
	if turn.Complete {
		res.emit(events.DraftCompleted, nil)
		return
	}
	res.emit(events.DraftTurn, events.DraftTurnPayload{Manager: displayName(s, turn.Manager), Pick: turn.Pick})
}

func (e *Engine) finalizePick(s *models.AuctionState, c models.Catalog, drafter string, p models.Player, res *Result) {
	m := s.Managers[drafter]
	m.Players = append(m.Players, models.DraftRecord(p.Name))
	c.Remove(p.Name)
	draftorder.Next(s)
	res.emit(events.DraftFinalized, events.DraftPickPayload{Player: p.Name, Manager: m.Name})
	e.advance(s, c, res)
}

func stealable(s *models.AuctionState, drafter string, price int64) bool {
	for k, m := range s.Managers {
		if k != drafter && m.Budget >= price {
			return true
		}
	}
	return false
}

func voided(res *Result, countdown, player, reason string) {
	res.emit(events.CountdownVoided, events.VoidPayload{Countdown: countdown, Player: player, Reason: reason})
}

func displayName(s *models.AuctionState, key string) string {
	if m, ok := s.Managers[key]; ok {
		return m.Name
	}
	return key
}
