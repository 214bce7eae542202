package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/auction/queue"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

const m = 1_000_000

func newEngine() *Engine {
	return New(queue.DefaultTiers(), rand.New(rand.NewPCG(7, 7)))
}

func setup(t *testing.T, e *Engine, budgets map[string]int64, players ...string) (*models.AuctionState, models.Catalog) {
	t.Helper()
	s := models.NewAuctionState()
	for name, b := range budgets {
		_, err := e.AddManager(s, name, b)
		require.NoError(t, err)
	}
	c := models.Catalog{}
	for _, p := range players {
		c.Put(models.Player{Name: p, Team: "XI", BasePrice: 1 * m})
	}
	return s, c
}

func typesOf(res Result) []events.Type {
	out := make([]events.Type, len(res.Events))
	for i, ev := range res.Events {
		out[i] = ev.Type
	}
	return out
}

func TestBidAndSale(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"Alice": 100 * m, "Bob": 100 * m}, "Virat Kohli")

	res, err := e.Nominate(s, c, "virat kohli")
	require.NoError(t, err)
	assert.Equal(t, []events.Type{events.PlayerNominated}, typesOf(res))
	assert.Equal(t, models.PhaseBidding, s.Phase)

	_, err = e.Nominate(s, c, "Virat Kohli")
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, err = e.Bid(s, "alice", 1*m)
	assert.ErrorIs(t, err, ErrBidTooLow)

	first, err := e.Bid(s, "alice", 5*m)
	require.NoError(t, err)
	require.NotNil(t, first.Bid)
	assert.True(t, first.CancelBid)

	_, err = e.Bid(s, "Alice", 6*m)
	assert.ErrorIs(t, err, ErrAlreadyHighBidder)
	_, err = e.Bid(s, "Bob", 5*m)
	assert.ErrorIs(t, err, ErrBidTooLow)
	_, err = e.Bid(s, "Bob", 101*m)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = e.Bid(s, "Carol", 7*m)
	assert.ErrorIs(t, err, ErrManagerNotFound)

	second, err := e.Bid(s, "Bob", 6*m)
	require.NoError(t, err)

	stale := e.ExpireBid(s, c, *first.Bid)
	assert.Equal(t, []events.Type{events.CountdownVoided}, typesOf(stale))
	assert.Equal(t, models.PhaseBidding, s.Phase)

	sold := e.ExpireBid(s, c, *second.Bid)
	assert.Equal(t, []events.Type{events.PlayerSold}, typesOf(sold))
	bob := s.Managers["bob"]
	assert.Equal(t, int64(94*m), bob.Budget)
	assert.Equal(t, int64(6*m), bob.Spent)
	assert.Equal(t, []string{"Virat Kohli ($6M)"}, bob.Players)
	assert.Empty(t, c)
	assert.Equal(t, models.PhaseIdle, s.Phase)
	assert.Nil(t, s.OnBlock)
	require.NoError(t, s.Validate())
}

func TestSaleExhaustingBudget(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"Alice": 5 * m, "Bob": 5 * m}, "P1")
	_, err := e.Nominate(s, c, "P1")
	require.NoError(t, err)
	res, err := e.Bid(s, "Alice", 5*m)
	require.NoError(t, err)

	sold := e.ExpireBid(s, c, *res.Bid)
	assert.Equal(t, []events.Type{events.PlayerSold, events.BudgetExhausted}, typesOf(sold))
	assert.Zero(t, s.Managers["alice"].Budget)
}

func TestRosterFullBlocksBids(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"Alice": 50 * m}, "P1")
	s.ItemCap = 1
	s.Managers["alice"].RetainedPlayer = "Kept"
	_, err := e.Nominate(s, c, "P1")
	require.NoError(t, err)

	_, err = e.Bid(s, "Alice", 2*m)
	assert.ErrorIs(t, err, ErrRosterFull)
}

func TestUnsold(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"Alice": 50 * m}, "P1")

	_, err := e.Unsold(s, c)
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, err = e.Nominate(s, c, "P1")
	require.NoError(t, err)
	res, err := e.Unsold(s, c)
	require.NoError(t, err)
	assert.True(t, res.CancelBid)
	assert.Equal(t, []events.Type{events.PlayerUnsold}, typesOf(res))
	assert.Contains(t, c, "p1", "unsold players stay in the catalog")
	assert.Equal(t, models.PhaseIdle, s.Phase)
}

func TestSaleTriggersDraft(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"A": 0, "B": 0, "C": 5 * m, "D": 20 * m}, "P1", "P2", "P3")

	_, err := e.Nominate(s, c, "P1")
	require.NoError(t, err)
	bid, err := e.Bid(s, "C", 5*m)
	require.NoError(t, err)

	res := e.ExpireBid(s, c, *bid.Bid)
	assert.Equal(t, []events.Type{
		events.PlayerSold, events.BudgetExhausted, events.DraftStarted, events.DraftTurn,
	}, typesOf(res))
	assert.Equal(t, events.DraftStartedPayload{Order: []string{"A", "B", "C", "D"}, ZeroBudget: 3}, res.Events[2].Payload)
	assert.Equal(t, models.PhaseDrafting, s.Phase)
	assert.Equal(t, []string{"a", "b", "c", "d"}, s.DraftOrder)
	on, _ := s.OnTheClock()
	assert.Equal(t, "a", on)

	_, err = e.Bid(s, "D", 2*m)
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = e.Nominate(s, c, "P2")
	assert.ErrorIs(t, err, ErrWrongPhase)
	require.NoError(t, s.Validate())
}

func TestUnsoldTriggersDraft(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"A": 0, "B": 0, "C": 0, "D": 20 * m}, "P1", "P2")

	_, err := e.Nominate(s, c, "P1")
	require.NoError(t, err)
	res, err := e.Unsold(s, c)
	require.NoError(t, err)
	assert.Equal(t, []events.Type{events.PlayerUnsold, events.DraftStarted, events.DraftTurn}, typesOf(res))
	assert.Equal(t, models.PhaseDrafting, s.Phase)
	assert.Equal(t, []string{"a", "b", "c", "d"}, s.DraftOrder)

	_, err = e.Bid(s, "D", 2*m)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func draftState(t *testing.T, e *Engine) (*models.AuctionState, models.Catalog) {
	t.Helper()
	s, c := setup(t, e, map[string]int64{"A": 0, "B": 0, "C": 0, "D": 10 * m}, "P1", "P2", "P3")
	res, err := e.StartDraft(s, c)
	require.NoError(t, err)
	assert.Equal(t, []events.Type{events.DraftStarted, events.DraftTurn}, typesOf(res))
	require.Equal(t, []string{"a", "b", "c", "d"}, s.DraftOrder)
	return s, c
}

func TestStartDraftNeedsThreeBrokeManagers(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"A": 0, "B": 0, "C": 1 * m}, "P1")
	_, err := e.StartDraft(s, c)
	assert.ErrorIs(t, err, ErrDraftNotTriggered)
}

func TestDraftPickConfirmedAfterStealWindow(t *testing.T) {
	e := newEngine()
	s, c := draftState(t, e)

	_, err := e.Draft(s, c, "B", "P1")
	assert.ErrorIs(t, err, ErrNotYourTurn)
	_, err = e.Draft(s, c, "A", "Nobody")
	assert.ErrorIs(t, err, ErrItemNotFound)

	res, err := e.Draft(s, c, "A", "P1")
	require.NoError(t, err)
	require.NotNil(t, res.Steal)
	assert.Equal(t, StealCountdown{Player: "p1", Drafter: "a"}, *res.Steal)
	assert.Equal(t, []events.Type{events.DraftPicked}, typesOf(res))

	_, err = e.Draft(s, c, "A", "P2")
	assert.ErrorIs(t, err, ErrWrongPhase, "one pick at a time")

	done := e.ExpireSteal(s, c, *res.Steal)
	assert.Equal(t, []events.Type{events.DraftFinalized, events.DraftTurn}, typesOf(done))
	assert.Equal(t, []string{"P1 (Draft)"}, s.Managers["a"].Players)
	assert.NotContains(t, c, "p1")
	on, _ := s.OnTheClock()
	assert.Equal(t, "b", on)
	require.NoError(t, s.Validate())
}

func TestDraftPickStolen(t *testing.T) {
	e := newEngine()
	s, c := draftState(t, e)

	pick, err := e.Draft(s, c, "A", "P1")
	require.NoError(t, err)

	_, err = e.Steal(s, "A")
	assert.ErrorIs(t, err, ErrAlreadyHighBidder)
	_, err = e.Steal(s, "B")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	steal, err := e.Steal(s, "D")
	require.NoError(t, err)
	assert.True(t, steal.CancelSteal)
	require.NotNil(t, steal.Bid)
	assert.Equal(t, models.PhaseBidding, s.Phase)

	voided := e.ExpireSteal(s, c, *pick.Steal)
	assert.Equal(t, []events.Type{events.CountdownVoided}, typesOf(voided))

	sold := e.ExpireBid(s, c, *steal.Bid)
	assert.Equal(t, events.PlayerSold, sold.Events[0].Type)
	assert.Equal(t, []string{"P1 ($1M)"}, s.Managers["d"].Players)
	assert.Equal(t, int64(9*m), s.Managers["d"].Budget)
	assert.Equal(t, models.PhaseDrafting, s.Phase, "the draft picks up again after the steal")
	on, _ := s.OnTheClock()
	assert.Equal(t, "a", on)
}

func TestDraftWithoutPossibleStealFinalizesAtOnce(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"A": 0, "B": 0, "C": 0}, "P1", "P2")
	_, err := e.StartDraft(s, c)
	require.NoError(t, err)

	res, err := e.Draft(s, c, "A", "P1")
	require.NoError(t, err)
	assert.Nil(t, res.Steal)
	assert.Equal(t, []events.Type{events.DraftFinalized, events.DraftTurn}, typesOf(res))

	res, err = e.Draft(s, c, "B", "P2")
	require.NoError(t, err)
	assert.Equal(t, []events.Type{events.DraftFinalized, events.DraftCompleted}, typesOf(res))
	assert.Equal(t, models.PhaseIdle, s.Phase)
}

func TestPauseAndResumeBidding(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"Alice": 50 * m}, "P1")

	_, err := e.Pause(s)
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, err = e.Nominate(s, c, "P1")
	require.NoError(t, err)
	_, err = e.Bid(s, "Alice", 3*m)
	require.NoError(t, err)

	res, err := e.Pause(s)
	require.NoError(t, err)
	assert.True(t, res.CancelBid)
	assert.Equal(t, models.PhasePaused, s.Phase)

	_, err = e.Bid(s, "Alice", 4*m)
	assert.ErrorIs(t, err, ErrWrongPhase)

	res, err = e.Resume(s, c)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseBidding, s.Phase)
	require.NotNil(t, res.Bid)
	assert.Equal(t, BidCountdown{Player: "p1", Bidder: "alice", Amount: 3 * m}, *res.Bid)

	_, err = e.Resume(s, c)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestPauseAndResumeStealWindow(t *testing.T) {
	e := newEngine()
	s, c := draftState(t, e)
	_, err := e.Draft(s, c, "A", "P1")
	require.NoError(t, err)

	_, err = e.Pause(s)
	require.NoError(t, err)
	_, err = e.Steal(s, "D")
	assert.ErrorIs(t, err, ErrWrongPhase)

	res, err := e.Resume(s, c)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseDrafting, s.Phase)
	require.NotNil(t, res.Steal)
	assert.Equal(t, "a", res.Steal.Drafter)
}

func TestRemoveManagerOnTheClock(t *testing.T) {
	e := newEngine()
	s, c := draftState(t, e)
	_, err := e.Draft(s, c, "A", "P1")
	require.NoError(t, err)

	res, err := e.RemoveManager(s, c, "a")
	require.NoError(t, err)
	assert.True(t, res.CancelSteal)
	assert.Nil(t, s.OnBlock)
	assert.Equal(t, []events.Type{events.ManagerRemoved, events.DraftTurn}, typesOf(res))
	on, _ := s.OnTheClock()
	assert.Equal(t, "b", on)
	assert.Contains(t, c, "p1", "an unconfirmed pick goes back to the pool")

	_, err = e.RemoveManager(s, c, "a")
	assert.ErrorIs(t, err, ErrManagerNotFound)
}

func TestManagersAndCap(t *testing.T) {
	e := newEngine()
	s := models.NewAuctionState()

	_, err := e.AddManager(s, "  ", 1)
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = e.AddManager(s, "Alice", -1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = e.AddManager(s, "Alice", 10*m)
	require.NoError(t, err)
	_, err = e.AddManager(s, "ALICE", 10*m)
	assert.ErrorIs(t, err, ErrDuplicateManager)

	_, err = e.SetCap(s, 0)
	assert.ErrorIs(t, err, ErrInvalidCap)
	_, err = e.SetCap(s, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, s.ItemCap)

	s.Managers["alice"].Players = []string{"P1 ($2M)", "P2 (Draft)"}
	_, err = e.SetCap(s, 1)
	assert.ErrorIs(t, err, ErrInvalidCap, "cap below a current squad")
	assert.Equal(t, 5, s.ItemCap)
	_, err = e.SetCap(s, 2)
	require.NoError(t, err)
	require.NoError(t, s.Validate())
}

func TestDraftNeedsRoomForThePick(t *testing.T) {
	e := newEngine()
	s, c := draftState(t, e)
	s.ItemCap = 1
	s.Managers["a"].RetainedPlayer = "Kept"

	_, err := e.Draft(s, c, "A", "P1")
	assert.ErrorIs(t, err, ErrRosterFull)
	assert.Nil(t, s.OnBlock)
}

func TestStealWindowPassesTurnWhenDrafterIsFull(t *testing.T) {
	e := newEngine()
	s, c := draftState(t, e)
	pick, err := e.Draft(s, c, "A", "P1")
	require.NoError(t, err)
	require.NotNil(t, pick.Steal)

	s.ItemCap = 1
	s.Managers["a"].RetainedPlayer = "Kept"

	res := e.ExpireSteal(s, c, *pick.Steal)
	assert.Equal(t, []events.Type{events.CountdownVoided, events.DraftSkipped, events.DraftTurn}, typesOf(res))
	assert.Nil(t, s.OnBlock)
	assert.Equal(t, models.PhaseDrafting, s.Phase)
	assert.Contains(t, c, "p1")
	on, _ := s.OnTheClock()
	assert.Equal(t, "b", on)
	require.NoError(t, s.Validate())
}

func TestEditItem(t *testing.T) {
	e := newEngine()
	c := models.Catalog{}
	_, err := e.EditItem(c, models.Player{Name: "P", BasePrice: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	rating := 88
	_, err = e.EditItem(c, models.Player{Name: " P ", Team: "CSK", BasePrice: 2 * m, Rating: &rating})
	require.NoError(t, err)
	p, ok := c.Get("p")
	require.True(t, ok)
	assert.Equal(t, "CSK", p.Team)
	assert.Equal(t, 88, *p.Rating)
}

func TestRetain(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"Alice": 50 * m, "Bob": 50 * m}, "Virat Kohli", "Other")

	res, err := e.Retain(s, c, "virat kohli", "alice")
	require.NoError(t, err)
	assert.Equal(t, []events.Type{events.PlayerRetained}, typesOf(res))
	assert.Equal(t, "Virat Kohli", s.Managers["alice"].RetainedPlayer)
	assert.NotContains(t, c, "virat kohli")

	_, err = e.Retain(s, c, "Other", "Alice")
	assert.ErrorIs(t, err, ErrAlreadyRetained)

	_, err = e.Retain(s, c, "Someone New", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Someone New", s.Managers["bob"].RetainedPlayer)
	assert.Equal(t, 1, s.Managers["bob"].Holdings())
}

func TestAutoAuctionWalksQueue(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"Alice": 50 * m}, "P1", "P2")

	res, err := e.StartAutoAuction(s, c)
	require.NoError(t, err)
	assert.Equal(t, []events.Type{events.QueueBuilt, events.PlayerNominated}, typesOf(res))
	assert.True(t, s.AutoAuction())

	res, err = e.Unsold(s, c)
	require.NoError(t, err)
	assert.Equal(t, []events.Type{events.PlayerUnsold, events.PlayerNominated}, typesOf(res))

	res, err = e.Unsold(s, c)
	require.NoError(t, err)
	assert.Equal(t, []events.Type{events.PlayerUnsold, events.QueueExhausted}, typesOf(res))
	assert.False(t, s.AutoAuction())
	assert.Equal(t, models.PhaseIdle, s.Phase)

	_, err = e.StartAutoAuction(s, models.Catalog{})
	assert.ErrorIs(t, err, ErrCatalogEmpty)
}

func TestRearm(t *testing.T) {
	e := newEngine()
	s, c := setup(t, e, map[string]int64{"Alice": 50 * m}, "P1")
	assert.Nil(t, e.Rearm(s).Bid)

	_, err := e.Nominate(s, c, "P1")
	require.NoError(t, err)
	assert.Nil(t, e.Rearm(s).Bid, "no countdown before the first bid")

	_, err = e.Bid(s, "Alice", 2*m)
	require.NoError(t, err)
	res := e.Rearm(s)
	assert.True(t, res.CancelBid)
	require.NotNil(t, res.Bid)
	assert.Equal(t, int64(2*m), res.Bid.Amount)
}

func TestSuggest(t *testing.T) {
	c := models.Catalog{}
	for _, n := range []string{"Virat Kohli", "Rohit Sharma", "Vijay Shankar"} {
		c.Put(models.Player{Name: n, BasePrice: 1})
	}
	got := Suggest(c, "virat", 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "Virat Kohli", got[0])
	assert.NotContains(t, got, "Rohit Sharma")

	assert.Len(t, Suggest(c, "a", 1), 1)
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrBidTooLow))
	assert.False(t, IsValidation(assert.AnError))
}

func TestBiddingKeepsMoneyConsistent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := newEngine()
		s := models.NewAuctionState()
		names := []string{"a", "b", "c"}
		initial := map[string]int64{}
		for _, n := range names {
			b := rapid.Int64Range(0, 100).Draw(t, "budget_"+n)
			initial[n] = b
			if _, err := e.AddManager(s, n, b); err != nil {
				t.Fatalf("add manager: %v", err)
			}
		}
		c := models.Catalog{}
		c.Put(models.Player{Name: "P", BasePrice: 1})
		if _, err := e.Nominate(s, c, "P"); err != nil {
			t.Fatalf("nominate: %v", err)
		}

		var last *BidCountdown
		high := int64(1)
		steps := rapid.IntRange(0, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			who := rapid.SampledFrom(names).Draw(t, "who")
			amount := rapid.Int64Range(0, 120).Draw(t, "amount")
			res, err := e.Bid(s, who, amount)
			if err != nil {
				if s.OnBlock.CurrentBid != high {
					t.Fatalf("rejected bid changed the current bid")
				}
				continue
			}
			if amount <= high {
				t.Fatalf("accepted bid %d not above %d", amount, high)
			}
			if amount > initial[who] {
				t.Fatalf("accepted bid %d above budget %d", amount, initial[who])
			}
			high = amount
			last = res.Bid
		}

		if last != nil {
			res := e.ExpireBid(s, c, *last)
			if res.Events[0].Type != events.PlayerSold {
				t.Fatalf("expected a sale, got %s", res.Events[0].Type)
			}
			if len(c) != 0 {
				t.Fatalf("sold player still in catalog")
			}
		}
		for _, n := range names {
			mgr := s.Managers[n]
			if mgr.Budget < 0 {
				t.Fatalf("%s budget went negative: %d", n, mgr.Budget)
			}
			if mgr.Budget+mgr.Spent != initial[n] {
				t.Fatalf("%s budget %d + spent %d != %d", n, mgr.Budget, mgr.Spent, initial[n])
			}
		}
		if err := s.Validate(); err != nil {
			t.Fatalf("invalid state: %v", err)
		}
	})
}
