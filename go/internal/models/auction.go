package models

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultItemCap is the number of players a manager may hold, retention included.
const DefaultItemCap = 18

// Phase defines where the auction is in its lifecycle.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseBidding  Phase = "bidding"
	PhaseDrafting Phase = "drafting"
	PhasePaused   Phase = "paused"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseBidding, PhaseDrafting, PhasePaused:
		return true
	}
	return false
}

// Manager is a participant competing for players.
type Manager struct {
	Name           string   `json:"name"`
	Budget         int64    `json:"budget"`
	Spent          int64    `json:"spent"`
	Players        []string `json:"players"`
	RetainedPlayer string   `json:"retained_player,omitempty"`
}

// Holdings counts acquired players plus the retained one.
func (m *Manager) Holdings() int {
	n := len(m.Players)
	if m.RetainedPlayer != "" {
		n++
	}
	return n
}

// OnBlock is the player currently being auctioned or drafted.
type OnBlock struct {
	Player        Player `json:"player"`
	CurrentBid    int64  `json:"current_bid"`
	CurrentBidder string `json:"current_bidder,omitempty"` // manager key, empty until the first bid
	Drafter       string `json:"drafter,omitempty"`        // manager key when the block came from a draft pick
}

// AuctionState is the single persisted auction record.
type AuctionState struct {
	Managers   map[string]*Manager `json:"managers"`
	ItemCap    int                 `json:"item_cap"`
	Phase      Phase               `json:"phase"`
	PausedFrom Phase               `json:"paused_from,omitempty"`
	Queue      []string            `json:"queue,omitempty"`
	QueueIndex int                 `json:"queue_index"`
	OnBlock    *OnBlock            `json:"on_block,omitempty"`
	DraftOrder []string            `json:"draft_order"`
	DraftIndex int                 `json:"draft_index"`
}

// NewAuctionState returns the default record for a fresh auction.
func NewAuctionState() *AuctionState {
	return &AuctionState{
		Managers:   make(map[string]*Manager),
		ItemCap:    DefaultItemCap,
		Phase:      PhaseIdle,
		DraftOrder: []string{},
	}
}

// Manager looks a manager up by name, ignoring case.
func (s *AuctionState) Manager(name string) (*Manager, bool) {
	m, ok := s.Managers[Key(name)]
	return m, ok
}

// ManagerKeys returns the manager keys in ascending order.
func (s *AuctionState) ManagerKeys() []string {
	keys := make([]string, 0, len(s.Managers))
	for k := range s.Managers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasRoom reports whether the manager can take one more player.
func (s *AuctionState) HasRoom(m *Manager) bool {
	return m.Holdings() < s.ItemCap
}

// AutoAuction reports whether a nomination queue is active.
func (s *AuctionState) AutoAuction() bool {
	return len(s.Queue) > 0
}

// OnTheClock returns the manager key whose draft turn it is.
func (s *AuctionState) OnTheClock() (string, bool) {
	if len(s.DraftOrder) == 0 {
		return "", false
	}
	return s.DraftOrder[s.DraftIndex%len(s.DraftOrder)], true
}

// ClearBlock drops the on-block player and any bid on it.
func (s *AuctionState) ClearBlock() {
	s.OnBlock = nil
}

// Clone returns a deep copy of the state.
func (s *AuctionState) Clone() *AuctionState {
	out := *s
	out.Managers = make(map[string]*Manager, len(s.Managers))
	for k, m := range s.Managers {
		cp := *m
		cp.Players = append([]string(nil), m.Players...)
		out.Managers[k] = &cp
	}
	out.Queue = append([]string(nil), s.Queue...)
	out.DraftOrder = append([]string{}, s.DraftOrder...)
	if s.OnBlock != nil {
		ob := *s.OnBlock
		if ob.Player.Rating != nil {
			r := *ob.Player.Rating
			ob.Player.Rating = &r
		}
		out.OnBlock = &ob
	}
	return &out
}

// ErrInvalidState reports a record that breaks the auction invariants.
var ErrInvalidState = errors.New("invalid auction state")

// Validate checks the record invariants. It is used on load and by tests.
func (s *AuctionState) Validate() error {
	if !s.Phase.Valid() {
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidState, s.Phase)
	}
	if s.ItemCap <= 0 {
		return fmt.Errorf("%w: item cap %d", ErrInvalidState, s.ItemCap)
	}
	for k, m := range s.Managers {
		if m == nil {
			return fmt.Errorf("%w: manager %q is empty", ErrInvalidState, k)
		}
		if m.Budget < 0 || m.Spent < 0 {
			return fmt.Errorf("%w: manager %q has negative money", ErrInvalidState, k)
		}
		if m.Holdings() > s.ItemCap {
			return fmt.Errorf("%w: manager %q holds %d of %d", ErrInvalidState, k, m.Holdings(), s.ItemCap)
		}
	}
	switch s.Phase {
	case PhaseBidding:
		if s.OnBlock == nil {
			return fmt.Errorf("%w: bidding without a player on the block", ErrInvalidState)
		}
		if s.OnBlock.CurrentBid < s.OnBlock.Player.BasePrice {
			return fmt.Errorf("%w: bid below base price", ErrInvalidState)
		}
	case PhaseDrafting:
		if len(s.DraftOrder) == 0 || s.DraftIndex < 0 || s.DraftIndex >= len(s.DraftOrder) {
			return fmt.Errorf("%w: draft index %d out of range", ErrInvalidState, s.DraftIndex)
		}
		if s.OnBlock != nil && s.OnBlock.CurrentBidder != "" {
			return fmt.Errorf("%w: bidder set while drafting", ErrInvalidState)
		}
	case PhaseIdle:
		if s.OnBlock != nil {
			return fmt.Errorf("%w: idle with a player on the block", ErrInvalidState)
		}
	}
	return nil
}
