// Package draftorder decides when scarcity forces a draft, who picks in which
// order, and whose turn it is.
package draftorder

import (
	"sort"

	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// TriggerZeroBudget is how many broke managers it takes to start a draft.
const TriggerZeroBudget = 3

// Turn is the outcome of Advance.
type Turn struct {
	Manager  string   // key of the manager on the clock, empty when Complete
	Pick     int      // 1-based position in the order
	Skipped  []string // managers passed over because their roster is full
	Complete bool
}

// ZeroBudgetCount counts managers with no money left.
func ZeroBudgetCount(s *models.AuctionState) int {
	n := 0
	for _, m := range s.Managers {
		if m.Budget == 0 {
			n++
		}
	}
	return n
}

// ShouldTrigger reports whether an idle auction has to switch to draft mode.
func ShouldTrigger(s *models.AuctionState) bool {
	if s.Phase != models.PhaseIdle {
		return false
	}
	return ZeroBudgetCount(s) >= TriggerZeroBudget && !allFull(s)
}

// ComputeOrder puts managers with no budget first, then everyone else from the
// smallest budget up. Ties keep key order.
func ComputeOrder(s *models.AuctionState) []string {
	var zero, funded []string
	for _, k := range s.ManagerKeys() {
		if s.Managers[k].Budget == 0 {
			zero = append(zero, k)
		} else {
			funded = append(funded, k)
		}
	}
	sort.SliceStable(funded, func(i, j int) bool {
		return s.Managers[funded[i]].Budget < s.Managers[funded[j]].Budget
	})
	return append(zero, funded...)
}

// Start switches the state into draft mode with a fresh order.
func Start(s *models.AuctionState) {
	s.Phase = models.PhaseDrafting
	s.DraftOrder = ComputeOrder(s)
	s.DraftIndex = 0
	s.ClearBlock()
}

// Advance moves DraftIndex to the next manager with room. It walks the order at
// most once; the draft is complete when every roster is full, the catalog is
// empty, or nobody left in the order can take a player.
func Advance(s *models.AuctionState, c models.Catalog) Turn {
	n := len(s.DraftOrder)
	if n == 0 || len(c) == 0 || allFull(s) {
		return complete(s, nil)
	}

	var skipped []string
	idx := s.DraftIndex % n
	for i := 0; i < n; i++ {
		key := s.DraftOrder[idx]
		if m, ok := s.Managers[key]; ok {
			if s.HasRoom(m) {
				s.DraftIndex = idx
				return Turn{Manager: key, Pick: idx + 1, Skipped: skipped}
			}
			skipped = append(skipped, key)
		}
		idx = (idx + 1) % n
	}
	return complete(s, skipped)
}

// Next moves past the manager who just picked.
func Next(s *models.AuctionState) {
	if len(s.DraftOrder) == 0 {
		s.DraftIndex = 0
		return
	}
	s.DraftIndex = (s.DraftIndex + 1) % len(s.DraftOrder)
}

// Remove drops a manager from the order, keeping DraftIndex on the same
// manager when possible. It reports whether the removed manager was on the clock.
func Remove(s *models.AuctionState, key string) bool {
	pos := -1
	for i, k := range s.DraftOrder {
		if k == key {
			pos = i
			break
		}
	}
	if pos < 0 {
		return false
	}
	onClock := pos == s.DraftIndex
	s.DraftOrder = append(s.DraftOrder[:pos], s.DraftOrder[pos+1:]...)
	if pos < s.DraftIndex {
		s.DraftIndex--
	}
	if s.DraftIndex >= len(s.DraftOrder) {
		s.DraftIndex = 0
	}
	return onClock
}

func complete(s *models.AuctionState, skipped []string) Turn {
	s.Phase = models.PhaseIdle
	s.DraftIndex = 0
	s.ClearBlock()
	return Turn{Skipped: skipped, Complete: true}
}

func allFull(s *models.AuctionState) bool {
	for _, m := range s.Managers {
		if s.HasRoom(m) {
			return false
		}
	}
	return true
}
