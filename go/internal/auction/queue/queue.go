package queue

import (
	"math/rand/v2"

	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// Tier is a rating band. Higher tiers are auctioned first.
type Tier int

const (
	TierHigh Tier = iota
	TierMid
	TierLow
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMid:
		return "mid"
	default:
		return "low"
	}
}

// Tiers holds the rating thresholds. Unrated players fall in the low tier.
type Tiers struct {
	HighMin int `yaml:"high_min"`
	MidMin  int `yaml:"mid_min"`
}

// DefaultTiers returns the stock thresholds.
func DefaultTiers() Tiers {
	return Tiers{HighMin: 85, MidMin: 75}
}

// Of returns the tier a player belongs to.
func (t Tiers) Of(p models.Player) Tier {
	switch {
	case p.Rating == nil:
		return TierLow
	case *p.Rating >= t.HighMin:
		return TierHigh
	case *p.Rating >= t.MidMin:
		return TierMid
	default:
		return TierLow
	}
}

// Build returns the nomination order: every catalog key except retained ones,
// shuffled inside its tier, high tier first.
func Build(c models.Catalog, retained map[string]bool, t Tiers, rng *rand.Rand) []string {
	var tiers [3][]string
	for _, p := range c.Sorted() {
		if retained[p.Key()] {
			continue
		}
		tier := t.Of(p)
		tiers[tier] = append(tiers[tier], p.Key())
	}

	out := make([]string, 0, len(c))
	for _, keys := range tiers {
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		out = append(out, keys...)
	}
	return out
}

// Pop is the result of Next.
type Pop struct {
	Player    models.Player
	Skipped   []string // queued keys that left the catalog in the meantime
	Exhausted bool
}

// Next consumes queue entries until one is still in the catalog. An exhausted
// queue is cleared, which ends auto-auction mode.
func Next(s *models.AuctionState, c models.Catalog) Pop {
	var skipped []string
	for s.QueueIndex < len(s.Queue) {
		key := s.Queue[s.QueueIndex]
		s.QueueIndex++
		if p, ok := c[key]; ok {
			return Pop{Player: p, Skipped: skipped}
		}
		skipped = append(skipped, key)
	}
	s.Queue = nil
	s.QueueIndex = 0
	return Pop{Skipped: skipped, Exhausted: true}
}
