package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/mcdev12/auctionhouse/go/internal/auction/engine"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// suggestionLimit caps the "did you mean" list for an unknown player.
const suggestionLimit = 5

// Status is a consistent view of the auction taken between two commands.
type Status struct {
	State         *models.AuctionState `json:"state"`
	CatalogSize   int                  `json:"catalog_size"`
	BidDeadline   *time.Time           `json:"bid_deadline,omitempty"`
	StealDeadline *time.Time           `json:"steal_deadline,omitempty"`
}

// Remaining returns how long is left on the running countdown, if any.
func (st Status) Remaining(now time.Time) (time.Duration, bool) {
	for _, d := range []*time.Time{st.BidDeadline, st.StealDeadline} {
		if d != nil {
			if left := d.Sub(now); left > 0 {
				return left, true
			}
			return 0, true
		}
	}
	return 0, false
}

// ItemInfo is the answer to a player lookup.
type ItemInfo struct {
	Player      *models.Player `json:"player,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// read runs fn against a loaded copy of the records inside the loop.
func (o *Orchestrator) read(ctx context.Context, op string, fn func(s *models.AuctionState, c models.Catalog)) error {
	return o.exec(ctx, op, func(ctx context.Context) error {
		s, c, err := o.store.Load(ctx)
		if err != nil {
			return err
		}
		fn(s, c)
		return nil
	})
}

func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	var st Status
	err := o.read(ctx, "status", func(s *models.AuctionState, c models.Catalog) {
		st = Status{State: s, CatalogSize: len(c)}
		if cd, ok := o.countdowns[bidCountdown]; ok {
			d := cd.deadline
			st.BidDeadline = &d
		}
		if cd, ok := o.countdowns[stealCountdown]; ok {
			d := cd.deadline
			st.StealDeadline = &d
		}
	})
	return st, err
}

// Team returns one manager's record.
func (o *Orchestrator) Team(ctx context.Context, name string) (models.Manager, error) {
	var (
		m     models.Manager
		found bool
	)
	err := o.read(ctx, "team", func(s *models.AuctionState, _ models.Catalog) {
		if mp, ok := s.Manager(name); ok {
			m, found = *mp, true
		}
	})
	if err != nil {
		return m, err
	}
	if !found {
		return m, fmt.Errorf("%w: %q", engine.ErrManagerNotFound, name)
	}
	return m, nil
}

// Items lists the catalog in name order.
func (o *Orchestrator) Items(ctx context.Context) ([]models.Player, error) {
	var out []models.Player
	err := o.read(ctx, "items", func(_ *models.AuctionState, c models.Catalog) {
		out = c.Sorted()
	})
	return out, err
}

// Item looks a player up, offering close names when there is no exact match.
func (o *Orchestrator) Item(ctx context.Context, name string) (ItemInfo, error) {
	var info ItemInfo
	err := o.read(ctx, "item", func(_ *models.AuctionState, c models.Catalog) {
		if p, ok := c.Get(name); ok {
			info.Player = &p
			return
		}
		info.Suggestions = engine.Suggest(c, name, suggestionLimit)
	})
	return info, err
}
