package orchestrator

import (
	"context"

	"github.com/mcdev12/auctionhouse/go/internal/auction/engine"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

func (o *Orchestrator) Nominate(ctx context.Context, player string) error {
	return o.exec(ctx, "nominate", func(ctx context.Context) error {
		return o.mutate(ctx, func(s *models.AuctionState, c models.Catalog) (engine.Result, error) {
			return o.engine.Nominate(s, c, player)
		})
	})
}

// Bid raises the bid on the block. amount is in whole currency units.
func (o *Orchestrator) Bid(ctx context.Context, manager string, amount int64) error {
	return o.exec(ctx, "bid", func(ctx context.Context) error {
		return o.mutate(ctx, func(s *models.AuctionState, _ models.Catalog) (engine.Result, error) {
			return o.engine.Bid(s, manager, amount)
		})
	})
}

func (o *Orchestrator) Unsold(ctx context.Context) error {
	return o.exec(ctx, "unsold", func(ctx context.Context) error {
		return o.mutate(ctx, o.engine.Unsold)
	})
}

func (o *Orchestrator) Draft(ctx context.Context, manager, player string) error {
	return o.exec(ctx, "draft", func(ctx context.Context) error {
		return o.mutate(ctx, func(s *models.AuctionState, c models.Catalog) (engine.Result, error) {
			return o.engine.Draft(s, c, manager, player)
		})
	})
}

func (o *Orchestrator) Steal(ctx context.Context, manager string) error {
	return o.exec(ctx, "steal", func(ctx context.Context) error {
		return o.mutate(ctx, func(s *models.AuctionState, _ models.Catalog) (engine.Result, error) {
			return o.engine.Steal(s, manager)
		})
	})
}

func (o *Orchestrator) Pause(ctx context.Context) error {
	return o.exec(ctx, "pause", func(ctx context.Context) error {
		return o.mutate(ctx, func(s *models.AuctionState, _ models.Catalog) (engine.Result, error) {
			return o.engine.Pause(s)
		})
	})
}

func (o *Orchestrator) Resume(ctx context.Context) error {
	return o.exec(ctx, "resume", func(ctx context.Context) error {
		return o.mutate(ctx, o.engine.Resume)
	})
}

func (o *Orchestrator) StartAutoAuction(ctx context.Context) error {
	return o.exec(ctx, "start_auto_auction", func(ctx context.Context) error {
		return o.mutate(ctx, o.engine.StartAutoAuction)
	})
}

// StartDraft starts the draft when enough managers are out of money.
func (o *Orchestrator) StartDraft(ctx context.Context) error {
	return o.exec(ctx, "start_draft", func(ctx context.Context) error {
		return o.mutate(ctx, o.engine.StartDraft)
	})
}

func (o *Orchestrator) AddManager(ctx context.Context, name string, budget int64) error {
	return o.exec(ctx, "add_manager", func(ctx context.Context) error {
		return o.mutate(ctx, func(s *models.AuctionState, _ models.Catalog) (engine.Result, error) {
			return o.engine.AddManager(s, name, budget)
		})
	})
}

func (o *Orchestrator) RemoveManager(ctx context.Context, name string) error {
	return o.exec(ctx, "remove_manager", func(ctx context.Context) error {
		return o.mutate(ctx, func(s *models.AuctionState, c models.Catalog) (engine.Result, error) {
			return o.engine.RemoveManager(s, c, name)
		})
	})
}

func (o *Orchestrator) SetCap(ctx context.Context, limit int) error {
	return o.exec(ctx, "set_cap", func(ctx context.Context) error {
		return o.mutate(ctx, func(s *models.AuctionState, _ models.Catalog) (engine.Result, error) {
			return o.engine.SetCap(s, limit)
		})
	})
}

// EditItem adds or replaces a catalog player. The catalog is snapshotted
// before its first edit so Reset can bring it back.
func (o *Orchestrator) EditItem(ctx context.Context, p models.Player) error {
	return o.exec(ctx, "edit_item", func(ctx context.Context) error {
		if err := o.store.SnapshotCatalog(ctx); err != nil {
			return err
		}
		return o.mutate(ctx, func(_ *models.AuctionState, c models.Catalog) (engine.Result, error) {
			return o.engine.EditItem(c, p)
		})
	})
}

func (o *Orchestrator) Retain(ctx context.Context, player, manager string) error {
	return o.exec(ctx, "retain", func(ctx context.Context) error {
		if err := o.store.SnapshotCatalog(ctx); err != nil {
			return err
		}
		return o.mutate(ctx, func(s *models.AuctionState, c models.Catalog) (engine.Result, error) {
			return o.engine.Retain(s, c, player, manager)
		})
	})
}

// Reset puts the auction back to its defaults and restores the catalog
// snapshot when one exists.
func (o *Orchestrator) Reset(ctx context.Context) error {
	return o.exec(ctx, "reset", func(ctx context.Context) error {
		restored, err := o.store.Reset(ctx)
		if err != nil {
			return err
		}
		o.cancelAll()
		o.emit(events.Event{Type: events.AuctionReset, Payload: events.ResetPayload{CatalogRestored: restored}})
		return nil
	})
}

// Undo steps the auction record back once. Countdowns follow the restored state.
func (o *Orchestrator) Undo(ctx context.Context) error {
	return o.exec(ctx, "undo", func(ctx context.Context) error {
		if err := o.store.Undo(ctx); err != nil {
			return err
		}
		s, _, err := o.store.Load(ctx)
		if err != nil {
			return err
		}
		res := o.engine.Rearm(s)
		res.Events = append([]events.Event{{Type: events.AuctionUndone, Payload: events.PhasePayload{Phase: s.Phase}}}, res.Events...)
		o.apply(ctx, s, res)
		return nil
	})
}
