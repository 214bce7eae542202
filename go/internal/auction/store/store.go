// Package store persists the auction record and the player catalog.
//
// The auction record keeps one rolling backup: every write first copies the
// record being replaced into the backup slot, so Undo can step back exactly
// once. The catalog has no rolling backup, only a snapshot taken before the
// first edit, which Reset restores.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// ErrNoBackupAvailable is returned by Undo when nothing was saved over yet.
var ErrNoBackupAvailable = errors.New("no backup available")

// UpdateFunc mutates the loaded state and catalog. Returning an error discards
// the changes.
type UpdateFunc func(s *models.AuctionState, c models.Catalog) error

// Store is the durable home of the auction.
type Store interface {
	// Load returns the current state and catalog. A missing or corrupt record
	// is replaced with defaults.
	Load(ctx context.Context) (*models.AuctionState, models.Catalog, error)
	// Update runs fn against the stored records and persists whatever it changed.
	Update(ctx context.Context, fn UpdateFunc) error
	// Undo restores the auction record from the backup slot.
	Undo(ctx context.Context) error
	// SnapshotCatalog takes the one-time catalog snapshot if there is none yet.
	SnapshotCatalog(ctx context.Context) error
	// Reset writes a default auction record and restores the catalog snapshot,
	// or empties the catalog when there is none. It reports whether the
	// snapshot was used.
	Reset(ctx context.Context) (bool, error)
	Close() error
}

// emptyCatalog is the encoded form of an empty catalog.
var emptyCatalog = []byte("{}")

// apply runs fn on decoded copies and returns the re-encoded records, or nil
// for a record fn left unchanged.
func apply(stateData, catalogData []byte, fn UpdateFunc) (newState, newCatalog []byte, err error) {
	s, err := decodeState(stateData)
	if err != nil {
		return nil, nil, err
	}
	c, err := decodeCatalog(catalogData)
	if err != nil {
		return nil, nil, err
	}
	if err := fn(s, c); err != nil {
		return nil, nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, nil, fmt.Errorf("update rejected: %w", err)
	}
	if newState, err = encodeState(s); err != nil {
		return nil, nil, err
	}
	if newCatalog, err = encodeCatalog(c); err != nil {
		return nil, nil, err
	}
	if equalJSON(newState, stateData) {
		newState = nil
	}
	if equalJSON(newCatalog, catalogData) {
		newCatalog = nil
	}
	return newState, newCatalog, nil
}

// equalJSON compares two records by their canonical encoding so formatting
// differences do not count as a change.
func equalJSON(a, b []byte) bool {
	ca, err := canonical(a)
	if err != nil {
		return false
	}
	cb, err := canonical(b)
	if err != nil {
		return false
	}
	return string(ca) == string(cb)
}
