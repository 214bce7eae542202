package models

import (
	"fmt"
	"sort"
	"strings"
)

// Player is an auctionable item in the catalog.
type Player struct {
	Name      string `json:"name"`
	Team      string `json:"team"`
	Rating    *int   `json:"rating,omitempty"` // Optional - decides the queue tier
	BasePrice int64  `json:"base_price"`
}

// Key returns the case-insensitive catalog key for the player.
func (p Player) Key() string {
	return Key(p.Name)
}

// Key normalizes a player or manager name into its map key.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Catalog is the pool of players that have not been acquired yet, keyed by Key(name).
type Catalog map[string]Player

// Get looks a player up by name, ignoring case.
func (c Catalog) Get(name string) (Player, bool) {
	p, ok := c[Key(name)]
	return p, ok
}

// Put adds or replaces a player.
func (c Catalog) Put(p Player) {
	c[p.Key()] = p
}

// Remove deletes a player by name and reports whether it was present.
func (c Catalog) Remove(name string) bool {
	k := Key(name)
	if _, ok := c[k]; !ok {
		return false
	}
	delete(c, k)
	return true
}

// Sorted returns the players ordered by name, for stable listings.
func (c Catalog) Sorted() []Player {
	out := make([]Player, 0, len(c))
	for _, p := range c {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Clone returns a deep copy of the catalog.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for k, p := range c {
		if p.Rating != nil {
			r := *p.Rating
			p.Rating = &r
		}
		out[k] = p
	}
	return out
}

// SaleRecord formats the acquisition record for a player bought at auction.
func SaleRecord(name string, price int64) string {
	return fmt.Sprintf("%s ($%dM)", name, (price+500_000)/1_000_000)
}

// DraftRecord formats the acquisition record for a drafted player.
func DraftRecord(name string) string {
	return fmt.Sprintf("%s (Draft)", name)
}
