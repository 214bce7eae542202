package engine

import (
	"github.com/sahilm/fuzzy"

	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// catalogNames implements fuzzy.Source over the catalog in name order.
type catalogNames []models.Player

func (c catalogNames) Len() int            { return len(c) }
func (c catalogNames) String(i int) string { return c[i].Key() }

// Suggest returns up to limit catalog names resembling query, best match first.
func Suggest(c models.Catalog, query string, limit int) []string {
	players := catalogNames(c.Sorted())
	matches := fuzzy.FindFrom(models.Key(query), players)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = players[m.Index].Name
	}
	return out
}
