package catalog

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// cardSource implements fuzzy.Source over the catalog card list.
type cardSource []Card

func (c cardSource) String(i int) string { return strings.ToLower(c[i].Name) }
func (c cardSource) Len() int            { return len(c) }

// SearchByName fuzzy-matches card names and returns up to limit cards,
// best match first. Used by the CLI lookup path and to suggest near
// misses for unresolvable CSV rows.
func (s *Store) SearchByName(query string, limit int) []Card {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	matches := fuzzy.FindFrom(strings.ToLower(query), cardSource(s.cards))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Card, 0, len(matches))
	for _, m := range matches {
		out = append(out, s.cards[m.Index])
	}
	return out
}
