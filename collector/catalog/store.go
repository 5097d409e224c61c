package catalog

import (
	"regexp"
	"strings"
)

// Store is the session-wide, read-only snapshot of the card pool: every
// card, every set and the rarity display names, loaded once and indexed
// for the filtering and trade paths.
type Store struct {
	cards       []Card
	sets        []Set
	rarityNames map[string]string

	byID       map[string]Card
	normalized map[string]string // normalized id -> canonical id
	setByCode  map[string]Set

	special SpecialSetPolicy
}

// promoAlias rewrites the legacy "PROMO-A" prefix inside card ids.
var promoAlias = regexp.MustCompile(`^PROMO-A(-)`)

// NewStore builds the session snapshot. Card and set order is preserved as
// shipped by the catalog source.
func NewStore(cards []Card, sets []Set, rarityNames map[string]string, policy SpecialSetPolicy) *Store {
	s := &Store{
		cards:       cards,
		sets:        sets,
		rarityNames: rarityNames,
		byID:        make(map[string]Card, len(cards)),
		normalized:  make(map[string]string, len(cards)),
		setByCode:   make(map[string]Set, len(sets)),
		special:     policy,
	}
	for _, c := range cards {
		id := c.ID()
		s.byID[id] = c
		s.normalized[NormalizeID(id)] = id
	}
	for _, set := range sets {
		s.setByCode[set.Code] = set
	}
	return s
}

// Cards returns the full card list in catalog order. Callers must not
// mutate the returned slice.
func (s *Store) Cards() []Card { return s.cards }

// Sets returns the set list in catalog order.
func (s *Store) Sets() []Set { return s.sets }

// Len returns the number of catalog cards.
func (s *Store) Len() int { return len(s.cards) }

// ByID looks a card up by its canonical id.
func (s *Store) ByID(id string) (Card, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// ResolveID maps any spelling of a card id (case differences, PROMO-A
// alias) to the canonical id known to the catalog.
func (s *Store) ResolveID(id string) (string, bool) {
	canonical, ok := s.normalized[NormalizeID(id)]
	return canonical, ok
}

// SetByCode looks up a set, case-insensitively.
func (s *Store) SetByCode(code string) (Set, bool) {
	if set, ok := s.setByCode[code]; ok {
		return set, true
	}
	upper := strings.ToUpper(code)
	for _, set := range s.sets {
		if strings.ToUpper(set.Code) == upper {
			return set, true
		}
	}
	return Set{}, false
}

// SetByName resolves a set by its English name, case-insensitively.
func (s *Store) SetByName(name string) (Set, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, set := range s.sets {
		if strings.ToUpper(set.Name) == upper {
			return set, true
		}
	}
	return Set{}, false
}

// SetName returns the display name for a set code, falling back to the
// code itself when the set list does not know it.
func (s *Store) SetName(code string) string {
	if set, ok := s.SetByCode(code); ok && set.Name != "" {
		return set.Name
	}
	return code
}

// SetShortName returns the short display name used in trade lists.
func (s *Store) SetShortName(code string) string {
	if set, ok := s.SetByCode(code); ok && set.ShortName != "" {
		return set.ShortName
	}
	return code
}

// RarityName returns the upstream display name for a rarity code.
func (s *Store) RarityName(code string) string {
	if name, ok := s.rarityNames[code]; ok {
		return name
	}
	return code
}

// IsSpecialSet applies the session's special-set policy.
func (s *Store) IsSpecialSet(code string) bool { return s.special.IsSpecialSet(code) }

// SpecialPolicy exposes the policy for components that need it directly.
func (s *Store) SpecialPolicy() SpecialSetPolicy { return s.special }

// Packs returns the distinct pack names across the given set, or across
// the whole catalog when code is "all". Order of first appearance is kept.
func (s *Store) Packs(code string) []string {
	seen := map[string]bool{}
	var packs []string
	for _, c := range s.cards {
		if code != "all" && c.Set != code {
			continue
		}
		for _, p := range c.Packs {
			if strings.TrimSpace(p) == "" || seen[p] {
				continue
			}
			seen[p] = true
			packs = append(packs, p)
		}
	}
	return packs
}

// SetCodes returns the distinct set codes in card order of first
// appearance.
func (s *Store) SetCodes() []string {
	seen := map[string]bool{}
	var codes []string
	for _, c := range s.cards {
		if seen[c.Set] {
			continue
		}
		seen[c.Set] = true
		codes = append(codes, c.Set)
	}
	return codes
}

// MapSetCode resolves a CSV "Expansion" value to a canonical set code:
// the PROMO-A alias first, then code match, then English name match.
func (s *Store) MapSetCode(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if strings.EqualFold(v, "PROMO-A") {
		v = "P-A"
	}
	if set, ok := s.SetByCode(v); ok {
		return set.Code, true
	}
	if set, ok := s.SetByName(v); ok {
		return set.Code, true
	}
	return "", false
}

// NormalizeID uppercases a card id and applies the PROMO-A set alias, so
// "promo-a-5" and "P-A-5" index identically.
func NormalizeID(id string) string {
	up := strings.ToUpper(strings.TrimSpace(id))
	return promoAlias.ReplaceAllString(up, "P-A$1")
}
