// Package engine is the pure filtering, sorting and grouping core over the
// in-memory catalog. Apply and Group are deterministic functions of their
// inputs; the visible order they produce is what card navigation relies on,
// so re-running them with identical inputs must yield identical output.
package engine

import (
	"sort"
	"strings"

	"github.com/pockettcg/collector/collector/catalog"
	"github.com/pockettcg/collector/collector/rarity"
)

// OwnershipState narrows the visible list by owned quantity.
type OwnershipState string

const (
	OwnershipAll     OwnershipState = "all"
	OwnershipMissing OwnershipState = "missing"
	OwnershipOwned   OwnershipState = "owned"
)

// FoilState narrows the visible list by the foil variant flag.
type FoilState string

const (
	FoilAll  FoilState = "all"
	FoilNone FoilState = "no-foil"
	FoilOnly FoilState = "foil-only"
)

// SortOrder picks the direction of the set-key comparator.
type SortOrder string

const (
	SortLatest SortOrder = "latest"
	SortOldest SortOrder = "oldest"
)

// GroupBy selects the grouping dimension for the visible list.
type GroupBy string

const (
	GroupNone   GroupBy = "none"
	GroupRarity GroupBy = "rarity"
	GroupPack   GroupBy = "pack"
	GroupType   GroupBy = "type"
)

// Spec is the transient, UI-held filter specification. The zero value of
// each field (or "all") bypasses that filter.
type Spec struct {
	Series    string
	Set       string
	Rarities  []string // selected rarity symbols
	Types     []string
	Pack      string
	Search    string
	Ownership OwnershipState
	Foil      FoilState
	Sort      SortOrder
	GroupBy   GroupBy
}

// Quantities is the ownership view the engine needs: owned count per card
// id, zero for absent records.
type Quantities interface {
	Get(cardID string) int
}

// QuantityMap adapts a plain map to the Quantities view.
type QuantityMap map[string]int

func (m QuantityMap) Get(cardID string) int { return m[cardID] }

// Group is one titled slice of the visible list.
type Group struct {
	Title string
	Cards []catalog.Card
}

// Apply evaluates the filter spec over the catalog and returns the visible
// cards in display order. Malformed cards (missing packs, types, rarity)
// are treated as having empty collections, never as errors.
func Apply(store *catalog.Store, owned Quantities, spec Spec) []catalog.Card {
	codes := expandSelectedRarities(spec.Rarities)
	search := strings.ToLower(spec.Search)

	var visible []catalog.Card
	for _, card := range store.Cards() {
		if !matches(card, owned, spec, codes, search) {
			continue
		}
		visible = append(visible, card)
	}

	sortCards(store, visible, spec.Sort)
	return visible
}

func expandSelectedRarities(symbols []string) map[string]bool {
	if len(symbols) == 0 {
		return nil
	}
	codes := make(map[string]bool)
	for _, sym := range symbols {
		for _, code := range rarity.ExpandSymbolToCodes(sym) {
			codes[code] = true
		}
	}
	return codes
}

// matches evaluates the predicates in spec order, short-circuiting on the
// first failure.
func matches(card catalog.Card, owned Quantities, spec Spec, codes map[string]bool, search string) bool {
	if spec.Series != "" && spec.Series != "all" && card.Series != spec.Series {
		return false
	}
	if spec.Set != "" && spec.Set != "all" && card.Set != spec.Set {
		return false
	}
	if codes != nil && !codes[rarity.Normalize(card.RarityCode)] {
		return false
	}
	if len(spec.Types) > 0 && !hasAnyType(card.Types, spec.Types) {
		return false
	}
	// Pack names are only unambiguous within a single set.
	if spec.Pack != "" && spec.Pack != "all" && spec.Set != "" && spec.Set != "all" {
		if !containsString(card.Packs, spec.Pack) {
			return false
		}
	}
	if search != "" && !strings.Contains(strings.ToLower(card.Name), search) {
		return false
	}
	switch spec.Ownership {
	case OwnershipMissing:
		if owned.Get(card.ID()) != 0 {
			return false
		}
	case OwnershipOwned:
		if owned.Get(card.ID()) == 0 {
			return false
		}
	}
	switch spec.Foil {
	case FoilNone:
		if card.IsFoil {
			return false
		}
	case FoilOnly:
		if !card.IsFoil {
			return false
		}
	}
	return true
}

func hasAnyType(cardTypes, selected []string) bool {
	for _, t := range cardTypes {
		for _, s := range selected {
			if t == s {
				return true
			}
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// sortCards orders the visible list: special sets after all regular sets
// regardless of direction, regular sets by their natural key (descending
// for latest, ascending for oldest), then number, then name.
func sortCards(store *catalog.Store, cards []catalog.Card, order SortOrder) {
	sort.Slice(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if a.Set != b.Set {
			if c := CompareSets(store, a.Set, b.Set, order); c != 0 {
				return c < 0
			}
		}
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.Name < b.Name
	})
}

// CompareSets is the shared set ordering: special sets always sort after
// non-special ones, then the set-key triple in the requested direction.
// Group titles reuse it unmodified when grouping by set.
func CompareSets(store *catalog.Store, a, b string, order SortOrder) int {
	specialA, specialB := store.IsSpecialSet(a), store.IsSpecialSet(b)
	if specialA != specialB {
		if specialA {
			return 1
		}
		return -1
	}
	c := catalog.CompareSetCodes(a, b)
	if order == SortLatest && !specialA {
		return -c
	}
	return c
}
