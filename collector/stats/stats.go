// Package stats computes the dashboard numbers: collection totals, per-set
// and per-rarity progress, and which packs are worth opening next. All
// functions are pure over the catalog and an owned-quantity snapshot.
package stats

import (
	"math"
	"sort"

	"github.com/pockettcg/collector/collector/catalog"
	"github.com/pockettcg/collector/collector/rarity"
)

// Overview is the headline block of the dashboard.
type Overview struct {
	TotalOwned        int // copies across all cards
	UniqueCards       int // distinct owned cards
	CompletionPercent int
	SuperRares        int // owned cards at super-rare tiers
	MissingCommons    int
	MissingSuperRares int
}

// RarityProgress is completion within one normalized rarity.
type RarityProgress struct {
	Code    string
	Name    string
	Owned   int
	Total   int
	Percent int
}

// SetProgress is completion within one set, with a per-rarity breakdown.
type SetProgress struct {
	Code     string
	Name     string
	Owned    int
	Total    int
	Percent  int
	Rarities []RarityProgress
}

// PackSuggestion scores one booster pack by its missing cards, rarer cards
// weighing more.
type PackSuggestion struct {
	Pack            string
	Total           int
	Missing         int
	Owned           int
	Percent         int
	Score           int
	MissingExamples []string // up to five card ids
}

// ComputeOverview tallies the headline numbers.
func ComputeOverview(store *catalog.Store, owned map[string]int) Overview {
	var o Overview
	for _, qty := range owned {
		o.TotalOwned += qty
	}
	o.UniqueCards = len(owned)
	if n := store.Len(); n > 0 {
		o.CompletionPercent = percent(o.UniqueCards, n)
	}

	for _, card := range store.Cards() {
		code := rarity.Normalize(card.RarityCode)
		if _, ok := owned[card.ID()]; ok {
			if rarity.IsSuperRare(code) {
				o.SuperRares++
			}
			continue
		}
		switch {
		case code == "C":
			o.MissingCommons++
		case rarity.IsSuperRare(code):
			o.MissingSuperRares++
		}
	}
	return o
}

// ComputeSetProgress reports completion per set, sorted by set code.
func ComputeSetProgress(store *catalog.Store, owned map[string]int) []SetProgress {
	out := make([]SetProgress, 0, len(store.Sets()))
	for _, set := range store.Sets() {
		var setCards []catalog.Card
		for _, card := range store.Cards() {
			if card.Set == set.Code {
				setCards = append(setCards, card)
			}
		}
		ownedCount := 0
		for _, card := range setCards {
			if _, ok := owned[card.ID()]; ok {
				ownedCount++
			}
		}
		out = append(out, SetProgress{
			Code:     set.Code,
			Name:     set.Name,
			Owned:    ownedCount,
			Total:    len(setCards),
			Percent:  percent(ownedCount, len(setCards)),
			Rarities: rarityBreakdown(setCards, owned),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ComputeRarityCompletion reports completion per normalized rarity over the
// whole catalog, in ladder order.
func ComputeRarityCompletion(store *catalog.Store, owned map[string]int) []RarityProgress {
	return rarityBreakdown(store.Cards(), owned)
}

func rarityBreakdown(cards []catalog.Card, owned map[string]int) []RarityProgress {
	type group struct {
		owned, total int
	}
	groups := map[string]*group{}
	var codes []string
	for _, card := range cards {
		code := rarity.Normalize(card.RarityCode)
		g, ok := groups[code]
		if !ok {
			g = &group{}
			groups[code] = g
			codes = append(codes, code)
		}
		g.total++
		if _, ok := owned[card.ID()]; ok {
			g.owned++
		}
	}
	sort.Slice(codes, func(i, j int) bool {
		oi, oj := rarity.OrderFor(codes[i]), rarity.OrderFor(codes[j])
		if oi != oj {
			return oi < oj
		}
		return codes[i] < codes[j]
	})

	out := make([]RarityProgress, 0, len(codes))
	for _, code := range codes {
		g := groups[code]
		out = append(out, RarityProgress{
			Code:    code,
			Name:    rarity.DisplayNameFor(code),
			Owned:   g.owned,
			Total:   g.total,
			Percent: percent(g.owned, g.total),
		})
	}
	return out
}

// ComputePackSuggestions ranks packs by the rarity-weighted count of their
// missing cards and returns the top five. Completed packs are dropped;
// deluxe packs are dropped when excludeDeluxe is set.
func ComputePackSuggestions(store *catalog.Store, owned map[string]int, excludeDeluxe bool) []PackSuggestion {
	packCards := map[string][]catalog.Card{}
	var packs []string
	for _, card := range store.Cards() {
		for _, pack := range card.Packs {
			if excludeDeluxe && catalog.IsDeluxePackName(pack) {
				continue
			}
			if _, ok := packCards[pack]; !ok {
				packs = append(packs, pack)
			}
			packCards[pack] = append(packCards[pack], card)
		}
	}

	var out []PackSuggestion
	for _, pack := range packs {
		cards := packCards[pack]
		var missing []catalog.Card
		for _, card := range cards {
			if _, ok := owned[card.ID()]; !ok {
				missing = append(missing, card)
			}
		}
		if len(missing) == 0 {
			continue
		}

		score := 0
		for _, card := range missing {
			order := rarity.OrderFor(rarity.Normalize(card.RarityCode))
			weight := 10 - order
			if weight < 1 {
				weight = 1
			}
			score += weight
		}

		examples := make([]string, 0, 5)
		for _, card := range missing {
			if len(examples) == 5 {
				break
			}
			examples = append(examples, card.ID())
		}
		out = append(out, PackSuggestion{
			Pack:            pack,
			Total:           len(cards),
			Missing:         len(missing),
			Owned:           len(cards) - len(missing),
			Percent:         percent(len(cards)-len(missing), len(cards)),
			Score:           score,
			MissingExamples: examples,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Pack < out[j].Pack
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
