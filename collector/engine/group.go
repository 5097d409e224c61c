package engine

import (
	"sort"

	"github.com/pockettcg/collector/collector/catalog"
	"github.com/pockettcg/collector/collector/rarity"
)

// GroupCards groups an already-filtered visible list for display. With no
// explicit set selected and GroupBy none, cards group by set in the sort
// comparator's order. With a specific set selected, GroupBy rarity, pack
// or type regroups within that set; rarity groups follow the canonical
// ladder, pack and type groups sort lexically.
func GroupCards(store *catalog.Store, visible []catalog.Card, spec Spec) []Group {
	switch spec.GroupBy {
	case GroupRarity:
		return groupBy(visible, func(c catalog.Card) []string {
			return []string{rarity.SymbolFor(c.RarityCode)}
		}, func(a, b string) bool {
			oa := rarity.OrderFor(rarity.CodeFromSymbol(a))
			ob := rarity.OrderFor(rarity.CodeFromSymbol(b))
			if oa != ob {
				return oa < ob
			}
			return a < b
		})
	case GroupPack:
		return groupBy(visible, func(c catalog.Card) []string { return c.Packs }, lexical)
	case GroupType:
		return groupBy(visible, func(c catalog.Card) []string { return c.Types }, lexical)
	default:
		return groupBySet(store, visible, spec.Sort)
	}
}

func lexical(a, b string) bool { return a < b }

// groupBySet keeps the visible order, which sortCards already arranged by
// the set comparator, and slices it at set boundaries.
func groupBySet(store *catalog.Store, visible []catalog.Card, order SortOrder) []Group {
	var groups []Group
	index := map[string]int{}
	for _, card := range visible {
		i, ok := index[card.Set]
		if !ok {
			i = len(groups)
			index[card.Set] = i
			groups = append(groups, Group{Title: card.Set})
		}
		groups[i].Cards = append(groups[i].Cards, card)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return CompareSets(store, groups[i].Title, groups[j].Title, order) < 0
	})
	return groups
}

// groupBy regroups cards by a multi-valued key; a card carrying several
// packs or types appears under each. Cards within a group order by number
// then name.
func groupBy(visible []catalog.Card, keys func(catalog.Card) []string, less func(a, b string) bool) []Group {
	buckets := map[string][]catalog.Card{}
	for _, card := range visible {
		ks := keys(card)
		if len(ks) == 0 {
			ks = []string{""}
		}
		for _, k := range ks {
			buckets[k] = append(buckets[k], card)
		}
	}

	titles := make([]string, 0, len(buckets))
	for k := range buckets {
		titles = append(titles, k)
	}
	sort.Slice(titles, func(i, j int) bool { return less(titles[i], titles[j]) })

	groups := make([]Group, 0, len(titles))
	for _, title := range titles {
		cards := buckets[title]
		sort.Slice(cards, func(i, j int) bool {
			if cards[i].Number != cards[j].Number {
				return cards[i].Number < cards[j].Number
			}
			return cards[i].Name < cards[j].Name
		})
		groups = append(groups, Group{Title: title, Cards: cards})
	}
	return groups
}
