package engine

import (
	"reflect"
	"testing"

	"github.com/pockettcg/collector/collector/catalog"
)

func card(set string, number int, name, code string, opts ...func(*catalog.Card)) catalog.Card {
	c := catalog.Card{Set: set, Number: number, Name: name, RarityCode: code, Packs: []string{}, Types: []string{}}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func withPacks(packs ...string) func(*catalog.Card) {
	return func(c *catalog.Card) { c.Packs = packs }
}

func withTypes(types ...string) func(*catalog.Card) {
	return func(c *catalog.Card) { c.Types = types }
}

func withSeries(series string) func(*catalog.Card) {
	return func(c *catalog.Card) { c.Series = series }
}

func foil(c *catalog.Card) { c.IsFoil = true }

func newStore(cards ...catalog.Card) *catalog.Store {
	sets := []catalog.Set{
		{Code: "A1", Name: "Genetic Apex", ShortName: "GA"},
		{Code: "A2", Name: "Space-Time Smackdown", ShortName: "STS"},
		{Code: "A3", Name: "Celestial Guardians", ShortName: "CG"},
		{Code: "P-A", Name: "Promo-A", ShortName: "PR"},
	}
	return catalog.NewStore(cards, sets, map[string]string{}, catalog.DefaultSpecialSetPolicy())
}

func ids(cards []catalog.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID())
	}
	return out
}

func TestApplyPredicates(t *testing.T) {
	store := newStore(
		card("A1", 1, "Bulbasaur", "C", withPacks("Mewtwo"), withTypes("Grass"), withSeries("A")),
		card("A1", 2, "Charmander", "C", withPacks("Charizard"), withTypes("Fire"), withSeries("A")),
		card("A1", 3, "Moltres EX", "SAR", withPacks("Charizard"), withTypes("Fire"), withSeries("A")),
		card("A2", 1, "Dialga", "SR", withPacks("Dialga"), withTypes("Metal"), withSeries("A")),
		card("A2", 2, "Palkia Foil", "C", withSeries("A"), foil),
	)
	owned := QuantityMap{"A1-1": 2, "A2-1": 1}

	tests := []struct {
		name string
		spec Spec
		want []string
	}{
		{
			name: "no filters, oldest",
			spec: Spec{Sort: SortOldest},
			want: []string{"A1-1", "A1-2", "A1-3", "A2-1", "A2-2"},
		},
		{
			name: "set filter",
			spec: Spec{Set: "A2", Sort: SortOldest},
			want: []string{"A2-1", "A2-2"},
		},
		{
			name: "rarity symbol expands to merged codes",
			spec: Spec{Rarities: []string{"☆☆"}, Sort: SortOldest},
			want: []string{"A1-3", "A2-1"}, // SAR and SR both match ☆☆
		},
		{
			name: "type filter",
			spec: Spec{Types: []string{"Fire"}, Sort: SortOldest},
			want: []string{"A1-2", "A1-3"},
		},
		{
			name: "pack requires specific set",
			spec: Spec{Pack: "Charizard", Sort: SortOldest},
			want: []string{"A1-1", "A1-2", "A1-3", "A2-1", "A2-2"}, // bypassed without a set
		},
		{
			name: "pack within set",
			spec: Spec{Set: "A1", Pack: "Charizard", Sort: SortOldest},
			want: []string{"A1-2", "A1-3"},
		},
		{
			name: "search is case-insensitive substring",
			spec: Spec{Search: "charm", Sort: SortOldest},
			want: []string{"A1-2"},
		},
		{
			name: "missing only",
			spec: Spec{Ownership: OwnershipMissing, Sort: SortOldest},
			want: []string{"A1-2", "A1-3", "A2-2"},
		},
		{
			name: "owned only",
			spec: Spec{Ownership: OwnershipOwned, Sort: SortOldest},
			want: []string{"A1-1", "A2-1"},
		},
		{
			name: "foil only",
			spec: Spec{Foil: FoilOnly, Sort: SortOldest},
			want: []string{"A2-2"},
		},
		{
			name: "no foil",
			spec: Spec{Foil: FoilNone, Sort: SortOldest},
			want: []string{"A1-1", "A1-2", "A1-3", "A2-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(store, owned, tt.spec))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyDeterministic(t *testing.T) {
	store := newStore(
		card("A1", 1, "Bulbasaur", "C"),
		card("A2", 1, "Dialga", "SR"),
		card("P-A", 5, "Pikachu", "C"),
	)
	spec := Spec{Sort: SortLatest}
	first := ids(Apply(store, QuantityMap{}, spec))
	for i := 0; i < 10; i++ {
		if got := ids(Apply(store, QuantityMap{}, spec)); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, first run produced %v", i, got, first)
		}
	}
}

func TestSortDirectionAndSpecialSets(t *testing.T) {
	store := newStore(
		card("A1", 2, "Ivysaur", "U"),
		card("A1", 1, "Bulbasaur", "C"),
		card("A2", 1, "Dialga", "SR"),
		card("P-A", 5, "Pikachu", "C"),
	)

	latest := ids(Apply(store, QuantityMap{}, Spec{Sort: SortLatest}))
	wantLatest := []string{"A2-1", "A1-1", "A1-2", "P-A-5"}
	if !reflect.DeepEqual(latest, wantLatest) {
		t.Errorf("latest = %v, want %v", latest, wantLatest)
	}

	oldest := ids(Apply(store, QuantityMap{}, Spec{Sort: SortOldest}))
	wantOldest := []string{"A1-1", "A1-2", "A2-1", "P-A-5"}
	if !reflect.DeepEqual(oldest, wantOldest) {
		t.Errorf("oldest = %v, want %v", oldest, wantOldest)
	}
}

func TestGroupBySetFollowsComparator(t *testing.T) {
	store := newStore(
		card("A1", 1, "Bulbasaur", "C"),
		card("A2", 1, "Dialga", "SR"),
		card("P-A", 5, "Pikachu", "C"),
	)
	spec := Spec{Sort: SortLatest, GroupBy: GroupNone}
	visible := Apply(store, QuantityMap{}, spec)
	groups := GroupCards(store, visible, spec)

	var titles []string
	for _, g := range groups {
		titles = append(titles, g.Title)
	}
	want := []string{"A2", "A1", "P-A"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("group titles = %v, want %v", titles, want)
	}
}

func TestGroupByRarityLadder(t *testing.T) {
	store := newStore(
		card("A1", 3, "Moltres EX", "SR"),
		card("A1", 1, "Bulbasaur", "C"),
		card("A1", 4, "Mew", "SAR"),
		card("A1", 2, "Ivysaur", "C"),
	)
	spec := Spec{Set: "A1", Sort: SortOldest, GroupBy: GroupRarity}
	visible := Apply(store, QuantityMap{}, spec)
	groups := GroupCards(store, visible, spec)

	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3 (◊, ☆☆, 🌈)", len(groups))
	}
	if groups[0].Title != "◊" {
		t.Errorf("first group %q, want ◊", groups[0].Title)
	}
	if got := ids(groups[0].Cards); !reflect.DeepEqual(got, []string{"A1-1", "A1-2"}) {
		t.Errorf("◊ group = %v, want number order", got)
	}
	// SR (☆☆) and SAR (🌈) share an order; symbols break the tie lexically.
	if groups[1].Title == groups[2].Title {
		t.Error("rarity groups must be distinct by symbol")
	}
}

func TestGroupByPackMultiValued(t *testing.T) {
	store := newStore(
		card("A1", 1, "Bulbasaur", "C", withPacks("Mewtwo", "Pikachu")),
		card("A1", 2, "Ivysaur", "C", withPacks("Pikachu")),
	)
	spec := Spec{Set: "A1", Sort: SortOldest, GroupBy: GroupPack}
	visible := Apply(store, QuantityMap{}, spec)
	groups := GroupCards(store, visible, spec)

	if len(groups) != 2 || groups[0].Title != "Mewtwo" || groups[1].Title != "Pikachu" {
		t.Fatalf("groups = %+v, want Mewtwo then Pikachu", groups)
	}
	if len(groups[1].Cards) != 2 {
		t.Errorf("card in both packs should appear in both groups, Pikachu has %d", len(groups[1].Cards))
	}
}
