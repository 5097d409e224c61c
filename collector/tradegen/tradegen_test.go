package tradegen

import (
	"strings"
	"testing"

	"github.com/pockettcg/collector/collector/catalog"
	"github.com/pockettcg/collector/collector/rarity"
)

type fakeOwnership struct {
	qty    map[string]int
	keep   map[string]int
	locked map[string]bool
}

func (f *fakeOwnership) Get(cardID string) int { return f.qty[cardID] }

func (f *fakeOwnership) EffectiveMinimumKeep(cardID, rarityCode string) int {
	if v, ok := f.keep[cardID]; ok {
		return v
	}
	return rarity.DefaultMinimumKeep(rarityCode)
}

func (f *fakeOwnership) AllowTrade(cardID, rarityCode string) bool { return !f.locked[cardID] }

func testStore(cards ...catalog.Card) *catalog.Store {
	sets := []catalog.Set{
		{Code: "A1", Name: "Genetic Apex", ShortName: "GA"},
		{Code: "A2", Name: "Space-Time Smackdown", ShortName: "STS"},
		{Code: "P-A", Name: "Promo-A", ShortName: "PR"},
	}
	return catalog.NewStore(cards, sets, map[string]string{}, catalog.DefaultSpecialSetPolicy())
}

func card(set string, number int, name, code string) catalog.Card {
	return catalog.Card{Set: set, Number: number, Name: name, RarityCode: code, Packs: []string{}, Types: []string{}}
}

func TestGenerateDiscordScenario(t *testing.T) {
	store := testStore(
		card("A1", 1, "Bulbasaur", "C"),
		card("A1", 2, "Ivysaur", "SAR"),
	)
	owned := &fakeOwnership{
		qty:  map[string]int{"A1-2": 3},
		keep: map[string]int{"A1-2": 1},
	}

	out := Generate(store, owned, Options{
		LFSets: []string{"A1"},
		Format: FormatDiscord,
	})

	lfPart, ftPart, ok := strings.Cut(out, "**For Trade**")
	if !ok {
		t.Fatalf("output missing FT section:\n%s", out)
	}
	if !strings.Contains(lfPart, "[GA] Bulbasaur") {
		t.Errorf("LF section missing [GA] Bulbasaur:\n%s", lfPart)
	}
	if !strings.Contains(ftPart, "[GA] Ivysaur") {
		t.Errorf("FT section missing [GA] Ivysaur (3 > keep 1):\n%s", ftPart)
	}
	if strings.Contains(ftPart, "Bulbasaur") {
		t.Error("unowned card leaked into FT")
	}
	if strings.Contains(lfPart, "Ivysaur") {
		t.Error("owned card leaked into LF")
	}
	if got := strings.Count(out, "Bulbasaur"); got != 1 {
		t.Errorf("Bulbasaur appears %d times, want exactly once", got)
	}
}

func TestGenerateIdempotent(t *testing.T) {
	store := testStore(
		card("A1", 1, "Bulbasaur", "C"),
		card("A2", 1, "Dialga", "SR"),
	)
	owned := &fakeOwnership{qty: map[string]int{"A2-1": 5}}
	opts := Options{Format: FormatDiscord, Username: "ash", FriendCode: "1234-5678"}

	first := Generate(store, owned, opts)
	for i := 0; i < 5; i++ {
		if got := Generate(store, owned, opts); got != first {
			t.Fatalf("run %d differs:\n%s\n--- vs ---\n%s", i, got, first)
		}
	}
}

func TestDiscordNameJoins(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{names: []string{"A"}, want: "A"},
		{names: []string{"A", "B"}, want: "A & B"},
		{names: []string{"A", "B", "C"}, want: "A, B, C"},
	}
	for _, tt := range tests {
		if got := joinNames(tt.names); got != tt.want {
			t.Errorf("joinNames(%v) = %q, want %q", tt.names, got, tt.want)
		}
	}
}

func TestUntradableSymbolsHardRule(t *testing.T) {
	store := testStore(card("A1", 1, "Mewtwo Crown", "UR"))
	owned := &fakeOwnership{
		qty:  map[string]int{"A1-1": 5},
		keep: map[string]int{"A1-1": 0},
	}

	// Even an explicit 👑 selection cannot put a crown card up for trade.
	out := Generate(store, owned, Options{
		Rarities: []string{"👑"},
		Format:   FormatDiscord,
	})
	_, ftPart, _ := strings.Cut(out, "**For Trade**")
	if strings.Contains(ftPart, "Mewtwo Crown") {
		t.Errorf("untradable rarity offered for trade:\n%s", out)
	}
}

func TestLockedCardExcludedFromTrade(t *testing.T) {
	store := testStore(card("A1", 1, "Bulbasaur", "C"))
	owned := &fakeOwnership{
		qty:    map[string]int{"A1-1": 9},
		locked: map[string]bool{"A1-1": true},
	}

	out := Generate(store, owned, Options{Format: FormatDiscord})
	_, ftPart, _ := strings.Cut(out, "**For Trade**")
	if strings.Contains(ftPart, "Bulbasaur") {
		t.Errorf("locked card offered for trade:\n%s", out)
	}
}

func TestOverrideMinKeep(t *testing.T) {
	store := testStore(card("A1", 1, "Bulbasaur", "C"))
	owned := &fakeOwnership{
		qty:  map[string]int{"A1-1": 3},
		keep: map[string]int{"A1-1": 1},
	}

	three := 3
	out := Generate(store, owned, Options{Format: FormatDiscord, OverrideMinKeep: &three})
	_, ftPart, _ := strings.Cut(out, "**For Trade**")
	if strings.Contains(ftPart, "Bulbasaur") {
		t.Errorf("override threshold 3 should exclude qty 3:\n%s", out)
	}

	zero := 0
	out = Generate(store, owned, Options{Format: FormatDiscord, OverrideMinKeep: &zero})
	_, ftPart, _ = strings.Cut(out, "**For Trade**")
	if !strings.Contains(ftPart, "Bulbasaur") {
		t.Errorf("override threshold 0 should include qty 3:\n%s", out)
	}
}

func TestExcludeSpecialSets(t *testing.T) {
	store := testStore(
		card("A1", 1, "Bulbasaur", "C"),
		card("P-A", 5, "Pikachu", "C"),
	)
	owned := &fakeOwnership{qty: map[string]int{}}

	out := Generate(store, owned, Options{Format: FormatDiscord, ExcludeSpecialSets: true})
	if strings.Contains(out, "Pikachu") {
		t.Errorf("promo card present despite special-set exclusion:\n%s", out)
	}
	if !strings.Contains(out, "Bulbasaur") {
		t.Errorf("regular card missing:\n%s", out)
	}
}

func TestDetailsFormat(t *testing.T) {
	store := testStore(
		card("A1", 1, "Bulbasaur", "C"),
		card("A1", 3, "Moltres EX", "SR"),
		card("A2", 1, "Dialga", "C"),
	)
	owned := &fakeOwnership{qty: map[string]int{}}

	out := Generate(store, owned, Options{Format: FormatDetails})

	if !strings.Contains(out, "geneticapex(a1):") {
		t.Errorf("missing slug header:\n%s", out)
	}
	if !strings.Contains(out, "spacetimesmackdown(a2):") {
		t.Errorf("missing second slug header:\n%s", out)
	}
	if !strings.Contains(out, "◊ A1-1 - Bulbasaur") {
		t.Errorf("missing detail line:\n%s", out)
	}
	if !strings.Contains(out, "☆☆ A1-3 - Moltres EX") {
		t.Errorf("missing super-rare detail line:\n%s", out)
	}
	// Diamonds group precedes the star group, separated by a blank line.
	if !strings.Contains(out, "◊ A1-1 - Bulbasaur\n\n☆☆ A1-3 - Moltres EX") {
		t.Errorf("rarity groups not blank-line separated in ladder order:\n%s", out)
	}
}

func TestFoilTradeFormat(t *testing.T) {
	foilCard := card("A1", 1, "Bulbasaur", "C")
	foilCard.IsFoil = true
	plain := card("A1", 2, "Ivysaur", "C")
	otherSetFoil := card("A2", 1, "Dialga", "C")
	otherSetFoil.IsFoil = true
	store := testStore(foilCard, plain, otherSetFoil)

	owned := &fakeOwnership{
		qty:  map[string]int{"A1-2": 5, "A2-1": 5},
		keep: map[string]int{"A1-2": 0, "A2-1": 0},
	}

	// LF set selection is ignored in foil mode; A2's foil still shows.
	out := Generate(store, owned, Options{Format: FormatFoil, LFSets: []string{"A1"}})

	lfPart, ftPart, ok := strings.Cut(out, "**For Trade**")
	if !ok {
		t.Fatalf("output missing FT section:\n%s", out)
	}
	if !strings.Contains(lfPart, "Bulbasaur (foil)") {
		t.Errorf("LF missing unowned foil:\n%s", lfPart)
	}
	if strings.Contains(lfPart, "Ivysaur") {
		t.Error("non-foil card in foil-only LF")
	}
	if !strings.Contains(ftPart, "Ivysaur") {
		t.Errorf("plain surplus missing from FT:\n%s", ftPart)
	}
	if !strings.Contains(ftPart, "Dialga (foil)") {
		t.Errorf("foil surplus should carry the (foil) suffix:\n%s", ftPart)
	}
}

func TestFooter(t *testing.T) {
	store := testStore(card("A1", 1, "Bulbasaur", "C"))
	owned := &fakeOwnership{qty: map[string]int{}}

	out := Generate(store, owned, Options{
		Format:       FormatDiscord,
		TemplateText: "Weekend trades only.",
		Username:     "ash",
		FriendCode:   "1234-5678-9012",
	})

	idx := strings.Index(out, FooterSeparator)
	if idx < 0 {
		t.Fatalf("missing footer separator:\n%s", out)
	}
	footer := out[idx:]
	for _, want := range []string{"Weekend trades only.", "IGN: ash", "Friend code: 1234-5678-9012"} {
		if !strings.Contains(footer, want) {
			t.Errorf("footer missing %q:\n%s", want, footer)
		}
	}
	if out != strings.TrimSpace(out) {
		t.Error("output not trimmed")
	}
}
