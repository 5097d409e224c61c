package catalog

import (
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	cardsDoc := []byte(`[
		{"set":"A1","number":1,"rarity":"◊","label":{"slug":"bulbasaur","eng":"Bulbasaur"},"packs":["Mewtwo"],"types":["Grass"]},
		{"set":"A1","number":2,"rarityCode":"SAR","name":"Ivysaur","imageName":"a1_2.webp","packs":["Mewtwo","Pikachu"]},
		{"set":"A2","number":1,"rarity":"☆☆","label":{"slug":"dialga","eng":"Dialga"},"packs":[]},
		{"set":"P-A","number":5,"rarity":"◊","label":{"slug":"pikachu","eng":"Pikachu"},"packs":["Celestial"]}
	]`)
	setsDoc := []byte(`[
		{"code":"A1","releaseDate":"2024-10-30","count":286,"label":{"en":"Genetic Apex"},"shortName":"GA","packs":["Mewtwo","Pikachu"]},
		{"code":"A2","releaseDate":"2024-12-17","count":207,"label":{"en":"Space-Time Smackdown"},"packs":["Dialga"]},
		{"code":"P-A","releaseDate":"2024-10-30","count":50,"label":{"en":"Promo-A"},"packs":[]}
	]`)
	rarityDoc := []byte(`{"C":"Common","SR":"Super Rare","SAR":"Special Art Rare"}`)

	cards, err := DecodeCards(cardsDoc)
	if err != nil {
		t.Fatalf("DecodeCards: %v", err)
	}
	sets, err := DecodeSets(setsDoc)
	if err != nil {
		t.Fatalf("DecodeSets: %v", err)
	}
	names, err := DecodeRarityNames(rarityDoc)
	if err != nil {
		t.Fatalf("DecodeRarityNames: %v", err)
	}
	return NewStore(cards, sets, names, DefaultSpecialSetPolicy())
}

func TestAdapterNormalizesSchemaVariants(t *testing.T) {
	s := testStore(t)

	bulba, ok := s.ByID("A1-1")
	if !ok {
		t.Fatal("A1-1 missing")
	}
	if bulba.Name != "Bulbasaur" || bulba.RarityCode != "C" || bulba.Symbol != "◊" {
		t.Errorf("symbol-only card mis-normalized: %+v", bulba)
	}

	ivy, ok := s.ByID("A1-2")
	if !ok {
		t.Fatal("A1-2 missing")
	}
	if ivy.Name != "Ivysaur" {
		t.Errorf("flat name field not picked up: %+v", ivy)
	}
	if ivy.RarityCode != "SAR" || ivy.Symbol != "🌈" {
		t.Errorf("explicit rarityCode mis-normalized: %+v", ivy)
	}
	if ivy.Slug != "ivysaur" {
		t.Errorf("derived slug = %q, want ivysaur", ivy.Slug)
	}

	dialga, _ := s.ByID("A2-1")
	if dialga.RarityCode != "SR" {
		t.Errorf("symbol ☆☆ should derive code SR, got %q", dialga.RarityCode)
	}
	if dialga.Packs == nil || dialga.Types == nil {
		t.Error("absent collections must normalize to empty, not nil")
	}
}

func TestResolveIDAliases(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{input: "A1-1", want: "A1-1", ok: true},
		{input: "a1-1", want: "A1-1", ok: true},
		{input: "P-A-5", want: "P-A-5", ok: true},
		{input: "promo-a-5", want: "P-A-5", ok: true},
		{input: "PROMO-A-5", want: "P-A-5", ok: true},
		{input: "Z9-1", ok: false},
	}
	for _, tt := range tests {
		got, ok := s.ResolveID(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ResolveID(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMapSetCode(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{input: "A1", want: "A1", ok: true},
		{input: "a1", want: "A1", ok: true},
		{input: "Genetic Apex", want: "A1", ok: true},
		{input: "PROMO-A", want: "P-A", ok: true},
		{input: "Nope", ok: false},
	}
	for _, tt := range tests {
		got, ok := s.MapSetCode(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("MapSetCode(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCompareSetCodes(t *testing.T) {
	ordered := []string{"A1", "A2", "A4a", "A4b", "A10", "B1"}
	for i := 0; i < len(ordered); i++ {
		for j := 0; j < len(ordered); j++ {
			got := CompareSetCodes(ordered[i], ordered[j])
			switch {
			case i < j && got >= 0:
				t.Errorf("CompareSetCodes(%q, %q) = %d, want < 0", ordered[i], ordered[j], got)
			case i > j && got <= 0:
				t.Errorf("CompareSetCodes(%q, %q) = %d, want > 0", ordered[i], ordered[j], got)
			case i == j && got != 0:
				t.Errorf("CompareSetCodes(%q, %q) = %d, want 0", ordered[i], ordered[j], got)
			}
		}
	}
}

func TestIsSpecialSet(t *testing.T) {
	policy := DefaultSpecialSetPolicy()

	tests := []struct {
		code string
		want bool
	}{
		{code: "P-A", want: true},
		{code: "p-a", want: true},
		{code: "P-B", want: true},
		{code: "X-P", want: true},
		{code: "PROMO", want: true},
		{code: "PROMO-A", want: true},
		{code: "A4B", want: true},
		{code: "A4b", want: true},
		{code: "A1", want: false},
		{code: "A4a", want: false},
		{code: "B2", want: false},
	}
	for _, tt := range tests {
		if got := policy.IsSpecialSet(tt.code); got != tt.want {
			t.Errorf("IsSpecialSet(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestIsDeluxePackName(t *testing.T) {
	for _, name := range []string{"A4B - DELUXE PACK", "a4b – deluxe pack", "A4B—DELUXE  PACK"} {
		if !IsDeluxePackName(name) {
			t.Errorf("IsDeluxePackName(%q) = false, want true", name)
		}
	}
	if IsDeluxePackName("Mewtwo") {
		t.Error("IsDeluxePackName(Mewtwo) = true, want false")
	}
}

func TestPacksScopedBySet(t *testing.T) {
	s := testStore(t)

	all := s.Packs("all")
	if len(all) != 3 {
		t.Errorf("Packs(all) = %v, want 3 distinct packs", all)
	}
	a1 := s.Packs("A1")
	if len(a1) != 2 || a1[0] != "Mewtwo" || a1[1] != "Pikachu" {
		t.Errorf("Packs(A1) = %v, want [Mewtwo Pikachu]", a1)
	}
}

func TestSearchByName(t *testing.T) {
	s := testStore(t)

	got := s.SearchByName("bulba", 5)
	if len(got) == 0 || got[0].Name != "Bulbasaur" {
		t.Errorf("SearchByName(bulba) = %v, want Bulbasaur first", got)
	}
	if got := s.SearchByName("   ", 5); got != nil {
		t.Errorf("blank query should return nil, got %v", got)
	}
}
