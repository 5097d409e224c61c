package csvio

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pockettcg/collector/collector/catalog"
	"github.com/pockettcg/collector/collector/engine"
)

func testStore(t *testing.T) *catalog.Store {
	t.Helper()
	cards := []catalog.Card{
		{Set: "A1", Number: 1, Name: "Bulbasaur", RarityCode: "C", Symbol: "◊", Packs: []string{"Mewtwo"}, Types: []string{}},
		{Set: "A1", Number: 2, Name: "Ivysaur, the Seed", RarityCode: "U", Symbol: "◊◊", Packs: []string{}, Types: []string{}},
		{Set: "A2", Number: 1, Name: "Dialga", RarityCode: "SR", Symbol: "☆☆", Packs: []string{"Dialga"}, Types: []string{}},
		{Set: "P-A", Number: 5, Name: "Pikachu", RarityCode: "C", Symbol: "◊", Packs: []string{"Celestial"}, Types: []string{}},
	}
	sets := []catalog.Set{
		{Code: "A1", Name: "Genetic Apex", ShortName: "GA"},
		{Code: "A2", Name: "Space-Time Smackdown", ShortName: "STS"},
		{Code: "P-A", Name: "Promo-A", ShortName: "PR"},
	}
	return catalog.NewStore(cards, sets, map[string]string{}, catalog.DefaultSpecialSetPolicy())
}

func TestExportShape(t *testing.T) {
	store := testStore(t)
	var buf bytes.Buffer
	if err := Export(&buf, store, engine.QuantityMap{"A1-1": 3}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "\uFEFF") {
		t.Error("export must start with a UTF-8 BOM")
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\uFEFF"), "\n"), "\n")
	if lines[0] != Header {
		t.Errorf("header = %q, want %q", lines[0], Header)
	}
	if len(lines) != 5 {
		t.Fatalf("got %d rows, want every catalog card incl. zero-quantity", len(lines)-1)
	}
	if lines[1] != `A1-1,"Bulbasaur",3,A1,"Mewtwo",◊` {
		t.Errorf("row = %q", lines[1])
	}
	// Embedded comma escaped by doubled quotes, not left to split the field.
	if !strings.Contains(lines[2], `"Ivysaur"" the Seed"`) {
		t.Errorf("comma escaping broken: %q", lines[2])
	}
}

func TestImportRoundTrip(t *testing.T) {
	store := testStore(t)
	owned := engine.QuantityMap{"A1-1": 3, "A1-2": 1, "P-A-5": 2}

	var buf bytes.Buffer
	if err := Export(&buf, store, owned); err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, report, err := Import(&buf, store)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.ParseErrors != 0 || report.UnknownCards != 0 {
		t.Errorf("clean round-trip reported %+v", report)
	}
	want := map[string]int{"A1-1": 3, "A1-2": 1, "P-A-5": 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-trip = %v, want %v", got, want)
	}
}

func TestImportPromoAliasRow(t *testing.T) {
	store := testStore(t)
	csv := "Id,CardName,NumberOwn,Expansion,Pack,Rarity\n" +
		`"promo-a-5","Pikachu",2,"PROMO-A","Celestial",◊` + "\n"

	got, report, err := Import(strings.NewReader(csv), store)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Imported != 1 {
		t.Errorf("report = %+v, want 1 imported", report)
	}
	if got["P-A-5"] != 2 {
		t.Errorf("alias row resolved to %v, want P-A-5:2", got)
	}
}

func TestImportSynonymHeaders(t *testing.T) {
	store := testStore(t)
	csv := "Card Name,Set,Number,Qty\n" +
		"Bulbasaur,Genetic Apex,1,4\n" +
		"Dialga,A2,001,2\n"

	got, report, err := Import(strings.NewReader(csv), store)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Imported != 2 || report.ParseErrors != 0 || report.UnknownCards != 0 {
		t.Errorf("report = %+v", report)
	}
	want := map[string]int{"A1-1": 4, "A2-1": 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestImportHeaderlessPositional(t *testing.T) {
	store := testStore(t)
	csv := `A1-1,"Bulbasaur",5,A1,"Mewtwo",◊` + "\n"

	got, _, err := Import(strings.NewReader(csv), store)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got["A1-1"] != 5 {
		t.Errorf("positional fallback got %v, want A1-1:5", got)
	}
}

func TestImportAggregatesRowFailures(t *testing.T) {
	store := testStore(t)
	csv := "Id,CardName,NumberOwn\n" +
		"A1-1,Bulbasaur,1\n" +
		"Z9-99,Ghost,4\n" + // unknown card
		",,\n" + // no id at all
		"A2-1,Dialga,2\n"

	got, report, err := Import(strings.NewReader(csv), store)
	if err != nil {
		t.Fatalf("row failures must not abort the import: %v", err)
	}
	if report.Imported != 2 || report.UnknownCards != 1 || report.ParseErrors != 1 {
		t.Errorf("report = %+v, want 2 imported / 1 unknown / 1 parse error", report)
	}
	want := map[string]int{"A1-1": 1, "A2-1": 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestImportZeroQuantityLeavesNoEntry(t *testing.T) {
	store := testStore(t)
	csv := "Id,NumberOwn\nA1-1,0\n"

	got, report, err := Import(strings.NewReader(csv), store)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Imported != 1 {
		t.Errorf("zero-quantity row should still count as imported: %+v", report)
	}
	if _, ok := got["A1-1"]; ok {
		t.Error("zero-quantity row must not create a map entry")
	}
}

func TestImportEmptyFile(t *testing.T) {
	store := testStore(t)
	if _, _, err := Import(strings.NewReader("\n  \n"), store); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "3", want: 3},
		{in: " 2 ", want: 2},
		{in: "3.9", want: 3},
		{in: "-1", want: 0},
		{in: "abc", want: 0},
		{in: "", want: 0},
	}
	for _, tt := range tests {
		if got := parseQuantity(tt.in); got != tt.want {
			t.Errorf("parseQuantity(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
