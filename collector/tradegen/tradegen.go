// Package tradegen renders Looking-For / For-Trade lists from the catalog
// and the ownership ledger. Generate is pure: same inputs, byte-identical
// output. Clipboard or file delivery is the caller's concern.
package tradegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pockettcg/collector/collector/catalog"
	"github.com/pockettcg/collector/collector/engine"
	"github.com/pockettcg/collector/collector/rarity"
)

// FooterSeparator is the literal line that opens the footer block.
const FooterSeparator = "------------------------------"

// Format selects one of the three mutually exclusive output renderings.
type Format string

const (
	FormatDiscord Format = "discord"
	FormatDetails Format = "details"
	FormatFoil    Format = "foil-trade"
)

// Ownership is the ledger view the generator needs. *ledger.Ledger
// satisfies it.
type Ownership interface {
	Get(cardID string) int
	EffectiveMinimumKeep(cardID, rarityCode string) int
	AllowTrade(cardID, rarityCode string) bool
}

// Options drives one generation run.
type Options struct {
	LFSets []string // set codes; empty = all sets
	FTSets []string // set codes; empty = all sets

	// Rarities holds selected rarity symbols; empty leaves LF unfiltered
	// (FT still drops untradable symbols).
	Rarities []string

	// ExcludeSpecialSets drops promo/deluxe sets from both lists.
	ExcludeSpecialSets bool

	// OverrideMinKeep, when non-nil, replaces every card's minimum-keep
	// count with one global threshold.
	OverrideMinKeep *int

	// UntradableSymbols never appear in FT output regardless of the rarity
	// selection. Nil means the default policy.
	UntradableSymbols []string

	Format       Format
	TemplateText string
	Username     string
	FriendCode   string
}

// Generate renders the trade list. The result is trimmed of leading and
// trailing whitespace.
func Generate(store *catalog.Store, owned Ownership, opts Options) string {
	untradable := map[string]bool{}
	symbols := opts.UntradableSymbols
	if symbols == nil {
		symbols = rarity.DefaultUntradableSymbols()
	}
	for _, s := range symbols {
		untradable[s] = true
	}

	selected := map[string]bool{}
	for _, s := range opts.Rarities {
		selected[s] = true
	}
	lfSets := toSet(opts.LFSets)
	ftSets := toSet(opts.FTSets)
	foilMode := opts.Format == FormatFoil

	var lf, ft []catalog.Card
	for _, card := range store.Cards() {
		if opts.ExcludeSpecialSets && store.IsSpecialSet(card.Set) {
			continue
		}
		sym := rarity.SymbolFor(card.RarityCode)
		if len(selected) > 0 && !selected[sym] {
			continue
		}
		qty := owned.Get(card.ID())

		// LF: unowned cards. Foil mode ignores the set selection and
		// gates on the foil flag alone.
		lfEligible := qty == 0
		if foilMode {
			lfEligible = lfEligible && card.IsFoil
		} else {
			lfEligible = lfEligible && (lfSets == nil || lfSets[card.Set])
		}
		if lfEligible {
			lf = append(lf, card)
		}

		// FT: surplus above the effective keep threshold. Untradable
		// symbols and locked cards never qualify.
		if untradable[sym] || !owned.AllowTrade(card.ID(), card.RarityCode) {
			continue
		}
		if !foilMode && ftSets != nil && !ftSets[card.Set] {
			continue
		}
		keep := owned.EffectiveMinimumKeep(card.ID(), card.RarityCode)
		if opts.OverrideMinKeep != nil {
			keep = *opts.OverrideMinKeep
		}
		if qty > keep {
			ft = append(ft, card)
		}
	}

	sortForOutput(store, lf)
	sortForOutput(store, ft)

	var b strings.Builder
	switch opts.Format {
	case FormatFoil:
		writeFoil(&b, store, lf, ft)
	case FormatDetails:
		writeDetails(&b, store, lf, ft)
	default:
		writeDiscord(&b, store, lf, ft)
	}
	writeFooter(&b, opts)
	return strings.TrimSpace(b.String())
}

func toSet(list []string) map[string]bool {
	if len(list) == 0 {
		return nil
	}
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[s] = true
	}
	return set
}

// sortForOutput arranges cards by the canonical set comparator ascending,
// then number, then name.
func sortForOutput(store *catalog.Store, cards []catalog.Card) {
	sort.Slice(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if a.Set != b.Set {
			if c := engine.CompareSets(store, a.Set, b.Set, engine.SortOldest); c != 0 {
				return c < 0
			}
		}
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.Name < b.Name
	})
}

// setRun is one contiguous run of cards sharing a set in an already-sorted
// list.
type setRun struct {
	code  string
	cards []catalog.Card
}

func splitBySet(cards []catalog.Card) []setRun {
	var runs []setRun
	for _, card := range cards {
		if n := len(runs); n == 0 || runs[n-1].code != card.Set {
			runs = append(runs, setRun{code: card.Set})
		}
		runs[len(runs)-1].cards = append(runs[len(runs)-1].cards, card)
	}
	return runs
}

// joinNames renders the compact discord name list: one name bare, two
// joined with " & ", three or more comma-joined.
func joinNames(names []string) string {
	switch len(names) {
	case 1:
		return names[0]
	case 2:
		return names[0] + " & " + names[1]
	default:
		return strings.Join(names, ", ")
	}
}

func writeDiscord(b *strings.Builder, store *catalog.Store, lf, ft []catalog.Card) {
	writeSetLines(b, store, "**Looking For**", lf, nil, joinNames)
	b.WriteString("\n")
	writeSetLines(b, store, "**For Trade**", ft, nil, joinNames)
}

// writeSetLines renders one `[Short] names` line per set run. name defaults
// to the card name; join controls how names collapse into one line.
func writeSetLines(b *strings.Builder, store *catalog.Store, header string, cards []catalog.Card, name func(catalog.Card) string, join func([]string) string) {
	b.WriteString(header + "\n")
	if len(cards) == 0 {
		b.WriteString("None\n")
		return
	}
	for _, run := range splitBySet(cards) {
		names := make([]string, 0, len(run.cards))
		for _, c := range run.cards {
			if name != nil {
				names = append(names, name(c))
			} else {
				names = append(names, c.Name)
			}
		}
		fmt.Fprintf(b, "[%s] %s\n", store.SetShortName(run.code), join(names))
	}
}

// slugHeader renders a set group header like "geneticapex(a1):".
func slugHeader(store *catalog.Store, code string) string {
	name := store.SetName(code)
	var slug strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			slug.WriteRune(r)
		}
	}
	return fmt.Sprintf("%s(%s):", slug.String(), strings.ToLower(code))
}

func writeDetails(b *strings.Builder, store *catalog.Store, lf, ft []catalog.Card) {
	writeDetailsSection(b, store, "**Looking For**", lf)
	b.WriteString("\n")
	writeDetailsSection(b, store, "**For Trade**", ft)
}

func writeDetailsSection(b *strings.Builder, store *catalog.Store, header string, cards []catalog.Card) {
	b.WriteString(header + "\n")
	if len(cards) == 0 {
		b.WriteString("None\n")
		return
	}
	for _, run := range splitBySet(cards) {
		b.WriteString("\n" + slugHeader(store, run.code) + "\n")
		for gi, group := range splitByRarity(run.cards) {
			if gi > 0 {
				b.WriteString("\n")
			}
			for _, c := range group {
				fmt.Fprintf(b, "%s %s-%d - %s\n", rarity.SymbolFor(c.RarityCode), c.Set, c.Number, c.Name)
			}
		}
	}
}

// splitByRarity buckets one set's cards by rarity symbol, groups ordered by
// the canonical ladder (diamonds first), cards keeping their sorted order.
func splitByRarity(cards []catalog.Card) [][]catalog.Card {
	buckets := map[string][]catalog.Card{}
	var symbols []string
	for _, c := range cards {
		sym := rarity.SymbolFor(c.RarityCode)
		if _, ok := buckets[sym]; !ok {
			symbols = append(symbols, sym)
		}
		buckets[sym] = append(buckets[sym], c)
	}
	sort.SliceStable(symbols, func(i, j int) bool {
		oi := rarity.OrderFor(rarity.CodeFromSymbol(symbols[i]))
		oj := rarity.OrderFor(rarity.CodeFromSymbol(symbols[j]))
		if oi != oj {
			return oi < oj
		}
		return symbols[i] < symbols[j]
	})
	out := make([][]catalog.Card, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, buckets[sym])
	}
	return out
}

func writeFoil(b *strings.Builder, store *catalog.Store, lf, ft []catalog.Card) {
	commas := func(names []string) string { return strings.Join(names, ", ") }
	writeSetLines(b, store, "**Looking For (Foil Only)**", lf, func(c catalog.Card) string {
		return c.Name + " (foil)"
	}, commas)
	b.WriteString("\n")
	writeSetLines(b, store, "**For Trade**", ft, func(c catalog.Card) string {
		if c.IsFoil {
			return c.Name + " (foil)"
		}
		return c.Name
	}, commas)
}

func writeFooter(b *strings.Builder, opts Options) {
	b.WriteString("\n" + FooterSeparator + "\n")
	if opts.TemplateText != "" {
		b.WriteString(opts.TemplateText + "\n\n")
	}
	if opts.Username != "" {
		fmt.Fprintf(b, "IGN: %s\n", opts.Username)
	}
	if opts.FriendCode != "" {
		fmt.Fprintf(b, "Friend code: %s", opts.FriendCode)
	}
}
