// Package rarity holds the canonical rarity table for the TCG Pocket card
// pool and the normalization rules that reconcile the three vocabularies the
// upstream catalog has used over time: short codes ("SR"), display symbols
// ("☆☆") and full names ("Super Rare").
package rarity

import "strings"

// Info describes one canonical rarity tier.
type Info struct {
	Code        string
	Symbol      string
	Name        string
	DisplayName string
	Order       int
}

// UnknownOrder sorts unresolved rarities after every known tier.
const UnknownOrder = 999

// The canonical ladder, ascending: diamonds, stars, crown, shiny.
// UR and CR intentionally share a symbol and order; SAR keeps its own
// symbol but shares SR's order so the two stay merged for grouping while
// remaining distinct codes for storage and filtering.
var table = []Info{
	{Code: "C", Symbol: "◊", Name: "Common", DisplayName: "◊ - Common", Order: 1},
	{Code: "U", Symbol: "◊◊", Name: "Uncommon", DisplayName: "◊◊ - Uncommon", Order: 2},
	{Code: "R", Symbol: "◊◊◊", Name: "Rare", DisplayName: "◊◊◊ - Rare", Order: 3},
	{Code: "RR", Symbol: "◊◊◊◊", Name: "Double Rare", DisplayName: "◊◊◊◊ - Double Rare", Order: 4},
	{Code: "AR", Symbol: "☆", Name: "Art Rare", DisplayName: "☆ - Art Rare", Order: 5},
	{Code: "SR", Symbol: "☆☆", Name: "Super Rare", DisplayName: "☆☆ - Super Rare", Order: 6},
	{Code: "SAR", Symbol: "🌈", Name: "Special Art Rare", DisplayName: "🌈 - Special Art Rare", Order: 6},
	{Code: "IM", Symbol: "☆☆☆", Name: "Immersive Rare", DisplayName: "☆☆☆ - Immersive Rare", Order: 7},
	{Code: "UR", Symbol: "👑", Name: "Ultimate Rare", DisplayName: "👑 - Ultimate Rare", Order: 8},
	{Code: "CR", Symbol: "👑", Name: "Crown Rare", DisplayName: "👑 - Crown Rare", Order: 8},
	{Code: "S", Symbol: "✵", Name: "Shiny", DisplayName: "✵ - Shiny", Order: 9},
	{Code: "SSR", Symbol: "✵✵", Name: "Shiny Super Rare", DisplayName: "✵✵ - Shiny Super Rare", Order: 10},
}

var (
	byCode   = map[string]Info{}
	byName   = map[string]Info{}
	bySymbol = map[string]Info{} // first declaration wins
)

func init() {
	for _, info := range table {
		byCode[info.Code] = info
		byName[info.Name] = info
		if _, ok := bySymbol[info.Symbol]; !ok {
			bySymbol[info.Symbol] = info
		}
	}
}

// Lookup resolves a code, symbol or full name to its canonical info.
// Card data may carry free-form rarity strings from newer catalog schema
// versions, so a miss is reported via ok rather than an error.
func Lookup(input string) (Info, bool) {
	if info, ok := byCode[input]; ok {
		return info, true
	}
	if info, ok := bySymbol[input]; ok {
		return info, true
	}
	if info, ok := byName[input]; ok {
		return info, true
	}
	return Info{}, false
}

// Normalize maps any vocabulary to the canonical code. Unresolved input is
// returned verbatim so downstream display degrades instead of crashing.
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(input string) string {
	if info, ok := Lookup(input); ok {
		return info.Code
	}
	return input
}

// SymbolFor returns the display symbol for a code, or the input itself when
// the code is unknown.
func SymbolFor(code string) string {
	if info, ok := Lookup(code); ok {
		return info.Symbol
	}
	return code
}

// OrderFor returns the sort weight for a code. Unknown codes get
// UnknownOrder so they sort after every real tier.
func OrderFor(code string) int {
	if info, ok := Lookup(code); ok {
		return info.Order
	}
	return UnknownOrder
}

// DisplayNameFor returns the "symbol - name" label, or the input verbatim
// for unknown codes.
func DisplayNameFor(code string) string {
	if info, ok := Lookup(code); ok {
		return info.DisplayName
	}
	return code
}

// UnifiedList returns the canonical chip/filter options: the table in
// ascending order, deduplicated by symbol. When two codes share a symbol the
// first by declaration order is kept.
func UnifiedList() []Info {
	seen := make(map[string]bool, len(table))
	out := make([]Info, 0, len(table))
	for _, info := range table {
		if seen[info.Symbol] {
			continue
		}
		seen[info.Symbol] = true
		out = append(out, info)
	}
	return out
}

// ExpandSymbolToCodes returns every canonical code a selected symbol stands
// for. Codes that share an order are merged for display but distinct in
// storage, so selecting ☆☆ matches both SR and SAR, and 👑 matches both UR
// and CR. Expansion is by order-equivalence with the symbol's first code.
// An unknown symbol expands to itself so filtering degrades to an exact
// string match.
func ExpandSymbolToCodes(symbol string) []string {
	info, ok := bySymbol[symbol]
	if !ok {
		return []string{symbol}
	}
	var codes []string
	for _, candidate := range table {
		if candidate.Order == info.Order {
			codes = append(codes, candidate.Code)
		}
	}
	return codes
}

// SortCodes orders rarity codes in place by their canonical order,
// unknown codes last.
func SortCodes(codes []string) {
	for i := 1; i < len(codes); i++ {
		for j := i; j > 0 && OrderFor(codes[j]) < OrderFor(codes[j-1]); j-- {
			codes[j], codes[j-1] = codes[j-1], codes[j]
		}
	}
}

// IsSuperRare reports whether a code sits at or above the Super Rare tier.
func IsSuperRare(code string) bool {
	switch Normalize(code) {
	case "SR", "SAR", "IM", "UR", "CR", "SSR":
		return true
	}
	return false
}

// DefaultMinimumKeep is the minimum-keep-count seeded for a newly created
// ownership record: rarer cards (order >= 5, the star tiers and above)
// default to keeping one copy, commons through double rares to two.
func DefaultMinimumKeep(code string) int {
	if OrderFor(code) >= 5 {
		return 1
	}
	return 2
}

// DefaultUntradableSymbols are the symbols the trade generator never offers
// for trade: the crown and shiny tiers. The boundary tracks an evolving
// game rule, so callers can override it through configuration.
func DefaultUntradableSymbols() []string {
	return []string{"👑", "✵", "✵✵"}
}

// CodeFromSymbol maps a display symbol back to its first declared code,
// returning the input when the symbol is unknown.
func CodeFromSymbol(symbol string) string {
	if info, ok := bySymbol[symbol]; ok {
		return info.Code
	}
	return symbol
}

// NormalizeLoose resolves sloppily cased codes and names ("sr", "super
// rare") for callers handling user-authored rarity text.
func NormalizeLoose(input string) string {
	trimmed := strings.TrimSpace(input)
	if _, ok := Lookup(trimmed); ok {
		return Normalize(trimmed)
	}
	upper := strings.ToUpper(trimmed)
	if _, ok := byCode[upper]; ok {
		return upper
	}
	words := strings.Fields(strings.ToLower(trimmed))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if info, ok := byName[strings.Join(words, " ")]; ok {
		return info.Code
	}
	return trimmed
}
