package catalog

import (
	"strings"
)

// setKey is the natural ordering key of a set code: "A4b" parses into
// ("A", 4, "b"). Codes that do not match the pattern compare as plain
// strings through their prefix.
type setKey struct {
	prefix string
	num    int
	suffix string
}

func parseSetKey(code string) setKey {
	var key setKey
	i := 0
	for i < len(code) && !isDigit(code[i]) {
		i++
	}
	key.prefix = strings.ToUpper(code[:i])
	j := i
	for j < len(code) && isDigit(code[j]) {
		key.num = key.num*10 + int(code[j]-'0')
		j++
	}
	if j == i {
		key.num = -1 // no numeric part, sorts before "X1"
	}
	key.suffix = strings.ToLower(code[j:])
	return key
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// CompareSetCodes orders two set codes by their (prefix, number, suffix)
// triple, ascending. It is the single comparator shared by filtering,
// grouping and trade generation.
func CompareSetCodes(a, b string) int {
	ka, kb := parseSetKey(a), parseSetKey(b)
	if ka.prefix != kb.prefix {
		return strings.Compare(ka.prefix, kb.prefix)
	}
	if ka.num != kb.num {
		if ka.num < kb.num {
			return -1
		}
		return 1
	}
	return strings.Compare(ka.suffix, kb.suffix)
}

// SpecialSetPolicy classifies promotional and bonus sets. The code
// namespace evolves with the game, so the deluxe prefixes are policy data
// rather than constants.
type SpecialSetPolicy struct {
	DeluxePrefixes []string
}

// DefaultSpecialSetPolicy matches the current promo naming ("P-A",
// "PROMO-...") and the A4B deluxe pack.
func DefaultSpecialSetPolicy() SpecialSetPolicy {
	return SpecialSetPolicy{DeluxePrefixes: []string{"A4B"}}
}

// IsSpecialSet reports whether a set is promotional or bonus content.
// Special sets are excluded by default from trade and suggestion
// calculations and always sort after regular sets.
func (p SpecialSetPolicy) IsSpecialSet(code string) bool {
	upper := strings.ToUpper(code)
	if strings.HasPrefix(upper, "P-") || strings.HasSuffix(upper, "-P") {
		return true
	}
	if upper == "P-A" || strings.HasPrefix(upper, "PROMO") {
		return true
	}
	for _, prefix := range p.DeluxePrefixes {
		if strings.HasPrefix(upper, strings.ToUpper(prefix)) {
			return true
		}
	}
	return false
}

// IsDeluxePackName matches the "A4B - DELUXE PACK" pack label across the
// dash and spacing variations seen in the wild.
func IsDeluxePackName(packName string) bool {
	norm := strings.ToUpper(packName)
	for _, dash := range []string{"‒", "–", "—", "―"} {
		norm = strings.ReplaceAll(norm, dash, "-")
	}
	norm = strings.Join(strings.Fields(norm), " ")
	return strings.Contains(norm, "DELUXE")
}
