// Package csvio reads and writes the collection CSV format. The exporter
// emits a fixed six-column layout; the importer is deliberately tolerant
// and accepts exports from other trackers with different headers, column
// orders and set spellings.
package csvio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pockettcg/collector/collector/catalog"
	"github.com/pockettcg/collector/collector/engine"
)

// Header is the exporter's column layout.
const Header = "Id,CardName,NumberOwn,Expansion,Pack,Rarity"

// bom keeps spreadsheet tools from mangling the rarity symbols.
const bom = "\uFEFF"

// ErrEmptyFile reports an import input with no usable lines.
var ErrEmptyFile = errors.New("csv file is empty")

var headerPattern = regexp.MustCompile(`(?i)(id|card|name|expansion|set|rarity|qty|quantity|owned|count|number|no)`)

// Export writes one row per catalog card, owned or not, in catalog order.
// Commas inside card names are escaped by doubling quote characters so the
// tolerant splitter on the way back in keeps the field whole.
func Export(w io.Writer, store *catalog.Store, owned engine.Quantities) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom + Header + "\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, card := range store.Cards() {
		symbol := card.Symbol
		if symbol == "" {
			symbol = "Unknown"
		}
		primaryPack := ""
		if len(card.Packs) > 0 {
			primaryPack = card.Packs[0]
		}
		name := strings.ReplaceAll(card.Name, ",", `""`)
		_, err := fmt.Fprintf(bw, "%s,\"%s\",%d,%s,\"%s\",%s\n",
			card.ID(), name, owned.Get(card.ID()), card.Set, primaryPack, symbol)
		if err != nil {
			return fmt.Errorf("write csv row for %s: %w", card.ID(), err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ImportReport aggregates per-row outcomes; row failures never abort the
// import.
type ImportReport struct {
	Imported     int
	UnknownCards int
	ParseErrors  int
}

// Import parses a collection CSV into a canonical-id quantity map.
// Zero-quantity rows count as imported but produce no map entry. Rows that
// yield no card id are parse errors; rows whose id resolves to no catalog
// card are counted as unknown.
func Import(r io.Reader, store *catalog.Store) (map[string]int, ImportReport, error) {
	var report ImportReport

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, report, fmt.Errorf("read csv: %w", err)
	}
	text := strings.TrimPrefix(string(data), bom)

	var lines []string
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, report, ErrEmptyFile
	}

	first := splitLine(lines[0])
	hasHeader := false
	for _, field := range first {
		if headerPattern.MatchString(field) {
			hasHeader = true
			break
		}
	}
	var header map[string]int
	start := 0
	if hasHeader {
		header = make(map[string]int, len(first))
		for i, h := range first {
			header[strings.ToLower(strings.TrimSpace(h))] = i
		}
		start = 1
	}

	quantities := make(map[string]int)
	for _, line := range lines[start:] {
		columns := splitLine(line)
		cardID, quantity := resolveRow(store, columns, header)
		if cardID == "" {
			report.ParseErrors++
			continue
		}
		canonical, ok := store.ResolveID(cardID)
		if !ok {
			report.UnknownCards++
			continue
		}
		if quantity > 0 {
			quantities[canonical] = quantity
		} else {
			delete(quantities, canonical)
		}
		report.Imported++
	}
	return quantities, report, nil
}

// splitLines splits on \n and tolerates \r\n endings.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// splitLine is the tolerant field splitter: a quote character toggles the
// in-quotes flag, commas split only outside quotes, quotes themselves are
// dropped from the output.
func splitLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())
	return fields
}

// resolveRow extracts a card id and quantity from one row, preferring named
// columns when a header was present and falling back to the exporter's own
// column positions.
func resolveRow(store *catalog.Store, columns []string, header map[string]int) (cardID string, quantity int) {
	getByKeys := func(keys ...string) string {
		if header == nil {
			return ""
		}
		for _, k := range keys {
			idx, ok := header[k]
			if !ok || idx < 0 || idx >= len(columns) {
				continue
			}
			if val := strings.TrimSpace(columns[idx]); val != "" {
				return val
			}
		}
		return ""
	}

	if qtyStr := getByKeys("numberown", "quantity", "qty", "owned", "count", "number own", "number_owned"); qtyStr != "" {
		quantity = parseQuantity(qtyStr)
	} else if len(columns) >= 3 {
		quantity = parseQuantity(columns[2])
	}

	cardID = getByKeys("id", "cardid", "card id")
	if cardID == "" {
		setVal := getByKeys("set", "expansion")
		numVal := getByKeys("number", "no", "card number", "card no", "card#")
		if setVal == "" && len(columns) >= 4 {
			setVal = strings.TrimSpace(columns[3])
		}
		if numVal == "" && len(columns) >= 2 {
			if maybe := strings.TrimSpace(columns[1]); leadingDigit(maybe) {
				numVal = maybe
			}
		}
		if setVal != "" && numVal != "" {
			if code, ok := store.MapSetCode(setVal); ok {
				if num, ok := extractLeadingInt(numVal); ok {
					cardID = fmt.Sprintf("%s-%d", code, num)
				}
			}
		}
	}
	if cardID == "" && len(columns) > 0 {
		cardID = strings.TrimSpace(columns[0])
	}
	return cardID, quantity
}

// parseQuantity accepts integers and decimal strings, floors them and
// clamps at zero; anything unparseable counts as zero.
func parseQuantity(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	n := int(math.Floor(f))
	if n < 0 {
		return 0
	}
	return n
}

func leadingDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

var digits = regexp.MustCompile(`\d+`)

func extractLeadingInt(s string) (int, bool) {
	m := digits.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}
