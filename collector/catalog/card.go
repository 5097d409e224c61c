package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pockettcg/collector/collector/rarity"
)

// Card is one immutable catalog entry, normalized from whichever schema
// version the upstream database currently ships.
type Card struct {
	Series     string
	Set        string
	Number     int
	Name       string
	Slug       string
	RarityCode string
	Symbol     string
	Packs      []string
	Types      []string
	IsFoil     bool
	ImageName  string
}

// ID is the global card identity and the join key to ownership records.
func (c Card) ID() string {
	return fmt.Sprintf("%s-%d", c.Set, c.Number)
}

// Set is one expansion of the card pool.
type Set struct {
	Code        string
	Name        string
	ShortName   string
	Series      string
	ReleaseDate string
	Count       int
	Packs       []string
}

// cardJSON tolerates every catalog schema version seen so far: symbol-only
// rarity, explicit rarityCode, label.eng vs flat name, image vs imageName.
type cardJSON struct {
	Series     string `json:"series"`
	Set        string `json:"set"`
	Number     int    `json:"number"`
	Rarity     string `json:"rarity"`
	RarityCode string `json:"rarityCode"`
	Name       string `json:"name"`
	Label      struct {
		Slug string `json:"slug"`
		Eng  string `json:"eng"`
	} `json:"label"`
	Image     string   `json:"image"`
	ImageName string   `json:"imageName"`
	Packs     []string `json:"packs"`
	Types     []string `json:"types"`
	Element   string   `json:"element"`
	IsFoil    bool     `json:"isFoil"`
	Foil      bool     `json:"foil"`
}

type setJSON struct {
	Code        string `json:"code"`
	ShortName   string `json:"shortName"`
	Series      string `json:"series"`
	ReleaseDate string `json:"releaseDate"`
	Count       int    `json:"count"`
	Name        string `json:"name"`
	Label       struct {
		En string `json:"en"`
	} `json:"label"`
	Packs []string `json:"packs"`
}

// normalizeCard folds the optional-field fallbacks into one Card so no
// consumer ever has to look at the raw shape again.
func normalizeCard(raw cardJSON) Card {
	name := raw.Label.Eng
	if name == "" {
		name = raw.Name
	}
	slug := raw.Label.Slug
	if slug == "" {
		slug = strings.ToLower(strings.ReplaceAll(name, " ", ""))
	}
	image := raw.ImageName
	if image == "" {
		image = raw.Image
	}

	code := raw.RarityCode
	if code == "" && raw.Rarity != "" {
		code = rarity.Normalize(raw.Rarity)
	}
	symbol := rarity.SymbolFor(code)

	types := raw.Types
	if len(types) == 0 && raw.Element != "" {
		types = []string{raw.Element}
	}
	if types == nil {
		types = []string{}
	}
	packs := raw.Packs
	if packs == nil {
		packs = []string{}
	}

	return Card{
		Series:     raw.Series,
		Set:        raw.Set,
		Number:     raw.Number,
		Name:       name,
		Slug:       slug,
		RarityCode: code,
		Symbol:     symbol,
		Packs:      packs,
		Types:      types,
		IsFoil:     raw.IsFoil || raw.Foil,
		ImageName:  image,
	}
}

func normalizeSet(raw setJSON) Set {
	name := raw.Label.En
	if name == "" {
		name = raw.Name
	}
	short := raw.ShortName
	if short == "" {
		short = raw.Code
	}
	packs := raw.Packs
	if packs == nil {
		packs = []string{}
	}
	return Set{
		Code:        raw.Code,
		Name:        name,
		ShortName:   short,
		Series:      raw.Series,
		ReleaseDate: raw.ReleaseDate,
		Count:       raw.Count,
		Packs:       packs,
	}
}

// DecodeCards parses the upstream cards document into normalized Cards.
func DecodeCards(data []byte) ([]Card, error) {
	var raw []cardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode cards document: %w", err)
	}
	cards := make([]Card, 0, len(raw))
	for _, r := range raw {
		cards = append(cards, normalizeCard(r))
	}
	return cards, nil
}

// DecodeSets parses the upstream sets document.
func DecodeSets(data []byte) ([]Set, error) {
	var raw []setJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode sets document: %w", err)
	}
	sets := make([]Set, 0, len(raw))
	for _, r := range raw {
		sets = append(sets, normalizeSet(r))
	}
	return sets, nil
}

// DecodeRarityNames parses the upstream rarity code to display name map.
func DecodeRarityNames(data []byte) (map[string]string, error) {
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to decode rarity document: %w", err)
	}
	return names, nil
}
