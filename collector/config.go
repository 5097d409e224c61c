package collector

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/pockettcg/collector/collector/database"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log     LogConfig         `toml:"log"`
	DB      database.DBConfig `toml:"db"`
	Cache   CacheConfig       `toml:"cache"`
	Catalog CatalogConfig     `toml:"catalog"`
	Spaces  SpacesConfig      `toml:"spaces"`
	Trade   TradeConfig       `toml:"trade"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

// CacheConfig locates the durable local ledger cache.
type CacheConfig struct {
	Path string `toml:"path"`
}

// CatalogConfig points at the upstream card database and its local
// fallback copy.
type CatalogConfig struct {
	BaseURL  string `toml:"base_url"`
	AssetDir string `toml:"asset_dir"`
}

type SpacesConfig struct {
	Key         string `toml:"key"`
	Secret      string `toml:"secret"`
	Region      string `toml:"region"`
	Bucket      string `toml:"bucket"`
	CardRoot    string `toml:"cardroot"`
	Placeholder string `toml:"placeholder"`
}

// TradeConfig carries the trade-post policy knobs.
type TradeConfig struct {
	Template           string   `toml:"template"`
	UntradableSymbols  []string `toml:"untradable_symbols"`
	ExcludeSpecialSets bool     `toml:"exclude_special_sets"`

	// DeluxePrefixes lists set-code prefixes treated as deluxe/bonus
	// content; empty keeps the built-in policy.
	DeluxePrefixes []string `toml:"deluxe_prefixes"`
}
