package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultFetchTimeout = 30 * time.Second

// Loader fetches the three catalog documents (cards, sets, rarity names)
// from the upstream database, falling back to a local asset directory when
// the remote is unreachable. The loaded snapshot is immutable for the
// session.
type Loader struct {
	BaseURL  string // e.g. https://raw.githubusercontent.com/.../dist/
	AssetDir string // local fallback, e.g. assets/cards
	Client   *http.Client
	Special  SpecialSetPolicy
}

// NewLoader builds a loader with the default HTTP client and special-set
// policy.
func NewLoader(baseURL, assetDir string) *Loader {
	return &Loader{
		BaseURL:  baseURL,
		AssetDir: assetDir,
		Client:   &http.Client{Timeout: defaultFetchTimeout},
		Special:  DefaultSpecialSetPolicy(),
	}
}

// Load fetches cards.json, sets.json and rarity.json concurrently and
// assembles the session Store. A remote failure degrades to the asset
// directory per document; only a miss on both sides fails the load.
func (l *Loader) Load(ctx context.Context) (*Store, error) {
	var cardsDoc, setsDoc, rarityDoc []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cardsDoc, err = l.fetch(gctx, "cards.json")
		return err
	})
	g.Go(func() (err error) {
		setsDoc, err = l.fetch(gctx, "sets.json")
		return err
	})
	g.Go(func() (err error) {
		rarityDoc, err = l.fetch(gctx, "rarity.json")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cards, err := DecodeCards(cardsDoc)
	if err != nil {
		return nil, err
	}
	sets, err := DecodeSets(setsDoc)
	if err != nil {
		return nil, err
	}
	rarityNames, err := DecodeRarityNames(rarityDoc)
	if err != nil {
		return nil, err
	}

	slog.Info("Catalog loaded",
		slog.Int("cards", len(cards)),
		slog.Int("sets", len(sets)),
		slog.Int("rarities", len(rarityNames)))

	return NewStore(cards, sets, rarityNames, l.Special), nil
}

func (l *Loader) fetch(ctx context.Context, name string) ([]byte, error) {
	if l.BaseURL != "" {
		data, err := l.fetchRemote(ctx, name)
		if err == nil {
			return data, nil
		}
		slog.Warn("Remote catalog fetch failed, trying local assets",
			slog.String("doc", name),
			slog.Any("error", err))
	}
	if l.AssetDir != "" {
		data, err := os.ReadFile(filepath.Join(l.AssetDir, name))
		if err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("catalog document %s unavailable remotely and locally", name)
}

func (l *Loader) fetchRemote(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.BaseURL+name, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s fetching %s", resp.Status, name)
	}
	return io.ReadAll(resp.Body)
}
