// Package collector wires configuration, storage, catalog and services into
// the application object the CLI commands operate on.
package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pockettcg/collector/collector/catalog"
	"github.com/pockettcg/collector/collector/database"
	"github.com/pockettcg/collector/collector/database/repositories"
	"github.com/pockettcg/collector/collector/images"
	"github.com/pockettcg/collector/collector/ledger"
	"github.com/pockettcg/collector/collector/localcache"
	"github.com/pockettcg/collector/collector/session"
)

func New(cfg Config, version string, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

type App struct {
	Cfg     Config
	Version string
	Commit  string

	DB                 *database.DB
	Catalog            *catalog.Store
	Cache              *localcache.Cache
	ProfileRepository  repositories.ProfileRepository
	UserCardRepository repositories.UserCardRepository
	Auth               *session.Authenticator
	Images             *images.Service
}

// SetupDB connects to Postgres, creates the schema, and builds the
// repositories and authenticator on top.
func (a *App) SetupDB(ctx context.Context) error {
	db, err := database.New(ctx, a.Cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	a.DB = db
	a.ProfileRepository = repositories.NewProfileRepository(db.BunDB())
	a.UserCardRepository = repositories.NewUserCardRepository(db.BunDB())
	a.Auth = session.NewAuthenticator(a.ProfileRepository)
	return nil
}

// LoadCatalog fetches the card database snapshot for this session.
func (a *App) LoadCatalog(ctx context.Context) error {
	loader := catalog.NewLoader(a.Cfg.Catalog.BaseURL, a.Cfg.Catalog.AssetDir)
	if len(a.Cfg.Trade.DeluxePrefixes) > 0 {
		loader.Special = catalog.SpecialSetPolicy{DeluxePrefixes: a.Cfg.Trade.DeluxePrefixes}
	}
	store, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	a.Catalog = store
	return nil
}

// OpenCache opens the durable local ledger cache.
func (a *App) OpenCache() error {
	cache, err := localcache.Open(a.Cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to open local cache: %w", err)
	}
	a.Cache = cache
	return nil
}

// SetupImages builds the artwork URL service when Spaces credentials are
// configured; without them image commands fall back to placeholders only.
func (a *App) SetupImages() error {
	if a.Cfg.Spaces.Key == "" {
		slog.Info("Spaces credentials missing, image URLs disabled")
		return nil
	}
	svc, err := images.New(
		a.Cfg.Spaces.Key,
		a.Cfg.Spaces.Secret,
		a.Cfg.Spaces.Region,
		a.Cfg.Spaces.Bucket,
		a.Cfg.Spaces.CardRoot,
		a.Cfg.Spaces.Placeholder,
	)
	if err != nil {
		return err
	}
	a.Images = svc
	return nil
}

// NewLedger assembles the ownership ledger for a signed-in user over the
// remote row store and the local cache.
func (a *App) NewLedger(sess session.Session) *ledger.Ledger {
	store := repositories.NewLedgerStore(a.UserCardRepository)
	led := ledger.New(store, a.Cache, sess.UserID)
	if len(a.Cfg.Trade.UntradableSymbols) > 0 {
		led.SetUntradableSymbols(a.Cfg.Trade.UntradableSymbols)
	}
	return led
}

// Close releases the database and cache handles.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			slog.Error("Failed to close local cache", slog.Any("error", err))
		}
	}
}
