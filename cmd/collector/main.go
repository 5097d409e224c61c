package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pockettcg/collector/collector"
	"github.com/pockettcg/collector/collector/catalog"
	"github.com/pockettcg/collector/collector/csvio"
	"github.com/pockettcg/collector/collector/database/models"
	"github.com/pockettcg/collector/collector/engine"
	"github.com/pockettcg/collector/collector/ledger"
	"github.com/pockettcg/collector/collector/logger"
	"github.com/pockettcg/collector/collector/migration"
	"github.com/pockettcg/collector/collector/session"
	"github.com/pockettcg/collector/collector/stats"
	"github.com/pockettcg/collector/collector/tradegen"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	configPath string
	userName   string
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates the App. The caller must defer
// app.Close().
func newApp() (*collector.App, error) {
	cfg, err := collector.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return collector.New(*cfg, version, commit), nil
}

// openLedger brings up everything a collection command needs: database,
// local cache, catalog, the user's session, and a synced ledger.
func openLedger(ctx context.Context, a *collector.App) (*ledger.Ledger, session.Session, error) {
	if err := a.SetupDB(ctx); err != nil {
		return nil, session.Session{}, err
	}
	if err := a.OpenCache(); err != nil {
		return nil, session.Session{}, err
	}
	if err := a.LoadCatalog(ctx); err != nil {
		return nil, session.Session{}, err
	}

	sess, err := a.Auth.Lookup(ctx, userName)
	if err != nil {
		return nil, session.Session{}, err
	}

	led := a.NewLedger(sess)
	result, err := led.Sync(ctx, nil)
	if err != nil {
		if !result.FromCache {
			return nil, session.Session{}, err
		}
		fmt.Fprintf(os.Stderr, "Warning: remote unavailable, using cached collection (%v)\n", err)
	}
	return led, sess, nil
}

// resolveCard canonicalizes a user-typed card id against the catalog.
func resolveCard(store *catalog.Store, id string) (catalog.Card, error) {
	canonical, ok := store.ResolveID(id)
	if !ok {
		return catalog.Card{}, fmt.Errorf("unknown card %q", id)
	}
	card, _ := store.ByID(canonical)
	return card, nil
}

var rootCmd = &cobra.Command{
	Use:   "collector",
	Short: "Pocket card collection tracker",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetupDB(ctx); err != nil {
			return err
		}
		sess, err := a.Auth.SignIn(ctx, userName, password)
		if err != nil {
			return err
		}

		fmt.Printf("Signed in as %s (%s)\n", sess.Username, sess.Role)
		if sess.FriendCode != "" {
			fmt.Printf("Friend code: %s\n", sess.FriendCode)
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		friendCode, _ := cmd.Flags().GetString("friend-code")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetupDB(ctx); err != nil {
			return err
		}

		now := time.Now()
		profile := &models.Profile{
			ID:         "user-" + userName,
			Username:   userName,
			Password:   password,
			Role:       "user",
			FriendCode: friendCode,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := a.ProfileRepository.Create(ctx, profile); err != nil {
			return fmt.Errorf("creating profile: %w", err)
		}

		fmt.Printf("Profile %s created\n", userName)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reload the collection from the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetupDB(ctx); err != nil {
			return err
		}
		if err := a.OpenCache(); err != nil {
			return err
		}
		sess, err := a.Auth.Lookup(ctx, userName)
		if err != nil {
			return err
		}

		led := a.NewLedger(sess)
		result, err := led.Sync(ctx, func(loaded int) {
			fmt.Printf("\rLoaded %d rows...", loaded)
		})
		fmt.Println()
		if err != nil {
			if !result.FromCache {
				return err
			}
			fmt.Fprintf(os.Stderr, "Warning: remote unavailable, loaded %d cached rows (%v)\n", result.Loaded, err)
			return nil
		}

		fmt.Printf("Synced %d owned cards\n", result.Loaded)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set CARD QTY",
	Short: "Set the owned quantity of a card",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity must be an integer: %q", args[1])
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		led, _, err := openLedger(ctx, a)
		if err != nil {
			return err
		}
		card, err := resolveCard(a.Catalog, args[0])
		if err != nil {
			return err
		}

		if err := led.Set(ctx, card.ID(), card.RarityCode, qty); err != nil {
			return fmt.Errorf("saving %s: %w", card.ID(), err)
		}
		fmt.Printf("%s %s: %d owned\n", card.ID(), card.Name, led.Get(card.ID()))
		return nil
	},
}

var keepCmd = &cobra.Command{
	Use:   "keep CARD N",
	Short: "Set the minimum copies to keep out of trades",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("keep count must be an integer: %q", args[1])
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		led, _, err := openLedger(ctx, a)
		if err != nil {
			return err
		}
		card, err := resolveCard(a.Catalog, args[0])
		if err != nil {
			return err
		}

		if err := led.SetMinimumKeep(ctx, card.ID(), card.RarityCode, keep); err != nil {
			return fmt.Errorf("saving %s: %w", card.ID(), err)
		}
		fmt.Printf("%s %s: keeping %d\n", card.ID(), card.Name, keep)
		return nil
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock CARD",
	Short: "Toggle a card's trade lock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		led, _, err := openLedger(ctx, a)
		if err != nil {
			return err
		}
		card, err := resolveCard(a.Catalog, args[0])
		if err != nil {
			return err
		}

		if err := led.ToggleAllowTrade(ctx, card.ID(), card.RarityCode); err != nil {
			return fmt.Errorf("saving %s: %w", card.ID(), err)
		}
		state := "locked"
		if led.AllowTrade(card.ID(), card.RarityCode) {
			state = "tradable"
		}
		fmt.Printf("%s %s is now %s\n", card.ID(), card.Name, state)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cards with filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := engine.Spec{
			Ownership: engine.OwnershipAll,
			Foil:      engine.FoilAll,
			Sort:      engine.SortLatest,
			GroupBy:   engine.GroupNone,
		}
		spec.Set, _ = cmd.Flags().GetString("set")
		spec.Series, _ = cmd.Flags().GetString("series")
		spec.Pack, _ = cmd.Flags().GetString("pack")
		spec.Search, _ = cmd.Flags().GetString("search")
		spec.Rarities, _ = cmd.Flags().GetStringSlice("rarity")
		spec.Types, _ = cmd.Flags().GetStringSlice("type")
		if missing, _ := cmd.Flags().GetBool("missing"); missing {
			spec.Ownership = engine.OwnershipMissing
		}
		if owned, _ := cmd.Flags().GetBool("owned"); owned {
			spec.Ownership = engine.OwnershipOwned
		}
		if foil, _ := cmd.Flags().GetString("foil"); foil != "" {
			spec.Foil = engine.FoilState(foil)
		}
		if sortOrder, _ := cmd.Flags().GetString("sort"); sortOrder != "" {
			spec.Sort = engine.SortOrder(sortOrder)
		}
		if group, _ := cmd.Flags().GetString("group"); group != "" {
			spec.GroupBy = engine.GroupBy(group)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		led, _, err := openLedger(ctx, a)
		if err != nil {
			return err
		}

		visible := engine.Apply(a.Catalog, led, spec)
		if len(visible) == 0 {
			fmt.Println("No cards match.")
			return nil
		}

		if spec.GroupBy == engine.GroupNone {
			printCards(a.Catalog, led, visible)
			return nil
		}
		for _, group := range engine.GroupCards(a.Catalog, visible, spec) {
			fmt.Printf("== %s ==\n", group.Title)
			printCards(a.Catalog, led, group.Cards)
		}
		return nil
	},
}

func printCards(store *catalog.Store, led *ledger.Ledger, cards []catalog.Card) {
	for _, card := range cards {
		symbol := card.Symbol
		if symbol == "" {
			symbol = "?"
		}
		fmt.Printf("%-8s %-3s x%-3d %s\n", card.ID(), symbol, led.Get(card.ID()), card.Name)
	}
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export the collection to CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		led, _, err := openLedger(ctx, a)
		if err != nil {
			return err
		}

		file, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("creating %s: %w", args[0], err)
		}
		defer file.Close()

		if err := csvio.Export(file, a.Catalog, led); err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		fmt.Printf("Exported %d cards to %s\n", a.Catalog.Len(), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the collection from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		led, _, err := openLedger(ctx, a)
		if err != nil {
			return err
		}

		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer file.Close()

		quantities, report, err := csvio.Import(file, a.Catalog)
		if err != nil {
			return fmt.Errorf("importing: %w", err)
		}

		existing := led.Snapshot()
		records := make(map[string]ledger.Record, len(quantities))
		for cardID, qty := range quantities {
			card, _ := a.Catalog.ByID(cardID)
			rec, ok := existing[cardID]
			if !ok {
				rec = led.NewRecord(card.RarityCode, qty)
			}
			rec.Quantity = qty
			records[cardID] = rec
		}
		if err := led.BulkReplace(ctx, records); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: remote save failed, collection kept locally (%v)\n", err)
		}

		fmt.Printf("Imported %d cards", report.Imported)
		if report.UnknownCards > 0 {
			fmt.Printf(", %d unknown", report.UnknownCards)
		}
		if report.ParseErrors > 0 {
			fmt.Printf(", %d rows skipped", report.ParseErrors)
		}
		fmt.Println()
		return nil
	},
}

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Generate a trade post",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		lfSets, _ := cmd.Flags().GetStringSlice("lf-set")
		ftSets, _ := cmd.Flags().GetStringSlice("ft-set")
		rarities, _ := cmd.Flags().GetStringSlice("rarity")
		minKeep, _ := cmd.Flags().GetInt("min-keep")
		includeSpecial, _ := cmd.Flags().GetBool("include-special")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		led, sess, err := openLedger(ctx, a)
		if err != nil {
			return err
		}

		excludeSpecial := a.Cfg.Trade.ExcludeSpecialSets
		if cmd.Flags().Changed("include-special") {
			excludeSpecial = !includeSpecial
		}

		opts := tradegen.Options{
			LFSets:             lfSets,
			FTSets:             ftSets,
			Rarities:           rarities,
			ExcludeSpecialSets: excludeSpecial,
			UntradableSymbols:  a.Cfg.Trade.UntradableSymbols,
			Format:             tradegen.Format(format),
			TemplateText:       a.Cfg.Trade.Template,
			Username:           sess.Username,
			FriendCode:         sess.FriendCode,
		}
		if minKeep >= 0 {
			opts.OverrideMinKeep = &minKeep
		}

		fmt.Println(tradegen.Generate(a.Catalog, led, opts))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		excludeDeluxe, _ := cmd.Flags().GetBool("exclude-deluxe")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		led, _, err := openLedger(ctx, a)
		if err != nil {
			return err
		}

		owned := make(map[string]int, led.Len())
		for cardID, rec := range led.Snapshot() {
			owned[cardID] = rec.Quantity
		}

		printStats(os.Stdout, a.Catalog, owned, excludeDeluxe)
		return nil
	},
}

func printStats(w io.Writer, store *catalog.Store, owned map[string]int, excludeDeluxe bool) {
	overview := stats.ComputeOverview(store, owned)
	fmt.Fprintf(w, "Collection: %d cards (%d unique, %d%% complete)\n",
		overview.TotalOwned, overview.UniqueCards, overview.CompletionPercent)
	fmt.Fprintf(w, "Super rares owned: %d\n", overview.SuperRares)
	fmt.Fprintf(w, "Missing: %d commons, %d super rares\n\n",
		overview.MissingCommons, overview.MissingSuperRares)

	fmt.Fprintln(w, "Sets:")
	for _, sp := range stats.ComputeSetProgress(store, owned) {
		fmt.Fprintf(w, "  %-6s %-28s %3d/%-3d %3d%%\n", sp.Code, sp.Name, sp.Owned, sp.Total, sp.Percent)
	}

	fmt.Fprintln(w, "\nRarities:")
	for _, rp := range stats.ComputeRarityCompletion(store, owned) {
		fmt.Fprintf(w, "  %-4s %-16s %3d/%-3d %3d%%\n", rp.Code, rp.Name, rp.Owned, rp.Total, rp.Percent)
	}

	suggestions := stats.ComputePackSuggestions(store, owned, excludeDeluxe)
	if len(suggestions) > 0 {
		fmt.Fprintln(w, "\nPacks worth opening:")
		for _, s := range suggestions {
			fmt.Fprintf(w, "  %-24s missing %3d of %3d (score %d)\n", s.Pack, s.Missing, s.Total, s.Score)
		}
	}
}

var imageCmd = &cobra.Command{
	Use:   "image CARD",
	Short: "Show a card's artwork URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.LoadCatalog(ctx); err != nil {
			return err
		}
		if err := a.SetupImages(); err != nil {
			return err
		}
		if a.Images == nil {
			return fmt.Errorf("image service not configured; set [spaces] in %s", configPath)
		}

		card, err := resolveCard(a.Catalog, args[0])
		if err != nil {
			return err
		}
		fmt.Println(a.Images.ResolveURL(ctx, card))
		return nil
	},
}

var migrateLegacyCmd = &cobra.Command{
	Use:   "migrate-legacy",
	Short: "Import collections from the legacy MongoDB deployment",
	RunE: func(cmd *cobra.Command, args []string) error {
		mongoURI, _ := cmd.Flags().GetString("mongo-uri")
		mongoDB, _ := cmd.Flags().GetString("mongo-db")
		batchSize, _ := cmd.Flags().GetInt("batch-size")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetupDB(ctx); err != nil {
			return err
		}
		if err := a.LoadCatalog(ctx); err != nil {
			return err
		}

		m := migration.NewMigrator(a.DB.BunDB(), a.Catalog)
		m.SetBatchSize(batchSize)
		if err := m.Connect(ctx, mongoURI, mongoDB); err != nil {
			return err
		}
		if err := m.MigrateAll(ctx); err != nil {
			return err
		}

		st := m.Stats()
		fmt.Printf("Migrated %d profiles and %d cards (%d skipped) in %s\n",
			st.Profiles, st.UserCards, st.SkippedCards,
			st.Duration.Truncate(time.Millisecond))
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Fuzzy-search the catalog by card name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.LoadCatalog(ctx); err != nil {
			return err
		}

		matches := a.Catalog.SearchByName(strings.Join(args, " "), limit)
		if len(matches) == 0 {
			fmt.Println("No cards found.")
			return nil
		}
		for _, card := range matches {
			fmt.Printf("%-8s %-3s %s\n", card.ID(), card.Symbol, card.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to config")
	rootCmd.PersistentFlags().StringVarP(&userName, "user", "u", "", "profile username")

	loginCmd.Flags().String("password", "", "profile password")
	registerCmd.Flags().String("password", "", "profile password")
	registerCmd.Flags().String("friend-code", "", "in-game friend code")

	listCmd.Flags().String("set", "", "filter by set code")
	listCmd.Flags().String("series", "", "filter by series")
	listCmd.Flags().String("pack", "", "filter by booster pack (requires --set)")
	listCmd.Flags().String("search", "", "substring name search")
	listCmd.Flags().StringSlice("rarity", nil, "filter by rarity symbols")
	listCmd.Flags().StringSlice("type", nil, "filter by card types")
	listCmd.Flags().Bool("missing", false, "only cards not owned")
	listCmd.Flags().Bool("owned", false, "only cards owned")
	listCmd.Flags().String("foil", "", "foil filter: all, no-foil, foil-only")
	listCmd.Flags().String("sort", "", "sort order: latest or oldest")
	listCmd.Flags().String("group", "", "group by: rarity, pack, or type")

	tradeCmd.Flags().String("format", string(tradegen.FormatDiscord), "output format: discord, details, foil-trade")
	tradeCmd.Flags().StringSlice("lf-set", nil, "looking-for set codes")
	tradeCmd.Flags().StringSlice("ft-set", nil, "for-trade set codes")
	tradeCmd.Flags().StringSlice("rarity", nil, "rarity symbols to include")
	tradeCmd.Flags().Int("min-keep", -1, "override every card's minimum keep count")
	tradeCmd.Flags().Bool("include-special", false, "include promo and deluxe sets")

	statsCmd.Flags().Bool("exclude-deluxe", false, "ignore deluxe packs in suggestions")

	migrateLegacyCmd.Flags().String("mongo-uri", "mongodb://localhost:27017", "legacy MongoDB URI")
	migrateLegacyCmd.Flags().String("mongo-db", "pocket", "legacy database name")
	migrateLegacyCmd.Flags().Int("batch-size", 1000, "insert batch size")

	searchCmd.Flags().IntP("limit", "n", 10, "maximum matches to show")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(keepCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(tradeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(migrateLegacyCmd)

	for _, c := range rootCmd.Commands() {
		instrumentCommand(c)
	}
}

// instrumentCommand times a command's RunE and reports it through the
// command log.
func instrumentCommand(c *cobra.Command) {
	run := c.RunE
	if run == nil {
		return
	}
	name := c.Name()
	c.RunE = func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		err := run(cmd, args)
		logger.LogCommand(name, time.Since(start), err)
		return err
	}
}
