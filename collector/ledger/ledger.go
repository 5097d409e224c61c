// Package ledger holds the per-user ownership state: owned quantity,
// minimum-keep count and allow-trade flag per card. Records are sparse --
// a card with no record is simply unowned. Every local mutation is mirrored
// to a durable local cache before the remote store is touched, and a failed
// remote write rolls the ledger and the cache back together so they never
// diverge.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pockettcg/collector/collector/rarity"
)

// SyncPageSize is the fixed page size for full reloads from the remote store.
const SyncPageSize = 1000

// Record is the per-card ownership state.
type Record struct {
	Quantity    int
	MinimumKeep int
	AllowTrade  bool
}

// Row pairs a record with its card id for remote-store transfer.
type Row struct {
	CardID string
	Record
}

// Store is the remote row-store contract the ledger depends on.
//
//go:generate mockgen -source=ledger.go -destination=mock/store.go -package=mock Store
type Store interface {
	List(ctx context.Context, userID string, offset, limit int) ([]Row, error)
	Upsert(ctx context.Context, userID, cardID string, rec Record) error
	Delete(ctx context.Context, userID, cardID string) error
	ReplaceAll(ctx context.Context, userID string, rows []Row) error
}

// Cache is the local durable mirror, keyed by user. It is written on every
// successful local mutation and read when the remote store is unreachable.
type Cache interface {
	Load(userID string) (map[string]Record, error)
	Put(userID, cardID string, rec Record) error
	Remove(userID, cardID string) error
	ReplaceAll(userID string, records map[string]Record) error
}

// Ledger is the authoritative in-memory ownership map for one user. It is
// not safe for concurrent mutation; callers serialize operations per card.
type Ledger struct {
	store   Store
	cache   Cache
	userID  string
	records map[string]Record

	untradable map[string]bool
}

// New builds an empty ledger for the given user. Call Sync to populate it.
func New(store Store, cache Cache, userID string) *Ledger {
	return &Ledger{
		store:      store,
		cache:      cache,
		userID:     userID,
		records:    make(map[string]Record),
		untradable: symbolSet(rarity.DefaultUntradableSymbols()),
	}
}

// SetUntradableSymbols overrides the rarity symbols whose cards default to
// allow-trade false when a record is first seeded.
func (l *Ledger) SetUntradableSymbols(symbols []string) {
	l.untradable = symbolSet(symbols)
}

func symbolSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[s] = true
	}
	return set
}

// Get returns the owned quantity, zero when no record exists. It satisfies
// the engine's Quantities view.
func (l *Ledger) Get(cardID string) int { return l.records[cardID].Quantity }

// Record returns the full record and whether one exists.
func (l *Ledger) Record(cardID string) (Record, bool) {
	rec, ok := l.records[cardID]
	return rec, ok
}

// Snapshot copies the record map, for stats and export.
func (l *Ledger) Snapshot() map[string]Record {
	out := make(map[string]Record, len(l.records))
	for id, rec := range l.records {
		out[id] = rec
	}
	return out
}

// Len reports the number of owned (recorded) cards.
func (l *Ledger) Len() int { return len(l.records) }

// EffectiveMinimumKeep returns the per-card minimum-keep count, or the
// rarity-derived default when no record exists.
func (l *Ledger) EffectiveMinimumKeep(cardID, rarityCode string) int {
	if rec, ok := l.records[cardID]; ok {
		return rec.MinimumKeep
	}
	return rarity.DefaultMinimumKeep(rarityCode)
}

// AllowTrade reports whether a card may be offered for trade. Absent records
// default from the untradable-symbol policy.
func (l *Ledger) AllowTrade(cardID, rarityCode string) bool {
	if rec, ok := l.records[cardID]; ok {
		return rec.AllowTrade
	}
	return !l.untradable[rarity.SymbolFor(rarityCode)]
}

// NewRecord builds a record for a card with no prior state, seeding
// minimum-keep and allow-trade from the rarity defaults. Bulk importers use
// it to construct replacement snapshots.
func (l *Ledger) NewRecord(rarityCode string, quantity int) Record {
	return l.seed(rarityCode, quantity)
}

func (l *Ledger) seed(rarityCode string, quantity int) Record {
	return Record{
		Quantity:    quantity,
		MinimumKeep: rarity.DefaultMinimumKeep(rarityCode),
		AllowTrade:  !l.untradable[rarity.SymbolFor(rarityCode)],
	}
}

// SetQuantity applies a quantity change locally and mirrors it to the cache.
// A quantity <= 0 removes the record entirely. A new record seeds
// minimum-keep and allow-trade from the rarity defaults; an existing record
// keeps its values. The previous record is returned for Persist's rollback.
func (l *Ledger) SetQuantity(cardID, rarityCode string, quantity int) (prev Record, existed bool, err error) {
	prev, existed = l.records[cardID]

	if quantity <= 0 {
		delete(l.records, cardID)
		if err := l.cache.Remove(l.userID, cardID); err != nil {
			return prev, existed, fmt.Errorf("remove %s from cache: %w", cardID, err)
		}
		return prev, existed, nil
	}

	rec := l.seed(rarityCode, quantity)
	if existed {
		rec = prev
		rec.Quantity = quantity
	}
	l.records[cardID] = rec
	if err := l.cache.Put(l.userID, cardID, rec); err != nil {
		return prev, existed, fmt.Errorf("write %s to cache: %w", cardID, err)
	}
	return prev, existed, nil
}

// Persist pushes a card's current local state to the remote store. On
// failure the in-memory record and the cache are rolled back to prev so the
// caller can surface the old value, and the error is returned.
func (l *Ledger) Persist(ctx context.Context, cardID string, prev Record, existed bool) error {
	rec, ok := l.records[cardID]

	var err error
	if ok {
		err = l.store.Upsert(ctx, l.userID, cardID, rec)
	} else {
		err = l.store.Delete(ctx, l.userID, cardID)
	}
	if err == nil {
		return nil
	}

	l.rollback(cardID, prev, existed)
	slog.Error("remote persist failed, rolled back",
		slog.String("card_id", cardID),
		slog.Any("error", err))
	return fmt.Errorf("persist %s: %w", cardID, err)
}

// rollback restores a card's previous record in memory and in the cache.
func (l *Ledger) rollback(cardID string, prev Record, existed bool) {
	if existed {
		l.records[cardID] = prev
		if err := l.cache.Put(l.userID, cardID, prev); err != nil {
			slog.Error("cache rollback failed", slog.String("card_id", cardID), slog.Any("error", err))
		}
		return
	}
	delete(l.records, cardID)
	if err := l.cache.Remove(l.userID, cardID); err != nil {
		slog.Error("cache rollback failed", slog.String("card_id", cardID), slog.Any("error", err))
	}
}

// Set is the one-shot mutation path: local write, cache mirror, remote
// persist with rollback. The returned error is non-nil when the remote
// write failed and the previous value was restored.
func (l *Ledger) Set(ctx context.Context, cardID, rarityCode string, quantity int) error {
	prev, existed, err := l.SetQuantity(cardID, rarityCode, quantity)
	if err != nil {
		return err
	}
	return l.Persist(ctx, cardID, prev, existed)
}

// SetMinimumKeep updates a card's minimum-keep count. A record is seeded
// first when the card has none.
func (l *Ledger) SetMinimumKeep(ctx context.Context, cardID, rarityCode string, keep int) error {
	prev, existed := l.records[cardID]

	rec := prev
	if !existed {
		rec = l.seed(rarityCode, 0)
	}
	rec.MinimumKeep = keep
	l.records[cardID] = rec
	if err := l.cache.Put(l.userID, cardID, rec); err != nil {
		return fmt.Errorf("write %s to cache: %w", cardID, err)
	}
	return l.Persist(ctx, cardID, prev, existed)
}

// ToggleAllowTrade flips a card's allow-trade flag. Locking a card forces
// its minimum-keep to zero; unlocking restores the rarity default when the
// count was left at zero. The flag and the count are persisted as two
// separate writes, and a failed write rolls back only its own field.
func (l *Ledger) ToggleAllowTrade(ctx context.Context, cardID, rarityCode string) error {
	prev, existed := l.records[cardID]

	rec := prev
	if !existed {
		rec = l.seed(rarityCode, 0)
	}

	rec.AllowTrade = !rec.AllowTrade
	l.records[cardID] = rec
	if err := l.cache.Put(l.userID, cardID, rec); err != nil {
		return fmt.Errorf("write %s to cache: %w", cardID, err)
	}
	if err := l.store.Upsert(ctx, l.userID, cardID, rec); err != nil {
		rec.AllowTrade = !rec.AllowTrade
		l.records[cardID] = rec
		if cerr := l.cache.Put(l.userID, cardID, rec); cerr != nil {
			slog.Error("cache rollback failed", slog.String("card_id", cardID), slog.Any("error", cerr))
		}
		return fmt.Errorf("persist allow-trade for %s: %w", cardID, err)
	}

	prevKeep := rec.MinimumKeep
	if !rec.AllowTrade {
		rec.MinimumKeep = 0
	} else if rec.MinimumKeep == 0 {
		rec.MinimumKeep = rarity.DefaultMinimumKeep(rarityCode)
	}
	if rec.MinimumKeep == prevKeep {
		return nil
	}
	l.records[cardID] = rec
	if err := l.cache.Put(l.userID, cardID, rec); err != nil {
		return fmt.Errorf("write %s to cache: %w", cardID, err)
	}
	if err := l.store.Upsert(ctx, l.userID, cardID, rec); err != nil {
		rec.MinimumKeep = prevKeep
		l.records[cardID] = rec
		if cerr := l.cache.Put(l.userID, cardID, rec); cerr != nil {
			slog.Error("cache rollback failed", slog.String("card_id", cardID), slog.Any("error", cerr))
		}
		return fmt.Errorf("persist minimum-keep for %s: %w", cardID, err)
	}
	return nil
}

// SyncResult reports how a full reload resolved.
type SyncResult struct {
	Loaded    int
	FromCache bool
}

// Sync reloads the ledger from the remote store in fixed-size pages,
// reporting cumulative rows loaded after each page. On any remote error it
// falls back to the local cache and surfaces the error alongside the
// fallback result instead of failing outright.
func (l *Ledger) Sync(ctx context.Context, onProgress func(loaded int)) (SyncResult, error) {
	loaded := make(map[string]Record)
	offset := 0
	for {
		rows, err := l.store.List(ctx, l.userID, offset, SyncPageSize)
		if err != nil {
			return l.syncFallback(err)
		}
		for _, row := range rows {
			loaded[row.CardID] = row.Record
		}
		offset += len(rows)
		if onProgress != nil {
			onProgress(offset)
		}
		if len(rows) < SyncPageSize {
			break
		}
	}

	l.records = loaded
	if err := l.cache.ReplaceAll(l.userID, loaded); err != nil {
		slog.Error("cache refresh after sync failed", slog.Any("error", err))
	}
	return SyncResult{Loaded: len(loaded)}, nil
}

func (l *Ledger) syncFallback(cause error) (SyncResult, error) {
	cached, err := l.cache.Load(l.userID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("remote sync failed (%v) and cache unavailable: %w", cause, err)
	}
	l.records = cached
	slog.Warn("remote sync failed, serving cached ledger",
		slog.Int("cards", len(cached)),
		slog.Any("error", cause))
	return SyncResult{Loaded: len(cached), FromCache: true}, fmt.Errorf("remote sync failed, using cached ledger: %w", cause)
}

// BulkReplace swaps the entire collection, locally and remotely, in one
// operation; the CSV importer is its caller. The local map and cache take
// the new contents before the remote write, and a remote failure leaves
// them in place -- the attempted import stays visible and the error is
// surfaced for the user to decide.
func (l *Ledger) BulkReplace(ctx context.Context, records map[string]Record) error {
	l.records = make(map[string]Record, len(records))
	for id, rec := range records {
		if rec.Quantity <= 0 {
			continue
		}
		l.records[id] = rec
	}
	if err := l.cache.ReplaceAll(l.userID, l.records); err != nil {
		return fmt.Errorf("write imported ledger to cache: %w", err)
	}

	rows := make([]Row, 0, len(l.records))
	for id, rec := range l.records {
		rows = append(rows, Row{CardID: id, Record: rec})
	}
	if err := l.store.ReplaceAll(ctx, l.userID, rows); err != nil {
		return fmt.Errorf("bulk replace remote collection: %w", err)
	}
	return nil
}
