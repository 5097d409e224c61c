// Package localcache is the durable per-user mirror of the ownership
// ledger, backed by a single SQLite file. It is read when the remote store
// is unreachable and written on every successful local mutation, so its
// contents always track the ledger's in-memory state.
package localcache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pockettcg/collector/collector/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_cache (
	user_id      TEXT    NOT NULL,
	card_id      TEXT    NOT NULL,
	quantity     INTEGER NOT NULL,
	minimum_keep INTEGER NOT NULL,
	allow_trade  INTEGER NOT NULL,
	PRIMARY KEY (user_id, card_id)
);`

// Cache implements ledger.Cache over a SQLite file. The core is
// single-threaded, so one connection is enough and keeps ":memory:"
// databases coherent in tests.
type Cache struct {
	conn *sql.DB
}

// Open creates or opens the cache database at path, creating parent
// directories as needed. Pass ":memory:" for an ephemeral cache.
func Open(path string) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL",
		path, (5 * time.Second).Milliseconds())
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping cache database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Cache{conn: conn}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.conn.Close()
}

// Load returns every cached record for one user.
func (c *Cache) Load(userID string) (map[string]ledger.Record, error) {
	rows, err := c.conn.Query(
		`SELECT card_id, quantity, minimum_keep, allow_trade FROM ledger_cache WHERE user_id = ?`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("load cached ledger: %w", err)
	}
	defer rows.Close()

	records := make(map[string]ledger.Record)
	for rows.Next() {
		var cardID string
		var rec ledger.Record
		var allowTrade int
		if err := rows.Scan(&cardID, &rec.Quantity, &rec.MinimumKeep, &allowTrade); err != nil {
			return nil, fmt.Errorf("scan cached row: %w", err)
		}
		rec.AllowTrade = allowTrade != 0
		records[cardID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached rows: %w", err)
	}
	return records, nil
}

// Put upserts one record.
func (c *Cache) Put(userID, cardID string, rec ledger.Record) error {
	_, err := c.conn.Exec(
		`INSERT INTO ledger_cache (user_id, card_id, quantity, minimum_keep, allow_trade)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, card_id) DO UPDATE SET
		   quantity = excluded.quantity,
		   minimum_keep = excluded.minimum_keep,
		   allow_trade = excluded.allow_trade`,
		userID, cardID, rec.Quantity, rec.MinimumKeep, boolToInt(rec.AllowTrade))
	if err != nil {
		return fmt.Errorf("cache put %s: %w", cardID, err)
	}
	return nil
}

// Remove deletes one record; removing an absent record is not an error.
func (c *Cache) Remove(userID, cardID string) error {
	_, err := c.conn.Exec(
		`DELETE FROM ledger_cache WHERE user_id = ? AND card_id = ?`, userID, cardID)
	if err != nil {
		return fmt.Errorf("cache remove %s: %w", cardID, err)
	}
	return nil
}

// ReplaceAll swaps a user's entire cached collection in one transaction.
func (c *Cache) ReplaceAll(userID string, records map[string]ledger.Record) error {
	tx, err := c.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin cache replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ledger_cache WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear cached ledger: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO ledger_cache (user_id, card_id, quantity, minimum_keep, allow_trade)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for cardID, rec := range records {
		if _, err := stmt.Exec(userID, cardID, rec.Quantity, rec.MinimumKeep, boolToInt(rec.AllowTrade)); err != nil {
			return fmt.Errorf("cache insert %s: %w", cardID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache replace: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
