// Package store persists decoded crate indexes in SQLite so that resolving
// a path never re-fetches or re-decodes an index the daemon has already
// seen.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := &DB{conn: conn}
	if err := d.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return d, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS crates (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			epoch INTEGER NOT NULL DEFAULT 0,
			indexed_at TIMESTAMP,
			last_used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(name, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_crates_name ON crates (name)`,

		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER NOT NULL REFERENCES crates(id),
			path TEXT NOT NULL,
			url TEXT NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			UNIQUE(crate_id, path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_crate ON items (crate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_path ON items (path)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Crate operations ---

type Crate struct {
	ID         int
	Name       string
	Version    string
	Epoch      int
	IndexedAt  *time.Time
	LastUsedAt time.Time
}

func (db *DB) UpsertCrate(name, version string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, epoch, indexed_at, last_used_at FROM crates WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&c.ID, &c.Name, &c.Version, &c.Epoch, &c.IndexedAt, &c.LastUsedAt)

	if err == nil {
		return &c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking crate: %w", err)
	}

	result, err := db.conn.Exec(
		`INSERT INTO crates (name, version) VALUES (?, ?)`,
		name, version,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting crate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting crate id: %w", err)
	}
	return &Crate{ID: int(id), Name: name, Version: version, LastUsedAt: time.Now()}, nil
}

// MarkCrateIndexed records that a crate's items are fully stored and which
// index epoch they came from.
func (db *DB) MarkCrateIndexed(crateID, epoch int) error {
	_, err := db.conn.Exec(`UPDATE crates SET indexed_at = CURRENT_TIMESTAMP, epoch = ? WHERE id = ?`, epoch, crateID)
	return err
}

func (db *DB) TouchCrate(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) GetCrate(name, version string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, epoch, indexed_at, last_used_at FROM crates WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&c.ID, &c.Name, &c.Version, &c.Epoch, &c.IndexedAt, &c.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetLatestCrate returns the most recently indexed crate with the given name.
func (db *DB) GetLatestCrate(name string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, epoch, indexed_at, last_used_at
		 FROM crates WHERE name = ? AND indexed_at IS NOT NULL
		 ORDER BY indexed_at DESC LIMIT 1`, name,
	).Scan(&c.ID, &c.Name, &c.Version, &c.Epoch, &c.IndexedAt, &c.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) ListCrates() ([]Crate, error) {
	rows, err := db.conn.Query(`SELECT id, name, version, epoch, indexed_at, last_used_at FROM crates ORDER BY name, version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crates []Crate
	for rows.Next() {
		var c Crate
		if err := rows.Scan(&c.ID, &c.Name, &c.Version, &c.Epoch, &c.IndexedAt, &c.LastUsedAt); err != nil {
			return nil, err
		}
		crates = append(crates, c)
	}
	return crates, rows.Err()
}

func (db *DB) DeleteCrate(crateID int) error {
	if err := db.DeleteItemsByCrate(crateID); err != nil {
		return err
	}
	_, err := db.conn.Exec(`DELETE FROM crates WHERE id = ?`, crateID)
	return err
}

// --- Item operations ---

type Item struct {
	ID          int
	CrateID     int
	Path        string // fully-qualified, e.g. "serde::de::Visitor"
	URL         string // relative to the crate's docs root
	Kind        string
	Name        string
	Description string
}

// ReplaceItems atomically swaps a crate's items for a freshly decoded set.
// A crate index holds tens of thousands of rows for big crates, so the
// insert runs as a single prepared statement inside one transaction.
func (db *DB) ReplaceItems(crateID int, items []Item) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM items WHERE crate_id = ?`, crateID); err != nil {
		return fmt.Errorf("clearing old items: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO items (crate_id, path, url, kind, name, description) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.Exec(crateID, it.Path, it.URL, it.Kind, it.Name, it.Description); err != nil {
			return fmt.Errorf("inserting item %q: %w", it.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing items: %w", err)
	}
	return nil
}

func (db *DB) GetItemByPath(crateID int, path string) (*Item, error) {
	var it Item
	err := db.conn.QueryRow(
		`SELECT id, crate_id, path, url, kind, name, description FROM items WHERE crate_id = ? AND path = ?`,
		crateID, path,
	).Scan(&it.ID, &it.CrateID, &it.Path, &it.URL, &it.Kind, &it.Name, &it.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// SearchItemsByPath matches items whose path contains the given fragment,
// for fuzzy lookups when an exact path misses.
func (db *DB) SearchItemsByPath(crateID int, fragment string, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT id, crate_id, path, url, kind, name, description
		 FROM items WHERE crate_id = ? AND path LIKE '%' || ? || '%'
		 ORDER BY length(path) LIMIT ?`,
		crateID, fragment, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CrateID, &it.Path, &it.URL, &it.Kind, &it.Name, &it.Description); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (db *DB) DeleteItemsByCrate(crateID int) error {
	_, err := db.conn.Exec(`DELETE FROM items WHERE crate_id = ?`, crateID)
	return err
}

func (db *DB) CountItems(crateID int) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM items WHERE crate_id = ?`, crateID).Scan(&count)
	return count, err
}
