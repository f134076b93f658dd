package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matsen/hardneg/internal/corpus"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// IndexedPair couples a pair with its query id.
type IndexedPair struct {
	ID   int         `json:"id"`
	Pair corpus.Pair `json:"pair"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set pragmas for better performance
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	// Create schema if needed
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Corpus pairs, id = query id
		CREATE TABLE IF NOT EXISTS pairs (
			id INTEGER PRIMARY KEY,
			query TEXT NOT NULL,
			answer TEXT NOT NULL,
			source TEXT,
			origin INTEGER
		);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS pairs_fts USING fts5(
			id,
			query,
			answer
		);

		-- Mining output, one row per query
		CREATE TABLE IF NOT EXISTS mined_records (
			query_id INTEGER PRIMARY KEY,
			tipping_point REAL NOT NULL,
			positives_json TEXT NOT NULL,
			negatives_json TEXT NOT NULL,
			hard_negatives_json TEXT NOT NULL,
			negative_count INTEGER NOT NULL,
			hard_negative_count INTEGER NOT NULL
		);

		-- One row per mining run, newest first by mined_at
		CREATE TABLE IF NOT EXISTS mining_runs (
			id TEXT PRIMARY KEY,
			model_name TEXT NOT NULL,
			threshold REAL NOT NULL,
			sample_size INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			corpus_hash TEXT NOT NULL,
			pair_count INTEGER NOT NULL,
			mined_at INTEGER NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the pair tables and rebuilds them from a JSONL
// file. Returns the number of pairs indexed.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	pairs, err := ReadPairs(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	// Clear existing data
	if _, err := d.db.Exec("DELETE FROM pairs"); err != nil {
		return 0, fmt.Errorf("clearing pairs table: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM pairs_fts"); err != nil {
		return 0, fmt.Errorf("clearing pairs_fts table: %w", err)
	}

	// Prepare statements
	pairsStmt, err := d.db.Prepare(`
		INSERT INTO pairs (id, query, answer, source, origin)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing pairs insert: %w", err)
	}
	defer pairsStmt.Close()

	ftsStmt, err := d.db.Prepare(`
		INSERT INTO pairs_fts (id, query, answer)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i, p := range pairs {
		_, err = pairsStmt.Exec(i, p.Query, p.Answer, nullableStringValue(p.Source), nullableInt(p.Origin))
		if err != nil {
			return 0, fmt.Errorf("inserting pair %d: %w", i, err)
		}

		_, err = ftsStmt.Exec(i, p.Query, p.Answer)
		if err != nil {
			return 0, fmt.Errorf("inserting fts for pair %d: %w", i, err)
		}
	}

	return len(pairs), nil
}

// GetPair retrieves a pair by its query id.
func (d *DB) GetPair(id int) (*IndexedPair, error) {
	row := d.db.QueryRow(`SELECT id, query, answer, source, origin FROM pairs WHERE id = ?`, id)
	return scanPair(row)
}

// SearchPairs performs a full-text search over query and answer text.
func (d *DB) SearchPairs(query string, limit int) ([]IndexedPair, error) {
	ftsQuery := prepareFTSQuery(query)

	rows, err := d.db.Query(`
		SELECT id, query, answer, source, origin
		FROM pairs
		WHERE id IN (SELECT id FROM pairs_fts WHERE pairs_fts MATCH ?)
		ORDER BY id
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanPairs(rows)
}

// ListPairs returns all pairs in id order, optionally limited.
func (d *DB) ListPairs(limit int) ([]IndexedPair, error) {
	query := `SELECT id, query, answer, source, origin FROM pairs ORDER BY id`
	var args []interface{}

	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pairs: %w", err)
	}
	defer rows.Close()

	return scanPairs(rows)
}

// CountPairs returns the total number of pairs.
func (d *DB) CountPairs() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM pairs").Scan(&count)
	return count, err
}

// CountPairsBySource returns pair counts grouped by source tag.
func (d *DB) CountPairsBySource() (map[string]int, error) {
	rows, err := d.db.Query(`SELECT COALESCE(source, ''), COUNT(*) FROM pairs GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("counting pairs by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		counts[source] = count
	}
	return counts, rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPair(s scanner) (*IndexedPair, error) {
	var ip IndexedPair
	var source sql.NullString
	var origin sql.NullInt64

	err := s.Scan(&ip.ID, &ip.Pair.Query, &ip.Pair.Answer, &source, &origin)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	// Handle nullable fields
	ip.Pair.Source = source.String
	if origin.Valid {
		o := int(origin.Int64)
		ip.Pair.Origin = &o
	}

	return &ip, nil
}

func scanPairs(rows *sql.Rows) ([]IndexedPair, error) {
	var pairs []IndexedPair
	for rows.Next() {
		ip, err := scanPair(rows)
		if err != nil {
			return nil, err
		}
		if ip != nil {
			pairs = append(pairs, *ip)
		}
	}
	return pairs, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableInt converts an optional int to sql.NullInt64.
func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	// For simple queries, just quote the terms
	// FTS5 uses double quotes for phrase matching
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		// Escape internal quotes and wrap in quotes
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
