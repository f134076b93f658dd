package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/hardneg/internal/corpus"
)

// setupTestDB creates a test database and JSONL file with test data
func setupTestDB(t *testing.T) (*DB, string, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	jsonlPath := filepath.Join(tmpDir, "pairs.jsonl")

	origin := 0
	pairs := []corpus.Pair{
		{
			Query:  "What is CRISPR?",
			Answer: "CRISPR is a gene editing technology adapted from bacterial immune systems.",
			Source: "faq.jsonl",
		},
		{
			Query:  "How do vaccines work?",
			Answer: "Vaccines train the immune system to recognize pathogens.",
			Source: "faq.jsonl",
		},
		{
			Query:  "What is CRISPR",
			Answer: "CRISPR is a gene editing technology adapted from bacterial immune systems.",
			Source: "augment:strip",
			Origin: &origin,
		},
	}

	// Write JSONL file
	if err := WritePairs(jsonlPath, pairs); err != nil {
		t.Fatalf("Failed to write test JSONL: %v", err)
	}

	// Open database
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}

	// Rebuild from JSONL
	if _, err := db.RebuildFromJSONL(jsonlPath); err != nil {
		db.Close()
		t.Fatalf("Failed to rebuild DB: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, tmpDir, cleanup
}

func TestOpenDB_CreatesSchema(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("OpenDB() did not create the database file")
	}

	count, err := db.CountPairs()
	if err != nil {
		t.Fatalf("CountPairs() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountPairs() = %d on fresh database, want 0", count)
	}
}

func TestRebuildFromJSONL(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	count, err := db.CountPairs()
	if err != nil {
		t.Fatalf("CountPairs() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountPairs() = %d, want 3", count)
	}
}

func TestRebuildFromJSONL_ReplacesExisting(t *testing.T) {
	db, tmpDir, cleanup := setupTestDB(t)
	defer cleanup()

	jsonlPath := filepath.Join(tmpDir, "pairs.jsonl")
	if err := WritePairs(jsonlPath, []corpus.Pair{{Query: "only", Answer: "one"}}); err != nil {
		t.Fatalf("WritePairs() error = %v", err)
	}

	n, err := db.RebuildFromJSONL(jsonlPath)
	if err != nil {
		t.Fatalf("RebuildFromJSONL() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RebuildFromJSONL() = %d, want 1", n)
	}

	count, err := db.CountPairs()
	if err != nil {
		t.Fatalf("CountPairs() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountPairs() = %d after rebuild, want 1", count)
	}
}

func TestGetPair(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ip, err := db.GetPair(0)
	if err != nil {
		t.Fatalf("GetPair() error = %v", err)
	}
	if ip == nil {
		t.Fatal("GetPair(0) = nil, want pair")
	}
	if ip.ID != 0 || ip.Pair.Query != "What is CRISPR?" {
		t.Errorf("GetPair(0) = %+v, want id 0 with original query", ip)
	}
	if ip.Pair.Source != "faq.jsonl" {
		t.Errorf("Source = %q, want faq.jsonl", ip.Pair.Source)
	}
	if ip.Pair.Origin != nil {
		t.Errorf("Origin = %v for original pair, want nil", ip.Pair.Origin)
	}
}

func TestGetPair_Variant(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ip, err := db.GetPair(2)
	if err != nil {
		t.Fatalf("GetPair() error = %v", err)
	}
	if ip == nil {
		t.Fatal("GetPair(2) = nil, want pair")
	}
	if ip.Pair.Origin == nil || *ip.Pair.Origin != 0 {
		t.Errorf("Origin = %v, want 0", ip.Pair.Origin)
	}
	if ip.Pair.Source != "augment:strip" {
		t.Errorf("Source = %q, want augment:strip", ip.Pair.Source)
	}
}

func TestGetPair_NotFound(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	ip, err := db.GetPair(999)
	if err != nil {
		t.Fatalf("GetPair() error = %v", err)
	}
	if ip != nil {
		t.Errorf("GetPair(999) = %+v, want nil", ip)
	}
}

func TestSearchPairs(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	results, err := db.SearchPairs("vaccines", 10)
	if err != nil {
		t.Fatalf("SearchPairs() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("SearchPairs(vaccines) returned %d pairs, want 1", len(results))
	}
	if results[0].ID != 1 {
		t.Errorf("SearchPairs(vaccines)[0].ID = %d, want 1", results[0].ID)
	}
}

func TestSearchPairs_MatchesAnswerText(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	results, err := db.SearchPairs("bacterial", 10)
	if err != nil {
		t.Fatalf("SearchPairs() error = %v", err)
	}
	// Original and its augmented variant share the answer.
	if len(results) != 2 {
		t.Errorf("SearchPairs(bacterial) returned %d pairs, want 2", len(results))
	}
}

func TestSearchPairs_SpecialCharacters(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	// Must not produce an FTS5 syntax error.
	if _, err := db.SearchPairs(`"quoted" AND special:chars*`, 10); err != nil {
		t.Fatalf("SearchPairs() error = %v", err)
	}
}

func TestListPairs(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	pairs, err := db.ListPairs(0)
	if err != nil {
		t.Fatalf("ListPairs() error = %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("ListPairs() returned %d pairs, want 3", len(pairs))
	}
	for i, ip := range pairs {
		if ip.ID != i {
			t.Errorf("ListPairs()[%d].ID = %d, want %d", i, ip.ID, i)
		}
	}
}

func TestListPairs_Limit(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	pairs, err := db.ListPairs(2)
	if err != nil {
		t.Fatalf("ListPairs() error = %v", err)
	}
	if len(pairs) != 2 {
		t.Errorf("ListPairs(2) returned %d pairs, want 2", len(pairs))
	}
}

func TestCountPairsBySource(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	counts, err := db.CountPairsBySource()
	if err != nil {
		t.Fatalf("CountPairsBySource() error = %v", err)
	}
	if counts["faq.jsonl"] != 2 {
		t.Errorf("counts[faq.jsonl] = %d, want 2", counts["faq.jsonl"])
	}
	if counts["augment:strip"] != 1 {
		t.Errorf("counts[augment:strip] = %d, want 1", counts["augment:strip"])
	}
}
