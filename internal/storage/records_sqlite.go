package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/matsen/hardneg/internal/mining"
)

// MiningRun records the parameters and corpus state of one mining run.
type MiningRun struct {
	ID         string  `json:"id"`
	ModelName  string  `json:"model_name"`
	Threshold  float32 `json:"threshold"`
	SampleSize int     `json:"sample_size"`
	Seed       int64   `json:"seed"`
	CorpusHash string  `json:"corpus_hash"`
	PairCount  int     `json:"pair_count"`
	MinedAt    int64   `json:"mined_at"` // Unix timestamp
}

// RecordAggregates summarizes the mined records table.
type RecordAggregates struct {
	Records       int `json:"records"`
	Negatives     int `json:"negatives"`
	HardNegatives int `json:"hard_negatives"`
	EmptyBand     int `json:"empty_band"`
}

// SaveRecords clears and rewrites the mined records table.
func (d *DB) SaveRecords(records []mining.Record) error {
	if _, err := d.db.Exec("DELETE FROM mined_records"); err != nil {
		return fmt.Errorf("clearing mined_records table: %w", err)
	}

	stmt, err := d.db.Prepare(`
		INSERT INTO mined_records (
			query_id, tipping_point,
			positives_json, negatives_json, hard_negatives_json,
			negative_count, hard_negative_count
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing records insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		positives, err := json.Marshal(rec.Positives)
		if err != nil {
			return fmt.Errorf("marshaling positives for query %d: %w", rec.QueryID, err)
		}
		negatives, err := json.Marshal(rec.Negatives)
		if err != nil {
			return fmt.Errorf("marshaling negatives for query %d: %w", rec.QueryID, err)
		}
		hardNegatives, err := json.Marshal(rec.HardNegatives)
		if err != nil {
			return fmt.Errorf("marshaling hard negatives for query %d: %w", rec.QueryID, err)
		}

		_, err = stmt.Exec(
			rec.QueryID, rec.TippingPoint,
			string(positives), string(negatives), string(hardNegatives),
			len(rec.Negatives), len(rec.HardNegatives),
		)
		if err != nil {
			return fmt.Errorf("inserting record for query %d: %w", rec.QueryID, err)
		}
	}

	return nil
}

// GetRecord retrieves the mined record for a query id.
func (d *DB) GetRecord(queryID int) (*mining.Record, error) {
	row := d.db.QueryRow(`
		SELECT query_id, tipping_point, positives_json, negatives_json, hard_negatives_json
		FROM mined_records
		WHERE query_id = ?`, queryID)
	return scanRecord(row)
}

// ListRecords returns all mined records in query id order.
func (d *DB) ListRecords() ([]mining.Record, error) {
	rows, err := d.db.Query(`
		SELECT query_id, tipping_point, positives_json, negatives_json, hard_negatives_json
		FROM mined_records
		ORDER BY query_id`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []mining.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, rows.Err()
}

// AggregateRecords summarizes the mined records table in one query.
func (d *DB) AggregateRecords() (*RecordAggregates, error) {
	var agg RecordAggregates
	err := d.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(negative_count), 0),
			COALESCE(SUM(hard_negative_count), 0),
			COALESCE(SUM(CASE WHEN hard_negative_count = 0 THEN 1 ELSE 0 END), 0)
		FROM mined_records
	`).Scan(&agg.Records, &agg.Negatives, &agg.HardNegatives, &agg.EmptyBand)
	if err != nil {
		return nil, fmt.Errorf("aggregating records: %w", err)
	}
	return &agg, nil
}

// HardNegativeHistogram returns how many queries have each hard-negative
// count.
func (d *DB) HardNegativeHistogram() (map[int]int, error) {
	rows, err := d.db.Query(`
		SELECT hard_negative_count, COUNT(*)
		FROM mined_records
		GROUP BY hard_negative_count
		ORDER BY hard_negative_count`)
	if err != nil {
		return nil, fmt.Errorf("building histogram: %w", err)
	}
	defer rows.Close()

	hist := make(map[int]int)
	for rows.Next() {
		var bucket, count int
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, err
		}
		hist[bucket] = count
	}
	return hist, rows.Err()
}

// SaveRun appends a mining run entry.
func (d *DB) SaveRun(run MiningRun) error {
	_, err := d.db.Exec(`
		INSERT INTO mining_runs (id, model_name, threshold, sample_size, seed, corpus_hash, pair_count, mined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.ModelName, run.Threshold, run.SampleSize, run.Seed, run.CorpusHash, run.PairCount, run.MinedAt)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent mining run, or nil when none exist.
func (d *DB) LatestRun() (*MiningRun, error) {
	row := d.db.QueryRow(`
		SELECT id, model_name, threshold, sample_size, seed, corpus_hash, pair_count, mined_at
		FROM mining_runs
		ORDER BY mined_at DESC, id DESC
		LIMIT 1`)
	return scanRun(row)
}

// ListRuns returns mining runs newest first, optionally limited.
func (d *DB) ListRuns(limit int) ([]MiningRun, error) {
	query := `
		SELECT id, model_name, threshold, sample_size, seed, corpus_hash, pair_count, mined_at
		FROM mining_runs
		ORDER BY mined_at DESC, id DESC`
	var args []interface{}

	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []MiningRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run != nil {
			runs = append(runs, *run)
		}
	}
	return runs, rows.Err()
}

func scanRecord(s scanner) (*mining.Record, error) {
	var rec mining.Record
	var positives, negatives, hardNegatives string

	err := s.Scan(&rec.QueryID, &rec.TippingPoint, &positives, &negatives, &hardNegatives)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(positives), &rec.Positives); err != nil {
		return nil, fmt.Errorf("parsing positives for query %d: %w", rec.QueryID, err)
	}
	if err := json.Unmarshal([]byte(negatives), &rec.Negatives); err != nil {
		return nil, fmt.Errorf("parsing negatives for query %d: %w", rec.QueryID, err)
	}
	if err := json.Unmarshal([]byte(hardNegatives), &rec.HardNegatives); err != nil {
		return nil, fmt.Errorf("parsing hard negatives for query %d: %w", rec.QueryID, err)
	}

	return &rec, nil
}

func scanRun(s scanner) (*MiningRun, error) {
	var run MiningRun
	err := s.Scan(
		&run.ID, &run.ModelName, &run.Threshold, &run.SampleSize,
		&run.Seed, &run.CorpusHash, &run.PairCount, &run.MinedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
