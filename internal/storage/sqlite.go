// Package storage provides SQLite-based persistence for balance batches.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/popshot/internal/balance"
	"github.com/vovakirdan/popshot/internal/report"
)

// timeLayout is how timestamps are stored.
const timeLayout = time.RFC3339Nano

// Store manages the SQLite database connection for batch persistence.
type Store struct {
	db *sql.DB
}

// BatchSummary is one row of the batch history.
type BatchSummary struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Levels         []string
	Personas       []string
	Runs           int
	Sessions       int
	Failed         int
	CriticalLevels int
}

// LevelRecord is a stored level overview.
type LevelRecord struct {
	BatchID         string
	LevelID         string
	LevelName       string
	Health          float64
	Critical        bool
	CriticalIssues  []string
	Recommendations []string
}

// PersonaRecord is a stored persona report.
type PersonaRecord struct {
	BatchID        string
	LevelID        string
	PersonaID      string
	Classification balance.Classification
	Runs           int
	SuccessfulRuns int
	FailedRuns     int
	Completions    int
	CompletionRate float64
	AvgScore       float64
	Health         float64
	Confidence     float64
	Issues         []string
	CreatedAt      time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			levels TEXT NOT NULL,
			personas TEXT NOT NULL,
			runs INTEGER NOT NULL,
			sessions INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			critical_levels INTEGER NOT NULL DEFAULT 0,
			document TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_batches_started ON batches(started_at DESC);

		CREATE TABLE IF NOT EXISTS level_overviews (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			level_id TEXT NOT NULL,
			level_name TEXT NOT NULL,
			health REAL NOT NULL,
			critical INTEGER NOT NULL DEFAULT 0,
			critical_issues TEXT NOT NULL DEFAULT '[]',
			recommendations TEXT NOT NULL DEFAULT '[]',
			position INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_level_overviews_batch ON level_overviews(batch_id);

		CREATE TABLE IF NOT EXISTS persona_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			level_id TEXT NOT NULL,
			persona_id TEXT NOT NULL,
			classification TEXT NOT NULL,
			runs INTEGER NOT NULL,
			successful_runs INTEGER NOT NULL,
			failed_runs INTEGER NOT NULL,
			completions INTEGER NOT NULL,
			completion_rate REAL NOT NULL,
			avg_score REAL NOT NULL,
			health REAL NOT NULL,
			confidence REAL NOT NULL,
			issues TEXT NOT NULL DEFAULT '[]',
			position INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_persona_reports_batch ON persona_reports(batch_id, level_id);
		CREATE INDEX IF NOT EXISTS idx_persona_reports_pair ON persona_reports(level_id, persona_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveBatch stores a finished batch with its level overviews and persona
// reports in one transaction.
func (s *Store) SaveBatch(b *report.Batch) (err error) {
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("storage: cannot encode batch: %w", err)
	}
	totals := b.Totals()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec(
		`INSERT INTO batches
		 (id, started_at, finished_at, levels, personas, runs, sessions, failed, critical_levels, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.StartedAt.UTC().Format(timeLayout),
		b.FinishedAt.UTC().Format(timeLayout),
		strings.Join(b.Settings.Levels, ","),
		strings.Join(b.Settings.Personas, ","),
		b.Settings.Runs,
		totals.Sessions,
		totals.Failed,
		totals.CriticalLevels,
		string(doc),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save batch: %w", err)
	}

	created := b.FinishedAt.UTC().Format(timeLayout)
	pos := 0
	for li, l := range b.Levels {
		_, err = tx.Exec(
			`INSERT INTO level_overviews
			 (batch_id, level_id, level_name, health, critical, critical_issues, recommendations, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, l.LevelID, l.LevelName, l.Health, l.Critical,
			encodeList(l.CriticalIssues), encodeList(l.Recommendations), li,
		)
		if err != nil {
			return fmt.Errorf("storage: cannot save level overview %s: %w", l.LevelID, err)
		}
		for _, p := range l.Personas {
			_, err = tx.Exec(
				`INSERT INTO persona_reports
				 (batch_id, level_id, persona_id, classification, runs, successful_runs, failed_runs,
				  completions, completion_rate, avg_score, health, confidence, issues, position, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				b.ID, l.LevelID, p.PersonaID, string(p.Classification), p.Runs, p.SuccessfulRuns, p.FailedRuns,
				p.Completions, p.Observed.CompletionRate, p.Summary.AvgScore, p.Health, p.Confidence,
				encodeList(p.Issues), pos, created,
			)
			if err != nil {
				return fmt.Errorf("storage: cannot save persona report %s/%s: %w", l.LevelID, p.PersonaID, err)
			}
			pos++
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit batch: %w", err)
	}
	return nil
}

// RecentBatches retrieves the most recent batches, newest first.
func (s *Store) RecentBatches(limit int) ([]BatchSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, levels, personas, runs, sessions, failed, critical_levels
		 FROM batches
		 ORDER BY started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query batches: %w", err)
	}
	defer rows.Close()

	var results []BatchSummary
	for rows.Next() {
		var b BatchSummary
		var started, finished any
		var levels, personas string
		if err := rows.Scan(&b.ID, &started, &finished, &levels, &personas,
			&b.Runs, &b.Sessions, &b.Failed, &b.CriticalLevels); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		b.StartedAt = parseTime(started)
		b.FinishedAt = parseTime(finished)
		b.Levels = splitList(levels)
		b.Personas = splitList(personas)
		results = append(results, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// LatestBatch returns the most recent batch document, or nil when none is
// stored.
func (s *Store) LatestBatch() (*report.Batch, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM batches ORDER BY started_at DESC LIMIT 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query latest batch: %w", err)
	}
	return decodeBatch(doc)
}

// Batch returns the batch whose id starts with prefix, or nil when none
// matches. An ambiguous prefix is an error.
func (s *Store) Batch(prefix string) (*report.Batch, error) {
	rows, err := s.db.Query(`SELECT document FROM batches WHERE id LIKE ? || '%' LIMIT 2`, prefix)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query batch: %w", err)
	}
	defer rows.Close()

	var docs []string
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	switch len(docs) {
	case 0:
		return nil, nil
	case 1:
		return decodeBatch(docs[0])
	default:
		return nil, fmt.Errorf("storage: batch id %q is ambiguous", prefix)
	}
}

// LevelOverviews retrieves the level overviews of a batch in report order.
func (s *Store) LevelOverviews(batchID string) ([]LevelRecord, error) {
	rows, err := s.db.Query(
		`SELECT batch_id, level_id, level_name, health, critical, critical_issues, recommendations
		 FROM level_overviews
		 WHERE batch_id = ?
		 ORDER BY position`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query level overviews: %w", err)
	}
	defer rows.Close()

	var results []LevelRecord
	for rows.Next() {
		var r LevelRecord
		var issues, recs string
		if err := rows.Scan(&r.BatchID, &r.LevelID, &r.LevelName, &r.Health, &r.Critical, &issues, &recs); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.CriticalIssues = decodeList(issues)
		r.Recommendations = decodeList(recs)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

const personaColumns = `batch_id, level_id, persona_id, classification, runs, successful_runs, failed_runs,
		        completions, completion_rate, avg_score, health, confidence, issues, created_at`

// PersonaReports retrieves the persona reports of a batch. An empty levelID
// returns every level.
func (s *Store) PersonaReports(batchID, levelID string) ([]PersonaRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+personaColumns+`
		 FROM persona_reports
		 WHERE batch_id = ? AND (? = '' OR level_id = ?)
		 ORDER BY position`,
		batchID, levelID, levelID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query persona reports: %w", err)
	}
	defer rows.Close()
	return scanPersonaRows(rows)
}

// PairHistory retrieves the most recent reports of one (level, persona)
// pair across batches, newest first.
func (s *Store) PairHistory(levelID, personaID string, limit int) ([]PersonaRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+personaColumns+`
		 FROM persona_reports
		 WHERE level_id = ? AND persona_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		levelID, personaID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query pair history: %w", err)
	}
	defer rows.Close()
	return scanPersonaRows(rows)
}

// DeleteBatch removes a batch and its reports in one transaction.
func (s *Store) DeleteBatch(id string) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, q := range []string{
		"DELETE FROM persona_reports WHERE batch_id = ?",
		"DELETE FROM level_overviews WHERE batch_id = ?",
		"DELETE FROM batches WHERE id = ?",
	} {
		if _, err = tx.Exec(q, id); err != nil {
			return fmt.Errorf("storage: cannot delete batch: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit transaction: %w", err)
	}
	return nil
}

func scanPersonaRows(rows *sql.Rows) ([]PersonaRecord, error) {
	var results []PersonaRecord
	for rows.Next() {
		var r PersonaRecord
		var class, issues string
		var created any
		if err := rows.Scan(
			&r.BatchID,
			&r.LevelID,
			&r.PersonaID,
			&class,
			&r.Runs,
			&r.SuccessfulRuns,
			&r.FailedRuns,
			&r.Completions,
			&r.CompletionRate,
			&r.AvgScore,
			&r.Health,
			&r.Confidence,
			&issues,
			&created,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Classification = balance.Classification(class)
		r.Issues = decodeList(issues)
		r.CreatedAt = parseTime(created)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

func decodeBatch(doc string) (*report.Batch, error) {
	var b report.Batch
	if err := json.Unmarshal([]byte(doc), &b); err != nil {
		return nil, fmt.Errorf("storage: corrupt batch document: %w", err)
	}
	return &b, nil
}

func encodeList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(list)
	return string(data)
}

func decodeList(s string) []string {
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil
	}
	return list
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// parseTime handles both time.Time and string column values.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse(timeLayout, v); err == nil {
			return parsed
		}
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
