package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mrwolf/yojeum-server/internal/models"
)

// ErrNotFound is returned by mutations that target a missing row
var ErrNotFound = errors.New("not found")

const schema = `
-- One journal entry per calendar day
CREATE TABLE IF NOT EXISTS daily_records (
    date TEXT PRIMARY KEY,          -- YYYY-MM-DD
    energy TEXT NOT NULL,           -- low | neutral | high
    tags TEXT NOT NULL DEFAULT '[]',
    memo TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL
);

-- Last generated sentence per day
CREATE TABLE IF NOT EXISTS summaries (
    date TEXT PRIMARY KEY,
    sentence TEXT NOT NULL,
    mode TEXT NOT NULL,
    rule TEXT NOT NULL,
    seed INTEGER NOT NULL,
    created_at TEXT NOT NULL
);

-- Every share/download action and how it ended
CREATE TABLE IF NOT EXISTS share_log (
    id TEXT PRIMARY KEY,
    date TEXT NOT NULL,
    strategy TEXT NOT NULL,
    outcome TEXT NOT NULL,
    file_name TEXT,
    error TEXT,
    created_at TEXT NOT NULL
);

-- Scheduler job tracking per actor
CREATE TABLE IF NOT EXISTS scheduler_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    actor TEXT NOT NULL,
    job_type TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_share_log_created ON share_log(created_at);
CREATE INDEX IF NOT EXISTS idx_scheduler_actor ON scheduler_runs(actor, job_type);
`

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection is usable
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// UpsertRecord stores the entry for rec.Date, replacing any previous one
func (db *DB) UpsertRecord(rec models.DailyRecord) error {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = db.conn.Exec(`
		INSERT INTO daily_records (date, energy, tags, memo, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			energy = excluded.energy,
			tags = excluded.tags,
			memo = excluded.memo,
			updated_at = excluded.updated_at
	`, rec.Date, string(rec.Energy), string(tagsJSON), rec.Memo, updated.UTC().Format(time.RFC3339))
	return err
}

// GetRecord returns the entry for date, or nil if there is none
func (db *DB) GetRecord(date string) (*models.DailyRecord, error) {
	row := db.conn.QueryRow(`
		SELECT date, energy, tags, memo, updated_at
		FROM daily_records
		WHERE date = ?
	`, date)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteRecord removes the entry for date
func (db *DB) DeleteRecord(date string) error {
	result, err := db.conn.Exec(`DELETE FROM daily_records WHERE date = ?`, date)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordWindow returns entries with from <= date <= to, keyed by date
func (db *DB) RecordWindow(from, to string) (map[string]models.DailyRecord, error) {
	rows, err := db.conn.Query(`
		SELECT date, energy, tags, memo, updated_at
		FROM daily_records
		WHERE date >= ? AND date <= ?
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.DailyRecord)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out[rec.Date] = rec
	}
	return out, rows.Err()
}

// ListRecords returns entries on or after since, newest first
func (db *DB) ListRecords(since string, limit int) ([]models.DailyRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.Query(`
		SELECT date, energy, tags, memo, updated_at
		FROM daily_records
		WHERE date >= ?
		ORDER BY date DESC
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.DailyRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.DailyRecord, error) {
	var rec models.DailyRecord
	var energy, tagsJSON, updatedStr string
	if err := s.Scan(&rec.Date, &energy, &tagsJSON, &rec.Memo, &updatedStr); err != nil {
		return rec, err
	}
	rec.Energy = models.Energy(energy)
	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		return rec, fmt.Errorf("decoding tags for %s: %w", rec.Date, err)
	}
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return rec, nil
}

// Summary is a stored sentence for one day
type Summary struct {
	Date      string
	Sentence  string
	Mode      string
	Rule      string
	Seed      int
	CreatedAt time.Time
}

// SaveSummary stores the latest sentence generated for date
func (db *DB) SaveSummary(date, sentence, mode, rule string, seed int) error {
	_, err := db.conn.Exec(`
		INSERT INTO summaries (date, sentence, mode, rule, seed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			sentence = excluded.sentence,
			mode = excluded.mode,
			rule = excluded.rule,
			seed = excluded.seed,
			created_at = excluded.created_at
	`, date, sentence, mode, rule, seed, time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetSummary returns the stored sentence for date, or nil
func (db *DB) GetSummary(date string) (*Summary, error) {
	var s Summary
	var createdStr string
	err := db.conn.QueryRow(`
		SELECT date, sentence, mode, rule, seed, created_at
		FROM summaries
		WHERE date = ?
	`, date).Scan(&s.Date, &s.Sentence, &s.Mode, &s.Rule, &s.Seed, &createdStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	return &s, nil
}

// LogShare records a share action and returns its id
func (db *DB) LogShare(date, strategy, outcome, fileName, errMsg string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`
		INSERT INTO share_log (id, date, strategy, outcome, file_name, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, date, strategy, outcome, nullable(fileName), nullable(errMsg), time.Now().UTC().Format(shareTimeLayout))
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecentShares returns the latest share actions, newest first
func (db *DB) RecentShares(limit int) ([]models.ShareLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, date, strategy, outcome, file_name, error, created_at
		FROM share_log
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ShareLogEntry
	for rows.Next() {
		var e models.ShareLogEntry
		var fileName, errMsg sql.NullString
		var createdStr string
		if err := rows.Scan(&e.ID, &e.Date, &e.Strategy, &e.Outcome, &fileName, &errMsg, &createdStr); err != nil {
			return nil, err
		}
		e.FileName = fileName.String
		e.Error = errMsg.String
		e.CreatedAt, _ = time.Parse(shareTimeLayout, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// fixed-width so created_at sorts as text
const shareTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// SchedulerRun tracks a scheduler job execution
type SchedulerRun struct {
	ID           int64
	Actor        string
	JobType      string
	Status       string
	StartedAt    time.Time
	CompletedAt  *time.Time
	ErrorMessage string
}

// StartSchedulerRun records the start of a scheduler job
func (db *DB) StartSchedulerRun(actor, jobType string) (int64, error) {
	result, err := db.conn.Exec(`
		INSERT INTO scheduler_runs (actor, job_type, status, started_at)
		VALUES (?, ?, 'running', ?)
	`, actor, jobType, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CompleteSchedulerRun marks a scheduler job as completed
func (db *DB) CompleteSchedulerRun(runID int64, errMsg string) error {
	status := "completed"
	if errMsg != "" {
		status = "failed"
	}
	_, err := db.conn.Exec(`
		UPDATE scheduler_runs
		SET status = ?, completed_at = ?, error_message = ?
		WHERE id = ?
	`, status, time.Now().UTC().Format(time.RFC3339), errMsg, runID)
	return err
}

// GetLastSchedulerRun returns the last run for an actor and job type
func (db *DB) GetLastSchedulerRun(actor, jobType string) (*SchedulerRun, error) {
	var run SchedulerRun
	var startedStr string
	var completedStr, errMsg sql.NullString
	err := db.conn.QueryRow(`
		SELECT id, actor, job_type, status, started_at, completed_at, error_message
		FROM scheduler_runs
		WHERE actor = ? AND job_type = ?
		ORDER BY id DESC
		LIMIT 1
	`, actor, jobType).Scan(&run.ID, &run.Actor, &run.JobType, &run.Status, &startedStr, &completedStr, &errMsg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.StartedAt, _ = time.Parse(time.RFC3339, startedStr)
	if completedStr.Valid {
		t, _ := time.Parse(time.RFC3339, completedStr.String)
		run.CompletedAt = &t
	}
	if errMsg.Valid {
		run.ErrorMessage = errMsg.String
	}
	return &run, nil
}
