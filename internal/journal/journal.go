// Package journal keeps a local SQLite record of processed packet files
// and the session reports computed from them.
package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ftracker/internal/models"
	_ "modernc.org/sqlite"
)

// Journal is the local state database at dir/journal.db.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at dir/journal.db.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "journal.db"))
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS processed_files (
			path         TEXT PRIMARY KEY,
			size         INTEGER NOT NULL,
			hash         TEXT NOT NULL,
			processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id            TEXT PRIMARY KEY,
			code          TEXT NOT NULL,
			training_type TEXT NOT NULL,
			duration      REAL NOT NULL,
			distance      REAL NOT NULL,
			speed         REAL NOT NULL,
			calories      REAL NOT NULL,
			fields        TEXT NOT NULL,
			source        TEXT NOT NULL,
			recorded_at   TEXT NOT NULL,
			created_at    TEXT NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating journal tables: %w", err)
		}
	}

	return &Journal{db: db}, nil
}

// IsProcessed checks if a file was already processed with the same size and hash.
func (j *Journal) IsProcessed(path string, size int64, hash string) (bool, error) {
	var count int
	err := j.db.QueryRow(
		`SELECT COUNT(*) FROM processed_files WHERE path = ? AND size = ? AND hash = ?`,
		path, size, hash,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking processed file: %w", err)
	}
	return count > 0, nil
}

// MarkProcessed records that a file was processed.
func (j *Journal) MarkProcessed(path string, size int64, hash string) error {
	_, err := j.db.Exec(
		`INSERT OR REPLACE INTO processed_files (path, size, hash) VALUES (?, ?, ?)`,
		path, size, hash,
	)
	if err != nil {
		return fmt.Errorf("marking %s processed: %w", path, err)
	}
	return nil
}

// InsertReports appends computed reports to the journal. Returns count inserted.
func (j *Journal) InsertReports(ctx context.Context, rows []models.ReportRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning journal tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO reports (id, code, training_type, duration, distance, speed, calories,
		 fields, source, recorded_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing journal insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	var inserted int64
	for _, r := range rows {
		fields, err := json.Marshal(r.Fields)
		if err != nil {
			return 0, fmt.Errorf("encoding fields: %w", err)
		}
		res, err := stmt.ExecContext(ctx, r.ID.String(), r.Code, r.TrainingType,
			r.Duration, r.Distance, r.Speed, r.Calories, string(fields), r.Source,
			r.RecordedAt.UTC().Format(time.RFC3339Nano), now)
		if err != nil {
			return 0, fmt.Errorf("inserting journal report: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing journal: %w", err)
	}
	return inserted, nil
}

// Recent returns the latest journaled reports, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]models.ReportRow, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, code, training_type, duration, distance, speed, calories, fields, source,
		 recorded_at, created_at
		 FROM reports ORDER BY recorded_at DESC, created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var result []models.ReportRow
	for rows.Next() {
		var (
			r                   models.ReportRow
			id, fields          string
			recorded, createdAt string
		)
		if err := rows.Scan(&id, &r.Code, &r.TrainingType, &r.Duration, &r.Distance, &r.Speed,
			&r.Calories, &fields, &r.Source, &recorded, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning journal report: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing report id %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(fields), &r.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields of %s: %w", id, err)
		}
		r.RecordedAt, _ = time.Parse(time.RFC3339Nano, recorded)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, r)
	}
	return result, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
