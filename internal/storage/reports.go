package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/ftracker/internal/models"
)

// ErrNotFound is returned when a report does not exist for the user.
var ErrNotFound = errors.New("not found")

const reportColumns = `id, user_id, code, training_type, duration_h, distance_km, speed_kmh, calories_kcal,
	 fields, source, recorded_at, created_at`

// InsertReports batch-inserts session reports. Returns count inserted.
func (db *DB) InsertReports(ctx context.Context, rows []models.ReportRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO session_reports (id, user_id, code, training_type, duration_h, distance_km,
		speed_kmh, calories_kcal, fields, source, recorded_at) VALUES `
	args := make([]any, 0, len(rows)*11)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 11
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11,
		))
		args = append(args, r.ID, r.UserID, r.Code, r.TrainingType, r.Duration, r.Distance,
			r.Speed, r.Calories, r.Fields, r.Source, r.RecordedAt)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting session reports: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryReports retrieves reports recorded in [start, end), newest first.
// An empty code matches every activity.
func (db *DB) QueryReports(ctx context.Context, start, end time.Time, userID int, code string) ([]models.ReportRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+reportColumns+`
		 FROM session_reports
		 WHERE recorded_at >= $1 AND recorded_at < $2 AND user_id = $3
		   AND ($4 = '' OR code = $4)
		 ORDER BY recorded_at DESC`,
		start, end, userID, code)
	if err != nil {
		return nil, fmt.Errorf("querying session reports: %w", err)
	}
	defer rows.Close()

	return scanReportRows(rows)
}

// GetReport retrieves a single report by ID.
func (db *DB) GetReport(ctx context.Context, id uuid.UUID, userID int) (*models.ReportRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+reportColumns+`
		 FROM session_reports
		 WHERE id = $1 AND user_id = $2`,
		id, userID)

	var r models.ReportRow
	err := row.Scan(&r.ID, &r.UserID, &r.Code, &r.TrainingType, &r.Duration, &r.Distance,
		&r.Speed, &r.Calories, &r.Fields, &r.Source, &r.RecordedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session report: %w", err)
	}
	return &r, nil
}

func scanReportRows(rows pgx.Rows) ([]models.ReportRow, error) {
	var result []models.ReportRow
	for rows.Next() {
		var r models.ReportRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Code, &r.TrainingType, &r.Duration, &r.Distance,
			&r.Speed, &r.Calories, &r.Fields, &r.Source, &r.RecordedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session report: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
