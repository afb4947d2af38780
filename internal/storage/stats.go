package storage

import (
	"context"
	"fmt"
	"time"
)

// ActivityStats holds aggregate statistics over a user's session reports.
type ActivityStats struct {
	TotalSessions int64          `json:"total_sessions"`
	TotalCalories float64        `json:"total_calories"`
	EarliestData  *time.Time     `json:"earliest_data"`
	LatestData    *time.Time     `json:"latest_data"`
	ByActivity    []ActivityStat `json:"by_activity"`
}

// ActivityStat holds summary stats for a single activity code.
type ActivityStat struct {
	Code          string  `json:"code"`
	TrainingType  string  `json:"training_type"`
	Count         int64   `json:"count"`
	TotalDuration float64 `json:"total_duration_h"`
	TotalDistance float64 `json:"total_distance_km"`
	TotalCalories float64 `json:"total_calories"`
	AvgSpeed      float64 `json:"avg_speed_kmh"`
}

// GetActivityStats aggregates the user's reports recorded in [start, end).
func (db *DB) GetActivityStats(ctx context.Context, start, end time.Time, userID int) (*ActivityStats, error) {
	stats := &ActivityStats{ByActivity: []ActivityStat{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(calories_kcal), 0), MIN(recorded_at), MAX(recorded_at)
		 FROM session_reports
		 WHERE user_id = $1 AND recorded_at >= $2 AND recorded_at < $3`,
		userID, start, end,
	).Scan(&stats.TotalSessions, &stats.TotalCalories, &stats.EarliestData, &stats.LatestData)
	if err != nil {
		return nil, fmt.Errorf("querying report totals: %w", err)
	}

	// Sessions by activity
	rows, err := db.Pool.Query(ctx,
		`SELECT code, MIN(training_type), COUNT(*),
		        COALESCE(SUM(duration_h), 0), COALESCE(SUM(distance_km), 0),
		        COALESCE(SUM(calories_kcal), 0), COALESCE(AVG(speed_kmh), 0)
		 FROM session_reports
		 WHERE user_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		 GROUP BY code
		 ORDER BY COUNT(*) DESC, code`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying reports by activity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ActivityStat
		if err := rows.Scan(&s.Code, &s.TrainingType, &s.Count,
			&s.TotalDuration, &s.TotalDistance, &s.TotalCalories, &s.AvgSpeed); err != nil {
			return nil, fmt.Errorf("scanning activity stat: %w", err)
		}
		stats.ByActivity = append(stats.ByActivity, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
