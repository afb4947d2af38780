package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ftracker/internal/models"
	"github.com/meltforce/ftracker/internal/storage"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	rows    []models.ReportRow
	users   map[string]int
	pingErr error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]int{}}
}

func (m *memStore) InsertReports(_ context.Context, rows []models.ReportRow) (int64, error) {
	m.rows = append(m.rows, rows...)
	return int64(len(rows)), nil
}

func (m *memStore) GetOrCreateUser(_ context.Context, login, _ string) (int, error) {
	if id, ok := m.users[login]; ok {
		return id, nil
	}
	id := len(m.users) + 1
	m.users[login] = id
	return id, nil
}

func (m *memStore) QueryReports(_ context.Context, start, end time.Time, userID int, code string) ([]models.ReportRow, error) {
	var out []models.ReportRow
	for _, r := range m.rows {
		if r.UserID != userID || r.RecordedAt.Before(start) || !r.RecordedAt.Before(end) {
			continue
		}
		if code != "" && r.Code != code {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

func (m *memStore) GetReport(_ context.Context, id uuid.UUID, userID int) (*models.ReportRow, error) {
	for _, r := range m.rows {
		if r.ID == id && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) GetActivityStats(_ context.Context, start, end time.Time, userID int) (*storage.ActivityStats, error) {
	stats := &storage.ActivityStats{ByActivity: []storage.ActivityStat{}}
	byCode := map[string]int{}
	for _, r := range m.rows {
		if r.UserID != userID || r.RecordedAt.Before(start) || !r.RecordedAt.Before(end) {
			continue
		}
		stats.TotalSessions++
		stats.TotalCalories += r.Calories
		i, ok := byCode[r.Code]
		if !ok {
			i = len(stats.ByActivity)
			byCode[r.Code] = i
			stats.ByActivity = append(stats.ByActivity, storage.ActivityStat{Code: r.Code, TrainingType: r.TrainingType})
		}
		stats.ByActivity[i].Count++
		stats.ByActivity[i].TotalCalories += r.Calories
	}
	return stats, nil
}

func (m *memStore) Ping(context.Context) error {
	return m.pingErr
}

var errDown = errors.New("connection refused")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
