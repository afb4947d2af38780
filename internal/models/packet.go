package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ftracker/internal/training"
)

// Packet is one raw sensor reading: an activity code plus its positional fields.
// ID is optional; a sender that sets it gets idempotent storage on retry.
type Packet struct {
	ID         *uuid.UUID `json:"id,omitempty"`
	Code       string     `json:"code"`
	Data       []float64  `json:"data"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// ReportRow is a computed summary ready for insertion into session_reports.
type ReportRow struct {
	ID           uuid.UUID `json:"id"`
	UserID       int       `json:"user_id"`
	Code         string    `json:"code"`
	TrainingType string    `json:"training_type"`
	Duration     float64   `json:"duration"`
	Distance     float64   `json:"distance"`
	Speed        float64   `json:"speed"`
	Calories     float64   `json:"calories"`
	Fields       []float64 `json:"fields"`
	Source       string    `json:"source"`
	RecordedAt   time.Time `json:"recorded_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// reportNamespace scopes the name-based report IDs minted by PacketID.
var reportNamespace = uuid.MustParse("6f1c3a52-4b8e-5d2a-9c1e-7a0b3d9e2f41")

// PacketID derives a stable report ID for the index-th packet of the input
// identified by key, so the same input always maps to the same reports.
func PacketID(key string, index int) uuid.UUID {
	return uuid.NewSHA1(reportNamespace, []byte(fmt.Sprintf("%s#%d", key, index)))
}

// NewReportRow snapshots a computed message. The packet's ID is kept when
// set, otherwise a random one is minted. RecordedAt falls back to now when
// the packet carries no timestamp.
func NewReportRow(p Packet, msg training.InfoMessage, userID int, source string) ReportRow {
	id := uuid.New()
	if p.ID != nil {
		id = *p.ID
	}
	recorded := time.Now().UTC()
	if p.RecordedAt != nil {
		recorded = p.RecordedAt.UTC()
	}
	fields := make([]float64, len(p.Data))
	copy(fields, p.Data)
	return ReportRow{
		ID:           id,
		UserID:       userID,
		Code:         strings.TrimSpace(p.Code),
		TrainingType: msg.TrainingType,
		Duration:     msg.Duration,
		Distance:     msg.Distance,
		Speed:        msg.Speed,
		Calories:     msg.Calories,
		Fields:       fields,
		Source:       source,
		RecordedAt:   recorded,
	}
}

// Message rebuilds the summary message stored in the row.
func (r ReportRow) Message() training.InfoMessage {
	return training.InfoMessage{
		TrainingType: r.TrainingType,
		Duration:     r.Duration,
		Distance:     r.Distance,
		Speed:        r.Speed,
		Calories:     r.Calories,
	}
}
