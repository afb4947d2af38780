package sensor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meltforce/ftracker/internal/ingest"
	"github.com/meltforce/ftracker/internal/models"
	"github.com/meltforce/ftracker/internal/training"
)

// ReportStore persists computed session reports. Both the PostgreSQL
// storage and the local journal satisfy it.
type ReportStore interface {
	InsertReports(ctx context.Context, rows []models.ReportRow) (int64, error)
}

// Provider turns sensor packets into stored session reports.
type Provider struct {
	db  ReportStore
	log *slog.Logger
}

// NewProvider creates a new sensor packet ingest provider.
func NewProvider(db ReportStore, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// Outcome is the result of evaluating a single packet. Exactly one of
// Message and Err is meaningful.
type Outcome struct {
	Packet  models.Packet
	Message training.InfoMessage
	Err     error
}

// Compute dispatches one packet and summarizes the resulting session.
func Compute(p models.Packet) (training.InfoMessage, error) {
	code, err := training.ParseCode(p.Code)
	if err != nil {
		return training.InfoMessage{}, err
	}
	s, err := training.ReadPackage(code, p.Data)
	if err != nil {
		return training.InfoMessage{}, err
	}
	return training.ShowTrainingInfo(s)
}

// Evaluate computes every packet independently, in input order.
func Evaluate(packets []models.Packet) []Outcome {
	out := make([]Outcome, len(packets))
	for i, p := range packets {
		msg, err := Compute(p)
		out[i] = Outcome{Packet: p, Message: msg, Err: err}
	}
	return out
}

// Ingest computes the packets and stores the accepted reports. A bad
// packet is recorded as a rejection and does not stop the batch.
func (p *Provider) Ingest(ctx context.Context, packets []models.Packet, userID int, source string) (*ingest.Result, error) {
	result := &ingest.Result{PacketsReceived: len(packets)}
	var rows []models.ReportRow

	for i, o := range Evaluate(packets) {
		if o.Err != nil {
			result.PacketsRejected++
			result.Rejections = append(result.Rejections,
				fmt.Sprintf("packet %d (%s): %v", i+1, o.Packet.Code, o.Err))
			p.log.Warn("packet rejected", "index", i+1, "code", o.Packet.Code, "error", o.Err)
			continue
		}
		rows = append(rows, models.NewReportRow(o.Packet, o.Message, userID, source))
	}
	result.ReportsComputed = len(rows)

	if len(rows) > 0 {
		inserted, err := p.db.InsertReports(ctx, rows)
		if err != nil {
			return result, fmt.Errorf("inserting reports: %w", err)
		}
		result.ReportsInserted = inserted
		for _, r := range rows {
			result.ReportIDs = append(result.ReportIDs, r.ID.String())
		}
	}

	if result.PacketsRejected > 0 {
		result.Message = fmt.Sprintf(
			"%d of %d packets were rejected. Check GET /api/v1/activities for the accepted codes and fields.",
			result.PacketsRejected, result.PacketsReceived)
	}

	return result, nil
}
