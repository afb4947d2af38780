package mcp

import (
	"context"
	"time"

	"github.com/meltforce/ftracker/internal/models"
	"github.com/meltforce/ftracker/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QueryReports(ctx context.Context, start, end time.Time, userID int, code string) ([]models.ReportRow, error)
	GetActivityStats(ctx context.Context, start, end time.Time, userID int) (*storage.ActivityStats, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
