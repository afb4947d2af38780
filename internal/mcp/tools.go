package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/ftracker/internal/ingest/sensor"
	"github.com/meltforce/ftracker/internal/models"
	"github.com/meltforce/ftracker/internal/training"
)

// defaultTimeRange returns start/end defaulting to the last days days.
// Matches the HTTP API's parsing of the same parameters.
func defaultTimeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// A date-only end covers that whole day.
		if _, dateErr := time.Parse("2006-01-02", endStr); dateErr == nil {
			end = end.Add(24 * time.Hour)
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// sessionView is a stored report plus its rendered summary line.
type sessionView struct {
	models.ReportRow
	Summary string `json:"summary"`
}

func sessionViews(rows []models.ReportRow) []sessionView {
	views := make([]sessionView, len(rows))
	for i, r := range rows {
		views[i] = sessionView{ReportRow: r, Summary: r.Message().String()}
	}
	return views
}

// --- Tool definitions ---

var toolCalculateWorkout = mcp.NewTool("calculate_workout",
	mcp.WithDescription("Compute the summary of one workout packet without storing it. Returns duration (h), distance (km), mean speed (km/h), calories (kcal) and the formatted summary line."),
	mcp.WithString("code", mcp.Required(), mcp.Description("Activity code"), mcp.Enum("SWM", "RUN", "WLK")),
	mcp.WithArray("fields", mcp.Required(),
		mcp.Description("Positional numeric fields. SWM: action, duration_h, weight_kg, pool_length_m, pool_laps. RUN: action, duration_h, weight_kg. WLK: action, duration_h, weight_kg, height_cm. action is the number of steps or strokes."),
		mcp.Items(map[string]any{"type": "number"}),
	),
)

var toolListActivityTypes = mcp.NewTool("list_activity_types",
	mcp.WithDescription("List supported activity codes with their training type and the positional fields each packet must carry."),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("Query stored session reports, newest first, with an optional activity filter."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("code", mcp.Description("Filter by activity code"), mcp.Enum("SWM", "RUN", "WLK")),
)

var toolGetActivityStats = mcp.NewTool("get_activity_stats",
	mcp.WithDescription("Per-activity totals over a time range: session count, total duration, distance and calories, average speed."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

// --- Tool handlers ---

func (h *handlers) calculateWorkout(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError("code parameter is required"), nil
	}

	fields, err := numberSlice(req.GetArguments()["fields"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg, err := sensor.Compute(models.Packet{Code: code, Data: fields})
	if err != nil {
		return mcp.NewToolResultError("cannot compute workout: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"message": msg,
		"summary": msg.String(),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listActivityTypes(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(training.Catalog())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 7)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	code := req.GetString("code", "")
	if code != "" {
		c, err := training.ParseCode(code)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		code = string(c)
	}

	uid := UserIDFromContext(ctx)
	rows, err := h.ds.QueryReports(ctx, start, end, uid, code)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessionViews(rows))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getActivityStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 30)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	stats, err := h.ds.GetActivityStats(ctx, start, end, uid)
	if err != nil {
		h.log.Error("mcp get_activity_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// numberSlice converts a decoded JSON array argument into float64 fields.
func numberSlice(v any) ([]float64, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("fields must be an array of numbers")
	}
	out := make([]float64, len(raw))
	for i, x := range raw {
		switch n := x.(type) {
		case float64:
			out[i] = n
		case int:
			out[i] = float64(n)
		default:
			return nil, fmt.Errorf("fields[%d] is not a number", i)
		}
	}
	return out, nil
}
