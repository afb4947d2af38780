package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("ftracker", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("ftracker workout calculator. Compute distance, mean speed and calories for swimming (SWM), running (RUN) and sports walking (WLK) sensor packets, and query stored session reports. Stored data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolCalculateWorkout, Handler: h.calculateWorkout},
		server.ServerTool{Tool: toolListActivityTypes, Handler: h.listActivityTypes},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetActivityStats, Handler: h.getActivityStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resActivityCatalog, Handler: h.activityCatalog},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resActivityCatalog = mcp.NewResource(
	"ftracker://activity_catalog",
	"Activity Catalog",
	mcp.WithResourceDescription("Supported activity codes with their training type and positional packet fields"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"ftracker://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Session reports from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)
