package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/ftracker/internal/ingest/sensor"
	ftmcp "github.com/meltforce/ftracker/internal/mcp"
	"github.com/meltforce/ftracker/internal/models"
	"github.com/meltforce/ftracker/internal/storage"
)

// Store is the persistence the HTTP API needs. *storage.DB satisfies it.
type Store interface {
	sensor.ReportStore
	UserStore
	QueryReports(ctx context.Context, start, end time.Time, userID int, code string) ([]models.ReportRow, error)
	GetReport(ctx context.Context, id uuid.UUID, userID int) (*models.ReportRow, error)
	GetActivityStats(ctx context.Context, start, end time.Time, userID int) (*storage.ActivityStats, error)
	Ping(ctx context.Context) error
}

var _ Store = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db      Store
	sensor  *sensor.Provider
	log     *slog.Logger
	apiKey  string
	version string
	whois   WhoIser
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, apiKey, version string, log *slog.Logger) *Server {
	s := &Server{
		db:      db,
		sensor:  sensor.NewProvider(db, log),
		log:     log,
		apiKey:  apiKey,
		version: version,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches request identity from the dev user to the
// tailnet user resolved through whois.
func (s *Server) SetTailscale(whois WhoIser) {
	s.whois = whois
}

// SetMCP mounts the MCP server at /mcp using the streamable HTTP
// transport. Tool calls run as the request's user.
func (s *Server) SetMCP(m *mcpserver.MCPServer) {
	h := mcpserver.NewStreamableHTTPServer(m,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return ftmcp.WithUserID(ctx, userIDFromContext(r))
		}),
	)
	s.router.With(s.identify).Handle("/mcp", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/health", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.identify)

		// Ingest endpoints (API key required)
		r.Route("/api/v1/ingest", func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/", s.handleIngest)
			r.Post("/text", s.handleIngestText)
		})

		r.Get("/api/v1/activities", s.handleActivities)
		r.Post("/api/v1/calculate", s.handleCalculate)
		r.Get("/api/v1/sessions", s.handleQuerySessions)
		r.Get("/api/v1/sessions/{id}", s.handleGetSession)
		r.Get("/api/v1/stats", s.handleStats)
		r.Get("/api/v1/me", s.handleMe)
	})
}

// identify applies Tailscale identity when configured, dev identity otherwise.
func (s *Server) identify(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.db, s.log)(next).ServeHTTP(w, r)
	})
}
