package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"weather-dashboard/internal/dashboard"
	"weather-dashboard/internal/storage"
	"weather-dashboard/internal/view"
)

const (
	defaultReadingsLimit = 100
	maxReadingsLimit     = 1000
)

// Dashboard is the orchestrator surface the HTTP layer needs.
type Dashboard interface {
	State() dashboard.State
	Refresh() bool
	Subscribe() (<-chan dashboard.State, func())
}

// Archive answers history queries. A nil Archive disables the readings routes.
type Archive interface {
	Latest(ctx context.Context) (*storage.SnapshotRecord, error)
	Recent(ctx context.Context, limit int) ([]storage.SnapshotRecord, error)
	Range(ctx context.Context, from, to time.Time) ([]storage.SnapshotRecord, error)
}

type Server struct {
	router    *gin.Engine
	server    *http.Server
	dashboard Dashboard
	archive   Archive
	header    view.Header
	port      int
	logger    *slog.Logger
}

type ServerConfig struct {
	Port      int
	Dashboard Dashboard
	Archive   Archive
	Header    view.Header
	Logger    *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:    router,
		dashboard: cfg.Dashboard,
		archive:   cfg.Archive,
		header:    cfg.Header,
		port:      cfg.Port,
		logger:    logger,
	}

	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.SetHTMLTemplate(view.Templates())

	// Dashboard routes
	s.router.GET("/", s.dashboardHandler)
	s.router.GET("/dashboard", s.dashboardHandler)
	s.router.HEAD("/", s.dashboardHandler)
	s.router.HEAD("/dashboard", s.dashboardHandler)
	s.router.GET("/partials/dashboard", s.partialHandler)

	// Health check
	s.router.GET("/health", s.healthHandler)

	// API routes
	api := s.router.Group("/api/v1")
	{
		api.GET("/weather", s.weatherHandler)
		api.POST("/refresh", s.refreshHandler)
		api.GET("/events", s.eventsHandler)
		api.GET("/readings", s.readingsHandler)
		api.GET("/readings/latest", s.latestReadingHandler)
	}
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("API server starting", "port", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) page() view.Page {
	st := s.dashboard.State()
	return view.NewPage(s.header, st.Snapshot, st.Updating)
}

func (s *Server) dashboardHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "page", s.page())
}

func (s *Server) partialHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard", s.page())
}

func (s *Server) healthHandler(c *gin.Context) {
	st := s.dashboard.State()

	snapshotID := ""
	if st.Snapshot != nil {
		snapshotID = st.Snapshot.ID
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"updating":    st.Updating,
		"snapshot_id": snapshotID,
		"timestamp":   time.Now(),
	})
}

func (s *Server) weatherHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.dashboard.State())
}

func (s *Server) refreshHandler(c *gin.Context) {
	if !s.dashboard.Refresh() {
		c.JSON(http.StatusConflict, gin.H{"error": "update already in progress"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"started": true})
}

// eventsHandler streams one "state" event per dashboard transition, starting
// with the current state.
func (s *Server) eventsHandler(c *gin.Context) {
	events, unsubscribe := s.dashboard.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("state", s.dashboard.State())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case st, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("state", st)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func (s *Server) readingsHandler(c *gin.Context) {
	if s.archive == nil {
		archiveDisabled(c)
		return
	}

	fromStr := c.Query("from")
	toStr := c.Query("to")

	if fromStr != "" || toStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date format"})
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date format"})
			return
		}
		if to.Before(from) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "'to' is before 'from'"})
			return
		}

		readings, err := s.archive.Range(c.Request.Context(), from, to)
		if err != nil {
			s.internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(readings))
		return
	}

	limit := defaultReadingsLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "'limit' must be a positive integer"})
			return
		}
		limit = min(n, maxReadingsLimit)
	}

	readings, err := s.archive.Recent(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(readings))
}

func (s *Server) latestReadingHandler(c *gin.Context) {
	if s.archive == nil {
		archiveDisabled(c)
		return
	}

	reading, err := s.archive.Latest(c.Request.Context())
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No readings archived yet"})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, reading)
}

func archiveDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Archive is disabled"})
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("archive query failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func nonNil(readings []storage.SnapshotRecord) []storage.SnapshotRecord {
	if readings == nil {
		return []storage.SnapshotRecord{}
	}
	return readings
}
