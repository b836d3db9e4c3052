package api

import (
	"net/http"

	"brigade/internal/monitoring"
	"brigade/internal/reports"
	"brigade/internal/routing"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// Server is the HTTP surface of the routing service.
type Server struct {
	Router *gin.Engine

	db         *gorm.DB
	registry   *routing.Registry
	dispatcher *routing.Dispatcher
	rebalancer *routing.Rebalancer
	tuner      *routing.Tuner
	tracker    *routing.Tracker
	reports    *reports.Service
	metrics    *monitoring.Collector
	hub        *Hub
	jwtSecret  string
}

// NewServer wires the routing components behind a gin engine. An empty
// jwtSecret disables authentication, which is the test configuration.
func NewServer(db *gorm.DB, registry *routing.Registry, metrics *monitoring.Collector, jwtSecret string) *Server {
	router := gin.Default()

	s := &Server{
		Router:     router,
		db:         db,
		registry:   registry,
		dispatcher: routing.NewDispatcher(db, registry, metrics),
		rebalancer: routing.NewRebalancer(db, registry, metrics),
		tuner:      routing.NewTuner(db, registry, metrics),
		tracker:    routing.NewTracker(db, registry, metrics),
		reports:    reports.NewService(db),
		metrics:    metrics,
		hub:        NewHub(),
		jwtSecret:  jwtSecret,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "brigade routing API is running"})
	})

	// Live station status feed for operational views
	s.Router.GET("/ws/stations", s.handleStationFeed)

	v1 := s.Router.Group("/api/v1")
	if s.jwtSecret != "" {
		v1.Use(AuthMiddleware(s.jwtSecret))
	}
	{
		// Station management
		v1.POST("/stations", s.CreateStation)
		v1.PUT("/stations/:id", s.UpdateStation)
		v1.GET("/stations", s.ListStations)
		v1.GET("/stations/:id", s.GetStation)
		v1.GET("/stations/overview", s.GetOverview)

		// Routing operations
		v1.POST("/orders", s.CreateOrder)
		v1.GET("/orders/:id", s.GetOrder)
		v1.POST("/orders/:id/route", s.RouteOrder)
		v1.POST("/stations/rebalance", s.RebalanceStations)
		v1.POST("/stations/optimize", s.OptimizeStations)
		v1.POST("/routing/:assignment_id/status", s.UpdateAssignmentStatus)

		// Performance reporting
		v1.GET("/stations/:id/performance", s.GetStationPerformance)
		v1.POST("/reports/rollup", s.RollupPerformance)
		v1.GET("/reports/performance.xlsx", s.ExportPerformance)
	}
}

// broadcastOverview pushes the aggregate station status to feed clients.
func (s *Server) broadcastOverview() {
	overview, err := s.tracker.Overview()
	if err != nil {
		return
	}
	s.hub.Broadcast(gin.H{"type": "station_overview", "stations": overview})

	for _, station := range overview {
		s.metrics.StationLoad(station.Name, station.CurrentLoad)
	}
}
