package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"brigade/internal/routing"

	"github.com/gin-gonic/gin"
)

func (s *Server) RouteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := s.dispatcher.Route(id)
	if err != nil {
		if errors.Is(err, routing.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.broadcastOverview()
	c.JSON(http.StatusOK, result)
}

func (s *Server) RebalanceStations(c *gin.Context) {
	result, err := s.rebalancer.Rebalance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.Migrated > 0 {
		s.broadcastOverview()
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) OptimizeStations(c *gin.Context) {
	result, err := s.tuner.Optimize()
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrNoActiveStations):
			c.JSON(http.StatusConflict, gin.H{"error": "no active stations to optimize"})
		case errors.Is(err, routing.ErrInsufficientData):
			c.JSON(http.StatusConflict, gin.H{"error": "no completed assignments in the trailing window"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) UpdateAssignmentStatus(c *gin.Context) {
	id, ok := parseID(c, "assignment_id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignment, err := s.tracker.Transition(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrAssignmentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
		case errors.Is(err, routing.ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	s.broadcastOverview()
	c.JSON(http.StatusOK, assignment)
}

func (s *Server) GetStationPerformance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := s.registry.Get(id); err != nil {
		if errors.Is(err, routing.ErrStationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Station not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	records, err := s.reports.History(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) RollupPerformance(c *gin.Context) {
	var req struct {
		Date string `json:"date"` // YYYY-MM-DD, defaults to today
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	day := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	written, err := s.reports.Rollup(day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records_written": written})
}

func (s *Server) ExportPerformance(c *gin.Context) {
	data, err := s.reports.ExportExcel()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="station_performance.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
