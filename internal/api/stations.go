package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"brigade/internal/models"
	"brigade/internal/routing"

	"github.com/gin-gonic/gin"
)

// stationRequest is the operator payload for creating or updating a
// station.
type stationRequest struct {
	Name                  string   `json:"name"`
	StationType           string   `json:"station_type"`
	Capacity              *int     `json:"capacity"`
	AvgPreparationMinutes *float64 `json:"avg_preparation_minutes"`
	Equipment             []string `json:"equipment"`
	Capabilities          []string `json:"capabilities"`
	AssignedStaffCount    *int     `json:"assigned_staff_count"`
	IsActive              *bool    `json:"is_active"`
}

func (r *stationRequest) validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if !models.StationType(r.StationType).Valid() {
		return fmt.Errorf("unknown station_type %q, expected one of %v", r.StationType, models.StationTypes())
	}
	if r.Capacity == nil {
		return errors.New("capacity is required")
	}
	if *r.Capacity < 0 {
		return errors.New("capacity must not be negative")
	}
	if r.AvgPreparationMinutes != nil && *r.AvgPreparationMinutes < 0 {
		return errors.New("avg_preparation_minutes must not be negative")
	}
	return nil
}

// stationView is the API snapshot of a station, including the derived
// availability fields.
type stationView struct {
	ID                 uint     `json:"id"`
	Name               string   `json:"name"`
	StationType        string   `json:"station_type"`
	Capacity           int      `json:"capacity"`
	CurrentLoad        int      `json:"current_load"`
	EfficiencyScore    int      `json:"efficiency_score"`
	AvgPrepMinutes     float64  `json:"avg_preparation_minutes"`
	Equipment          []string `json:"equipment"`
	Capabilities       []string `json:"capabilities"`
	AssignedStaffCount int      `json:"assigned_staff_count"`
	IsActive           bool     `json:"is_active"`
	LoadPercentage     float64  `json:"load_percentage"`
	IsAvailable        bool     `json:"is_available"`
}

func viewOf(station *models.Station) stationView {
	return stationView{
		ID:                 station.ID,
		Name:               station.Name,
		StationType:        station.Type,
		Capacity:           station.Capacity,
		CurrentLoad:        station.CurrentLoad,
		EfficiencyScore:    station.EfficiencyScore,
		AvgPrepMinutes:     station.AvgPrepMinutes,
		Equipment:          station.Equipment,
		Capabilities:       station.Capabilities,
		AssignedStaffCount: station.AssignedStaffCount,
		IsActive:           station.IsActive,
		LoadPercentage:     station.LoadPercentage(),
		IsAvailable:        station.IsAvailable(),
	}
}

func (s *Server) CreateStation(c *gin.Context) {
	var req stationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	station := models.Station{
		Name:            req.Name,
		Type:            req.StationType,
		Capacity:        *req.Capacity,
		EfficiencyScore: 100,
		Equipment:       models.StringSlice(req.Equipment),
		Capabilities:    models.StringSlice(req.Capabilities),
		IsActive:        true,
	}
	if req.AvgPreparationMinutes != nil {
		station.AvgPrepMinutes = *req.AvgPreparationMinutes
	}
	if req.AssignedStaffCount != nil {
		station.AssignedStaffCount = *req.AssignedStaffCount
	}
	if req.IsActive != nil {
		station.IsActive = *req.IsActive
	}

	if err := s.registry.Save(&station); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.broadcastOverview()
	c.JSON(http.StatusCreated, gin.H{"id": station.ID, "message": "Station created"})
}

func (s *Server) UpdateStation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	station, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, routing.ErrStationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Station not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req stationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	station.Name = req.Name
	station.Type = req.StationType
	station.Capacity = *req.Capacity
	station.Equipment = models.StringSlice(req.Equipment)
	station.Capabilities = models.StringSlice(req.Capabilities)
	if req.AvgPreparationMinutes != nil {
		station.AvgPrepMinutes = *req.AvgPreparationMinutes
	}
	if req.AssignedStaffCount != nil {
		station.AssignedStaffCount = *req.AssignedStaffCount
	}
	if req.IsActive != nil {
		station.IsActive = *req.IsActive
	}

	if err := s.registry.Save(station); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.broadcastOverview()
	c.JSON(http.StatusOK, viewOf(station))
}

func (s *Server) GetStation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	station, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, routing.ErrStationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Station not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, viewOf(station))
}

func (s *Server) ListStations(c *gin.Context) {
	stations, err := s.registry.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]stationView, 0, len(stations))
	for i := range stations {
		views = append(views, viewOf(&stations[i]))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) GetOverview(c *gin.Context) {
	overview, err := s.tracker.Overview()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, overview)
}

// parseID reads a numeric path parameter, replying 400 on garbage.
func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s %q", name, raw)})
		return 0, false
	}
	return uint(id), true
}
