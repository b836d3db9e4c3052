package routing

import (
	"fmt"
	"log"
	"time"

	"brigade/internal/models"
	"brigade/internal/monitoring"

	"github.com/jinzhu/gorm"
)

// Tuning constants. A station reliably beating its recorded average earns
// efficiency; one reliably missing it loses efficiency, but never below
// the floor so the estimate divisor stays sane.
const (
	tuningWindow       = 7 * 24 * time.Hour
	fastThresholdRatio = 0.9
	slowThresholdRatio = 1.2
	efficiencyStep     = 5
	efficiencyCap      = 100
	efficiencyFloor    = 50
)

// Tuner adjusts station efficiency scores and average preparation times
// from observed completed-assignment durations, closing the feedback loop
// into the scoring engine.
type Tuner struct {
	db       *gorm.DB
	registry *Registry
	metrics  *monitoring.Collector
}

// NewTuner creates a tuner. metrics may be nil.
func NewTuner(db *gorm.DB, registry *Registry, metrics *monitoring.Collector) *Tuner {
	return &Tuner{db: db, registry: registry, metrics: metrics}
}

// OptimizeResult is the structured tally of one tuning pass.
type OptimizeResult struct {
	StationsUpdated int `json:"stations_updated"`
	Skipped         int `json:"skipped"`
	Failed          int `json:"failed"`
}

// Optimize runs one tuning pass over all active stations using completed
// assignments from the trailing seven days. Stations without recent data
// are skipped; a skipped or failed station never aborts the pass. When no
// station at all has data the pass reports ErrInsufficientData instead of
// silently succeeding.
func (t *Tuner) Optimize() (*OptimizeResult, error) {
	stations, err := t.registry.ListActive()
	if err != nil {
		return nil, err
	}
	if len(stations) == 0 {
		return nil, ErrNoActiveStations
	}

	result := &OptimizeResult{}
	cutoff := time.Now().Add(-tuningWindow)

	for i := range stations {
		station := &stations[i]
		updated, err := t.optimizeStation(station, cutoff)
		switch {
		case err != nil:
			log.Printf("Optimize station %q: %v", station.Name, err)
			result.Failed++
		case updated:
			result.StationsUpdated++
		default:
			result.Skipped++
		}
	}

	if result.StationsUpdated == 0 && result.Failed == 0 {
		return nil, ErrInsufficientData
	}
	return result, nil
}

func (t *Tuner) optimizeStation(station *models.Station, cutoff time.Time) (bool, error) {
	var assignments []models.Assignment
	err := t.db.Where(
		"station_id = ? AND status = ? AND completed_at >= ? AND started_at IS NOT NULL",
		station.ID, string(models.AssignmentStatusCompleted), cutoff,
	).Find(&assignments).Error
	if err != nil {
		return false, fmt.Errorf("load completed assignments: %w", err)
	}
	if len(assignments) == 0 {
		return false, nil
	}

	observedAvg := averageDurationMinutes(assignments)

	efficiency := station.EfficiencyScore
	switch {
	case observedAvg < station.AvgPrepMinutes*fastThresholdRatio:
		efficiency += efficiencyStep
		if efficiency > efficiencyCap {
			efficiency = efficiencyCap
		}
	case observedAvg > station.AvgPrepMinutes*slowThresholdRatio:
		efficiency -= efficiencyStep
		if efficiency < efficiencyFloor {
			efficiency = efficiencyFloor
		}
	}

	if err := t.registry.UpdateTuning(station.ID, efficiency, observedAvg); err != nil {
		return false, err
	}
	t.metrics.StationTuned(station.Name, efficiency)
	log.Printf("Tuned station %q: efficiency %d -> %d, avg prep %.1f -> %.1f minutes",
		station.Name, station.EfficiencyScore, efficiency, station.AvgPrepMinutes, observedAvg)
	return true, nil
}

// averageDurationMinutes computes the mean actual duration of the
// assignments, clamping negative spans to zero.
func averageDurationMinutes(assignments []models.Assignment) float64 {
	total := 0.0
	for i := range assignments {
		a := &assignments[i]
		if a.StartedAt == nil || a.CompletedAt == nil {
			continue
		}
		minutes := a.CompletedAt.Sub(*a.StartedAt).Minutes()
		if minutes < 0 {
			minutes = 0
		}
		total += minutes
	}
	return total / float64(len(assignments))
}
