package routing

import (
	"fmt"
	"time"

	"brigade/internal/models"
	"brigade/internal/monitoring"

	"github.com/jinzhu/gorm"
)

// Tracker applies assignment status transitions and exposes aggregate
// station status to operational views.
type Tracker struct {
	db       *gorm.DB
	registry *Registry
	metrics  *monitoring.Collector
}

// NewTracker creates a lifecycle tracker. metrics may be nil.
func NewTracker(db *gorm.DB, registry *Registry, metrics *monitoring.Collector) *Tracker {
	return &Tracker{db: db, registry: registry, metrics: metrics}
}

// Transition moves an assignment to the given status. Transitions are
// one-directional; unknown values and backward moves are rejected without
// touching state. Re-applying the current status is a no-op, so repeated
// completion calls decrement the station's load exactly once.
func (t *Tracker) Transition(assignmentID uint, rawStatus string) (*models.Assignment, error) {
	next, err := models.ParseAssignmentStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	var assignment models.Assignment
	if err := t.db.First(&assignment, assignmentID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("load assignment %d: %w", assignmentID, err)
	}

	current := models.AssignmentStatus(assignment.Status)
	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}
	if current == next {
		return &assignment, nil
	}

	now := time.Now()
	updates := map[string]interface{}{"status": string(next)}
	// Transition timestamps are set at most once, even when a status is
	// skipped over (assigned -> completed still stamps started_at).
	if statusReached(next, models.AssignmentStatusStarted) && assignment.StartedAt == nil {
		updates["started_at"] = now
	}
	if next == models.AssignmentStatusCompleted && assignment.CompletedAt == nil {
		updates["completed_at"] = now
	}

	if err := t.db.Model(&assignment).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update assignment %d: %w", assignmentID, err)
	}

	if next == models.AssignmentStatusCompleted {
		if err := t.registry.ReleaseSlot(assignment.StationID); err != nil {
			return nil, fmt.Errorf("release slot on completion: %w", err)
		}
		if assignment.StartedAt != nil {
			t.metrics.AssignmentCompleted(now.Sub(*assignment.StartedAt))
		}
	}

	if err := t.db.First(&assignment, assignmentID).Error; err != nil {
		return nil, fmt.Errorf("reload assignment %d: %w", assignmentID, err)
	}
	return &assignment, nil
}

// statusReached reports whether moving to next passes through or lands on
// the milestone status.
func statusReached(next, milestone models.AssignmentStatus) bool {
	return milestone.CanTransitionTo(next)
}

// StationOverview is one station's aggregate status for operational views.
type StationOverview struct {
	StationID      uint    `json:"station_id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	IsActive       bool    `json:"is_active"`
	CurrentLoad    int     `json:"current_load"`
	Capacity       int     `json:"capacity"`
	LoadPercentage float64 `json:"load_percentage"`
	IsAvailable    bool    `json:"is_available"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"in_progress"`
	CompletedToday int     `json:"completed_today"`
}

// Overview returns the aggregate status of every station.
func (t *Tracker) Overview() ([]StationOverview, error) {
	stations, err := t.registry.List()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	overviews := make([]StationOverview, 0, len(stations))
	for i := range stations {
		station := &stations[i]
		overview := StationOverview{
			StationID:      station.ID,
			Name:           station.Name,
			Type:           station.Type,
			IsActive:       station.IsActive,
			CurrentLoad:    station.CurrentLoad,
			Capacity:       station.Capacity,
			LoadPercentage: station.LoadPercentage(),
			IsAvailable:    station.IsAvailable(),
		}

		err := t.db.Model(&models.Assignment{}).
			Where("station_id = ? AND status IN (?)", station.ID, []string{
				string(models.AssignmentStatusPending),
				string(models.AssignmentStatusAssigned),
			}).Count(&overview.Pending).Error
		if err != nil {
			return nil, fmt.Errorf("count pending for station %d: %w", station.ID, err)
		}
		err = t.db.Model(&models.Assignment{}).
			Where("station_id = ? AND status = ?", station.ID, string(models.AssignmentStatusStarted)).
			Count(&overview.InProgress).Error
		if err != nil {
			return nil, fmt.Errorf("count in-progress for station %d: %w", station.ID, err)
		}
		err = t.db.Model(&models.Assignment{}).
			Where("station_id = ? AND status = ? AND completed_at >= ?",
				station.ID, string(models.AssignmentStatusCompleted), midnight).
			Count(&overview.CompletedToday).Error
		if err != nil {
			return nil, fmt.Errorf("count completed today for station %d: %w", station.ID, err)
		}

		overviews = append(overviews, overview)
	}
	return overviews, nil
}
