package routing

import (
	"errors"
	"fmt"
	"log"

	"brigade/internal/models"
	"brigade/internal/monitoring"

	"github.com/jinzhu/gorm"
)

// A candidate must beat the current station's score by strictly more than
// this margin before a pending assignment is migrated.
const rebalanceMargin = 10.0

// Rebalancer re-evaluates not-yet-started assignments and migrates them
// when a clearly better station exists. It runs only when explicitly
// triggered and is safe to call repeatedly; with no pending work it is a
// no-op.
type Rebalancer struct {
	db       *gorm.DB
	registry *Registry
	metrics  *monitoring.Collector
}

// NewRebalancer creates a rebalancer. metrics may be nil.
func NewRebalancer(db *gorm.DB, registry *Registry, metrics *monitoring.Collector) *Rebalancer {
	return &Rebalancer{db: db, registry: registry, metrics: metrics}
}

// RebalanceResult is the structured tally of one pass.
type RebalanceResult struct {
	Considered int `json:"considered"`
	Migrated   int `json:"migrated"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Rebalance runs one migration pass over every pending or assigned (but
// not started) assignment. Per-assignment failures are logged and counted
// without aborting the pass.
func (r *Rebalancer) Rebalance() (*RebalanceResult, error) {
	var assignments []models.Assignment
	err := r.db.Where("status IN (?)", []string{
		string(models.AssignmentStatusPending),
		string(models.AssignmentStatusAssigned),
	}).Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("load pending assignments: %w", err)
	}

	result := &RebalanceResult{}
	if len(assignments) == 0 {
		return result, nil
	}

	stage, err := LoadRuleStage(r.db)
	if err != nil {
		return nil, fmt.Errorf("load routing rules: %w", err)
	}

	for i := range assignments {
		assignment := &assignments[i]
		result.Considered++

		migrated, err := r.rebalanceOne(assignment, stage)
		switch {
		case err != nil:
			log.Printf("Rebalance assignment %d: %v", assignment.ID, err)
			result.Failed++
		case migrated:
			result.Migrated++
			r.metrics.AssignmentMigrated()
		default:
			result.Skipped++
		}
	}
	return result, nil
}

// rebalanceOne migrates a single assignment if a strictly better station
// exists beyond the margin. Reports whether a migration happened.
func (r *Rebalancer) rebalanceOne(assignment *models.Assignment, stage *RuleStage) (bool, error) {
	var item models.OrderItem
	if err := r.db.First(&item, assignment.OrderItemID).Error; err != nil {
		return false, fmt.Errorf("load work item %d: %w", assignment.OrderItemID, err)
	}

	current, err := r.registry.Get(assignment.StationID)
	if err != nil {
		return false, fmt.Errorf("load current station %d: %w", assignment.StationID, err)
	}

	stations, err := r.registry.ListActive()
	if err != nil {
		return false, err
	}
	stations, weights := stage.Apply(&item, stations)
	candidates := RankCandidates(&item, stations, weights)

	// The current station's comparison score carries the same rule weight
	// the candidates got, so an active rule cannot widen the gap on its
	// own.
	currentScore := RawScore(current) + weights[current.ID]

	for _, candidate := range candidates {
		if candidate.Station.ID == assignment.StationID {
			break
		}
		if candidate.RawScore <= currentScore+rebalanceMargin {
			break
		}

		if err := r.registry.ReserveSlot(candidate.Station.ID); err != nil {
			if errors.Is(err, ErrStationFull) {
				continue
			}
			return false, err
		}

		updates := map[string]interface{}{
			"station_id":        candidate.Station.ID,
			"score":             candidate.Score,
			"estimated_minutes": candidate.EstimatedMinutes,
		}
		if err := r.db.Model(assignment).Updates(updates).Error; err != nil {
			// Failed move keeps the original placement; the slot that was
			// just reserved goes back.
			if releaseErr := r.registry.ReleaseSlot(candidate.Station.ID); releaseErr != nil {
				log.Printf("Release after failed migration on station %d: %v", candidate.Station.ID, releaseErr)
			}
			return false, fmt.Errorf("update assignment %d: %w", assignment.ID, err)
		}
		if err := r.registry.ReleaseSlot(assignment.StationID); err != nil {
			log.Printf("Release old slot on station %d: %v", assignment.StationID, err)
		}
		assignment.StationID = candidate.Station.ID
		return true, nil
	}
	return false, nil
}
