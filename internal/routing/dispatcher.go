package routing

import (
	"errors"
	"fmt"
	"log"
	"time"

	"brigade/internal/models"
	"brigade/internal/monitoring"

	"github.com/jinzhu/gorm"
)

// Priority calculation constants.
const (
	priorityBase        = 5
	priorityRushBonus   = 2
	priorityVIPBonus    = 3
	largeOrderItemCount = 10
	largeOrderPenalty   = 1
	agedOrderThreshold  = 30 * time.Minute
	agedOrderBonus      = 1
)

// Dispatcher routes each work item of an order to the best-scoring
// eligible station.
type Dispatcher struct {
	db       *gorm.DB
	registry *Registry
	metrics  *monitoring.Collector
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(db *gorm.DB, registry *Registry, metrics *monitoring.Collector) *Dispatcher {
	return &Dispatcher{db: db, registry: registry, metrics: metrics}
}

// ItemOutcome is the routing result for a single work item.
type ItemOutcome struct {
	ItemID           uint   `json:"item_id"`
	ItemName         string `json:"item_name"`
	Routed           bool   `json:"routed"`
	StationID        uint   `json:"station_id,omitempty"`
	StationName      string `json:"station_name,omitempty"`
	Score            int    `json:"score,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// RouteResult is the order-level routing outcome. Item-level failures do
// not fail the call.
type RouteResult struct {
	OrderID  uint          `json:"order_id"`
	Priority int           `json:"priority"`
	Routed   int           `json:"routed"`
	Unrouted int           `json:"unrouted"`
	Outcomes []ItemOutcome `json:"outcomes"`
}

// Route assigns every work item of the order to a station. Calling it
// again for the same order clears the previous assignments first, so
// re-routing is idempotent. Items with no eligible station are logged and
// reported as unrouted; they never abort the remaining items.
func (d *Dispatcher) Route(orderID uint) (*RouteResult, error) {
	var order models.Order
	if err := d.db.Preload("Items").First(&order, orderID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}

	if err := d.clearAssignments(order.ID); err != nil {
		return nil, err
	}

	stage, err := LoadRuleStage(d.db)
	if err != nil {
		return nil, fmt.Errorf("load routing rules: %w", err)
	}

	now := time.Now()
	priority := ComputePriority(&order, now)

	result := &RouteResult{OrderID: order.ID, Priority: priority}
	for i := range order.Items {
		item := &order.Items[i]
		outcome := d.routeItem(&order, item, priority, stage, now)
		if outcome.Routed {
			result.Routed++
		} else {
			result.Unrouted++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if result.Routed > 0 {
		if err := d.db.Model(&order).Update("status", string(models.OrderStatusRouted)).Error; err != nil {
			log.Printf("Mark order %d routed: %v", order.ID, err)
		}
	}
	return result, nil
}

func (d *Dispatcher) routeItem(order *models.Order, item *models.OrderItem, priority int, stage *RuleStage, now time.Time) ItemOutcome {
	outcome := ItemOutcome{ItemID: item.ID, ItemName: item.Name}

	stations, err := d.registry.ListActive()
	if err != nil {
		log.Printf("Routing order %d item %q: %v", order.ID, item.Name, err)
		outcome.Reason = "station registry unavailable"
		d.metrics.ItemUnrouted()
		return outcome
	}

	stations, weights := stage.Apply(item, stations)
	candidates := RankCandidates(item, stations, weights)
	if len(candidates) == 0 {
		log.Printf("No eligible station for order %d item %q", order.ID, item.Name)
		outcome.Reason = "no eligible station"
		d.metrics.ItemUnrouted()
		return outcome
	}

	// Walk candidates best-first; reservation can race with a concurrent
	// route, in which case the next candidate is tried.
	for _, candidate := range candidates {
		station := candidate.Station
		if err := d.registry.ReserveSlot(station.ID); err != nil {
			if errors.Is(err, ErrStationFull) {
				continue
			}
			log.Printf("Routing order %d item %q: %v", order.ID, item.Name, err)
			continue
		}

		assignment := models.Assignment{
			OrderID:          order.ID,
			OrderItemID:      item.ID,
			StationID:        station.ID,
			Score:            candidate.Score,
			EstimatedMinutes: candidate.EstimatedMinutes,
			Priority:         priority,
			Status:           string(models.AssignmentStatusAssigned),
			AssignedAt:       now,
		}
		if err := d.db.Create(&assignment).Error; err != nil {
			// Keep load and assignment records consistent: a failed
			// insert must give the reserved slot back.
			if releaseErr := d.registry.ReleaseSlot(station.ID); releaseErr != nil {
				log.Printf("Release after failed assignment insert on station %d: %v", station.ID, releaseErr)
			}
			log.Printf("Create assignment for order %d item %q: %v", order.ID, item.Name, err)
			outcome.Reason = "assignment persistence failed"
			d.metrics.ItemUnrouted()
			return outcome
		}

		outcome.Routed = true
		outcome.StationID = station.ID
		outcome.StationName = station.Name
		outcome.Score = candidate.Score
		outcome.EstimatedMinutes = candidate.EstimatedMinutes
		d.metrics.ItemRouted(station.Name)
		return outcome
	}

	log.Printf("All eligible stations full for order %d item %q", order.ID, item.Name)
	outcome.Reason = "all eligible stations at capacity"
	d.metrics.ItemUnrouted()
	return outcome
}

// clearAssignments removes prior non-completed assignments for the order
// and releases the station slots they held.
func (d *Dispatcher) clearAssignments(orderID uint) error {
	var assignments []models.Assignment
	err := d.db.Where("order_id = ? AND status <> ?", orderID, string(models.AssignmentStatusCompleted)).
		Find(&assignments).Error
	if err != nil {
		return fmt.Errorf("load prior assignments for order %d: %w", orderID, err)
	}

	for i := range assignments {
		assignment := &assignments[i]
		if err := d.registry.ReleaseSlot(assignment.StationID); err != nil {
			return fmt.Errorf("release slot for assignment %d: %w", assignment.ID, err)
		}
		if err := d.db.Delete(assignment).Error; err != nil {
			return fmt.Errorf("delete assignment %d: %w", assignment.ID, err)
		}
	}
	return nil
}

// ComputePriority derives the order's routing priority: base 5, +2 rush,
// +3 VIP, -1 for orders above 10 total items, +1 once the order has
// waited more than 30 minutes. Clamped to [1, 10].
func ComputePriority(order *models.Order, now time.Time) int {
	priority := priorityBase
	if order.Rush {
		priority += priorityRushBonus
	}
	if order.VIP {
		priority += priorityVIPBonus
	}
	if totalItems(order) > largeOrderItemCount {
		priority -= largeOrderPenalty
	}
	if order.AgeAt(now) > agedOrderThreshold {
		priority += agedOrderBonus
	}
	return clampInt(priority, 1, 10)
}

func totalItems(order *models.Order) int {
	total := 0
	for i := range order.Items {
		quantity := order.Items[i].Quantity
		if quantity < 1 {
			quantity = 1
		}
		total += quantity
	}
	return total
}
