package routing

import (
	"math"
	"sort"

	"brigade/internal/models"
)

// Scoring weights. The base starts every eligible station at full marks
// and the weighted terms reward free capacity, efficiency, speed, and
// staffing on top of it; the stored score is clamped to [0, 100] while
// ranking and rebalance comparisons use the raw value so the terms stay
// comparable between stations.
const (
	scoreBase          = 100.0
	capacityWeight     = 20.0
	efficiencyWeight   = 15.0
	prepTimeWeight     = 10.0
	staffingWeight     = 5.0
	prepTimeBaseline   = 30.0 // minutes at which the speed term bottoms out
	adequateStaffCount = 2.0
)

// Candidate is one eligible station for a work item together with its
// computed fitness.
type Candidate struct {
	Station          *models.Station
	Score            int // clamped to [0, 100]
	RawScore         float64
	EstimatedMinutes int
}

// Eligible reports whether a station can handle the work item: it must be
// active, have free capacity, and every tag the item requires must appear
// in either its equipment set or its capability set (the latter includes
// the capability implied by the station type).
func Eligible(item *models.OrderItem, station *models.Station) bool {
	if !station.IsActive || station.CurrentLoad >= station.Capacity {
		return false
	}
	for _, tag := range item.RequiredEquipment {
		if !station.Equipment.Contains(tag) && !station.Capabilities.Contains(tag) {
			return false
		}
	}
	return true
}

// RawScore computes the unclamped fitness of a station for a work item.
func RawScore(station *models.Station) float64 {
	score := scoreBase

	if station.Capacity > 0 {
		free := float64(station.Capacity-station.CurrentLoad) / float64(station.Capacity)
		score += free * capacityWeight
	}

	score += float64(station.EfficiencyScore) / 100 * efficiencyWeight

	speed := 1 - station.AvgPrepMinutes/prepTimeBaseline
	if speed < 0 {
		speed = 0
	}
	score += speed * prepTimeWeight

	staffing := float64(station.AssignedStaffCount) / adequateStaffCount
	if staffing > 1 {
		staffing = 1
	}
	score += staffing * staffingWeight

	return score
}

// Score returns the fitness clamped to [0, 100], the form persisted on
// assignments.
func Score(station *models.Station) int {
	return clampInt(int(math.Round(RawScore(station))), 0, 100)
}

// Estimate computes the expected preparation time in whole minutes,
// never below 1. An efficiency score of 0 leaves the base time
// unadjusted rather than dividing by zero.
func Estimate(item *models.OrderItem, station *models.Station) int {
	minutes := station.AvgPrepMinutes

	if station.EfficiencyScore > 0 {
		minutes = minutes / (float64(station.EfficiencyScore) / 100)
	}

	if station.Capacity > 0 {
		minutes *= 1 + float64(station.CurrentLoad)/float64(station.Capacity)*0.5
	}

	if item.Difficulty > 0 {
		minutes *= 1 + float64(item.Difficulty)/3*0.3
	}

	estimate := int(math.Round(minutes))
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

// RankCandidates filters the stations down to those eligible for the item
// and orders them best-first: highest raw score, then lowest current load,
// then lowest station id for determinism. weights carries optional
// per-station score bonuses from the rule stage.
func RankCandidates(item *models.OrderItem, stations []models.Station, weights map[uint]float64) []Candidate {
	candidates := make([]Candidate, 0, len(stations))
	for i := range stations {
		station := &stations[i]
		if !Eligible(item, station) {
			continue
		}
		raw := RawScore(station) + weights[station.ID]
		candidates = append(candidates, Candidate{
			Station:          station,
			Score:            clampInt(int(math.Round(raw)), 0, 100),
			RawScore:         raw,
			EstimatedMinutes: Estimate(item, station),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.RawScore != b.RawScore {
			return a.RawScore > b.RawScore
		}
		if a.Station.CurrentLoad != b.Station.CurrentLoad {
			return a.Station.CurrentLoad < b.Station.CurrentLoad
		}
		return a.Station.ID < b.Station.ID
	})
	return candidates
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
