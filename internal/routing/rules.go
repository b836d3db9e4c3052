package routing

import (
	"log"
	"sort"

	"brigade/internal/models"

	"github.com/jinzhu/gorm"
)

// Maximum influence a rule may exert on a station's score, either way.
const ruleWeightLimit = 25.0

// RuleStage applies operator-defined routing rules ahead of scoring. The
// stage is an extension point: with no active rules it passes stations
// through untouched, which matches the default installation.
type RuleStage struct {
	rules []models.RoutingRule
}

// LoadRuleStage reads the active rules ordered by priority.
func LoadRuleStage(db *gorm.DB) (*RuleStage, error) {
	var rules []models.RoutingRule
	if err := db.Where("is_active = ?", true).Find(&rules).Error; err != nil {
		return nil, err
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	return &RuleStage{rules: rules}, nil
}

// NewRuleStage builds a stage from an explicit rule set, highest priority
// first.
func NewRuleStage(rules []models.RoutingRule) *RuleStage {
	sorted := make([]models.RoutingRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	return &RuleStage{rules: sorted}
}

// Apply evaluates the highest-priority matching rule for the item. When a
// rule names preferred stations, candidates are narrowed to those; if the
// preference list matches no station at all the full set is kept so a
// stale rule cannot strand work items. The returned weights map carries
// the rule's score bonus for the preferred stations.
func (s *RuleStage) Apply(item *models.OrderItem, stations []models.Station) ([]models.Station, map[uint]float64) {
	weights := make(map[uint]float64)
	if s == nil || len(s.rules) == 0 {
		return stations, weights
	}

	for i := range s.rules {
		rule := &s.rules[i]
		if !rule.Matches(item) {
			continue
		}

		weight := float64(rule.Weight)
		if weight > ruleWeightLimit {
			weight = ruleWeightLimit
		}
		if weight < -ruleWeightLimit {
			weight = -ruleWeightLimit
		}

		// A rule with no station preference weights the whole field
		// evenly, which leaves the ranking unchanged but keeps the
		// weight visible to rebalance comparisons.
		if len(rule.PreferredStations) == 0 {
			for i := range stations {
				weights[stations[i].ID] = weight
			}
			return stations, weights
		}

		preferred := make([]models.Station, 0, len(stations))
		for _, station := range stations {
			if rule.PreferredStations.Contains(station.Name) {
				weights[station.ID] = weight
				preferred = append(preferred, station)
			}
		}
		if len(preferred) == 0 {
			log.Printf("Routing rule %q prefers no known station, ignoring", rule.Name)
			return stations, map[uint]float64{}
		}
		return preferred, weights
	}

	return stations, weights
}
