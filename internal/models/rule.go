package models

import (
	"encoding/json"

	"github.com/jinzhu/gorm"
)

// RoutingRule is an operator-defined override evaluated ahead of scoring.
// An active rule whose conditions match a work item restricts candidates
// to its preferred stations and adds Weight to their scores. With no
// active rules routing behaves exactly as if the stage did not exist.
type RoutingRule struct {
	gorm.Model
	Name              string
	ConditionsJSON    string      `gorm:"type:text"`
	PreferredStations StringSlice `gorm:"type:text"` // ordered station names
	Weight            int
	Priority          int
	IsActive          bool
	// Transient field (ignored by GORM)
	Conditions []RuleCondition `gorm:"-"`
}

// RuleCondition matches against a work item. Zero-valued fields are
// ignored; all populated fields must hold for the condition to match.
type RuleCondition struct {
	RequiredTag   string `json:"required_tag,omitempty"`
	MinDifficulty int    `json:"min_difficulty,omitempty"`
	MaxDifficulty int    `json:"max_difficulty,omitempty"`
}

// GetConditions returns the deserialized condition set
func (r *RoutingRule) GetConditions() ([]RuleCondition, error) {
	if len(r.Conditions) > 0 {
		return r.Conditions, nil
	}
	var conditions []RuleCondition
	if r.ConditionsJSON == "" {
		return conditions, nil
	}
	if err := json.Unmarshal([]byte(r.ConditionsJSON), &conditions); err != nil {
		return nil, err
	}
	r.Conditions = conditions
	return conditions, nil
}

// SetConditions serializes the condition set for storage
func (r *RoutingRule) SetConditions(conditions []RuleCondition) error {
	data, err := json.Marshal(conditions)
	if err != nil {
		return err
	}
	r.ConditionsJSON = string(data)
	r.Conditions = conditions
	return nil
}

// Matches reports whether the item satisfies every condition of the rule.
// A rule with no conditions matches nothing rather than everything, so an
// empty rule cannot silently capture all traffic.
func (r *RoutingRule) Matches(item *OrderItem) bool {
	conditions, err := r.GetConditions()
	if err != nil || len(conditions) == 0 {
		return false
	}
	for _, c := range conditions {
		if c.RequiredTag != "" && !item.RequiredEquipment.Contains(c.RequiredTag) {
			return false
		}
		if c.MinDifficulty > 0 && item.Difficulty < c.MinDifficulty {
			return false
		}
		if c.MaxDifficulty > 0 && item.Difficulty > c.MaxDifficulty {
			return false
		}
	}
	return true
}
