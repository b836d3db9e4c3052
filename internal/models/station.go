package models

import (
	"github.com/jinzhu/gorm"
)

// StationType represents the kind of preparation station
type StationType string

const (
	// Station types
	StationTypePrep      StationType = "prep"
	StationTypeGrill     StationType = "grill"
	StationTypeSaute     StationType = "saute"
	StationTypeFry       StationType = "fry"
	StationTypeColdPrep  StationType = "cold_prep"
	StationTypePastry    StationType = "pastry"
	StationTypePackaging StationType = "packaging"
	StationTypeExpedite  StationType = "expedite"
)

// impliedCapabilities maps a station type to the capability tag the type
// grants on its own, without any explicit equipment. Evaluated once when a
// station is created or updated and merged into its capability set.
var impliedCapabilities = map[StationType]string{
	StationTypePrep:      "prep",
	StationTypeGrill:     "grill",
	StationTypeSaute:     "saute",
	StationTypeFry:       "fry",
	StationTypeColdPrep:  "cold_prep",
	StationTypePastry:    "pastry",
	StationTypePackaging: "packaging",
	StationTypeExpedite:  "expedite",
}

// Valid reports whether the value is a known station type.
func (t StationType) Valid() bool {
	_, ok := impliedCapabilities[t]
	return ok
}

// ImpliedCapability returns the capability tag inferred from the type.
func (t StationType) ImpliedCapability() string {
	return impliedCapabilities[t]
}

// StationTypes returns all known station types, for validation messages.
func StationTypes() []StationType {
	return []StationType{
		StationTypePrep,
		StationTypeGrill,
		StationTypeSaute,
		StationTypeFry,
		StationTypeColdPrep,
		StationTypePastry,
		StationTypePackaging,
		StationTypeExpedite,
	}
}

// Station represents a physical preparation point with finite concurrent
// capacity and a capability set. CurrentLoad is owned by the routing
// dispatcher; EfficiencyScore and AvgPrepMinutes are owned by the
// performance tuner.
type Station struct {
	gorm.Model
	Name               string
	Type               string
	Capacity           int
	CurrentLoad        int
	EfficiencyScore    int         // 0-100
	AvgPrepMinutes     float64     // minutes
	Equipment          StringSlice `gorm:"type:text"`
	Capabilities       StringSlice `gorm:"type:text"`
	AssignedStaffCount int
	IsActive           bool
}

// LoadPercentage returns current load over capacity as a percentage.
func (s *Station) LoadPercentage() float64 {
	if s.Capacity == 0 {
		return 0
	}
	return float64(s.CurrentLoad) / float64(s.Capacity) * 100
}

// IsAvailable reports whether the station can accept another work item.
func (s *Station) IsAvailable() bool {
	return s.IsActive && s.CurrentLoad < s.Capacity
}

// MergeImpliedCapability adds the capability inferred from the station type
// to the capability set if it is not already present.
func (s *Station) MergeImpliedCapability() {
	tag := StationType(s.Type).ImpliedCapability()
	if tag != "" && !s.Capabilities.Contains(tag) {
		s.Capabilities = append(s.Capabilities, tag)
	}
}
