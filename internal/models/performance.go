package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// StationPerformanceRecord is one station's rollup for one day. Records
// are appended by the reporting pass and read back for trend views; the
// tuner works from raw assignment durations instead.
type StationPerformanceRecord struct {
	gorm.Model
	StationID       uint
	Date            time.Time
	OrdersProcessed int
	AvgTimePerOrder float64
	AccuracyScore   float64
	EfficiencyScore int // snapshot of the station's score that day
}
