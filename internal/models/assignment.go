package models

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
)

// AssignmentStatus represents the possible states of an assignment
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusStarted   AssignmentStatus = "started"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

// statusOrder gives each status its position in the one-directional
// pending -> assigned -> started -> completed progression.
var statusOrder = map[AssignmentStatus]int{
	AssignmentStatusPending:   0,
	AssignmentStatusAssigned:  1,
	AssignmentStatusStarted:   2,
	AssignmentStatusCompleted: 3,
}

// ParseAssignmentStatus validates a raw status value.
func ParseAssignmentStatus(raw string) (AssignmentStatus, error) {
	status := AssignmentStatus(raw)
	if _, ok := statusOrder[status]; !ok {
		return "", fmt.Errorf("unknown assignment status %q", raw)
	}
	return status, nil
}

// CanTransitionTo reports whether moving to next is a forward step.
// Transitions never skip backward; re-applying the current status is
// allowed so repeated calls stay idempotent.
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	if !ok {
		return false
	}
	return to >= from
}

// Assignment binds one work item to a station, carrying the score and
// estimate snapshotted at routing time.
type Assignment struct {
	gorm.Model
	OrderID          uint
	OrderItemID      uint
	StationID        uint
	Score            int // 0-100, snapshot at assignment time
	EstimatedMinutes int // >= 1
	Priority         int // 1-10
	Status           string
	AssignedAt       time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
}
