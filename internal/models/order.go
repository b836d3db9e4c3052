package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// Order represents a routable kitchen order as supplied by the order
// capture collaborator.
type Order struct {
	gorm.Model
	Items        []OrderItem `gorm:"foreignkey:OrderID"`
	Status       string
	Rush         bool
	VIP          bool
	TimeReceived time.Time
}

// OrderItem represents a single work item within an order. Each item is
// routed to exactly one station.
type OrderItem struct {
	gorm.Model
	OrderID           uint
	Name              string
	Quantity          int
	Difficulty        int // 1-3 recipe hint, 0 when absent
	RequiredEquipment StringSlice `gorm:"type:text"`
	Notes             string
}

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "received"
	OrderStatusRouted    OrderStatus = "routed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// AgeAt returns how long the order has been waiting at the given instant.
func (o *Order) AgeAt(now time.Time) time.Duration {
	return now.Sub(o.TimeReceived)
}
