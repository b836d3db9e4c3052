package routing

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"brigade/internal/database"
	"brigade/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

var testDBCounter uint64

// testDB opens a private in-memory database with the full schema.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	n := atomic.AddUint64(&testDBCounter, 1)
	db, err := gorm.Open("sqlite3", fmt.Sprintf("file:routingtest%d?mode=memory&cache=shared", n))
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	database.Migrate(db)
	t.Cleanup(func() { db.Close() })
	return db
}

// makeStation persists a station with sane defaults, applying overrides.
func makeStation(t *testing.T, db *gorm.DB, name string, overrides func(*models.Station)) *models.Station {
	t.Helper()
	station := &models.Station{
		Name:            name,
		Type:            string(models.StationTypeGrill),
		Capacity:        5,
		EfficiencyScore: 100,
		AvgPrepMinutes:  10,
		IsActive:        true,
	}
	if overrides != nil {
		overrides(station)
	}
	station.MergeImpliedCapability()
	require.NoError(t, db.Create(station).Error)
	return station
}

// makeOrder persists an order with one item per name.
func makeOrder(t *testing.T, db *gorm.DB, itemNames []string, overrides func(*models.Order)) *models.Order {
	t.Helper()
	order := &models.Order{
		Status:       string(models.OrderStatusReceived),
		TimeReceived: time.Now(),
	}
	for _, name := range itemNames {
		order.Items = append(order.Items, models.OrderItem{Name: name, Quantity: 1})
	}
	if overrides != nil {
		overrides(order)
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func reloadStation(t *testing.T, db *gorm.DB, id uint) *models.Station {
	t.Helper()
	var station models.Station
	require.NoError(t, db.First(&station, id).Error)
	return &station
}
