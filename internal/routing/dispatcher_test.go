package routing

import (
	"sync"
	"testing"
	"time"

	"brigade/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutePrefersBestStation(t *testing.T) {
	db := testDB(t)
	registry := NewRegistry(db)

	a := makeStation(t, db, "Station A", func(s *models.Station) {
		s.Capacity = 5
		s.EfficiencyScore = 100
		s.AvgPrepMinutes = 10
		s.AssignedStaffCount = 2
	})
	makeStation(t, db, "Station B", func(s *models.Station) {
		s.Capacity = 5
		s.CurrentLoad = 4
		s.EfficiencyScore = 80
		s.AvgPrepMinutes = 15
		s.AssignedStaffCount = 1
	})

	order := makeOrder(t, db, []string{"burger"}, nil)

	dispatcher := NewDispatcher(db, registry, nil)
	result, err := dispatcher.Route(order.ID)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	outcome := result.Outcomes[0]
	assert.True(t, outcome.Routed)
	assert.Equal(t, a.ID, outcome.StationID)
	assert.Equal(t, 10, outcome.EstimatedMinutes)
	assert.Equal(t, 1, result.Routed)
	assert.Equal(t, 0, result.Unrouted)

	assert.Equal(t, 1, reloadStation(t, db, a.ID).CurrentLoad)
}

func TestRouteHonorsEquipmentRequirement(t *testing.T) {
	db := testDB(t)
	registry := NewRegistry(db)

	makeStation(t, db, "Station A", nil) // scores higher but lacks the tag
	b := makeStation(t, db, "Station B", func(s *models.Station) {
		s.CurrentLoad = 4
		s.Capacity = 5
		s.EfficiencyScore = 80
		s.AvgPrepMinutes = 15
		s.Equipment = models.StringSlice{"induction-burner"}
	})

	order := makeOrder(t, db, nil, func(o *models.Order) {
		o.Items = []models.OrderItem{{
			Name:              "seared scallops",
			Quantity:          1,
			RequiredEquipment: models.StringSlice{"induction-burner"},
		}}
	})

	dispatcher := NewDispatcher(db, registry, nil)
	result, err := dispatcher.Route(order.ID)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Routed)
	assert.Equal(t, b.ID, result.Outcomes[0].StationID)
}

func TestRouteLeavesInfeasibleItemsUnrouted(t *testing.T) {
	db := testDB(t)
	registry := NewRegistry(db)

	makeStation(t, db, "Grill", nil)

	order := makeOrder(t, db, nil, func(o *models.Order) {
		o.Items = []models.OrderItem{
			{Name: "burger", Quantity: 1},
			{Name: "ice sculpture", Quantity: 1, RequiredEquipment: models.StringSlice{"chainsaw"}},
		}
	})

	dispatcher := NewDispatcher(db, registry, nil)
	result, err := dispatcher.Route(order.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Routed)
	assert.Equal(t, 1, result.Unrouted)

	var unrouted ItemOutcome
	for _, outcome := range result.Outcomes {
		if !outcome.Routed {
			unrouted = outcome
		}
	}
	assert.Equal(t, "ice sculpture", unrouted.ItemName)
	assert.Equal(t, "no eligible station", unrouted.Reason)
}

func TestRouteIsIdempotent(t *testing.T) {
	db := testDB(t)
	registry := NewRegistry(db)

	station := makeStation(t, db, "Grill", nil)
	order := makeOrder(t, db, []string{"burger", "steak"}, nil)

	dispatcher := NewDispatcher(db, registry, nil)
	_, err := dispatcher.Route(order.ID)
	require.NoError(t, err)
	_, err = dispatcher.Route(order.ID)
	require.NoError(t, err)

	// Re-routing replaced the earlier assignments instead of stacking.
	var count int
	db.Model(&models.Assignment{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, reloadStation(t, db, station.ID).CurrentLoad)
}

func TestRouteUnknownOrder(t *testing.T) {
	db := testDB(t)
	dispatcher := NewDispatcher(db, NewRegistry(db), nil)

	_, err := dispatcher.Route(9999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRouteNeverOversellsCapacity(t *testing.T) {
	db := testDB(t)
	registry := NewRegistry(db)

	station := makeStation(t, db, "Grill", func(s *models.Station) {
		s.Capacity = 3
	})

	dispatcher := NewDispatcher(db, registry, nil)

	// Route more concurrent orders than the station has slots.
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		order := makeOrder(t, db, []string{"burger"}, nil)
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			dispatcher.Route(id)
		}(order.ID)
	}
	wg.Wait()

	loaded := reloadStation(t, db, station.ID)
	assert.GreaterOrEqual(t, loaded.CurrentLoad, 0)
	assert.LessOrEqual(t, loaded.CurrentLoad, loaded.Capacity)
}

func TestComputePriority(t *testing.T) {
	now := time.Now()

	base := &models.Order{TimeReceived: now.Add(-5 * time.Minute)}
	base.Items = manyItems(3)
	assert.Equal(t, 5, ComputePriority(base, now))

	// 12 items, not rush, not VIP, age 5 minutes.
	large := &models.Order{TimeReceived: now.Add(-5 * time.Minute)}
	large.Items = manyItems(12)
	assert.Equal(t, 4, ComputePriority(large, now))

	// Rush + VIP aged 40 minutes with 3 items: 5+2+3+1 = 11, clamped to 10.
	urgent := &models.Order{
		Rush:         true,
		VIP:          true,
		TimeReceived: now.Add(-40 * time.Minute),
	}
	urgent.Items = manyItems(3)
	assert.Equal(t, 10, ComputePriority(urgent, now))
}

func TestComputePriorityBounds(t *testing.T) {
	now := time.Now()
	for _, itemCount := range []int{0, 1, 11, 500} {
		for _, age := range []time.Duration{0, time.Hour, 100 * time.Hour} {
			for _, rush := range []bool{false, true} {
				for _, vip := range []bool{false, true} {
					order := &models.Order{
						Rush:         rush,
						VIP:          vip,
						TimeReceived: now.Add(-age),
					}
					order.Items = manyItems(itemCount)
					priority := ComputePriority(order, now)
					assert.GreaterOrEqual(t, priority, 1)
					assert.LessOrEqual(t, priority, 10)
				}
			}
		}
	}
}

func manyItems(n int) []models.OrderItem {
	items := make([]models.OrderItem, n)
	for i := range items {
		items[i] = models.OrderItem{Name: "item", Quantity: 1}
	}
	return items
}
