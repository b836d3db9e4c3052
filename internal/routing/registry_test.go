package routing

import (
	"sync"
	"testing"

	"brigade/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetNotFound(t *testing.T) {
	db := testDB(t)
	registry := NewRegistry(db)

	_, err := registry.Get(404)
	assert.ErrorIs(t, err, ErrStationNotFound)
}

func TestRegistryListActiveFiltersInactive(t *testing.T) {
	db := testDB(t)
	registry := NewRegistry(db)

	makeStation(t, db, "Open", nil)
	makeStation(t, db, "Closed", func(s *models.Station) { s.IsActive = false })

	active, err := registry.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Open", active[0].Name)
}

func TestReserveSlotStopsAtCapacity(t *testing.T) {
	db := testDB(t)
	registry := NewRegistry(db)
	station := makeStation(t, db, "Grill", func(s *models.Station) { s.Capacity = 2 })

	require.NoError(t, registry.ReserveSlot(station.ID))
	require.NoError(t, registry.ReserveSlot(station.ID))
	assert.ErrorIs(t, registry.ReserveSlot(station.ID), ErrStationFull)

	assert.Equal(t, 2, reloadStation(t, db, station.ID).CurrentLoad)
}

func TestReserveSlotRejectsInactiveStation(t *testing.T) {
	db := testDB(t)
	registry := NewRegistry(db)
	station := makeStation(t, db, "Closed", func(s *models.Station) { s.IsActive = false })

	assert.ErrorIs(t, registry.ReserveSlot(station.ID), ErrStationFull)
}

func TestReleaseSlotNeverGoesNegative(t *testing.T) {
	db := testDB(t)
	registry := NewRegistry(db)
	station := makeStation(t, db, "Grill", nil)

	require.NoError(t, registry.ReleaseSlot(station.ID))
	assert.Equal(t, 0, reloadStation(t, db, station.ID).CurrentLoad)
}

func TestReserveSlotIsAtomicUnderConcurrency(t *testing.T) {
	db := testDB(t)
	registry := NewRegistry(db)
	station := makeStation(t, db, "Grill", func(s *models.Station) { s.Capacity = 5 })

	var wg sync.WaitGroup
	reserved := make(chan struct{}, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := registry.ReserveSlot(station.ID); err == nil {
				reserved <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(reserved)

	succeeded := len(reserved)
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 5, reloadStation(t, db, station.ID).CurrentLoad)
}
