package routing

import (
	"fmt"
	"sync"

	"brigade/internal/models"

	"github.com/jinzhu/gorm"
)

// Registry is the single authorized path for station load mutation. Every
// load change re-reads the row and writes it back under a per-station
// mutex, so an eligibility check and its increment are atomic and a
// station's capacity can never be oversold by concurrent routing calls.
type Registry struct {
	db    *gorm.DB
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewRegistry creates a registry over the given database handle.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db:    db,
		locks: make(map[uint]*sync.Mutex),
	}
}

// DB exposes the underlying handle for read-only queries.
func (r *Registry) DB() *gorm.DB {
	return r.db
}

func (r *Registry) lockFor(id uint) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

// ListActive returns all stations with is_active=true.
func (r *Registry) ListActive() ([]models.Station, error) {
	var stations []models.Station
	if err := r.db.Where("is_active = ?", true).Order("id").Find(&stations).Error; err != nil {
		return nil, fmt.Errorf("list active stations: %w", err)
	}
	return stations, nil
}

// List returns every station, active or not.
func (r *Registry) List() ([]models.Station, error) {
	var stations []models.Station
	if err := r.db.Order("id").Find(&stations).Error; err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	return stations, nil
}

// Get returns the station with the given id.
func (r *Registry) Get(id uint) (*models.Station, error) {
	var station models.Station
	if err := r.db.First(&station, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrStationNotFound
		}
		return nil, fmt.Errorf("get station %d: %w", id, err)
	}
	return &station, nil
}

// ReserveSlot atomically claims one unit of capacity on the station.
// The availability check and the increment happen under the station's
// lock against a fresh row read, so two concurrent reservations can never
// both see the last free slot.
func (r *Registry) ReserveSlot(id uint) error {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	station, err := r.Get(id)
	if err != nil {
		return err
	}
	if !station.IsActive || station.CurrentLoad >= station.Capacity {
		return ErrStationFull
	}
	station.CurrentLoad++
	if err := r.db.Model(station).Update("current_load", station.CurrentLoad).Error; err != nil {
		return fmt.Errorf("reserve slot on station %d: %w", id, err)
	}
	return nil
}

// ReleaseSlot returns one unit of capacity to the station. Load never
// drops below zero.
func (r *Registry) ReleaseSlot(id uint) error {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	station, err := r.Get(id)
	if err != nil {
		return err
	}
	if station.CurrentLoad <= 0 {
		return nil
	}
	station.CurrentLoad--
	if err := r.db.Model(station).Update("current_load", station.CurrentLoad).Error; err != nil {
		return fmt.Errorf("release slot on station %d: %w", id, err)
	}
	return nil
}

// UpdateTuning overwrites the tuner-owned fields of a station.
func (r *Registry) UpdateTuning(id uint, efficiencyScore int, avgPrepMinutes float64) error {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	station, err := r.Get(id)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"efficiency_score": efficiencyScore,
		"avg_prep_minutes": avgPrepMinutes,
	}
	if err := r.db.Model(station).Updates(updates).Error; err != nil {
		return fmt.Errorf("update tuning on station %d: %w", id, err)
	}
	return nil
}

// Save persists an operator-driven station create or update, merging the
// capability implied by the station type.
func (r *Registry) Save(station *models.Station) error {
	station.MergeImpliedCapability()
	if err := r.db.Save(station).Error; err != nil {
		return fmt.Errorf("save station %q: %w", station.Name, err)
	}
	return nil
}
