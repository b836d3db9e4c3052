package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the routing metrics and their private registry. All
// recording methods are safe on a nil receiver so callers can run without
// metrics wired.
type Collector struct {
	registry *prometheus.Registry

	itemsRouted        *prometheus.CounterVec
	itemsUnrouted      prometheus.Counter
	migrations         prometheus.Counter
	assignmentDuration prometheus.Histogram
	stationLoad        *prometheus.GaugeVec
	stationEfficiency  *prometheus.GaugeVec
}

// NewCollector creates a collector with all routing metrics registered.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	itemsRouted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_items_routed_total",
			Help: "Work items routed to a station",
		},
		[]string{"station"},
	)

	itemsUnrouted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routing_items_unrouted_total",
			Help: "Work items left unrouted for lack of an eligible station",
		},
	)

	migrations := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routing_rebalance_migrations_total",
			Help: "Assignments migrated by rebalance passes",
		},
	)

	assignmentDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routing_assignment_duration_seconds",
			Help:    "Actual time from started to completed",
			Buckets: prometheus.LinearBuckets(0, 300, 20), // 5-minute buckets
		},
	)

	stationLoad := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "routing_station_load",
			Help: "Current load per station",
		},
		[]string{"station"},
	)

	stationEfficiency := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "routing_station_efficiency_score",
			Help: "Efficiency score per station as set by the tuner",
		},
		[]string{"station"},
	)

	for _, metric := range []prometheus.Collector{
		itemsRouted,
		itemsUnrouted,
		migrations,
		assignmentDuration,
		stationLoad,
		stationEfficiency,
	} {
		registry.MustRegister(metric)
	}

	return &Collector{
		registry:           registry,
		itemsRouted:        itemsRouted,
		itemsUnrouted:      itemsUnrouted,
		migrations:         migrations,
		assignmentDuration: assignmentDuration,
		stationLoad:        stationLoad,
		stationEfficiency:  stationEfficiency,
	}
}

// Registry exposes the private registry for the metrics HTTP handler.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ItemRouted counts one routed work item for the station.
func (c *Collector) ItemRouted(station string) {
	if c == nil {
		return
	}
	c.itemsRouted.WithLabelValues(station).Inc()
}

// ItemUnrouted counts one work item that could not be placed.
func (c *Collector) ItemUnrouted() {
	if c == nil {
		return
	}
	c.itemsUnrouted.Inc()
}

// AssignmentMigrated counts one rebalance migration.
func (c *Collector) AssignmentMigrated() {
	if c == nil {
		return
	}
	c.migrations.Inc()
}

// AssignmentCompleted records the observed preparation duration.
func (c *Collector) AssignmentCompleted(duration time.Duration) {
	if c == nil {
		return
	}
	c.assignmentDuration.Observe(duration.Seconds())
}

// StationLoad publishes a station's current load.
func (c *Collector) StationLoad(station string, load int) {
	if c == nil {
		return
	}
	c.stationLoad.WithLabelValues(station).Set(float64(load))
}

// StationTuned publishes a station's efficiency score after a tuning pass.
func (c *Collector) StationTuned(station string, efficiency int) {
	if c == nil {
		return
	}
	c.stationEfficiency.WithLabelValues(station).Set(float64(efficiency))
}
