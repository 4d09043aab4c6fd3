package planner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ticksTotal counts planner ticks by outcome
	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waypoint_planner_ticks_total",
		Help: "Planner ticks by outcome (emitted, not_ready)",
	}, []string{"outcome"})

	// brakingWindowsTotal counts windows carrying a stop profile
	brakingWindowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waypoint_planner_braking_windows_total",
		Help: "Windows emitted with a braking profile applied",
	})

	// tickDuration tracks compute time per emitted window
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "waypoint_planner_tick_duration_seconds",
		Help:    "Planner tick duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
	})

	// localizedIndex is the last localized path index
	localizedIndex = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "waypoint_planner_localized_index",
		Help: "Index of the waypoint ahead of the vehicle",
	})
)
