package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hris_sync_runs_total",
		Help: "Sync runs by final status.",
	}, []string{"mode", "status"})

	syncRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hris_sync_run_duration_seconds",
		Help:    "Wall time of one sync run.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	syncRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hris_sync_records_total",
		Help: "Processed directory records by outcome.",
	}, []string{"outcome"})

	syncActiveGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hris_sync_run_active",
		Help: "1 while a sync run is in progress.",
	})

	conflictsPendingResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hris_conflicts_resolved_total",
		Help: "Conflict resolutions by choice and actor kind.",
	}, []string{"resolution", "auto"})
)
