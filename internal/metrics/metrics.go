// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsStarted counts run executions that entered the running state.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rill",
		Name:      "runs_started_total",
		Help:      "Number of runs that started executing.",
	})

	// RunsFinished counts finished runs by terminal status.
	RunsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rill",
		Name:      "runs_finished_total",
		Help:      "Number of runs that reached a terminal status.",
	}, []string{"status"})

	// StepsExecuted counts committed steps across all runs.
	StepsExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rill",
		Name:      "steps_executed_total",
		Help:      "Number of steps committed to run logs.",
	})

	// RunsEvicted counts runs evicted from the in-memory table.
	RunsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rill",
		Name:      "runs_evicted_total",
		Help:      "Number of terminal runs evicted from the run table.",
	})

	// ActiveRuns tracks runs currently in the running state.
	ActiveRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rill",
		Name:      "active_runs",
		Help:      "Number of runs currently executing.",
	})
)
