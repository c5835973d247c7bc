// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Total number of dialogue turns processed",
		},
		[]string{"kind", "outcome"},
	)

	ExtractionResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_extraction_results_total",
			Help: "Per-field extraction outcomes after confidence gating",
		},
		[]string{"field", "outcome"},
	)

	RequestsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_requests_persisted_total",
			Help: "Total number of money requests written to storage",
		},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_turn_duration_seconds",
			Help: "Duration of turn processing in seconds",
		},
		[]string{"kind"},
	)
)
