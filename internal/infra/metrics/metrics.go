package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Inbound updates by event kind.",
		},
		[]string{"kind"},
	)

	stageTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_stage_transitions_total",
			Help: "Conversation stage transitions.",
		},
		[]string{"from", "to"},
	)

	collabFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_collaborator_failures_total",
			Help: "Failed collaborator calls by collaborator name.",
		},
		[]string{"collaborator"},
	)

	extractLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_extraction_latency_ms",
			Help:    "OCR extraction latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"success"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			updatesTotal, stageTransitions, collabFailures, extractLatencyMs,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncUpdate(kind string) {
	updatesTotal.WithLabelValues(norm(kind)).Inc()
}

func IncStageTransition(from, to string) {
	stageTransitions.WithLabelValues(norm(from), norm(to)).Inc()
}

func IncCollabFailure(name string) {
	collabFailures.WithLabelValues(norm(name)).Inc()
}

func ObserveExtraction(latencyMs int, success bool) {
	lbl := "false"
	if success {
		lbl = "true"
	}
	extractLatencyMs.WithLabelValues(lbl).Observe(float64(latencyMs))
}
