package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frameflow_events_total",
		Help: "Total number of video-process events handled, by outcome",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "frameflow_stage_duration_seconds",
		Help:    "Duration of each event processing stage",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	PreviewsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frameflow_previews_generated_total",
		Help: "Total number of preview images uploaded across all events",
	})

	FramesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frameflow_frames_decoded_total",
		Help: "Total number of video frames decoded across all events",
	})

	EventsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "frameflow_events_in_flight",
		Help: "Number of events currently being processed",
	})

	ExtractionsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "frameflow_extractions_running",
		Help: "Number of extractions currently running on the CPU pool",
	})
)
