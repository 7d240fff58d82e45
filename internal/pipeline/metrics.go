package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marker_frames_processed_total",
		Help: "Frames run through the pipeline by tracker mode",
	}, []string{"mode"})

	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "marker_frame_duration_seconds",
		Help:    "Time to detect, update state and render one frame",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~500ms
	})

	detectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marker_detections_total",
		Help: "Decoded markers by dictionary",
	}, []string{"dictionary"})

	sightingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marker_sightings_total",
		Help: "First sightings recorded, split by target status",
	}, []string{"target"})

	pipelineErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marker_pipeline_errors_total",
		Help: "Pipeline errors by stage",
	}, []string{"stage"})
)
