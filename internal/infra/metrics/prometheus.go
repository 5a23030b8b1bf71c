package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsIndexedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rep0st_posts_indexed_total",
		Help: "Total number of posts indexed, by status",
	}, []string{"status"})

	IndexDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rep0st_index_duration_seconds",
		Help:    "Duration of the post indexing pipeline",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	FramesDecodedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rep0st_frames_decoded_total",
		Help: "Total number of frames decoded, by media type",
	}, []string{"media_type"})

	DecodeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rep0st_decode_failures_total",
		Help: "Total number of media decode failures, by kind",
	}, []string{"kind"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rep0st_active_workers",
		Help: "Number of currently active workers indexing posts",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rep0st_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
