package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fanoutPushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retwis_fanout_pushes_total",
		Help: "Total number of post ids pushed to follower timelines",
	})

	publishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "retwis_publish_duration_seconds",
		Help:    "Duration of the full publish path including fan-out",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	fanoutQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "retwis_fanout_queue_depth",
		Help: "Number of fan-out tasks waiting in the queue",
	})
)

func observeFanoutPush() {
	fanoutPushesTotal.Inc()
}

func observePublish(d time.Duration) {
	publishDuration.Observe(d.Seconds())
}
