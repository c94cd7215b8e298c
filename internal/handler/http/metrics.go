package httphandler

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contentd_http_requests_total",
		Help: "Requests served, by endpoint.",
	}, []string{"endpoint"})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contentd_upstream_errors_total",
		Help: "Space API passthrough failures, by endpoint.",
	}, []string{"endpoint"})

	snapshotAgeHours = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "contentd_snapshot_age_hours",
		Help: "Age of the current content snapshot in hours; -1 when missing.",
	})
)

func observeSnapshotAge(age float64) {
	if math.IsInf(age, 1) {
		age = -1
	}

	snapshotAgeHours.Set(age)
}
