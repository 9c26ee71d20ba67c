package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "labstock_backend_requests_total",
	Help: "Запросы к бэкенду по операциям и результату.",
}, []string{"op", "outcome"})

func countRequest(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	requestsTotal.WithLabelValues(op, outcome).Inc()
}
