package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	enrichmentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ecopulse_enrichment_calls_total",
		Help: "Enrichment operations by kind and outcome.",
	}, []string{"kind", "outcome"})

	costTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecopulse_llm_cost_total",
		Help: "Accumulated estimated model cost in the display currency.",
	})

	publishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ecopulse_publish_reports_total",
		Help: "Published report outcomes.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(enrichmentTotal, costTotal, publishTotal)
}

func observeEnrichment(kind, outcome string) {
	enrichmentTotal.WithLabelValues(kind, outcome).Inc()
}

func observeCost(amount float64) {
	if amount > 0 {
		costTotal.Add(amount)
	}
}

func observePublish(outcome string) {
	publishTotal.WithLabelValues(outcome).Inc()
}
