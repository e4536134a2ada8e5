package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UpstreamRequests counts calls to external APIs by target and outcome.
var UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sagepilot_upstream_requests_total",
	Help: "Outbound API calls by target (wise, airtable) and outcome (ok, error).",
}, []string{"target", "outcome"})

// FanoutClassFetches counts per-class timeline fetches inside the homework
// fan-out. Failed fetches are swallowed by design, so this counter is the
// only place they stay visible.
var FanoutClassFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sagepilot_fanout_class_fetches_total",
	Help: "Per-class content timeline fetches by outcome (ok, error).",
}, []string{"outcome"})
