package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds all Prometheus metrics for the engagement service
type Metrics struct {
	Reactions        *prometheus.CounterVec   // reactions_total{type, outcome}
	ReactionDuration *prometheus.HistogramVec // reaction_duration_seconds{type}
	RankingQueries   *prometheus.CounterVec   // ranking_queries_total{algorithm, status}
	RankingDuration  *prometheus.HistogramVec // ranking_query_duration_seconds{algorithm}
	CacheRequests    *prometheus.CounterVec   // cache_requests_total{cache, outcome}
}
