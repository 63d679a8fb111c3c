package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntakesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_intakes_created_total",
		Help: "Total number of stock intakes created",
	})

	IntakesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_intakes_completed_total",
		Help: "Total number of stock intakes that reached completed status",
	})

	SalesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_created_total",
		Help: "Total number of sales created",
	})

	SalesRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_rejected_total",
		Help: "Total number of sales rejected",
	}, []string{"reason"})

	PaymentsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Total number of payments recorded",
	})

	TransfersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_transfers_total",
		Help: "Total number of warehouse transfers",
	})

	TransfersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_transfers_failed_total",
		Help: "Total number of failed warehouse transfers",
	}, []string{"reason"})

	StockMutationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_mutation_latency_seconds",
		Help:    "Latency of transactional stock mutations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of cache hits by key",
	}, []string{"key"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
