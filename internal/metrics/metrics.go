// Package metrics defines Prometheus metrics for the wallet middleware
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SequenceAllocations counts sequence allocations by result
	SequenceAllocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_sequence_allocations_total",
			Help: "Total number of sequence number allocations",
		},
		[]string{"result"},
	)

	// SequenceResyncs counts local counters resynchronized to the chain value
	SequenceResyncs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_sequence_resyncs_total",
			Help: "Total number of sequence records resynchronized to the chain value",
		},
	)

	// TransactionsBroadcast counts broadcasts by final status
	TransactionsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_transactions_broadcast_total",
			Help: "Total number of transactions broadcast",
		},
		[]string{"status"},
	)

	// Operations counts orchestrator operations by type and result
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_operations_total",
			Help: "Total number of wallet operations",
		},
		[]string{"operation", "result"},
	)

	// OperationDuration tracks orchestrator operation time
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallet_operation_duration_seconds",
			Help:    "Operation processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
