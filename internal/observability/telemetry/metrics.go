package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Orders
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voiceorder_orders_created_total",
		Help: "Orders created by the order store",
	})

	OrderSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceorder_order_submissions_total",
		Help: "Order submissions by outcome",
	}, []string{"outcome"})

	OrderPersistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voiceorder_order_persist_failures_total",
		Help: "Failed writes of the order snapshot",
	})

	OrderETAMinutes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voiceorder_order_eta_minutes",
		Help:    "ETA assigned to new orders",
		Buckets: []float64{10, 15, 20, 25, 30, 40, 50, 60},
	})

	// Dialogue
	DialogueTurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceorder_dialogue_turns_total",
		Help: "Assistant turns processed",
	}, []string{"channel", "outcome"})

	DirectiveOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceorder_directive_outcomes_total",
		Help: "FUNCTION_CALL extraction results",
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voiceorder_active_sessions",
		Help: "Dialogue sessions held in memory",
	})

	TurnLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voiceorder_turn_latency_seconds",
		Help:    "End to end turn latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})

	CompletionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voiceorder_completion_latency_seconds",
		Help:    "Latency of the completion call",
		Buckets: prometheus.DefBuckets,
	})

	// Outbound
	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceorder_backend_requests_total",
		Help: "Requests to the order backend by operation and outcome",
	}, []string{"operation", "outcome"})

	SpeechRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceorder_speech_requests_total",
		Help: "Speech provider calls",
	}, []string{"kind", "outcome"})

	// gRPC
	GRPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceorder_grpc_requests_total",
		Help: "gRPC requests by method and status code",
	}, []string{"method", "status"})

	GRPCRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voiceorder_grpc_request_duration_seconds",
		Help:    "gRPC request durations by method",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)
