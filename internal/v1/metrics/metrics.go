// Package metrics declares the Prometheus metrics for the session substrate.
//
// Naming convention follows the teacher's: namespace_subsystem_name.
//   - namespace: roomcore (application-level grouping)
//   - subsystem: websocket, room, voice, matchmaking, rate_limit, circuit_breaker, sessionmap (feature-level grouping)
//   - name: the specific metric
//
// Metric Types:
//   - Gauge: current state (connections, rooms, participants)
//   - Counter: cumulative events (broadcasts sent, matches formed)
//   - Histogram: latency distributions (broadcast fan-out time)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveWebSocketConnections tracks live connections (Gauge).
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "roomcore",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	// ActiveRooms tracks the current number of active rooms (Gauge).
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "roomcore",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of active rooms",
	})

	// RoomParticipants tracks the participant count per room (GaugeVec).
	RoomParticipants = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "roomcore",
		Subsystem: "room",
		Name:      "participants_count",
		Help:      "Number of participants in each room",
	}, []string{"room_id"})

	// BroadcastMessages counts fan-out deliveries attempted, labeled by
	// message type and outcome (CounterVec).
	BroadcastMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomcore",
		Subsystem: "websocket",
		Name:      "broadcast_messages_total",
		Help:      "Total broadcast deliveries attempted",
	}, []string{"type", "outcome"})

	// BroadcastFanoutDuration tracks time spent delivering one broadcast to
	// its full recipient snapshot (HistogramVec).
	BroadcastFanoutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "roomcore",
		Subsystem: "websocket",
		Name:      "broadcast_fanout_seconds",
		Help:      "Time spent fanning a broadcast out to its recipient snapshot",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5},
	}, []string{"type"})

	// VoiceFramesRelayed counts voice frames fanned out to enrollees.
	VoiceFramesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomcore",
		Subsystem: "voice",
		Name:      "frames_relayed_total",
		Help:      "Total voice frames relayed to enrollees",
	}, []string{"outcome"})

	// VoiceEnrollees tracks current voice-channel enrollment per room.
	VoiceEnrollees = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "roomcore",
		Subsystem: "voice",
		Name:      "enrollees_count",
		Help:      "Number of players currently enrolled in a room's voice channel",
	}, []string{"room_id"})

	// MatchmakingCohorts counts cohorts formed, labeled by game id.
	MatchmakingCohorts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomcore",
		Subsystem: "matchmaking",
		Name:      "cohorts_formed_total",
		Help:      "Total matchmaking cohorts formed",
	}, []string{"game_id"})

	// MatchmakingQueueDepth tracks the current FIFO length per game id.
	MatchmakingQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "roomcore",
		Subsystem: "matchmaking",
		Name:      "queue_depth",
		Help:      "Current number of waiting players per game id",
	}, []string{"game_id"})

	// RateLimitExceeded tracks requests that exceeded a configured rate limit.
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomcore",
		Subsystem: "rate_limit",
		Name:      "exceeded_total",
		Help:      "Total number of requests that exceeded the rate limit",
	}, []string{"endpoint", "reason"})

	// RateLimitRequests tracks requests the rate limiter allowed through;
	// rejected requests are counted by RateLimitExceeded instead.
	RateLimitRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomcore",
		Subsystem: "rate_limit",
		Name:      "requests_total",
		Help:      "Total number of requests allowed through by the rate limiter",
	}, []string{"endpoint"})

	// CircuitBreakerState tracks the sessionmap's Redis circuit breaker.
	// 0: Closed (Healthy), 1: Open (Failure), 2: Half-Open (Recovering)
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "roomcore",
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Current state of a circuit breaker (0: Closed, 1: Open, 2: Half-Open)",
	}, []string{"name"})

	// SessionMapOperations counts calls made against the optional Redis
	// session map (CounterVec).
	SessionMapOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomcore",
		Subsystem: "sessionmap",
		Name:      "operations_total",
		Help:      "Total operations against the optional Redis session map",
	}, []string{"operation", "status"})

	// CircuitBreakerFailures counts calls rejected while a circuit breaker
	// is open, labeled by breaker name.
	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomcore",
		Subsystem: "circuit_breaker",
		Name:      "rejected_total",
		Help:      "Total calls rejected because a circuit breaker was open",
	}, []string{"name"})
)

// IncConnection increments the active connection gauge.
func IncConnection() {
	ActiveWebSocketConnections.Inc()
}

// DecConnection decrements the active connection gauge.
func DecConnection() {
	ActiveWebSocketConnections.Dec()
}
