// Package metrics defines the Prometheus collectors exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aprswatch"

var (
	// LinesReceived counts raw lines delivered by the APRS-IS stream,
	// before parsing.
	LinesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "lines_received_total",
		Help:      "Raw packet lines received from APRS-IS.",
	})

	// ConnectAttempts counts supervisor connection attempts, the first
	// connect included.
	ConnectAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "connect_attempts_total",
		Help:      "Connection attempts to the APRS-IS server.",
	})

	// FrameFailures counts lines rejected at the frame level.
	FrameFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "parser",
		Name:      "frame_failures_total",
		Help:      "Lines that did not match the TNC2 frame format.",
	})

	// PacketsParsed counts successfully parsed packets by type.
	PacketsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "parser",
		Name:      "packets_total",
		Help:      "Parsed packets by packet type.",
	}, []string{"type"})

	// QueueDepth tracks the number of packets waiting for a worker.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "queue_depth",
		Help:      "Packets currently queued for processing.",
	})

	// QueueDropped counts packets evicted by drop-oldest overflow.
	QueueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "queue_dropped_total",
		Help:      "Packets evicted from the queue under overload.",
	})

	// PacketsDuplicate counts packets suppressed by the dedup cache.
	PacketsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "duplicates_total",
		Help:      "Packets dropped because their fingerprint was seen recently.",
	})

	// PacketsStored counts packets successfully persisted.
	PacketsStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "stored_total",
		Help:      "Packets persisted to the store.",
	})

	// StoreFailures counts persistence errors (the packet is still
	// broadcast).
	StoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "store_failures_total",
		Help:      "Errors writing packets to the store.",
	})

	// Subscribers tracks currently connected realtime subscribers.
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "fanout",
		Name:      "subscribers",
		Help:      "Connected realtime subscribers.",
	})

	// BroadcastsSent counts packet messages delivered to subscribers.
	BroadcastsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fanout",
		Name:      "messages_sent_total",
		Help:      "Packet messages delivered to realtime subscribers.",
	})

	// HTTPRequests counts REST API requests by method and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "REST API requests by method and status code.",
	}, []string{"method", "status"})

	// RateLimited counts REST API requests rejected with 429.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "REST API requests rejected by the rate limiter.",
	})
)
