package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rosterhub_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rosterhub_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rosterhub_chat_messages_sent_total",
			Help: "Total chat messages accepted by the send pipeline",
		},
		[]string{"message_type"},
	)

	SendsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rosterhub_chat_sends_rejected_total",
			Help: "Sends rejected before reaching the store",
		},
		[]string{"reason"}, // "permission" or "validation"
	)

	ReactionsToggled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rosterhub_chat_reactions_toggled_total",
			Help: "Total reaction toggles applied",
		},
	)

	ReactionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rosterhub_chat_reaction_conflicts_total",
			Help: "Reaction toggles that hit a concurrent write and retried",
		},
	)

	LiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rosterhub_chat_live_subscriptions",
			Help: "Currently open event-stream subscriptions",
		},
	)

	TypingSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rosterhub_chat_typing_sessions",
			Help: "Currently open typing-presence sessions",
		},
	)

	MediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rosterhub_chat_media_uploads_total",
			Help: "Media uploads by outcome",
		},
		[]string{"outcome"}, // "ok", "rejected", "failed"
	)
)
