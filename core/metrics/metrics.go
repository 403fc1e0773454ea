// Package metrics declares the Prometheus collectors shared by the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Telegram transport metrics
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postbot_updates_total",
			Help: "Telegram updates received",
		},
		[]string{"kind"}, // "message", "callback" or "other"
	)

	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postbot_handler_duration_seconds",
			Help:    "Update handler duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"handler", "status"},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postbot_messages_sent_total",
			Help: "Messages sent to chats",
		},
	)

	MessageDeleteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postbot_message_delete_failures_total",
			Help: "Chat message deletions that failed",
		},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postbot_rate_limited_total",
			Help: "Updates dropped by the rate limiter",
		},
		[]string{"kind"},
	)

	PanicsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postbot_panics_recovered_total",
			Help: "Handler panics recovered",
		},
	)

	SenderDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postbot_sender_dropped_total",
			Help: "Outbound jobs dropped because the queue was full",
		},
	)

	// Business metrics
	ListingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postbot_listings_created_total",
			Help: "Listings published",
		},
		[]string{"category", "tier"},
	)

	ListingsRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postbot_listings_removed_total",
			Help: "Listings removed",
		},
		[]string{"reason"}, // "owner", "expiry" or "purge"
	)

	LedgerDebits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postbot_ledger_debits_total",
			Help: "Wallet debit attempts",
		},
		[]string{"result"}, // "ok" or "insufficient"
	)

	LedgerCredits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postbot_ledger_credits_total",
			Help: "Wallet credits",
		},
		[]string{"source"}, // "admin" or "refund"
	)

	ExpiryPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "postbot_expiry_pending",
			Help: "Listings waiting for their expiry task",
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "postbot_sessions_active",
			Help: "In-memory user sessions",
		},
	)
)
